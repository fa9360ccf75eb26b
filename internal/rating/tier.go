package rating

// Tier is a display band for a rating value.
type Tier struct {
	Name string `json:"name"`
	Min  int    `json:"min"`
	Max  int    `json:"max"`
}

var tiers = []Tier{
	{Name: "Bronze", Min: 0, Max: 799},
	{Name: "Silver", Min: 800, Max: 999},
	{Name: "Gold", Min: 1000, Max: 1199},
	{Name: "Platinum", Min: 1200, Max: 1299},
	{Name: "Diamond", Min: 1300, Max: 1399},
	{Name: "Mythic", Min: 1400, Max: 99999},
}

func TierFor(rating int) Tier {
	for _, t := range tiers {
		if rating >= t.Min && rating <= t.Max {
			return t
		}
	}
	return tiers[0]
}
