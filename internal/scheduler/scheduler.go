package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/pdhleague/pdh-league/internal/store"
)

// staleLobbyAge is how long an empty waiting lobby survives before the
// cleanup job removes it.
const staleLobbyAge = 6 * time.Hour

// Start runs the periodic maintenance jobs: closing contests whose
// window has passed and pruning abandoned empty lobbies.
func Start(contests *store.ContestStore, lobbies *store.LobbyStore) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if n, err := contests.CloseExpired(ctx, time.Now().UTC()); err != nil {
				log.Printf("[scheduler] failed to close expired contests: %v", err)
			} else if n > 0 {
				log.Printf("[scheduler] closed %d expired contests", n)
			}

			cutoff := time.Now().UTC().Add(-staleLobbyAge)
			if n, err := lobbies.DeleteStaleEmptyLobbies(ctx, cutoff); err != nil {
				log.Printf("[scheduler] failed to prune stale lobbies: %v", err)
			} else if n > 0 {
				log.Printf("[scheduler] pruned %d stale lobbies", n)
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}
