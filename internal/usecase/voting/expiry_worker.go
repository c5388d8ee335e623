package voting

import (
	"context"
	"log"
	"time"
)

// ExpiryWorker drives deadline resolution for voting rounds. It polls for due
// rounds on a fixed interval; resolution itself is idempotent, so overlapping
// runs or a vote landing at the same instant cannot double-resolve a round.
type ExpiryWorker struct {
	voting   *VotingUseCase
	interval time.Duration
}

func NewExpiryWorker(voting *VotingUseCase, interval time.Duration) *ExpiryWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &ExpiryWorker{voting: voting, interval: interval}
}

// Start blocks until the context is cancelled.
func (w *ExpiryWorker) Start(ctx context.Context) {
	log.Printf("expiry-worker: starting (interval=%s)", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("expiry-worker: stopping (context cancelled)")
			return
		case <-ticker.C:
			acted, err := w.voting.ExpireDue(ctx)
			if err != nil {
				log.Printf("expiry-worker: scan failed: %v", err)
				continue
			}
			if acted > 0 {
				log.Printf("expiry-worker: handled %d due round(s)", acted)
			}
		}
	}
}
