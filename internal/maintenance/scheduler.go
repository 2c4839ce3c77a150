package maintenance

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper removes index entries whose backing Redis key has aged out.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

type Scheduler struct {
	documents   Sweeper
	comparisons Sweeper
}

func NewScheduler(documents, comparisons Sweeper) *Scheduler {
	return &Scheduler{documents: documents, comparisons: comparisons}
}

// Start initializes cron tasks
func (s *Scheduler) Start() {
	c := cron.New(cron.WithSeconds())

	//  (12:00 AM)
	_, err := c.AddFunc("0 0 0 * * *", func() {
		s.runNightlySweep()
	})

	if err != nil {
		log.Printf("Failed to create cron job: %v", err)
		return
	}

	log.Println("Cron scheduler started (sweeping expired entries nightly at 12:00AM)")
	c.Start()
}

func (s *Scheduler) runNightlySweep() {
	log.Println("Nightly sweep started (intake documents + comparison results)...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	docs, err := s.documents.SweepExpired(ctx)
	if err != nil {
		log.Printf("Document sweep failed: %v", err)
	} else {
		log.Printf("Document sweep removed %d dangling entries", docs)
	}

	cmps, err := s.comparisons.SweepExpired(ctx)
	if err != nil {
		log.Printf("Comparison sweep failed: %v", err)
	} else {
		log.Printf("Comparison sweep removed %d dangling entries", cmps)
	}

	log.Println("Nightly sweep completed at:", time.Now().Format(time.RFC1123))
}
