package workers

import (
	"context"
	"log"
	"time"

	"cartel-index-system/services"

	"github.com/go-co-op/gocron/v2"
)

// StartPipelineScheduler wires the periodic triggers. Every job just calls
// the same idempotent entry point the HTTP triggers call, so an in-process
// tick overlapping an external trigger is harmless.
func StartPipelineScheduler(indexer *IndexerWorker, engine *services.QuestEngine, agents *services.AgentService, fraud *services.FraudService) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
			defer cancel()
			if _, err := indexer.RunOnce(ctx); err != nil {
				log.Printf("[Scheduler] Index run failed: %v", err)
				return
			}
			if _, err := engine.ProcessPending(ctx, 200); err != nil {
				log.Printf("[Scheduler] Quest engine run failed: %v", err)
			}
		}),
	)

	_, _ = sched.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			summary, err := agents.RunOnce(ctx, "", 25)
			if err != nil {
				log.Printf("[Scheduler] Agent run failed: %v", err)
				return
			}
			if summary.Users > 0 {
				log.Printf("🤖 [Scheduler] Agent run: %d user(s), %d submitted, %d no-target, %d failed",
					summary.Users, summary.Submitted, summary.NoTarget, summary.Failed)
			}
		}),
	)

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			flagged, err := fraud.ScanClaims(time.Hour, 10)
			if err != nil {
				log.Printf("[Scheduler] Fraud scan failed: %v", err)
				return
			}
			if flagged > 0 {
				log.Printf("🚩 [Scheduler] Fraud scan flagged %d actor(s)", flagged)
			}
		}),
	)
}
