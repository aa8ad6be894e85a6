package workers

import (
	"context"
	"log"
	"time"

	"rps-arena/services"
)

const (
	// PublicPollInterval applies while no session is attached; the session
	// interval is longer because the event subscription carries most updates.
	PublicPollInterval  = 20 * time.Second
	SessionPollInterval = 30 * time.Second

	RelayHealthInterval = 60 * time.Second
)

// PollRounds keeps the tracker converging with chain state even when the
// event subscription is down or misses logs. Errors are logged and retried on
// the next tick; they never stop the loop.
func PollRounds(ctx context.Context, tracker *services.Tracker) {
	log.Println("Starting round polling...")

	ticker := time.NewTicker(PublicPollInterval)
	defer ticker.Stop()

	interval := PublicPollInterval
	for {
		select {
		case <-ctx.Done():
			log.Println("Round polling stopped.")
			return
		case <-ticker.C:
			var err error
			if tracker.SessionAddress() != "" {
				err = tracker.RefreshSession(ctx)
			} else {
				err = tracker.Bootstrap(ctx)
			}
			if err != nil {
				log.Printf("❌ Error polling rounds: %v", err)
			}

			// Re-tune the cadence when the session state flipped.
			want := PublicPollInterval
			if tracker.SessionAddress() != "" {
				want = SessionPollInterval
			}
			if want != interval {
				interval = want
				ticker.Reset(interval)
				log.Printf("🔁 Round poll interval now %s", interval)
			}
		}
	}
}

// MonitorRelay pings the bot relay's health endpoint so outages show up in
// the logs before a reveal handoff fails.
func MonitorRelay(ctx context.Context, relay *services.RelayClient) {
	if relay == nil {
		return
	}
	log.Println("Starting relay health monitoring...")

	ticker := time.NewTicker(RelayHealthInterval)
	defer ticker.Stop()

	healthy := true
	for {
		select {
		case <-ctx.Done():
			log.Println("Relay health monitoring stopped.")
			return
		case <-ticker.C:
			err := relay.Health(ctx)
			if err != nil && healthy {
				healthy = false
				log.Printf("❌ Relay went unhealthy: %v", err)
			} else if err == nil && !healthy {
				healthy = true
				log.Println("✅ Relay healthy again")
			}
		}
	}
}
