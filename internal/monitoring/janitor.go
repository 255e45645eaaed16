package monitoring

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/inkwell/inkwell-be/internal/services"
)

// Janitor periodically purges expired sessions on a cron schedule.
type Janitor struct {
	sessionSvc services.SessionServiceProvider
	eventSvc   services.EventServiceProvider
	schedule   cron.Schedule
	nextRun    time.Time
	ticker     *time.Ticker
	done       chan bool
}

// NewJanitor creates a janitor from a standard cron expression.
func NewJanitor(sessionSvc services.SessionServiceProvider, eventSvc services.EventServiceProvider, spec string) (*Janitor, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", spec, err)
	}
	return &Janitor{
		sessionSvc: sessionSvc,
		eventSvc:   eventSvc,
		schedule:   schedule,
		nextRun:    schedule.Next(time.Now()),
		done:       make(chan bool),
	}, nil
}

// Run starts the janitor's ticking loop.
func (j *Janitor) Run() {
	log.Info().Time("next_run", j.nextRun).Msg("Starting session janitor")
	j.ticker = time.NewTicker(1 * time.Minute)
	defer j.ticker.Stop()

	for {
		select {
		case <-j.done:
			log.Info().Msg("Stopping session janitor")
			return
		case <-j.ticker.C:
			if time.Now().After(j.nextRun) {
				j.sweep()
				j.nextRun = j.schedule.Next(time.Now())
			}
		}
	}
}

// Stop halts the janitor.
func (j *Janitor) Stop() {
	j.done <- true
}

func (j *Janitor) sweep() {
	removed, err := j.sessionSvc.DeleteExpired()
	if err != nil {
		log.Error().Err(err).Msg("Janitor: failed to purge expired sessions")
		return
	}
	if removed > 0 {
		log.Info().Int64("removed", removed).Msg("Janitor: purged expired sessions")
		j.eventSvc.Record("session.purge", "info",
			fmt.Sprintf("Purged %d expired sessions.", removed), nil)
	}
}
