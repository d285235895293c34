package alert

import (
	"context"
	"log"

	"github.com/clearops/tagwarden/internal/auth"
	"github.com/clearops/tagwarden/internal/config"
	"github.com/clearops/tagwarden/internal/domain"
	"github.com/robfig/cron/v3"
)

// Scheduler triggers frequency-filtered alert runs on cron schedules.
// It acquires its own tokens; there is no caller token in cron context.
type Scheduler struct {
	cron   *cron.Cron
	runner *Runner
	tokens auth.TokenSource
	logger *log.Logger
}

// NewScheduler wires the daily/weekly/monthly schedules. A nil logger
// falls back to the default logger.
func NewScheduler(cfg config.ScheduleConfig, runner *Runner, tokens auth.TokenSource, logger *log.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = log.Default()
	}

	s := &Scheduler{
		cron:   cron.New(),
		runner: runner,
		tokens: tokens,
		logger: logger,
	}

	entries := []struct {
		spec      string
		frequency domain.AlertFrequency
	}{
		{cfg.DailySpec, domain.AlertDaily},
		{cfg.WeeklySpec, domain.AlertWeekly},
		{cfg.MonthlySpec, domain.AlertMonthly},
	}
	for _, e := range entries {
		frequency := e.frequency
		if _, err := s.cron.AddFunc(e.spec, func() { s.run(frequency) }); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Start begins the schedules in a background goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels the schedules and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) run(frequency domain.AlertFrequency) {
	ctx := context.Background()
	s.logger.Printf("running %s alert checks", frequency)

	token, err := s.tokens.Token(ctx)
	if err != nil {
		s.logger.Printf("%s alert checks skipped: %v", frequency, err)
		return
	}

	outcomes, err := s.runner.RunEnabled(ctx, token, frequency)
	if err != nil {
		s.logger.Printf("%s alert checks failed: %v", frequency, err)
		return
	}

	for _, o := range outcomes {
		if o.Error != "" {
			s.logger.Printf("alert %q failed: %s", o.AlertName, o.Error)
			continue
		}
		s.logger.Printf("alert %q: %d violations, email sent: %t", o.AlertName, o.ViolationsFound, o.EmailSent)
	}
}
