package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// SessionHousekeeper is the part of the session registry cron drives
type SessionHousekeeper interface {
	Purge(ctx context.Context) (int64, error)
	Sweep(now time.Time) int
}

// TokenPurger deletes expired refresh tokens of the local identity provider
type TokenPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// CronSchedules are six-field cron specs (with seconds)
type CronSchedules struct {
	Purge string
	Sweep string
}

// CronService runs session housekeeping on a schedule
type CronService struct {
	cron     *cron.Cron
	sessions SessionHousekeeper
	tokens   TokenPurger
	log      logrus.FieldLogger
}

// NewCronService registers the purge and sweep jobs. tokens may be nil.
func NewCronService(schedules CronSchedules, sessions SessionHousekeeper, tokens TokenPurger, log logrus.FieldLogger) (*CronService, error) {
	s := &CronService{
		cron:     cron.New(cron.WithSeconds(), cron.WithLogger(cron.PrintfLogger(log))),
		sessions: sessions,
		tokens:   tokens,
		log:      log,
	}

	if _, err := s.cron.AddFunc(schedules.Purge, s.purge); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc(schedules.Sweep, s.sweep); err != nil {
		return nil, err
	}
	return s, nil
}

// Start runs the scheduler in the background
func (s *CronService) Start() {
	s.cron.Start()
	s.log.Info("⏰ Cron service started")
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("🛑 Cron service stopped")
}

func (s *CronService) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := s.sessions.Purge(ctx); err != nil {
		s.log.WithError(err).Error("❌ Session purge failed")
	}
	if s.tokens == nil {
		return
	}
	n, err := s.tokens.DeleteExpired(ctx, time.Now())
	if err != nil {
		s.log.WithError(err).Error("❌ Refresh token purge failed")
		return
	}
	if n > 0 {
		s.log.WithField("count", n).Info("🧹 Purged expired refresh tokens")
	}
}

func (s *CronService) sweep() {
	if n := s.sessions.Sweep(time.Now()); n > 0 {
		s.log.WithField("count", n).Debug("Swept idle resources")
	}
}
