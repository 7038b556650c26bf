package sched

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/harmonia-labs/lessonbook/internal/app"
)

// Sweeper periodically expires quotes whose deadline has passed, through
// the same transition engine as every other status change. The workflow
// core stays scheduler-free; this adapter owns the timing.
type Sweeper struct {
	cron    *cron.Cron
	quotes  *app.QuoteService
	log     *logrus.Logger
	timeout time.Duration
}

// New creates a sweeper that runs on the given cron spec.
func New(spec string, quotes *app.QuoteService, log *logrus.Logger) (*Sweeper, error) {
	s := &Sweeper{
		cron:    cron.New(),
		quotes:  quotes,
		log:     log,
		timeout: 30 * time.Second,
	}

	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins the schedule in its own goroutine.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	expired, err := s.quotes.ExpireOverdue(ctx)
	if err != nil {
		s.log.WithError(err).Error("quote expiry sweep failed")
		return
	}
	if expired > 0 {
		s.log.WithField("expired", expired).Info("expired overdue quotes")
	}
}
