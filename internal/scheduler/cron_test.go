package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestSchedulerRunsJobsOnStart(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	warmed := make(chan struct{}, 1)
	refreshed := make(chan struct{}, 1)

	s := NewScheduler(
		func(ctx context.Context) error {
			refreshed <- struct{}{}
			return errors.New("listing down")
		},
		func(ctx context.Context) error {
			warmed <- struct{}{}
			return nil
		},
		"0 3 * * *",
		time.Hour,
		logger,
	)

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	for name, ch := range map[string]chan struct{}{"warm": warmed, "refresh": refreshed} {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("Expected initial %s run", name)
		}
	}
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	noop := func(context.Context) error { return nil }
	s := NewScheduler(noop, noop, "not a schedule", 0, logger)
	if err := s.Start(); err == nil {
		t.Error("Expected error for invalid schedule")
	}
}
