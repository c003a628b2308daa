package scheduler

import (
	"context"
	"testing"
	"time"

	"RegulatoryScanner/internal/logging"
)

func TestNewCronSchedulerRejectsBadSpec(t *testing.T) {
	t.Parallel()

	if _, err := NewCronScheduler("every morning", time.UTC, logging.Discard()); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNextHonoursLocation(t *testing.T) {
	t.Parallel()

	shanghai, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	s, err := NewCronScheduler("0 6 * * *", shanghai, logging.Discard())
	if err != nil {
		t.Fatalf("NewCronScheduler: %v", err)
	}

	next := s.Next(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	want := time.Date(2026, 1, 1, 22, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next = %s, want %s", next.UTC(), want)
	}
}

func TestStartStop(t *testing.T) {
	t.Parallel()

	s, err := NewCronScheduler("@every 1h", time.UTC, logging.Discard())
	if err != nil {
		t.Fatalf("NewCronScheduler: %v", err)
	}

	ctx := context.Background()
	if err := s.Start(ctx, func(time.Time) {}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(ctx, func(time.Time) {}); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}
