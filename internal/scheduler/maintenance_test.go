package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestNewMaintenanceParsesRule(t *testing.T) {
	t.Parallel()
	task := func(ctx context.Context) {}

	if _, err := NewMaintenance(zap.NewNop(), "FREQ=DAILY;BYHOUR=3;BYMINUTE=0;BYSECOND=0", task); err != nil {
		t.Errorf("valid rule rejected: %v", err)
	}
	if _, err := NewMaintenance(zap.NewNop(), "RRULE:FREQ=DAILY", task); err != nil {
		t.Errorf("rule with RRULE: prefix rejected: %v", err)
	}
	if _, err := NewMaintenance(zap.NewNop(), "FREQ=WHENEVER", task); err == nil {
		t.Error("garbage rule accepted")
	}
}

func TestMaintenanceBootCheck(t *testing.T) {
	t.Parallel()
	var runs atomic.Int32
	m, err := NewMaintenance(zap.NewNop(), "FREQ=DAILY;BYHOUR=3", func(ctx context.Context) {
		runs.Add(1)
	})
	if err != nil {
		t.Fatalf("NewMaintenance returned error: %v", err)
	}
	m.bootDelay = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)

	deadline := time.After(2 * time.Second)
	for runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("boot check never ran")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
