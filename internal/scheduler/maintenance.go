package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"
)

// Maintenance runs a recurring background task on an RFC 5545 schedule,
// plus once shortly after process start to catch drift during downtime.
type Maintenance struct {
	logger    *zap.Logger
	rule      *rrule.RRule
	task      func(ctx context.Context)
	bootDelay time.Duration
}

func NewMaintenance(logger *zap.Logger, ruleStr string, task func(ctx context.Context)) (*Maintenance, error) {
	ruleStr = strings.TrimPrefix(ruleStr, "RRULE:")
	opt, err := rrule.StrToROption(ruleStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse maintenance rule: %w", err)
	}
	opt.Dtstart = time.Now().Truncate(time.Second)
	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build maintenance rule: %w", err)
	}

	return &Maintenance{
		logger:    logger,
		rule:      rule,
		task:      task,
		bootDelay: 5 * time.Second,
	}, nil
}

// Start runs the boot-time catch-up, then fires the task at each occurrence
// of the rule until the context is cancelled.
func (m *Maintenance) Start(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(m.bootDelay):
	}
	m.logger.Info("maintenance boot check")
	m.task(ctx)

	for {
		next := m.rule.After(time.Now(), false)
		if next.IsZero() {
			m.logger.Warn("maintenance rule has no further occurrences")
			return
		}

		select {
		case <-ctx.Done():
			m.logger.Info("maintenance stopped")
			return
		case <-time.After(time.Until(next)):
			m.logger.Info("maintenance run", zap.Time("scheduled_at", next))
			m.task(ctx)
		}
	}
}
