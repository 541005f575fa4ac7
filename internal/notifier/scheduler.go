// Copyright (c) 2026 MoonUI Design <hello@moonui.design>
// All rights reserved. See LICENSE for details.

package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the expiry sweep on a cron schedule inside the process.
// Deployments that trigger the sweep externally (platform cron hitting the
// cron endpoint) simply never start one.
type Scheduler struct {
	cron *cron.Cron
}

// StartScheduler registers the sweep under the given cron expression
// (standard five-field syntax) and starts ticking.
func StartScheduler(spec string, n *Notifier) (*Scheduler, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := n.Sweep(ctx, time.Now()); err != nil {
			slog.Error("scheduled expiry sweep failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	c.Start()
	slog.Info("expiry sweep scheduler started", "schedule", spec)
	return &Scheduler{cron: c}, nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
