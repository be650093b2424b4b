package dispatcher

import (
	"context"
	"time"
)

// RunExpirySweeper expires overdue deliverable commands on a fixed interval
// until the context is cancelled. Only this loop moves commands to expired.
func (d *Dispatcher) RunExpirySweeper(ctx context.Context, interval time.Duration) {
	log := d.logger.WithField("interval", interval.String())
	log.Info("Command expiry sweeper started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Command expiry sweeper stopped")
			return
		case <-ticker.C:
			d.SweepExpired(ctx)
		}
	}
}

// SweepExpired runs one expiry pass.
func (d *Dispatcher) SweepExpired(ctx context.Context) {
	expired, err := d.commands.ExpireOverdue(ctx, d.now().UTC())
	if err != nil {
		d.logger.WithError(err).Error("Command expiry sweep failed")
		return
	}
	if expired > 0 {
		d.logger.WithField("expired", expired).Info("Expired overdue commands")
	}
}
