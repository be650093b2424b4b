package firmware

import (
	"context"
	"time"

	hsmodels "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models"
)

// RunScheduleSweeper promotes due scheduled commands to pending and delivers
// them, on a fixed interval, until the context is cancelled.
func (o *Orchestrator) RunScheduleSweeper(ctx context.Context, interval time.Duration) {
	log := o.logger.WithField("interval", interval.String())
	log.Info("Scheduled command sweeper started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Scheduled command sweeper stopped")
			return
		case <-ticker.C:
			o.SweepScheduled(ctx)
		}
	}
}

// SweepScheduled runs one promotion pass. The promote transition is
// conditional on the command still being scheduled, so two sweeper instances
// never deliver the same command twice.
func (o *Orchestrator) SweepScheduled(ctx context.Context) {
	due, err := o.commands.ListScheduledDue(ctx, o.now().UTC())
	if err != nil {
		o.logger.WithError(err).Error("Failed to list due scheduled commands")
		return
	}

	for _, cmd := range due {
		promoted, err := o.commands.PromoteScheduled(ctx, cmd.ID)
		if err != nil {
			o.logger.WithField("command_id", cmd.ID).WithError(err).Error("Failed to promote scheduled command")
			continue
		}
		if !promoted {
			continue
		}

		cmd.Status = hsmodels.CommandStatusPending
		delivered, pubErr := o.dispatcher.Deliver(ctx, cmd)
		if delivered {
			o.logger.WithField("command_id", cmd.ID).WithField("device_id", cmd.DeviceID).Info("Scheduled command delivered")
			continue
		}
		if pubErr == nil {
			continue
		}

		// A promoted command has no later sweep to pick it up again, so a
		// failed publish fails the command instead of stranding it pending.
		failed, err := o.commands.MarkFailed(ctx, cmd.ID, pubErr.Error(), o.now().UTC())
		if err != nil {
			o.logger.WithField("command_id", cmd.ID).WithError(err).Error("Failed to mark scheduled command failed")
			continue
		}
		if failed {
			o.logger.WithField("command_id", cmd.ID).WithField("device_id", cmd.DeviceID).WithError(pubErr).Warn("Scheduled command delivery failed, command marked failed")
		}
	}
}
