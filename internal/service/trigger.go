package service

import (
	"context"
	"fmt"

	"claimspipe/internal/config"
	run_queue "claimspipe/internal/consumer/run_queue/iface"
	"claimspipe/internal/logger"

	"github.com/robfig/cron/v3"
)

// ScheduleTrigger enqueues a maintenance run on a cron schedule. Scheduled
// runs carry no input files, so only the unconditional steps (backup,
// export, upload) do real work.
type ScheduleTrigger struct {
	cfg      *config.Config
	consumer run_queue.RunConsumer
	cron     *cron.Cron
	logger   logger.Logger
}

// NewScheduleTrigger creates the schedule trigger
func NewScheduleTrigger(cfg *config.Config, consumer run_queue.RunConsumer, log logger.Logger) *ScheduleTrigger {
	return &ScheduleTrigger{
		cfg:      cfg,
		consumer: consumer,
		cron:     cron.New(),
		logger:   log.With(logger.String("component", "schedule_trigger")),
	}
}

// Start registers the cron entry and begins ticking. With no schedule
// configured the trigger stays idle.
func (t *ScheduleTrigger) Start(ctx context.Context) error {
	if t.cfg.PipelineSchedule == "" {
		t.logger.Info("no pipeline schedule configured, trigger disabled")
		return nil
	}

	_, err := t.cron.AddFunc(t.cfg.PipelineSchedule, func() {
		t.logger.Info("scheduled pipeline trigger firing")
		if err := t.consumer.SendMessage(context.Background(), run_queue.RunMessage{}); err != nil {
			t.logger.Error("failed to enqueue scheduled run", logger.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid pipeline schedule %q: %w", t.cfg.PipelineSchedule, err)
	}

	t.cron.Start()
	t.logger.Info("pipeline schedule registered",
		logger.String("schedule", t.cfg.PipelineSchedule))
	return nil
}

// Stop halts the cron scheduler, waiting for an in-flight tick
func (t *ScheduleTrigger) Stop(ctx context.Context) error {
	stopCtx := t.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	t.logger.Info("schedule trigger stopped")
	return nil
}
