package runconsumer

import (
	"context"
	"errors"

	run_queue "claimspipe/internal/consumer/run_queue/iface"
	"claimspipe/internal/logger"
	queue "claimspipe/internal/queue/iface"
	"claimspipe/internal/service"
)

type runConsumer struct {
	logger  logger.Logger
	queue   queue.Queue
	starter run_queue.PipelineStarter
}

// NewRunConsumer creates a new run queue consumer
func NewRunConsumer(log logger.Logger, q queue.Queue, starter run_queue.PipelineStarter) run_queue.RunConsumer {
	return &runConsumer{
		logger:  log.With(logger.String("component", "run_consumer")),
		queue:   q,
		starter: starter,
	}
}

// ProcessMessage implements RunConsumer interface
func (c *runConsumer) ProcessMessage(ctx context.Context, message run_queue.RunMessage) bool {
	c.logger.Info("processing run request",
		logger.Any("files", message.Files),
		logger.Any("options", message.Options))

	run, err := c.starter.Start(ctx, message.Files, message.Options)
	if err != nil {
		if errors.Is(err, service.ErrRunInProgress) {
			// Dropping the request keeps scheduled triggers from piling up
			// behind a long run
			c.logger.Warn("run already in progress, dropping request")
			return true
		}
		c.logger.Error("failed to start pipeline run", logger.Error(err))
		return false
	}

	c.logger.Info("pipeline run started from queue",
		logger.String("run_id", run.RunID))
	return true
}

// SendMessage sends a run request to the queue
func (c *runConsumer) SendMessage(ctx context.Context, message run_queue.RunMessage) error {
	if err := c.queue.Send(ctx, message); err != nil {
		c.logger.Error("failed to send run request", logger.Error(err))
		return err
	}

	c.logger.Debug("run request sent to queue")
	return nil
}
