package run_queue

import (
	"context"

	"claimspipe/internal/config"
	run_queue "claimspipe/internal/consumer/run_queue/iface"
	runconsumer "claimspipe/internal/consumer/run_queue/impl"
	"claimspipe/internal/logger"
	queue "claimspipe/internal/queue/iface"
	"claimspipe/internal/queue/sqs"

	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/fx"
)

// RunQueueParams holds dependencies for the run queue
type RunQueueParams struct {
	fx.In

	Logger    logger.Logger
	Config    *config.Config
	SQSClient *awssqs.Client
	Starter   run_queue.PipelineStarter
}

// RunQueueResult holds what this module provides
type RunQueueResult struct {
	fx.Out

	Consumer run_queue.RunConsumer
	Queue    queue.Queue `name:"run_queue"`
}

// ProvideRunQueueAndConsumer provides both queue and consumer
func ProvideRunQueueAndConsumer(params RunQueueParams) RunQueueResult {
	var consumer run_queue.RunConsumer

	q := sqs.NewSQSQueue(
		params.SQSClient,
		sqs.QueueConfig{
			QueueURL:        params.Config.SQSQueueURL,
			WorkerCount:     1,
			MaxMessages:     1,
			WaitTimeSeconds: 20,
		},
		queue.MessageProcessorFunc[run_queue.RunMessage](func(ctx context.Context, msg run_queue.RunMessage) bool {
			return consumer.ProcessMessage(ctx, msg)
		}),
		params.Logger,
	)

	consumer = runconsumer.NewRunConsumer(params.Logger, q, params.Starter)

	return RunQueueResult{
		Consumer: consumer,
		Queue:    q,
	}
}

// RunQueueModule provides the FX module for the run queue
func RunQueueModule() fx.Option {
	return fx.Options(
		fx.Provide(
			ProvideRunQueueAndConsumer,
		),
		fx.Invoke(func(params struct {
			fx.In
			Lifecycle fx.Lifecycle
			Queue     queue.Queue `name:"run_queue"`
			Logger    logger.Logger
		}) {
			params.Lifecycle.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					params.Logger.Info("starting run queue consumer")
					return params.Queue.StartConsumer(ctx)
				},
				OnStop: func(ctx context.Context) error {
					params.Logger.Info("stopping run queue consumer")
					return params.Queue.StopConsumer(ctx)
				},
			})
		}),
	)
}
