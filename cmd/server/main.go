package main

import (
	"claimspipe/commons/config"
	"claimspipe/commons/server"
	run_queue "claimspipe/internal/consumer/run_queue/init"

	"go.uber.org/fx"
)

func main() {
	fx.New(
		fx.WithLogger(config.ProvideFxLogger),
		fx.Provide(
			config.ProvideConfig,
			config.ProvideLogger,
			config.ProvideRouteDependencies,
			config.ProvideDynamoDBClient,
			config.ProvideSQSClient,
			config.ProvideRedisCache,
			config.ProvideMySQL,
			config.ProvideSlackClient,
			config.ProvideDriveClient,
			config.ProvideMLClient,
			config.ProvideRunRepository,
			config.ProvideStepRuntime,
			config.ProvideStepSource,
			config.ProvideNotifier,
			config.ProvideReconciler,
			config.ProvidePipelineRunner,
			config.ProvidePipelineStarter,
			config.ProvideControlService,
			config.ProvideStatusService,
			config.ProvideMLWebhookService,
			config.ProvideScheduleTrigger,
			config.ProvidePipelineHandler,
			config.ProvideHistoryHandler,
			config.ProvideExportsHandler,
			config.ProvideSlackHandler,
			config.ProvideHealthHandler,
			config.ProvideRouterConfig,
			config.ProvideServerConfig,
			config.ProvideRouteInitializer,
			config.ProvideRouter,
			server.NewHTTPServer,
		),
		run_queue.RunQueueModule(),
		fx.Invoke(config.ManageScheduleTriggerLifecycle),
	).Run()
}
