package config

import (
	"context"
	"database/sql"
	"time"

	"claimspipe/commons/routes"
	"claimspipe/commons/server"
	cache "claimspipe/internal/cache/iface"
	redisCache "claimspipe/internal/cache/redis"
	appconfig "claimspipe/internal/config"
	run_queue "claimspipe/internal/consumer/run_queue/iface"
	"claimspipe/internal/drive"
	"claimspipe/internal/handler"
	"claimspipe/internal/logger"
	"claimspipe/internal/ml"
	"claimspipe/internal/repository/dynamodb"
	repository "claimspipe/internal/repository/iface"
	internalRoutes "claimspipe/internal/routes"
	"claimspipe/internal/service"
	"claimspipe/internal/slack"
	"claimspipe/internal/steps"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

// Infrastructure Providers

// ProvideConfig loads runtime configuration from the environment
func ProvideConfig() (*appconfig.Config, error) {
	return appconfig.Load()
}

// ProvideLogger creates and configures the logger for the application
func ProvideLogger() (logger.Logger, error) {
	return logger.NewZapLogger()
}

// ProvideFxLogger creates the FX event logger using the application logger
func ProvideFxLogger(log logger.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{
		Logger: log.(*logger.ZapLogger).Logger(),
	}
}

func loadAWSConfig(cfg *appconfig.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.AWSRegion),
		awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				if cfg.AWSEndpoint != "" {
					return aws.Endpoint{
						URL:           cfg.AWSEndpoint,
						SigningRegion: region,
					}, nil
				}
				return aws.Endpoint{}, &aws.EndpointNotFoundError{}
			})),
	)
}

// ProvideDynamoDBClient provides the DynamoDB client (LocalStack or AWS)
func ProvideDynamoDBClient(cfg *appconfig.Config) (*awsdynamodb.Client, error) {
	awsCfg, err := loadAWSConfig(cfg)
	if err != nil {
		return nil, err
	}
	return awsdynamodb.NewFromConfig(awsCfg), nil
}

// ProvideSQSClient provides the SQS client (LocalStack or AWS)
func ProvideSQSClient(cfg *appconfig.Config) (*awssqs.Client, error) {
	awsCfg, err := loadAWSConfig(cfg)
	if err != nil {
		return nil, err
	}
	return awssqs.NewFromConfig(awsCfg), nil
}

// ProvideRedisCache provides the Redis cache backing the run lock
func ProvideRedisCache(cfg *appconfig.Config, log logger.Logger) (cache.Cache, error) {
	return redisCache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
}

// ProvideMySQL opens the warehouse connection pool. The database sits
// behind the VPN, so no ping happens here; the connect step verifies
// reachability at run time.
func ProvideMySQL(cfg *appconfig.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// ProvideSlackClient provides the Slack client, or a logging mock when no
// bot token is configured
func ProvideSlackClient(cfg *appconfig.Config, log logger.Logger) slack.Client {
	if cfg.SlackBotToken == "" {
		return slack.NewMockClient(log)
	}
	return slack.NewHTTPClient(log, cfg.SlackBotToken)
}

// ProvideDriveClient provides the shared drive client
func ProvideDriveClient(cfg *appconfig.Config, log logger.Logger) drive.Client {
	return drive.NewMockClient(log, cfg.GoogleDriveName)
}

// ProvideMLClient provides the ML enrichment service client
func ProvideMLClient(cfg *appconfig.Config, log logger.Logger) ml.Client {
	return ml.NewHTTPClient(log, cfg.MLAPIEndpoint)
}

// Repository Providers

func ProvideRunRepository(client *awsdynamodb.Client, log logger.Logger) repository.RunRepository {
	return dynamodb.NewRunRepository(client, log)
}

// Service Providers

func ProvideStepRuntime(
	log logger.Logger,
	cfg *appconfig.Config,
	db *sql.DB,
	mlClient ml.Client,
	driveClient drive.Client,
) *steps.Runtime {
	return steps.NewRuntime(log, cfg, db, mlClient, driveClient)
}

func ProvideStepSource(runtime *steps.Runtime) service.StepSource {
	return service.NewRegistry(runtime)
}

func ProvideNotifier(slackClient slack.Client, cfg *appconfig.Config, log logger.Logger) service.Notifier {
	return service.NewSlackNotifier(slackClient, cfg.SlackChannel, log)
}

func ProvideReconciler(
	repo repository.RunRepository,
	stepSource service.StepSource,
	notifier service.Notifier,
	cfg *appconfig.Config,
	log logger.Logger,
) *service.Reconciler {
	return service.NewReconciler(repo, stepSource, notifier,
		func() int { return cfg.PipelineTimeoutMinutes }, log)
}

func ProvidePipelineRunner(
	repo repository.RunRepository,
	stepSource service.StepSource,
	runtime *steps.Runtime,
	lock cache.Cache,
	reconciler *service.Reconciler,
	cfg *appconfig.Config,
	log logger.Logger,
) *service.PipelineRunner {
	return service.NewPipelineRunner(repo, stepSource, runtime, lock, reconciler,
		func() int { return cfg.PipelineTimeoutMinutes }, log)
}

func ProvidePipelineStarter(runner *service.PipelineRunner) run_queue.PipelineStarter {
	return runner
}

func ProvideControlService(
	repo repository.RunRepository,
	runner *service.PipelineRunner,
	reconciler *service.Reconciler,
	mlClient ml.Client,
	log logger.Logger,
) *service.ControlService {
	return service.NewControlService(repo, runner, reconciler, mlClient, log)
}

func ProvideStatusService(
	repo repository.RunRepository,
	stepSource service.StepSource,
	reconciler *service.Reconciler,
	cfg *appconfig.Config,
	log logger.Logger,
) *service.StatusService {
	return service.NewStatusService(repo, stepSource, reconciler,
		func() int { return cfg.PipelineTimeoutMinutes }, log)
}

func ProvideMLWebhookService(
	repo repository.RunRepository,
	mlClient ml.Client,
	driveClient drive.Client,
	runtime *steps.Runtime,
	reconciler *service.Reconciler,
	cfg *appconfig.Config,
	log logger.Logger,
) *service.MLWebhookService {
	return service.NewMLWebhookService(repo, mlClient, driveClient, runtime, reconciler, cfg, log)
}

func ProvideScheduleTrigger(
	cfg *appconfig.Config,
	consumer run_queue.RunConsumer,
	log logger.Logger,
) *service.ScheduleTrigger {
	return service.NewScheduleTrigger(cfg, consumer, log)
}

// HTTP Providers

func ProvidePipelineHandler(
	log logger.Logger,
	runner *service.PipelineRunner,
	status *service.StatusService,
	mlWebhook *service.MLWebhookService,
) *handler.PipelineHandler {
	return handler.NewPipelineHandler(log, runner, status, mlWebhook)
}

func ProvideHistoryHandler(
	log logger.Logger,
	status *service.StatusService,
	control *service.ControlService,
) *handler.HistoryHandler {
	return handler.NewHistoryHandler(log, status, control)
}

func ProvideExportsHandler(
	log logger.Logger,
	runRepo repository.RunRepository,
	runtime *steps.Runtime,
) *handler.ExportsHandler {
	return handler.NewExportsHandler(log, runRepo, runtime)
}

func ProvideSlackHandler(
	log logger.Logger,
	cfg *appconfig.Config,
	control *service.ControlService,
) *handler.SlackHandler {
	return handler.NewSlackHandler(log, cfg, control)
}

func ProvideHealthHandler(log logger.Logger, mlClient ml.Client) *handler.HealthHandler {
	return handler.NewHealthHandler(log, mlClient)
}

func ProvideRouteDependencies(log logger.Logger) routes.RouteDependencies {
	return routes.RouteDependencies{
		Logger: log,
	}
}

func ProvideRouterConfig() routes.RouterConfig {
	return routes.RouterConfig{
		ServiceName: "claimspipe",
		Version:     "v1",
	}
}

func ProvideServerConfig(cfg *appconfig.Config) server.ServerConfig {
	return server.ServerConfig{
		Port: cfg.Port,
	}
}

func ProvideRouteInitializer(
	pipelineHandler *handler.PipelineHandler,
	historyHandler *handler.HistoryHandler,
	exportsHandler *handler.ExportsHandler,
	slackHandler *handler.SlackHandler,
	healthHandler *handler.HealthHandler,
) func(*gin.Engine, routes.RouteDependencies) {
	return func(router *gin.Engine, deps routes.RouteDependencies) {
		internalRoutes.InitPipelineRoutes(router, pipelineHandler, deps.Logger)
		internalRoutes.InitHistoryRoutes(router, historyHandler, deps.Logger)
		internalRoutes.InitExportsRoutes(router, exportsHandler, deps.Logger)
		internalRoutes.InitSlackRoutes(router, slackHandler)
		internalRoutes.InitHealthRoutes(router, healthHandler, deps.Logger)
	}
}

// ProvideRouter creates and configures the Gin router with all routes
func ProvideRouter(
	config routes.RouterConfig,
	deps routes.RouteDependencies,
	routeInitializer func(*gin.Engine, routes.RouteDependencies),
) *gin.Engine {
	router := routes.NewRouter(config, deps)
	routeInitializer(router, deps)
	return router
}

// Lifecycle Management

func ManageScheduleTriggerLifecycle(lc fx.Lifecycle, trigger *service.ScheduleTrigger, srv *server.HTTPServer, log logger.Logger) {
	// Referencing the HTTP server pulls it into the dependency graph so FX
	// constructs it
	_ = srv

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("starting pipeline schedule trigger")
			return trigger.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping pipeline schedule trigger")
			return trigger.Stop(ctx)
		},
	})
}
