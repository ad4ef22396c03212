package di

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"storycanvas/application/ports"
	"storycanvas/application/services"
	"storycanvas/infrastructure/config"
	"storycanvas/infrastructure/messaging"
	"storycanvas/infrastructure/messaging/eventbridge"
	"storycanvas/infrastructure/persistence/dynamodb"
	"storycanvas/infrastructure/persistence/memory"
	"storycanvas/interfaces/http/rest"
	"storycanvas/pkg/observability"
)

// ServiceName identifies this service in traces and metrics
const ServiceName = "storycanvas"

// ProvideLogLevel provides the runtime-adjustable log level
func ProvideLogLevel(cfg *config.Config) (zap.AtomicLevel, error) {
	return config.NewLevel(cfg)
}

// ProvideLogger provides a configured logger
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, error) {
	logger, err := config.NewLogger(cfg, level)
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", ServiceName), zap.String("environment", cfg.Environment)), nil
}

// ProvideAWSConfig provides AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

// ProvideDynamoDBClient provides a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient provides an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideMetrics provides the Prometheus collector, or nil when metrics are off
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector(ServiceName)
}

// ProvideTracing provides the tracer provider. Without tracing the global no-op tracer is used.
func ProvideTracing(ctx context.Context, cfg *config.Config) (*observability.TracerProvider, error) {
	endpoint := ""
	if cfg.EnableTracing {
		endpoint = cfg.OTLPEndpoint
	}
	return observability.InitTracing(ctx, ServiceName, cfg.Environment, endpoint)
}

// ProvideProjectRepository selects the storage backend
func ProvideProjectRepository(
	cfg *config.Config,
	client *awsdynamodb.Client,
	logger *zap.Logger,
	metrics *observability.Collector,
) ports.ProjectRepository {
	if cfg.StorageBackend == config.StorageDynamoDB {
		logger.Info("using DynamoDB project storage", zap.String("table", cfg.DynamoDBTable))
		return dynamodb.NewProjectRepository(client, cfg.DynamoDBTable, logger.Named("dynamodb"), metrics)
	}
	logger.Info("using in-memory project storage")
	return memory.NewProjectRepository()
}

// ProvideEventPublisher publishes to EventBridge when a bus is configured and logs otherwise
func ProvideEventPublisher(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" {
		return messaging.NewLogPublisher(logger)
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger.Named("eventbridge"))
}

// ProvideProjectService provides the backend project service
func ProvideProjectService(repo ports.ProjectRepository, publisher ports.EventPublisher, logger *zap.Logger) *services.ProjectService {
	return services.NewProjectService(repo, publisher, logger.Named("projects"))
}

// ProvideHTTPHandler builds the REST router
func ProvideHTTPHandler(
	cfg *config.Config,
	svc *services.ProjectService,
	logger *zap.Logger,
	metrics *observability.Collector,
	tracing *observability.TracerProvider,
) http.Handler {
	opts := rest.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		EnableCORS:     cfg.EnableCORS,
		RequestTimeout: cfg.RequestTimeout,
		Metrics:        metrics,
	}
	if cfg.EnableTracing {
		opts.Tracer = tracing.Tracer()
	}
	return rest.NewRouter(svc, logger.Named("http"), opts).Setup()
}
