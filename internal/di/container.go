package di

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/orderdesk/api/internal/platform/config"
	pfirestore "github.com/orderdesk/api/internal/platform/firestore"
	"github.com/orderdesk/api/internal/platform/jobs"
	fsrepos "github.com/orderdesk/api/internal/repositories/firestore"
	"github.com/orderdesk/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon.
// Concrete implementations are assembled in NewContainer.
type Services struct {
	Orders   services.OrderService
	Catalog  services.CatalogService
	Feedback services.FeedbackService
}

// Container wires storage, services, and event publishing for runtime use.
type Container struct {
	Config    config.Config
	Firestore *pfirestore.Provider
	Services  Services

	pubsubClient *pubsub.Client
	pubsubTopic  *pubsub.Topic
}

// NewContainer constructs the runtime dependencies. The Firestore client is
// dialled eagerly so misconfiguration surfaces at startup rather than on the
// first request.
func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Container{
		Config:    cfg,
		Firestore: pfirestore.NewProvider(cfg.Firestore),
	}

	if _, err := c.Firestore.Client(ctx); err != nil {
		return nil, fmt.Errorf("initialise firestore client: %w", err)
	}

	publisher, err := c.buildEventPublisher(ctx, logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	svc, err := buildServices(c.Firestore, publisher, logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Services = svc

	return c, nil
}

// Close releases the Firestore and Pub/Sub clients.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.pubsubTopic != nil {
		c.pubsubTopic.Stop()
	}
	if c.pubsubClient != nil {
		if err := c.pubsubClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Firestore != nil {
		if err := c.Firestore.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Container) buildEventPublisher(ctx context.Context, logger *zap.Logger) (services.OrderEventPublisher, error) {
	topicID := strings.TrimSpace(c.Config.PubSub.OrderEventsTopic)
	if topicID == "" {
		logger.Info("order event publishing disabled; no topic configured")
		return nil, nil
	}

	projectID := strings.TrimSpace(c.Config.PubSub.ProjectID)
	if projectID == "" {
		projectID = strings.TrimSpace(c.Config.Firestore.ProjectID)
	}

	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("initialise pubsub client: %w", err)
	}
	c.pubsubClient = client
	c.pubsubTopic = client.Topic(topicID)

	publisher, err := jobs.NewPubSubOrderEventPublisher(c.pubsubTopic)
	if err != nil {
		return nil, fmt.Errorf("initialise order event publisher: %w", err)
	}
	return publisher, nil
}

func buildServices(provider *pfirestore.Provider, publisher services.OrderEventPublisher, logger *zap.Logger) (Services, error) {
	orderRepo, err := fsrepos.NewOrderRepository(provider)
	if err != nil {
		return Services{}, fmt.Errorf("build order repository: %w", err)
	}
	itemRepo, err := fsrepos.NewItemRepository(provider)
	if err != nil {
		return Services{}, fmt.Errorf("build item repository: %w", err)
	}
	feedbackRepo, err := fsrepos.NewFeedbackRepository(provider)
	if err != nil {
		return Services{}, fmt.Errorf("build feedback repository: %w", err)
	}
	counterRepo, err := fsrepos.NewCounterRepository(provider)
	if err != nil {
		return Services{}, fmt.Errorf("build counter repository: %w", err)
	}

	catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
		Items: itemRepo,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build catalog service: %w", err)
	}

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:   orderRepo,
		Counters: counterRepo,
		Catalog:  catalogSvc,
		Events:   publisher,
		Logger:   eventLogger(logger.Named("orders")),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order service: %w", err)
	}

	feedbackSvc, err := services.NewFeedbackService(services.FeedbackServiceDeps{
		Feedback: feedbackRepo,
		Orders:   orderRepo,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build feedback service: %w", err)
	}

	return Services{
		Orders:   orderSvc,
		Catalog:  catalogSvc,
		Feedback: feedbackSvc,
	}, nil
}

// eventLogger adapts the zap logger to the map-based event logging the
// services layer expects.
func eventLogger(logger *zap.Logger) func(ctx context.Context, event string, fields map[string]any) {
	return func(ctx context.Context, event string, fields map[string]any) {
		zapFields := make([]zap.Field, 0, len(fields))
		for key, value := range fields {
			zapFields = append(zapFields, zap.Any(key, value))
		}
		logger.Info(event, zapFields...)
	}
}
