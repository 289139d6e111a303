// Package di assembles the production object graph: configuration in,
// a ready http.Handler out.
package di

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/matjar-app/api/internal/billing"
	"github.com/matjar-app/api/internal/handlers"
	"github.com/matjar-app/api/internal/platform/auth"
	"github.com/matjar-app/api/internal/platform/config"
	platformfs "github.com/matjar-app/api/internal/platform/firestore"
	"github.com/matjar-app/api/internal/platform/jobs"
	"github.com/matjar-app/api/internal/platform/observability"
	"github.com/matjar-app/api/internal/platform/storage"
	fsrepo "github.com/matjar-app/api/internal/repositories/firestore"
	"github.com/matjar-app/api/internal/services"
)

// Container owns the wired application and its closable resources.
type Container struct {
	Logger  *zap.Logger
	Handler http.Handler

	provider  *platformfs.Provider
	publisher *jobs.Publisher
	media     *storage.MediaStore
}

// Build wires the full service graph from configuration. Optional
// collaborators (Pub/Sub, GCS, Stripe) degrade to disabled pipelines when
// their configuration is absent.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	container := &Container{Logger: logger}
	eventLogger := observability.EventLogger(logger)

	container.provider = platformfs.NewProvider(cfg.Firestore)

	storeRepo := fsrepo.NewStoreRepository(container.provider)
	productRepo := fsrepo.NewProductRepository(container.provider)
	orderRepo := fsrepo.NewOrderRepository(container.provider)
	notificationRepo := fsrepo.NewNotificationRepository(container.provider)

	var emailDispatcher services.EmailDispatcher
	var mediaJobs services.MediaJobPublisher
	if cfg.PubSub.NotificationTopic != "" || cfg.PubSub.MediaJobsTopic != "" {
		publisher, err := jobs.NewPublisher(ctx, cfg.PubSub)
		if err != nil {
			container.Close()
			return nil, fmt.Errorf("di: pubsub publisher: %w", err)
		}
		container.publisher = publisher
		emailDispatcher = publisher
		mediaJobs = publisher
	}

	var mediaStore services.MediaStore
	if cfg.Storage.MediaBucket != "" {
		media, err := storage.NewMediaStore(ctx, cfg.Storage)
		if err != nil {
			container.Close()
			return nil, fmt.Errorf("di: media store: %w", err)
		}
		container.media = media
		mediaStore = media
	}

	var biller services.PlanBiller
	var activationParser handlers.ActivationParser
	if cfg.Stripe.APIKey != "" {
		stripeBiller, err := billing.NewStripeBiller(billing.StripeBillerConfig{
			APIKey:        cfg.Stripe.APIKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			BasicPriceID:  cfg.Stripe.BasicPriceID,
			ProPriceID:    cfg.Stripe.ProPriceID,
			SuccessURL:    cfg.Stripe.SuccessURL,
			CancelURL:     cfg.Stripe.CancelURL,
			Logger:        eventLogger,
		})
		if err != nil {
			container.Close()
			return nil, fmt.Errorf("di: stripe biller: %w", err)
		}
		biller = stripeBiller
		activationParser = stripeBiller
	}

	storeService, err := services.NewStoreService(services.StoreServiceDeps{
		Repo:   storeRepo,
		Biller: biller,
		Logger: eventLogger,
	})
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("di: store service: %w", err)
	}

	productService, err := services.NewProductService(services.ProductServiceDeps{
		Repo:   productRepo,
		Stores: storeRepo,
		Media:  mediaStore,
		Jobs:   mediaJobs,
		Features: services.ProductFeatures{
			AICaptions:        cfg.Features.EnableAICaptions,
			BackgroundRemoval: cfg.Features.EnableBackgroundRemoval,
		},
		Logger: eventLogger,
	})
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("di: product service: %w", err)
	}

	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Repo:   orderRepo,
		Logger: eventLogger,
	})
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("di: order service: %w", err)
	}

	notificationService, err := services.NewNotificationService(services.NotificationServiceDeps{
		Repo:   notificationRepo,
		Email:  emailDispatcher,
		Logger: eventLogger,
	})
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("di: notification service: %w", err)
	}

	placementService, err := services.NewOrderPlacementService(services.OrderPlacementDeps{
		Submitter: orderRepo,
		Notifier:  notificationService,
		Logger:    eventLogger,
	})
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("di: order placement service: %w", err)
	}

	firebaseVerifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase)
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("di: firebase verifier: %w", err)
	}

	oidcVerifier, err := auth.NewOIDCVerifier(cfg.Security.OIDC)
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("di: oidc verifier: %w", err)
	}

	health := handlers.NewHealthHandlers()
	health.AddProbe("firestore", func(ctx context.Context) error {
		_, err := container.provider.Client(ctx)
		return err
	})

	storefront := handlers.NewStorefrontHandlers(storeService, productService, placementService)
	merchant := handlers.NewMerchantHandlers(storeService, productService, orderService, notificationService)
	internal := handlers.NewInternalHandlers(productService)

	opts := []handlers.Option{
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger),
			observability.TraceMiddleware(cfg.Firebase.ProjectID),
			observability.RequestLoggerMiddleware(cfg.Firebase.ProjectID),
			observability.MetricsMiddleware(),
			observability.RecoveryMiddleware(logger),
		),
		handlers.WithHealth(health),
		handlers.WithStorefrontRoutes(storefront.Routes),
		handlers.WithMerchantRoutes(merchant.Routes, auth.RequireMerchant(firebaseVerifier)),
		handlers.WithInternalRoutes(internal.Routes, auth.RequirePushOIDC(oidcVerifier, cfg.Security.Environment)),
	}
	if activationParser != nil {
		webhooks := handlers.NewWebhookHandlers(activationParser, storeService)
		opts = append(opts, handlers.WithWebhookRoutes(webhooks.Routes))
	}

	container.Handler = handlers.NewRouter(opts...)
	return container, nil
}

// Close releases every resource the container owns.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var firstErr error
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.media != nil {
		if err := c.media.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.provider != nil {
		if err := c.provider.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
