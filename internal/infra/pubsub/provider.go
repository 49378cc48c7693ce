// Package pubsub publishes authentication events. Google Pub/Sub is used in deployed
// environments; a local HTTP push emulation and a no-op publisher cover development.
package pubsub

import (
	"context"
	"log/slog"

	"gatehouse/config"
	"gatehouse/internal/domain/constants"
	"gatehouse/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type noopPublisher struct {
	logger *slog.Logger
}

func (p *noopPublisher) PublishAuthEvent(ctx context.Context, event *service.AuthEvent) error {
	p.logger.DebugContext(ctx, "Auth event dropped, no publisher configured",
		slog.String("event_type", string(event.Type)),
		slog.Int64("user_id", event.UserID),
	)

	return nil
}

func (p *noopPublisher) Close() error {
	return nil
}

// PublisherParams holds dependencies for EventPublisher, injected by Fx
type PublisherParams struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewEventPublisher builds the publisher selected by pubsub.provider and closes it on stop.
func NewEventPublisher(params PublisherParams) (service.EventPublisher, error) {
	publisher, err := newPublisher(params.Ctx, params.Config.PubSub, params.Logger)
	if err != nil {
		return nil, err
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return publisher.Close()
		},
	})

	return publisher, nil
}

func newPublisher(ctx context.Context, cfg *config.PubSubConfig, logger *slog.Logger) (service.EventPublisher, error) {
	if err := validatePubSubConfig(cfg); err != nil {
		return nil, err
	}

	if cfg == nil || cfg.Provider == "" {
		logger.Info("Auth events disabled: pubsub.provider is empty")

		return &noopPublisher{logger: logger}, nil
	}

	logger.Info("Auth event publisher configured",
		slog.String("provider", cfg.Provider),
		slog.String("topic_id", cfg.TopicID),
		slog.String("endpoint", cfg.LocalEndpoint),
	)

	if cfg.Provider == constants.PubSubProviderLocal {
		return NewLocalHTTPPublisher(cfg.LocalEndpoint, logger), nil
	}

	return NewGooglePubSubPublisher(ctx, cfg.ProjectID, cfg.TopicID, logger)
}

func validatePubSubConfig(cfg *config.PubSubConfig) error {
	if cfg == nil {
		return nil
	}

	switch cfg.Provider {
	case "":
		return nil
	case constants.PubSubProviderLocal:
		if cfg.LocalEndpoint == "" {
			return errors.New("pubsub.localEndpoint is required for the local provider")
		}
	case constants.PubSubProviderGoogle:
		if cfg.ProjectID == "" || cfg.TopicID == "" {
			return errors.New("pubsub.projectId and pubsub.topicId are required for the google provider")
		}
	default:
		return errors.Errorf("unknown pubsub provider: %q", cfg.Provider)
	}

	return nil
}
