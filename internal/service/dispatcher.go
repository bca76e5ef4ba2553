package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/omnipost/omnipost/internal/service/publisher"
)

// CredentialMissing is the outcome error for a destination with no stored
// credential.
const CredentialMissing = "credential missing"

// CredentialStore is the narrow accessor contract the dispatcher borrows
// credentials through.
type CredentialStore interface {
	Get(ctx context.Context, ownerID string, platform publisher.Platform, destinationID string) (string, error)
}

// DeliveryLog records per-destination outcomes. A nil log disables history;
// recording never affects the result.
type DeliveryLog interface {
	Record(ctx context.Context, ownerID string, outcome publisher.Outcome)
}

// PublishService fans one post out to every requested destination and
// aggregates outcomes. A failure on one destination never aborts the others.
type PublishService struct {
	logger      *zap.Logger
	registry    *publisher.Registry
	credentials CredentialStore
	history     DeliveryLog
}

func NewPublishService(logger *zap.Logger, registry *publisher.Registry, credentials CredentialStore, history DeliveryLog) *PublishService {
	return &PublishService{
		logger:      logger,
		registry:    registry,
		credentials: credentials,
		history:     history,
	}
}

// Publish delivers the post to each destination in input order and returns
// exactly one outcome per destination. Nothing here is fatal to the caller.
func (s *PublishService) Publish(ctx context.Context, ownerID string, post publisher.Post) *publisher.AggregateResult {
	result := publisher.NewAggregateResult()

	for _, dest := range post.Destinations {
		outcome := s.dispatch(ctx, ownerID, dest, post)
		result.Add(outcome)

		if s.history != nil {
			s.history.Record(ctx, ownerID, outcome)
		}
	}

	s.logger.Info("Publish completed",
		zap.String("owner_id", ownerID),
		zap.Int("destinations", len(post.Destinations)),
		zap.Bool("success", result.Success))

	return result
}

func (s *PublishService) dispatch(ctx context.Context, ownerID string, dest publisher.Destination, post publisher.Post) publisher.Outcome {
	// Session platforms share one credential slot per owner.
	credentialKey := dest.ID
	if dest.Platform.SessionScoped() {
		credentialKey = ""
	}

	credential, err := s.credentials.Get(ctx, ownerID, dest.Platform, credentialKey)
	if err != nil {
		if err == ErrCredentialNotFound {
			return publisher.Failure(dest.Platform, dest.ID, CredentialMissing)
		}
		return publisher.Failure(dest.Platform, dest.ID, err.Error())
	}

	adapter, err := s.registry.Get(dest.Platform)
	if err != nil {
		return publisher.Failure(dest.Platform, dest.ID, err.Error())
	}

	return s.safeSend(ctx, adapter, credential, dest, post)
}

// safeSend shields the fan-out from a panicking adapter: a panic becomes a
// failure outcome for that destination only.
func (s *PublishService) safeSend(ctx context.Context, adapter publisher.Adapter, credential string, dest publisher.Destination, post publisher.Post) (outcome publisher.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Adapter panicked",
				zap.String("platform", string(dest.Platform)),
				zap.String("destination_id", dest.ID),
				zap.Any("panic", r))
			outcome = publisher.Failure(dest.Platform, dest.ID, fmt.Sprintf("adapter panic: %v", r))
		}
	}()

	return adapter.Send(ctx, credential, dest.ID, post.Text, post.Attachments)
}
