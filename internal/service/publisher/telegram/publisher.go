package telegram

import (
	"context"

	"go.uber.org/zap"

	"github.com/omnipost/omnipost/internal/service/publisher"
)

// Publisher delivers posts to Telegram channels over a session credential.
// Every Send runs its own connect/authorize/send/disconnect sequence so that
// one bad call cannot corrupt state shared with unrelated calls.
type Publisher struct {
	logger *zap.Logger
	dialer Dialer
}

func NewPublisher(logger *zap.Logger, dialer Dialer) *Publisher {
	return &Publisher{
		logger: logger,
		dialer: dialer,
	}
}

func (p *Publisher) PlatformName() publisher.Platform {
	return publisher.PlatformTelegram
}

func (p *Publisher) Send(ctx context.Context, credential, destinationID, text string, attachments []string) publisher.Outcome {
	target, err := NormalizeDestination(destinationID)
	if err != nil {
		return publisher.Failure(publisher.PlatformTelegram, destinationID, err.Error())
	}

	session := p.dialer.Dial(credential)
	// Released on every exit path, including the unauthorized short-circuit.
	defer session.Disconnect()

	if err := session.Connect(ctx); err != nil {
		return publisher.Failure(publisher.PlatformTelegram, destinationID, err.Error())
	}

	if !session.Authorized(ctx) {
		return publisher.Failure(publisher.PlatformTelegram, destinationID, "not authorized")
	}

	var messageID string
	if len(attachments) > 0 {
		messageID, err = session.SendMedia(ctx, target, attachments, text)
	} else {
		messageID, err = session.SendText(ctx, target, text)
	}
	if err != nil {
		return publisher.Failure(publisher.PlatformTelegram, destinationID, err.Error())
	}

	p.logger.Info("Channel message sent",
		zap.String("channel_id", destinationID),
		zap.String("message_id", messageID),
		zap.Int("attachments", len(attachments)))

	return publisher.Success(publisher.PlatformTelegram, destinationID, messageID)
}
