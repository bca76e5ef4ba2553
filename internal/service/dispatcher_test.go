package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/omnipost/omnipost/internal/service/publisher"
)

type fakeCredentialStore struct {
	// keyed by owner|platform|destination
	secrets map[string]string
}

func credKey(ownerID string, platform publisher.Platform, destinationID string) string {
	return ownerID + "|" + string(platform) + "|" + destinationID
}

func (f *fakeCredentialStore) Get(ctx context.Context, ownerID string, platform publisher.Platform, destinationID string) (string, error) {
	secret, ok := f.secrets[credKey(ownerID, platform, destinationID)]
	if !ok {
		return "", ErrCredentialNotFound
	}
	return secret, nil
}

type fakeAdapter struct {
	platform  publisher.Platform
	sendCalls int
	outcomes  map[string]publisher.Outcome
	panicMsg  string
	lastCred  string
}

func (f *fakeAdapter) PlatformName() publisher.Platform { return f.platform }

func (f *fakeAdapter) Send(ctx context.Context, credential, destinationID, text string, attachments []string) publisher.Outcome {
	f.sendCalls++
	f.lastCred = credential
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if outcome, ok := f.outcomes[destinationID]; ok {
		return outcome
	}
	return publisher.Success(f.platform, destinationID, "post-1")
}

func newTestPublishService(t *testing.T, creds *fakeCredentialStore, adapters ...publisher.Adapter) *PublishService {
	t.Helper()
	registry := publisher.NewRegistry(zap.NewNop())
	for _, a := range adapters {
		require.NoError(t, registry.Register(a))
	}
	return NewPublishService(zap.NewNop(), registry, creds, nil)
}

func TestPublishOneOutcomePerDestination(t *testing.T) {
	creds := &fakeCredentialStore{secrets: map[string]string{
		credKey("u1", publisher.PlatformVK, "g1"): "token-1",
		credKey("u1", publisher.PlatformVK, "g2"): "token-2",
		credKey("u1", publisher.PlatformTelegram, ""): "session-blob",
	}}
	vk := &fakeAdapter{platform: publisher.PlatformVK}
	tg := &fakeAdapter{platform: publisher.PlatformTelegram}
	svc := newTestPublishService(t, creds, vk, tg)

	result := svc.Publish(context.Background(), "u1", publisher.Post{
		Text: "hello",
		Destinations: []publisher.Destination{
			{Platform: publisher.PlatformVK, ID: "g1"},
			{Platform: publisher.PlatformTelegram, ID: "c1"},
			{Platform: publisher.PlatformVK, ID: "g2"},
		},
	})

	require.True(t, result.Success)
	require.Equal(t, 3, result.Count())
	require.Equal(t, "g1", result.Outcomes[publisher.PlatformVK][0].DestinationID)
	require.Equal(t, "g2", result.Outcomes[publisher.PlatformVK][1].DestinationID)
	require.Equal(t, "c1", result.Outcomes[publisher.PlatformTelegram][0].DestinationID)
	require.Equal(t, 2, vk.sendCalls)
	require.Equal(t, 1, tg.sendCalls)
}

func TestPublishMissingCredentialSkipsAdapter(t *testing.T) {
	creds := &fakeCredentialStore{secrets: map[string]string{}}
	vk := &fakeAdapter{platform: publisher.PlatformVK}
	svc := newTestPublishService(t, creds, vk)

	result := svc.Publish(context.Background(), "u1", publisher.Post{
		Text: "hello",
		Destinations: []publisher.Destination{
			{Platform: publisher.PlatformVK, ID: "g1"},
		},
	})

	require.False(t, result.Success)
	outcome := result.Outcomes[publisher.PlatformVK][0]
	require.False(t, outcome.Success)
	require.Equal(t, CredentialMissing, outcome.Error)
	// The adapter must never be invoked for a credential-less destination.
	require.Equal(t, 0, vk.sendCalls)
}

func TestPublishMixedOutcome(t *testing.T) {
	// Token destination without credential, session destination with one.
	creds := &fakeCredentialStore{secrets: map[string]string{
		credKey("u1", publisher.PlatformTelegram, ""): "session-blob",
	}}
	vk := &fakeAdapter{platform: publisher.PlatformVK}
	tg := &fakeAdapter{platform: publisher.PlatformTelegram, outcomes: map[string]publisher.Outcome{
		"c1": publisher.Success(publisher.PlatformTelegram, "c1", "88"),
	}}
	svc := newTestPublishService(t, creds, vk, tg)

	result := svc.Publish(context.Background(), "u1", publisher.Post{
		Text: "hello",
		Destinations: []publisher.Destination{
			{Platform: publisher.PlatformVK, ID: "g1"},
			{Platform: publisher.PlatformTelegram, ID: "c1"},
		},
	})

	require.False(t, result.Success)
	require.Equal(t, 2, result.Count())

	vkOutcome := result.Outcomes[publisher.PlatformVK][0]
	require.False(t, vkOutcome.Success)
	require.Equal(t, CredentialMissing, vkOutcome.Error)
	require.Empty(t, vkOutcome.RemotePostID)

	tgOutcome := result.Outcomes[publisher.PlatformTelegram][0]
	require.True(t, tgOutcome.Success)
	require.Equal(t, "88", tgOutcome.RemotePostID)
	require.Empty(t, tgOutcome.Error)

	require.Equal(t, 0, vk.sendCalls)
	require.Equal(t, 1, tg.sendCalls)
	// The session platform looks up the owner-wide slot, not the destination.
	require.Equal(t, "session-blob", tg.lastCred)
}

func TestPublishAdapterPanicIsIsolated(t *testing.T) {
	creds := &fakeCredentialStore{secrets: map[string]string{
		credKey("u1", publisher.PlatformVK, "g1"): "t1",
		credKey("u1", publisher.PlatformVK, "g2"): "t2",
	}}
	vk := &fakeAdapter{platform: publisher.PlatformVK, panicMsg: "boom"}
	svc := newTestPublishService(t, creds, vk)

	result := svc.Publish(context.Background(), "u1", publisher.Post{
		Text: "hello",
		Destinations: []publisher.Destination{
			{Platform: publisher.PlatformVK, ID: "g1"},
			{Platform: publisher.PlatformVK, ID: "g2"},
		},
	})

	// Both destinations still get an outcome; the panic aborts neither the
	// call nor the remaining fan-out.
	require.False(t, result.Success)
	require.Equal(t, 2, result.Count())
	require.Equal(t, 2, vk.sendCalls)
	require.Contains(t, result.Outcomes[publisher.PlatformVK][0].Error, "boom")
}

func TestPublishUnknownPlatform(t *testing.T) {
	creds := &fakeCredentialStore{secrets: map[string]string{
		credKey("u1", publisher.PlatformVK, "g1"): "t1",
	}}
	svc := newTestPublishService(t, creds) // no adapters registered

	result := svc.Publish(context.Background(), "u1", publisher.Post{
		Destinations: []publisher.Destination{
			{Platform: publisher.PlatformVK, ID: "g1"},
		},
	})

	require.False(t, result.Success)
	require.Contains(t, result.Outcomes[publisher.PlatformVK][0].Error, "not found")
}
