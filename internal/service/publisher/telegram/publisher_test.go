package telegram

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/omnipost/omnipost/internal/service/publisher"
)

type fakeSession struct {
	connectErr error
	authorized bool
	sendErr    error
	messageID  string

	connectCalls    int
	textCalls       int
	mediaCalls      int
	disconnectCalls int

	lastTarget  Target
	lastText    string
	lastCaption string
	lastPaths   []string
}

func (f *fakeSession) Connect(ctx context.Context) error {
	f.connectCalls++
	return f.connectErr
}

func (f *fakeSession) Authorized(ctx context.Context) bool {
	return f.authorized
}

func (f *fakeSession) SendText(ctx context.Context, to Target, text string) (string, error) {
	f.textCalls++
	f.lastTarget = to
	f.lastText = text
	return f.messageID, f.sendErr
}

func (f *fakeSession) SendMedia(ctx context.Context, to Target, paths []string, caption string) (string, error) {
	f.mediaCalls++
	f.lastTarget = to
	f.lastPaths = paths
	f.lastCaption = caption
	return f.messageID, f.sendErr
}

func (f *fakeSession) Disconnect() {
	f.disconnectCalls++
}

type fakeDialer struct {
	session *fakeSession
	dials   int
}

func (f *fakeDialer) Dial(credential string) Session {
	f.dials++
	return f.session
}

func TestSendText(t *testing.T) {
	session := &fakeSession{authorized: true, messageID: "42"}
	p := NewPublisher(zap.NewNop(), &fakeDialer{session: session})

	outcome := p.Send(context.Background(), "session-blob", "123456", "hello", nil)

	require.True(t, outcome.Success)
	require.Equal(t, "42", outcome.RemotePostID)
	require.Equal(t, publisher.PlatformTelegram, outcome.Platform)
	require.Equal(t, "123456", outcome.DestinationID)
	require.Equal(t, Target{ChatID: -100123456}, session.lastTarget)
	require.Equal(t, 1, session.textCalls)
	require.Equal(t, 0, session.mediaCalls)
	require.Equal(t, 1, session.disconnectCalls)
}

func TestSendMediaUsesTextAsCaption(t *testing.T) {
	session := &fakeSession{authorized: true, messageID: "7"}
	p := NewPublisher(zap.NewNop(), &fakeDialer{session: session})

	outcome := p.Send(context.Background(), "blob", "@news", "caption text", []string{"/tmp/a.jpg", "/tmp/b.jpg"})

	require.True(t, outcome.Success)
	require.Equal(t, 1, session.mediaCalls)
	require.Equal(t, 0, session.textCalls)
	require.Equal(t, "caption text", session.lastCaption)
	require.Equal(t, []string{"/tmp/a.jpg", "/tmp/b.jpg"}, session.lastPaths)
	require.Equal(t, 1, session.disconnectCalls)
}

func TestSendUnauthorizedShortCircuits(t *testing.T) {
	session := &fakeSession{authorized: false}
	p := NewPublisher(zap.NewNop(), &fakeDialer{session: session})

	outcome := p.Send(context.Background(), "blob", "@news", "hello", nil)

	require.False(t, outcome.Success)
	require.Equal(t, "not authorized", outcome.Error)
	require.Equal(t, 0, session.textCalls)
	require.Equal(t, 0, session.mediaCalls)
	// Session is still released on the short-circuit path.
	require.Equal(t, 1, session.disconnectCalls)
}

func TestSendConnectFailure(t *testing.T) {
	session := &fakeSession{connectErr: errors.New("dial timeout")}
	p := NewPublisher(zap.NewNop(), &fakeDialer{session: session})

	outcome := p.Send(context.Background(), "blob", "@news", "hello", nil)

	require.False(t, outcome.Success)
	require.Equal(t, "dial timeout", outcome.Error)
	require.Equal(t, 1, session.disconnectCalls)
}

func TestSendFailure(t *testing.T) {
	session := &fakeSession{authorized: true, sendErr: errors.New("flood wait")}
	p := NewPublisher(zap.NewNop(), &fakeDialer{session: session})

	outcome := p.Send(context.Background(), "blob", "-1001", "hello", nil)

	require.False(t, outcome.Success)
	require.Equal(t, "flood wait", outcome.Error)
	require.Equal(t, 1, session.disconnectCalls)
}

func TestSendDialsFreshSessionPerCall(t *testing.T) {
	dialer := &fakeDialer{session: &fakeSession{authorized: true, messageID: "1"}}
	p := NewPublisher(zap.NewNop(), dialer)

	p.Send(context.Background(), "blob", "@a", "x", nil)
	p.Send(context.Background(), "blob", "@b", "y", nil)

	require.Equal(t, 2, dialer.dials)
}
