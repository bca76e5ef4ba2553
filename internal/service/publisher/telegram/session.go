package telegram

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v4"
)

// Session is one call-scoped, stateful connection to Telegram. The lifecycle
// is connect, authorize, send, disconnect; a session is never shared between
// publish calls.
type Session interface {
	Connect(ctx context.Context) error
	Authorized(ctx context.Context) bool
	SendText(ctx context.Context, to Target, text string) (string, error)
	SendMedia(ctx context.Context, to Target, paths []string, caption string) (string, error)
	Disconnect()
}

// Dialer builds a fresh Session from an opaque, previously-authorized
// credential.
type Dialer interface {
	Dial(credential string) Session
}

// BotDialer dials sessions over the Bot API via telebot. An empty apiURL uses
// Telegram's production endpoint.
type BotDialer struct {
	apiURL string
}

func NewBotDialer(apiURL string) *BotDialer {
	return &BotDialer{apiURL: apiURL}
}

func (d *BotDialer) Dial(credential string) Session {
	return &botSession{
		token:  credential,
		apiURL: d.apiURL,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// recipient satisfies telebot's Recipient with a raw chat_id string, which the
// Bot API accepts both as "@username" and as a numeric id.
type recipient string

func (r recipient) Recipient() string { return string(r) }

type botSession struct {
	token  string
	apiURL string
	client *http.Client
	bot    *tele.Bot
}

func (s *botSession) Connect(ctx context.Context) error {
	// Offline keeps NewBot from calling getMe; authorization is a separate,
	// explicit step.
	bot, err := tele.NewBot(tele.Settings{
		Token:   s.token,
		URL:     s.apiURL,
		Offline: true,
		Client:  s.client,
	})
	if err != nil {
		return err
	}
	s.bot = bot
	return nil
}

func (s *botSession) Authorized(ctx context.Context) bool {
	if s.bot == nil {
		return false
	}
	_, err := s.bot.Raw("getMe", nil)
	return err == nil
}

func (s *botSession) SendText(ctx context.Context, to Target, text string) (string, error) {
	if s.bot == nil {
		return "", errors.New("session is not connected")
	}
	msg, err := s.bot.Send(recipient(to.Recipient()), text)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(msg.ID), nil
}

func (s *botSession) SendMedia(ctx context.Context, to Target, paths []string, caption string) (string, error) {
	if s.bot == nil {
		return "", errors.New("session is not connected")
	}

	if len(paths) == 1 {
		photo := &tele.Photo{File: tele.FromDisk(paths[0]), Caption: caption}
		msg, err := s.bot.Send(recipient(to.Recipient()), photo)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(msg.ID), nil
	}

	album := make(tele.Album, 0, len(paths))
	for i, path := range paths {
		photo := &tele.Photo{File: tele.FromDisk(path)}
		if i == 0 {
			photo.Caption = caption
		}
		album = append(album, photo)
	}

	msgs, err := s.bot.SendAlbum(recipient(to.Recipient()), album)
	if err != nil {
		return "", err
	}
	if len(msgs) == 0 {
		return "", errors.New("empty album response")
	}
	return strconv.Itoa(msgs[0].ID), nil
}

func (s *botSession) Disconnect() {
	s.client.CloseIdleConnections()
	s.bot = nil
}
