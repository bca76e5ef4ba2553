package vk

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/omnipost/omnipost/internal/service/publisher"
)

// fakeVK emulates the subset of the VK API the adapter talks to.
type fakeVK struct {
	server *httptest.Server

	uploadServerErr bool
	wallPostErr     bool

	uploads       int
	lastWallPost  url.Values
	wallPostCalls int
}

func newFakeVK(t *testing.T) *fakeVK {
	t.Helper()
	f := &fakeVK{}

	mux := http.NewServeMux()
	mux.HandleFunc("/photos.getWallUploadServer", func(w http.ResponseWriter, r *http.Request) {
		if f.uploadServerErr {
			fmt.Fprint(w, `{"error":{"error_code":15,"error_msg":"Access denied"}}`)
			return
		}
		fmt.Fprintf(w, `{"response":{"upload_url":"%s/upload"}}`, f.server.URL)
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		f.uploads++
		fmt.Fprint(w, `{"server":101,"photo":"[{\"photo\":\"data\"}]","hash":"abc"}`)
	})
	mux.HandleFunc("/photos.saveWallPhoto", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response":[{"id":77,"owner_id":-123456}]}`)
	})
	mux.HandleFunc("/wall.post", func(w http.ResponseWriter, r *http.Request) {
		f.wallPostCalls++
		require.NoError(t, r.ParseForm())
		f.lastWallPost = r.PostForm
		if f.wallPostErr {
			fmt.Fprint(w, `{"error":{"error_code":214,"error_msg":"Access to adding post denied"}}`)
			return
		}
		fmt.Fprint(w, `{"response":{"post_id":55}}`)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func stageTempImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "img.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg-bytes"), 0644))
	return path
}

func TestSendTextOnly(t *testing.T) {
	api := newFakeVK(t)
	p := NewPublisher(zap.NewNop(), api.server.URL, "5.199")

	outcome := p.Send(context.Background(), "token-1", "123456", "hello wall", nil)

	require.True(t, outcome.Success)
	require.Equal(t, "55", outcome.RemotePostID)
	require.Equal(t, publisher.PlatformVK, outcome.Platform)
	require.Equal(t, "123456", outcome.DestinationID)

	require.Equal(t, "-123456", api.lastWallPost.Get("owner_id"))
	require.Equal(t, "1", api.lastWallPost.Get("from_group"))
	require.Equal(t, "hello wall", api.lastWallPost.Get("message"))
	require.Equal(t, "token-1", api.lastWallPost.Get("access_token"))
	require.Empty(t, api.lastWallPost.Get("attachments"))
}

func TestSendWithAttachment(t *testing.T) {
	api := newFakeVK(t)
	p := NewPublisher(zap.NewNop(), api.server.URL, "5.199")

	outcome := p.Send(context.Background(), "token-1", "123456", "with photo", []string{stageTempImage(t)})

	require.True(t, outcome.Success)
	require.Equal(t, 1, api.uploads)
	require.Equal(t, "photo-123456_77", api.lastWallPost.Get("attachments"))
}

func TestSendSkipsFailedUploads(t *testing.T) {
	api := newFakeVK(t)
	api.uploadServerErr = true
	p := NewPublisher(zap.NewNop(), api.server.URL, "5.199")

	outcome := p.Send(context.Background(), "token-1", "123456", "text survives", []string{stageTempImage(t)})

	// The failed upload is skipped; the post itself still goes out.
	require.True(t, outcome.Success)
	require.Equal(t, 1, api.wallPostCalls)
	require.Empty(t, api.lastWallPost.Get("attachments"))
}

func TestSendAPIError(t *testing.T) {
	api := newFakeVK(t)
	api.wallPostErr = true
	p := NewPublisher(zap.NewNop(), api.server.URL, "5.199")

	outcome := p.Send(context.Background(), "token-1", "123456", "hello", nil)

	require.False(t, outcome.Success)
	require.Contains(t, outcome.Error, "214")
	require.Contains(t, outcome.Error, "Access to adding post denied")
	require.Empty(t, outcome.RemotePostID)
}

func TestSendInvalidGroupID(t *testing.T) {
	api := newFakeVK(t)
	p := NewPublisher(zap.NewNop(), api.server.URL, "5.199")

	outcome := p.Send(context.Background(), "token-1", "not-a-number", "hello", nil)

	require.False(t, outcome.Success)
	require.Equal(t, 0, api.wallPostCalls)
}
