package vk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/omnipost/omnipost/internal/service/publisher"
)

// Publisher delivers posts to VK community walls. The platform is stateless:
// every call carries its own access token, and the HTTP client is the only
// shared resource.
type Publisher struct {
	logger  *zap.Logger
	media   *MediaUploader
	client  *http.Client
	baseURL string
	version string
}

type apiError struct {
	ErrorCode int    `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

type wallPostResponse struct {
	Response *struct {
		PostID int `json:"post_id"`
	} `json:"response"`
	Error *apiError `json:"error"`
}

func NewPublisher(logger *zap.Logger, baseURL, version string) *Publisher {
	client := &http.Client{
		Timeout: 60 * time.Second,
	}
	return &Publisher{
		logger:  logger,
		media:   NewMediaUploader(logger, client, baseURL, version),
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		version: version,
	}
}

func (p *Publisher) PlatformName() publisher.Platform {
	return publisher.PlatformVK
}

// Send uploads the attachments that can be uploaded, then creates one wall
// post on behalf of the group. A single failed upload is skipped, it does not
// fail the whole call.
func (p *Publisher) Send(ctx context.Context, credential, destinationID, text string, attachments []string) publisher.Outcome {
	groupID, err := strconv.ParseInt(destinationID, 10, 64)
	if err != nil {
		return publisher.Failure(publisher.PlatformVK, destinationID, fmt.Sprintf("invalid group id %q", destinationID))
	}
	if groupID < 0 {
		groupID = -groupID
	}

	var mediaIDs []string
	for _, path := range attachments {
		mediaID, err := p.media.UploadWallPhoto(ctx, credential, groupID, path)
		if err != nil {
			p.logger.Warn("Attachment upload failed, skipping",
				zap.String("group_id", destinationID),
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		mediaIDs = append(mediaIDs, mediaID)
	}

	postID, err := p.wallPost(ctx, credential, groupID, text, mediaIDs)
	if err != nil {
		return publisher.Failure(publisher.PlatformVK, destinationID, err.Error())
	}

	p.logger.Info("Wall post created",
		zap.String("group_id", destinationID),
		zap.String("post_id", postID),
		zap.Int("attachments", len(mediaIDs)))

	return publisher.Success(publisher.PlatformVK, destinationID, postID)
}

func (p *Publisher) wallPost(ctx context.Context, token string, groupID int64, text string, mediaIDs []string) (string, error) {
	form := url.Values{}
	// Negative owner id addresses the community wall; from_group publishes as
	// the community rather than the authorizing user.
	form.Set("owner_id", strconv.FormatInt(-groupID, 10))
	form.Set("from_group", "1")
	form.Set("message", text)
	if len(mediaIDs) > 0 {
		form.Set("attachments", strings.Join(mediaIDs, ","))
	}
	form.Set("access_token", token)
	form.Set("v", p.version)

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/wall.post", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var postResp wallPostResponse
	if err := json.Unmarshal(respBody, &postResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if postResp.Error != nil {
		return "", fmt.Errorf("VK API error: %d - %s", postResp.Error.ErrorCode, postResp.Error.ErrorMsg)
	}
	if postResp.Response == nil {
		return "", fmt.Errorf("VK API returned no post id")
	}

	return strconv.Itoa(postResp.Response.PostID), nil
}
