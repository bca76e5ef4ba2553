package vk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// MediaUploader handles the three-step VK wall photo upload: resolve the
// upload server, push the file there, then save the result as a wall photo.
type MediaUploader struct {
	logger  *zap.Logger
	client  *http.Client
	baseURL string
	version string
}

type uploadServerResponse struct {
	Response *struct {
		UploadURL string `json:"upload_url"`
	} `json:"response"`
	Error *apiError `json:"error"`
}

type uploadResult struct {
	Server int    `json:"server"`
	Photo  string `json:"photo"`
	Hash   string `json:"hash"`
}

type saveWallPhotoResponse struct {
	Response []struct {
		ID      int64 `json:"id"`
		OwnerID int64 `json:"owner_id"`
	} `json:"response"`
	Error *apiError `json:"error"`
}

func NewMediaUploader(logger *zap.Logger, client *http.Client, baseURL, version string) *MediaUploader {
	return &MediaUploader{
		logger:  logger,
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		version: version,
	}
}

// UploadWallPhoto uploads one local image and returns its media id in the
// "photo{owner}_{id}" form wall.post expects in its attachments parameter.
func (u *MediaUploader) UploadWallPhoto(ctx context.Context, token string, groupID int64, path string) (string, error) {
	uploadURL, err := u.getWallUploadServer(ctx, token, groupID)
	if err != nil {
		return "", fmt.Errorf("failed to get upload server: %w", err)
	}

	result, err := u.uploadFile(ctx, uploadURL, path)
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %w", err)
	}

	mediaID, err := u.saveWallPhoto(ctx, token, groupID, result)
	if err != nil {
		return "", fmt.Errorf("failed to save wall photo: %w", err)
	}

	return mediaID, nil
}

func (u *MediaUploader) getWallUploadServer(ctx context.Context, token string, groupID int64) (string, error) {
	form := url.Values{}
	form.Set("group_id", strconv.FormatInt(groupID, 10))
	form.Set("access_token", token)
	form.Set("v", u.version)

	req, err := http.NewRequestWithContext(ctx, "POST", u.baseURL+"/photos.getWallUploadServer", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var serverResp uploadServerResponse
	if err := json.Unmarshal(respBody, &serverResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if serverResp.Error != nil {
		return "", fmt.Errorf("VK API error: %d - %s", serverResp.Error.ErrorCode, serverResp.Error.ErrorMsg)
	}
	if serverResp.Response == nil || serverResp.Response.UploadURL == "" {
		return "", fmt.Errorf("VK API returned no upload url")
	}

	return serverResp.Response.UploadURL, nil
}

func (u *MediaUploader) uploadFile(ctx context.Context, uploadURL, path string) (*uploadResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	// Create multipart form
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("photo", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to copy file content: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", uploadURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result uploadResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if result.Photo == "" || result.Photo == "[]" {
		return nil, fmt.Errorf("upload server rejected the photo")
	}

	return &result, nil
}

func (u *MediaUploader) saveWallPhoto(ctx context.Context, token string, groupID int64, result *uploadResult) (string, error) {
	form := url.Values{}
	form.Set("group_id", strconv.FormatInt(groupID, 10))
	form.Set("server", strconv.Itoa(result.Server))
	form.Set("photo", result.Photo)
	form.Set("hash", result.Hash)
	form.Set("access_token", token)
	form.Set("v", u.version)

	req, err := http.NewRequestWithContext(ctx, "POST", u.baseURL+"/photos.saveWallPhoto", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var saveResp saveWallPhotoResponse
	if err := json.Unmarshal(respBody, &saveResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if saveResp.Error != nil {
		return "", fmt.Errorf("VK API error: %d - %s", saveResp.Error.ErrorCode, saveResp.Error.ErrorMsg)
	}
	if len(saveResp.Response) == 0 {
		return "", fmt.Errorf("VK API returned no saved photo")
	}

	photo := saveResp.Response[0]
	return fmt.Sprintf("photo%d_%d", photo.OwnerID, photo.ID), nil
}
