package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/omnipost/omnipost/internal/models"
	"github.com/omnipost/omnipost/internal/service"
	"github.com/omnipost/omnipost/internal/service/publisher"
)

// handlePublishPost accepts a multipart post (text, destination lists,
// optional images, optional scheduled_time) and either publishes it
// immediately or enqueues it for the scheduler.
func (s *Server) handlePublishPost(c *gin.Context) {
	ownerID := c.PostForm("owner_id")
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner_id is required"})
		return
	}

	text := c.PostForm("text")
	vkGroups := splitList(c.PostForm("vk_groups"))
	tgChannels := splitList(c.PostForm("tg_channels"))
	if len(vkGroups) == 0 && len(tgChannels) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one destination is required"})
		return
	}

	scheduledTime := c.PostForm("scheduled_time")
	if scheduledTime != "" {
		if _, err := service.ParseScheduledTime(scheduledTime); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scheduled_time"})
			return
		}
	}

	staged, err := s.stageUploads(c)
	if err != nil {
		s.Logger.Error("Failed to stage uploads", zap.Error(err))
		s.Stager.Release(staged)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store attachments"})
		return
	}

	// Deferred path: persist a pending entry and let the scheduler publish
	// and clean up later.
	if scheduledTime != "" {
		post := &models.ScheduledPost{
			OwnerID:       ownerID,
			Text:          text,
			VKGroups:      vkGroups,
			TGChannels:    tgChannels,
			Attachments:   staged,
			ScheduledTime: scheduledTime,
		}
		if err := s.ScheduledPosts.Create(c.Request.Context(), post); err != nil {
			s.Logger.Error("Failed to schedule post", zap.Error(err))
			s.Stager.Release(staged)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to schedule post"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"id": post.ID, "status": post.Status})
		return
	}

	// Immediate path: staged files are released whatever the outcome.
	defer s.Stager.Release(staged)

	result := s.Publish.Publish(c.Request.Context(), ownerID, publisher.Post{
		Text:         text,
		Attachments:  staged,
		Destinations: service.Destinations(vkGroups, tgChannels),
	})

	c.JSON(http.StatusOK, result)
}

func (s *Server) stageUploads(c *gin.Context) ([]string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		// No multipart body at all means no attachments.
		return nil, nil
	}

	var staged []string
	for _, header := range form.File["images"] {
		file, err := header.Open()
		if err != nil {
			return staged, err
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return staged, err
		}

		path, err := s.Stager.Stage(data, header.Filename)
		if err != nil {
			return staged, err
		}
		staged = append(staged, path)
	}
	return staged, nil
}

func (s *Server) handleListScheduledPosts(c *gin.Context) {
	ownerID := c.Query("owner_id")
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner_id is required"})
		return
	}

	posts, err := s.ScheduledPosts.ListForOwner(c.Request.Context(), ownerID)
	if err != nil {
		s.Logger.Error("Failed to list scheduled posts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list scheduled posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (s *Server) handleListDeliveries(c *gin.Context) {
	ownerID := c.Query("owner_id")
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner_id is required"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	records, err := s.Deliveries.ListForOwner(c.Request.Context(), ownerID, limit)
	if err != nil {
		s.Logger.Error("Failed to list deliveries", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list deliveries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deliveries": records})
}

type credentialRequest struct {
	OwnerID       string `json:"owner_id" binding:"required"`
	Platform      string `json:"platform" binding:"required"`
	DestinationID string `json:"destination_id"`
	Secret        string `json:"secret"`
	Label         string `json:"label"`
}

func (s *Server) handleSetCredential(c *gin.Context) {
	var req credentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Secret == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "secret is required"})
		return
	}

	platform, ok := parsePlatform(req.Platform)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown platform"})
		return
	}

	destinationID := req.DestinationID
	if platform.SessionScoped() {
		destinationID = ""
	}

	if err := s.Credentials.Set(c.Request.Context(), req.OwnerID, platform, destinationID, req.Secret, req.Label); err != nil {
		s.Logger.Error("Failed to save credential", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save credential"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "credential saved"})
}

func (s *Server) handleRemoveCredential(c *gin.Context) {
	var req credentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	platform, ok := parsePlatform(req.Platform)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown platform"})
		return
	}

	destinationID := req.DestinationID
	if platform.SessionScoped() {
		destinationID = ""
	}

	if err := s.Credentials.Remove(c.Request.Context(), req.OwnerID, platform, destinationID); err != nil {
		s.Logger.Error("Failed to remove credential", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove credential"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "credential removed"})
}

func parsePlatform(name string) (publisher.Platform, bool) {
	switch publisher.Platform(name) {
	case publisher.PlatformVK:
		return publisher.PlatformVK, true
	case publisher.PlatformTelegram:
		return publisher.PlatformTelegram, true
	default:
		return "", false
	}
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
