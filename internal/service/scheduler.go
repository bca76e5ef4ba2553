package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/omnipost/omnipost/internal/config"
	"github.com/omnipost/omnipost/internal/models"
	"github.com/omnipost/omnipost/internal/service/publisher"
)

// ScheduledPostStore is the slice of the durable queue the runner needs.
type ScheduledPostStore interface {
	ListPending(ctx context.Context) ([]models.ScheduledPost, error)
	MarkPublished(ctx context.Context, id uint) error
	MarkFailed(ctx context.Context, id uint, errMsg string) error
}

// Dispatcher is the publish entry point the runner drives.
type Dispatcher interface {
	Publish(ctx context.Context, ownerID string, post publisher.Post) *publisher.AggregateResult
}

// AttachmentReleaser frees staged attachment files after a publish attempt.
type AttachmentReleaser interface {
	Release(paths []string)
}

// Scheduler polls the durable queue on a fixed interval and publishes due
// pending posts. One cycle runs to completion before the next begins, and a
// failure on one entry never stops the rest of the cycle.
type Scheduler struct {
	config     *config.SchedulerConfig
	logger     *zap.Logger
	store      ScheduledPostStore
	dispatcher Dispatcher
	stager     AttachmentReleaser
	now        func() time.Time
	ticker     *time.Ticker
	stopCh     chan struct{}
}

func NewScheduler(cfg *config.SchedulerConfig, logger *zap.Logger, store ScheduledPostStore, dispatcher Dispatcher, stager AttachmentReleaser) *Scheduler {
	return &Scheduler{
		config:     cfg,
		logger:     logger,
		store:      store,
		dispatcher: dispatcher,
		stager:     stager,
		now:        time.Now,
		stopCh:     make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.config.Disabled {
		s.logger.Info("Scheduler is disabled")
		return nil
	}

	interval, err := time.ParseDuration(s.config.PollInterval)
	if err != nil {
		s.logger.Error("Invalid poll interval", zap.String("interval", s.config.PollInterval), zap.Error(err))
		return err
	}

	s.logger.Info("Starting scheduler", zap.String("poll_interval", s.config.PollInterval))

	s.ticker = time.NewTicker(interval)

	// Single polling goroutine. The initial cycle runs here, before the first
	// tick, so two cycles can never overlap even when a cycle outlasts the
	// poll interval.
	go func() {
		s.logger.Info("Running initial cycle")
		s.RunCycle(ctx)

		for {
			select {
			case <-s.ticker.C:
				s.RunCycle(ctx)
			case <-s.stopCh:
				s.logger.Info("Scheduler stopped")
				return
			case <-ctx.Done():
				s.logger.Info("Scheduler context cancelled")
				return
			}
		}
	}()

	return nil
}

func (s *Scheduler) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
	s.logger.Info("Scheduler shutdown completed")
}

// RunCycle processes every due pending post once. Any error surfacing here is
// logged; the next cycle proceeds after the poll interval regardless.
func (s *Scheduler) RunCycle(ctx context.Context) {
	start := s.now()

	posts, err := s.store.ListPending(ctx)
	if err != nil {
		s.logger.Error("Failed to list pending posts", zap.Error(err))
		return
	}

	s.logger.Info("Checking scheduled posts", zap.Int("pending", len(posts)))

	for i := range posts {
		s.processEntry(ctx, &posts[i])
	}

	s.logger.Info("Cycle completed", zap.Duration("duration", s.now().Sub(start)))
}

func (s *Scheduler) processEntry(ctx context.Context, post *models.ScheduledPost) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic while processing scheduled post",
				zap.Uint("post_id", post.ID),
				zap.Any("panic", r))
		}
	}()

	scheduledTime, err := ParseScheduledTime(post.ScheduledTime)
	if err != nil {
		// Unparseable timestamps leave the entry pending; there is no
		// dead-letter path.
		s.logger.Error("Failed to parse scheduled time",
			zap.Uint("post_id", post.ID),
			zap.String("scheduled_time", post.ScheduledTime),
			zap.Error(err))
		return
	}

	if scheduledTime.After(s.now().UTC()) {
		return
	}

	s.logger.Info("Publishing scheduled post", zap.Uint("post_id", post.ID))

	result := s.dispatcher.Publish(ctx, post.OwnerID, publisher.Post{
		Text:         post.Text,
		Attachments:  post.Attachments,
		Destinations: Destinations(post.VKGroups, post.TGChannels),
	})

	if result.Success {
		if err := s.store.MarkPublished(ctx, post.ID); err != nil {
			s.logger.Error("Failed to mark post published", zap.Uint("post_id", post.ID), zap.Error(err))
		} else {
			s.logger.Info("Scheduled post published", zap.Uint("post_id", post.ID))
		}
	} else {
		errMsg := strings.Join(result.Errors, ", ")
		if err := s.store.MarkFailed(ctx, post.ID, errMsg); err != nil {
			s.logger.Error("Failed to mark post failed", zap.Uint("post_id", post.ID), zap.Error(err))
		} else {
			s.logger.Info("Scheduled post failed",
				zap.Uint("post_id", post.ID),
				zap.String("error", errMsg))
		}
	}

	s.stager.Release(post.Attachments)
}

// ParseScheduledTime accepts RFC 3339 timestamps ("Z" included) and falls
// back to a naive local-less form interpreted as UTC.
func ParseScheduledTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", value, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// Destinations expands the per-platform id lists into one ordered destination
// sequence, groups first, channels second.
func Destinations(vkGroups, tgChannels []string) []publisher.Destination {
	dests := make([]publisher.Destination, 0, len(vkGroups)+len(tgChannels))
	for _, id := range vkGroups {
		dests = append(dests, publisher.Destination{Platform: publisher.PlatformVK, ID: id})
	}
	for _, id := range tgChannels {
		dests = append(dests, publisher.Destination{Platform: publisher.PlatformTelegram, ID: id})
	}
	return dests
}
