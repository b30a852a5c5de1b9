package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZertGraf/cresp/internal/domain"
	"github.com/ZertGraf/cresp/internal/pkg/logger"
	"github.com/ZertGraf/cresp/internal/pkg/storage"
	"github.com/ZertGraf/cresp/internal/repository"
)

type JanitorConfig struct {
	OrphanTTL time.Duration
	BatchSize int
}

type JanitorReport struct {
	Scanned int
	Deleted int
	Failed  int
}

// MediaJanitor removes post uploads that were never attached to a post.
type MediaJanitor struct {
	media  repository.MediaRepository
	store  storage.Provider
	config JanitorConfig
	now    func() time.Time
	logger *logger.Logger
}

func NewMediaJanitor(
	media repository.MediaRepository,
	store storage.Provider,
	config JanitorConfig,
	logger *logger.Logger,
) *MediaJanitor {
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	return &MediaJanitor{
		media:  media,
		store:  store,
		config: config,
		now:    time.Now,
		logger: logger.Component("service/janitor"),
	}
}

// Run deletes one batch of orphans. The object goes first; if that fails
// the row stays so the next run retries it.
func (j *MediaJanitor) Run(ctx context.Context) (JanitorReport, error) {
	var report JanitorReport

	orphans, err := j.media.ListOrphans(ctx, j.now().Add(-j.config.OrphanTTL), j.config.BatchSize)
	if err != nil {
		return report, fmt.Errorf("list orphans: %w", err)
	}
	report.Scanned = len(orphans)

	for _, m := range orphans {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if err := j.store.Delete(ctx, m.StorageKey); err != nil {
			report.Failed++
			j.logger.Warn("failed to delete orphan object",
				"media_id", m.MediaID,
				"key", m.StorageKey,
				"error", err,
			)
			continue
		}

		// attached since it was listed
		if err := j.media.Delete(ctx, m.MediaID); err != nil {
			if errors.Is(err, domain.ErrMediaNotFound) {
				continue
			}
			report.Failed++
			j.logger.Warn("failed to delete orphan row", "media_id", m.MediaID, "error", err)
			continue
		}
		report.Deleted++
	}

	if report.Scanned > 0 {
		j.logger.Info("orphan media collected",
			"scanned", report.Scanned,
			"deleted", report.Deleted,
			"failed", report.Failed,
		)
	}

	return report, nil
}
