package utils

import (
	"context"
	"path"
	"sort"
	"sync"
	"time"

	courseModels "coursehub/models/course"
	"coursehub/storage/blob"
	"coursehub/utils/logger"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// OrphanScanner reports blob files that no video row references. It never deletes.
type OrphanScanner struct {
	db    *gorm.DB
	store blob.Store
	log   *logger.Logger
	limit int
}

func NewOrphanScanner(db *gorm.DB, store blob.Store, log *logger.Logger) *OrphanScanner {
	return &OrphanScanner{db: db, store: store, log: log.With("job", "OrphanScanner"), limit: 4}
}

// Scan lists each course directory concurrently and returns unreferenced paths, sorted.
// References are loaded after listing, so a file whose row commits mid-scan is not reported.
func (s *OrphanScanner) Scan(ctx context.Context) ([]string, error) {
	var courseIDs []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&courseModels.Course{}).Pluck("id", &courseIDs).Error; err != nil {
		return nil, err
	}

	var (
		mu    sync.Mutex
		files []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for _, id := range courseIDs {
		prefix := path.Join("courses", id.String())
		g.Go(func() error {
			listed, err := s.store.List(gctx, prefix)
			if err != nil {
				return err
			}
			mu.Lock()
			files = append(files, listed...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	referenced, err := s.referencedPaths(ctx)
	if err != nil {
		return nil, err
	}
	var orphans []string
	for _, f := range files {
		if !referenced[f] {
			orphans = append(orphans, f)
		}
	}
	sort.Strings(orphans)
	return orphans, nil
}

func (s *OrphanScanner) referencedPaths(ctx context.Context) (map[string]bool, error) {
	var rows []struct {
		VideoPath string
		CoverPath string
	}
	if err := s.db.WithContext(ctx).Model(&courseModels.Video{}).
		Select("video_path", "cover_path").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	refs := make(map[string]bool, len(rows)*2)
	for _, r := range rows {
		if r.VideoPath != "" {
			refs[r.VideoPath] = true
		}
		if r.CoverPath != "" {
			refs[r.CoverPath] = true
		}
	}
	return refs, nil
}

// StartOrphanScheduler runs the scanner on schedule (cron syntax or @every) and logs findings.
func StartOrphanScheduler(schedule string, scanner *OrphanScanner) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		started := time.Now()
		orphans, err := scanner.Scan(ctx)
		if err != nil {
			scanner.log.Error("orphan scan failed", "error", err)
			return
		}
		for _, p := range orphans {
			scanner.log.Warn("orphaned staged file", "path", p)
		}
		scanner.log.Info("orphan scan finished", "orphans", len(orphans), "took", time.Since(started).String())
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	scanner.log.Info("orphan scheduler started", "schedule", schedule)
	return c, nil
}
