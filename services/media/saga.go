package media

import (
	"context"

	"coursehub/storage/blob"
	"coursehub/utils/logger"
)

// stagedFile is a blob written during this ingestion that no committed row references yet.
type stagedFile struct {
	kind string // "video" or "cover"
	path string
}

// saga records staged files so a later failure can delete them, newest first.
type saga struct {
	store  blob.Store
	log    *logger.Logger
	staged []stagedFile
}

func (s *saga) stage(kind, path string) {
	s.staged = append(s.staged, stagedFile{kind: kind, path: path})
}

// compensate deletes every staged file. Delete failures are logged and never
// replace the error that triggered compensation.
func (s *saga) compensate(ctx context.Context) {
	// The request context may already be cancelled; cleanup still has to run.
	ctx = context.WithoutCancel(ctx)
	for i := len(s.staged) - 1; i >= 0; i-- {
		f := s.staged[i]
		if err := s.store.Delete(ctx, f.path); err != nil {
			s.log.Warn("compensating delete failed", "kind", f.kind, "path", f.path, "error", err)
			continue
		}
		s.log.Debug("compensating delete done", "kind", f.kind, "path", f.path)
	}
	s.staged = nil
}
