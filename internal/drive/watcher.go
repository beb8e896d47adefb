package drive

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// SyncResult reports one pass over the price list folder.
type SyncResult struct {
	Imported []string          `json:"imported"`
	Skipped  []string          `json:"skipped"`
	Failed   map[string]string `json:"failed,omitempty"`
}

// FolderSync imports every supported file in a Drive folder that is new or
// changed since the last pass.
type FolderSync struct {
	importer *ImportService
	files    Files
	folderID string

	mu   sync.Mutex
	seen map[string]string // file id -> modified time
}

func NewFolderSync(files Files, importer *ImportService, folderID string) *FolderSync {
	return &FolderSync{
		importer: importer,
		files:    files,
		folderID: folderID,
		seen:     make(map[string]string),
	}
}

// Sync runs one pass. A file that fails to import is retried on the next pass.
func (s *FolderSync) Sync(ctx context.Context) (SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := SyncResult{Failed: map[string]string{}}
	files, err := s.files.ListFiles(ctx, s.folderID)
	if err != nil {
		return result, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !Supported(f) || (f.ModifiedTime != "" && s.seen[f.ID] == f.ModifiedTime) {
			result.Skipped = append(result.Skipped, f.Name)
			continue
		}
		if _, err := s.importer.importFile(ctx, f); err != nil {
			log.Warn().Err(err).Str("file", f.Name).Msg("drive: import failed")
			result.Failed[f.Name] = err.Error()
			continue
		}
		s.seen[f.ID] = f.ModifiedTime
		result.Imported = append(result.Imported, f.Name)
	}
	return result, nil
}

// Watch syncs immediately and then every interval until ctx is done.
func (s *FolderSync) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if res, err := s.Sync(ctx); err != nil {
			log.Error().Err(err).Msg("drive: folder sync failed")
		} else if len(res.Imported) > 0 {
			log.Info().Strs("files", res.Imported).Msg("drive: folder synced")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
