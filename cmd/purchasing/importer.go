package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/andresuchdata/purchasing-admin/backend-go/pkg/logger"
)

// FileJob is one file of a batch import.
type FileJob struct {
	Path     string
	Result   string
	Err      error
	Duration time.Duration
}

// importFunc imports one file and returns a short description of what was
// stored.
type importFunc func(ctx context.Context, path string, data []byte) (string, error)

// collectFiles expands directories to the *.csv files they contain.
func collectFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.csv"))
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	return files, nil
}

// processFilesParallel runs fn over files with a fixed worker pool. Every
// job is attempted and reported; the returned error counts the failures.
func processFilesParallel(ctx context.Context, files []string, workerCount int, fn importFunc) ([]*FileJob, error) {
	if workerCount < 1 {
		workerCount = 1
	}

	jobs := make([]*FileJob, len(files))
	for i, f := range files {
		jobs[i] = &FileJob{Path: f}
	}

	jobChan := make(chan *FileJob)
	var wg sync.WaitGroup

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range jobChan {
				processFile(ctx, job, fn)
				if job.Err != nil {
					logger.Log.Error().Err(job.Err).Int("worker", workerID).Str("file", job.Path).Msg("import failed")
					continue
				}
				logger.Log.Info().Str("file", job.Path).Str("result", job.Result).Dur("took", job.Duration).Msg("imported")
			}
		}(i)
	}

enqueue:
	for _, job := range jobs {
		select {
		case <-ctx.Done():
			break enqueue
		case jobChan <- job:
		}
	}
	close(jobChan)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return jobs, err
	}

	failed := 0
	for _, job := range jobs {
		if job.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return jobs, fmt.Errorf("%d of %d files failed to import", failed, len(jobs))
	}
	return jobs, nil
}

func processFile(ctx context.Context, job *FileJob, fn importFunc) {
	start := time.Now()
	defer func() { job.Duration = time.Since(start) }()

	data, err := os.ReadFile(job.Path)
	if err != nil {
		job.Err = fmt.Errorf("failed to read file: %w", err)
		return
	}
	job.Result, job.Err = fn(ctx, job.Path, data)
}
