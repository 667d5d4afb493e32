package downloader

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"igresolver/pkg/logger"
	"igresolver/pkg/ratelimit"
	"igresolver/pkg/resolver"
	"igresolver/pkg/storage"
)

// Job is one resolved asset to fetch and store. Key is the duplicate
// detection key: the content identifier for single media, with a child
// suffix for carousel items.
type Job struct {
	Key     string
	Asset   resolver.MediaAsset
	Creator string
	Link    string
}

// Result describes the terminal state of one job
type Result struct {
	Job      Job
	Success  bool
	Skipped  bool
	Filename string
	Error    error
	Duration time.Duration
}

// MediaFetcher streams media bytes from a resolved URL
type MediaFetcher interface {
	Stream(ctx context.Context, url string) (io.ReadCloser, error)
}

// MediaStorage persists fetched media and tracks what was already saved
type MediaStorage interface {
	IsSaved(key string) bool
	Save(r io.Reader, req storage.SaveRequest) (string, error)
}

// WorkerPool downloads resolved assets concurrently
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	fetcher     MediaFetcher
	store       MediaStorage
	rateLimiter ratelimit.Limiter
	logger      logger.Logger
}

// NewWorkerPool creates a download worker pool
func NewWorkerPool(
	numWorkers int,
	fetcher MediaFetcher,
	store MediaStorage,
	rateLimiter ratelimit.Limiter,
	log logger.Logger,
) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		fetcher:     fetcher,
		store:       store,
		rateLimiter: rateLimiter,
		logger:      log,
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	wp.logger.InfoWithFields("starting download pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop drains the queue, waits for workers, and closes the result channel
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Info("download pool stopped")
}

// Submit adds a job to the queue
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("download pool is shutting down")
	}
}

// Results returns the channel download results arrive on
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			return
		default:
		}

		result := wp.processJob(job, id)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

func (wp *WorkerPool) processJob(job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job}

	if wp.store.IsSaved(job.Key) {
		wp.logger.DebugWithFields("already saved, skipping", map[string]interface{}{
			"worker_id": workerID,
			"key":       job.Key,
		})
		result.Success = true
		result.Skipped = true
		result.Duration = time.Since(start)
		return result
	}

	if !wp.rateLimiter.Allow() {
		wp.rateLimiter.Wait()
	}

	body, err := wp.fetcher.Stream(wp.ctx, job.Asset.SourceURL)
	if err != nil {
		result.Error = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)

		wp.logger.ErrorWithFields("failed to download asset", map[string]interface{}{
			"worker_id": workerID,
			"key":       job.Key,
			"error":     err.Error(),
		})
		return result
	}
	defer body.Close()

	filename, err := wp.store.Save(body, storage.SaveRequest{
		ContentID: job.Key,
		Creator:   job.Creator,
		Link:      job.Link,
		Ext:       extensionFor(job.Asset.Kind),
	})
	if err != nil {
		result.Error = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)

		wp.logger.ErrorWithFields("failed to save asset", map[string]interface{}{
			"worker_id": workerID,
			"key":       job.Key,
			"error":     err.Error(),
		})
		return result
	}

	result.Success = true
	result.Filename = filename
	result.Duration = time.Since(start)

	wp.logger.DebugWithFields("asset saved", map[string]interface{}{
		"worker_id": workerID,
		"key":       job.Key,
		"filename":  filename,
		"duration":  result.Duration,
	})

	return result
}

func extensionFor(kind resolver.MediaKind) string {
	if kind == resolver.MediaKindVideo {
		return "mp4"
	}
	return "jpg"
}
