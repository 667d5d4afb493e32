package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"igresolver/pkg/ratelimit"
	"igresolver/pkg/resolver"
	"igresolver/pkg/storage"
)

// MockFetcher is a scripted MediaFetcher
type MockFetcher struct {
	streamDelay   time.Duration
	streamError   error
	streamCounter int32
}

func (m *MockFetcher) Stream(ctx context.Context, url string) (io.ReadCloser, error) {
	atomic.AddInt32(&m.streamCounter, 1)
	if m.streamDelay > 0 {
		time.Sleep(m.streamDelay)
	}
	if m.streamError != nil {
		return nil, m.streamError
	}
	return io.NopCloser(strings.NewReader("mock media data")), nil
}

func (m *MockFetcher) StreamCount() int {
	return int(atomic.LoadInt32(&m.streamCounter))
}

// MockStorage is an in-memory MediaStorage
type MockStorage struct {
	saved     map[string]bool
	saveError error
	next      int
	mu        sync.Mutex
}

func NewMockStorage() *MockStorage {
	return &MockStorage{saved: make(map[string]bool), next: 1}
}

func (m *MockStorage) IsSaved(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved[key]
}

func (m *MockStorage) Save(r io.Reader, req storage.SaveRequest) (string, error) {
	if m.saveError != nil {
		return "", m.saveError
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[req.ContentID] = true
	number := m.next
	m.next++
	return fmt.Sprintf("%d.%s", number, req.Ext), nil
}

func (m *MockStorage) SavedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

func testJob(key string) Job {
	return Job{
		Key: key,
		Asset: resolver.MediaAsset{
			ID:        key,
			Kind:      resolver.MediaKindVideo,
			SourceURL: "https://cdn.example.net/" + key + ".mp4",
		},
		Creator: "testuser",
		Link:    "https://www.instagram.com/reel/" + key + "/",
	}
}

func collectResults(pool *WorkerPool) (<-chan []Result, func()) {
	out := make(chan []Result, 1)
	go func() {
		var results []Result
		for result := range pool.Results() {
			results = append(results, result)
		}
		out <- results
	}()
	return out, pool.Stop
}

func TestWorkerPoolBasicFunctionality(t *testing.T) {
	fetcher := &MockFetcher{streamDelay: 5 * time.Millisecond}
	store := NewMockStorage()
	limiter := ratelimit.NewTokenBucket(100, time.Second)

	pool := NewWorkerPool(3, fetcher, store, limiter, nil)
	pool.Start()
	resultsCh, stop := collectResults(pool)

	numJobs := 10
	for i := 0; i < numJobs; i++ {
		if err := pool.Submit(testJob(fmt.Sprintf("key%d", i))); err != nil {
			t.Errorf("Failed to submit job %d: %v", i, err)
		}
	}

	stop()
	results := <-resultsCh

	if len(results) != numJobs {
		t.Fatalf("Expected %d results, got %d", numJobs, len(results))
	}
	for _, result := range results {
		if !result.Success {
			t.Errorf("Job %s failed: %v", result.Job.Key, result.Error)
		}
		if result.Filename == "" {
			t.Errorf("Job %s has no filename", result.Job.Key)
		}
	}
	if store.SavedCount() != numJobs {
		t.Errorf("Expected %d saved assets, got %d", numJobs, store.SavedCount())
	}
}

func TestWorkerPoolSkipsAlreadySaved(t *testing.T) {
	fetcher := &MockFetcher{}
	store := NewMockStorage()
	store.saved["existing"] = true
	limiter := ratelimit.NewTokenBucket(100, time.Second)

	pool := NewWorkerPool(2, fetcher, store, limiter, nil)
	pool.Start()
	resultsCh, stop := collectResults(pool)

	if err := pool.Submit(testJob("existing")); err != nil {
		t.Fatalf("Failed to submit: %v", err)
	}

	stop()
	results := <-resultsCh

	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if !results[0].Success || !results[0].Skipped {
		t.Errorf("Expected a skipped success, got %+v", results[0])
	}
	if fetcher.StreamCount() != 0 {
		t.Errorf("Expected no fetches for a saved key, got %d", fetcher.StreamCount())
	}
}

func TestWorkerPoolReportsDownloadErrors(t *testing.T) {
	fetcher := &MockFetcher{streamError: errors.New("connection reset")}
	store := NewMockStorage()
	limiter := ratelimit.NewTokenBucket(100, time.Second)

	pool := NewWorkerPool(1, fetcher, store, limiter, nil)
	pool.Start()
	resultsCh, stop := collectResults(pool)

	if err := pool.Submit(testJob("broken")); err != nil {
		t.Fatalf("Failed to submit: %v", err)
	}

	stop()
	results := <-resultsCh

	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].Success {
		t.Error("Expected failure result")
	}
	if results[0].Error == nil || !strings.Contains(results[0].Error.Error(), "download failed") {
		t.Errorf("Unexpected error: %v", results[0].Error)
	}
	if store.SavedCount() != 0 {
		t.Error("Nothing should be saved on download failure")
	}
}

func TestWorkerPoolReportsSaveErrors(t *testing.T) {
	fetcher := &MockFetcher{}
	store := NewMockStorage()
	store.saveError = errors.New("disk full")
	limiter := ratelimit.NewTokenBucket(100, time.Second)

	pool := NewWorkerPool(1, fetcher, store, limiter, nil)
	pool.Start()
	resultsCh, stop := collectResults(pool)

	if err := pool.Submit(testJob("unsavable")); err != nil {
		t.Fatalf("Failed to submit: %v", err)
	}

	stop()
	results := <-resultsCh

	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].Success {
		t.Error("Expected failure result")
	}
	if results[0].Error == nil || !strings.Contains(results[0].Error.Error(), "save failed") {
		t.Errorf("Unexpected error: %v", results[0].Error)
	}
}

func TestWorkerPoolConcurrency(t *testing.T) {
	fetcher := &MockFetcher{streamDelay: 20 * time.Millisecond}
	store := NewMockStorage()
	limiter := ratelimit.NewTokenBucket(100, time.Second)

	pool := NewWorkerPool(4, fetcher, store, limiter, nil)
	pool.Start()
	resultsCh, stop := collectResults(pool)

	numJobs := 8
	start := time.Now()
	for i := 0; i < numJobs; i++ {
		if err := pool.Submit(testJob(fmt.Sprintf("key%d", i))); err != nil {
			t.Fatalf("Failed to submit job %d: %v", i, err)
		}
	}
	stop()
	results := <-resultsCh
	elapsed := time.Since(start)

	if len(results) != numJobs {
		t.Fatalf("Expected %d results, got %d", numJobs, len(results))
	}
	// Sequential execution would take at least numJobs*delay
	if elapsed >= time.Duration(numJobs)*20*time.Millisecond {
		t.Errorf("Jobs appear to have run sequentially: %v", elapsed)
	}
}
