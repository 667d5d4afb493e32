package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"igresolver/pkg/instagram"
)

// ManifestName is the per-directory download ledger file
const ManifestName = "manifest.csv"

var manifestHeader = []string{"Video Number", "Creator Name", "Link"}

// SaveRequest describes one media file to be written
type SaveRequest struct {
	ContentID string
	Creator   string
	Link      string
	Ext       string
}

// Manager handles download output: numbered file naming, duplicate
// detection across runs, atomic writes, and the CSV manifest that maps
// each numbered file back to its creator and source link.
type Manager struct {
	outputDir string
	next      int
	saved     map[string]bool
	mu        sync.Mutex
}

// NewManager creates a storage manager rooted at outputDir. Numbering
// starts at startNumber unless the manifest already carries higher
// numbers, in which case it continues after them.
func NewManager(outputDir string, startNumber int) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if startNumber < 1 {
		startNumber = 1
	}

	m := &Manager{
		outputDir: outputDir,
		next:      startNumber,
		saved:     make(map[string]bool),
	}

	if err := m.loadManifest(); err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}

	return m, nil
}

// loadManifest rebuilds the duplicate set and the numbering high-water
// mark from an existing manifest
func (m *Manager) loadManifest() error {
	f, err := os.Open(filepath.Join(m.outputDir, ManifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to parse manifest: %w", err)
	}

	for i, record := range records {
		if i == 0 || len(record) < 3 {
			continue
		}
		if number, err := strconv.Atoi(strings.TrimSpace(record[0])); err == nil && number >= m.next {
			m.next = number + 1
		}
		if ref, err := instagram.Classify(record[2]); err == nil {
			m.saved[ref.ContentID] = true
		}
	}

	return nil
}

// IsSaved reports whether a file for this content has already been
// downloaded in this directory
func (m *Manager) IsSaved(contentID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved[contentID]
}

// NextNumber returns the number the next saved file will get
func (m *Manager) NextNumber() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.next
}

// Save writes the media data to a numbered file and records it in the
// manifest. The write goes through a temporary file so a failed download
// never leaves a half-written numbered file behind.
func (m *Manager) Save(r io.Reader, req SaveRequest) (string, error) {
	m.mu.Lock()
	number := m.next
	m.next++
	m.mu.Unlock()

	ext := strings.TrimPrefix(req.Ext, ".")
	if ext == "" {
		ext = "mp4"
	}
	filename := fmt.Sprintf("%d.%s", number, ext)
	path := filepath.Join(m.outputDir, filename)

	tempPath := path + ".tmp"
	out, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to save media data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	if err := m.appendManifest(number, req); err != nil {
		return "", err
	}

	m.mu.Lock()
	m.saved[req.ContentID] = true
	m.mu.Unlock()

	return filename, nil
}

// appendManifest adds one row to the manifest, writing the header first
// if the file is new
func (m *Manager) appendManifest(number int, req SaveRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := filepath.Join(m.outputDir, ManifestName)
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if isNew {
		if err := writer.Write(manifestHeader); err != nil {
			return fmt.Errorf("failed to write manifest header: %w", err)
		}
	}
	if err := writer.Write([]string{strconv.Itoa(number), req.Creator, req.Link}); err != nil {
		return fmt.Errorf("failed to write manifest row: %w", err)
	}
	writer.Flush()

	return writer.Error()
}

// OutputDir returns the output directory path
func (m *Manager) OutputDir() string {
	return m.outputDir
}

// SavedCount returns the number of distinct saved contents
func (m *Manager) SavedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}
