package storage

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

func TestManagerSaveAndManifest(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(tempDir, 1)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if manager.SavedCount() != 0 {
		t.Error("Expected initial saved count to be 0")
	}
	if manager.IsSaved("ABC123") {
		t.Error("Expected IsSaved to return false before any save")
	}

	testData := []byte("test media data")
	filename, err := manager.Save(bytes.NewReader(testData), SaveRequest{
		ContentID: "ABC123",
		Creator:   "someuser",
		Link:      "https://www.instagram.com/p/ABC123/",
		Ext:       "mp4",
	})
	if err != nil {
		t.Fatalf("Failed to save: %v", err)
	}
	if filename != "1.mp4" {
		t.Errorf("Expected filename 1.mp4, got %s", filename)
	}

	content, err := os.ReadFile(filepath.Join(tempDir, filename))
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	if !bytes.Equal(content, testData) {
		t.Error("File content does not match saved data")
	}

	if !manager.IsSaved("ABC123") {
		t.Error("Expected IsSaved to return true after save")
	}
	if manager.NextNumber() != 2 {
		t.Errorf("Expected next number 2, got %d", manager.NextNumber())
	}

	// Manifest should have a header row and one data row
	f, err := os.Open(filepath.Join(tempDir, ManifestName))
	if err != nil {
		t.Fatalf("Failed to open manifest: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse manifest: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 manifest rows, got %d", len(records))
	}
	if records[0][0] != "Video Number" {
		t.Errorf("Unexpected manifest header: %v", records[0])
	}
	if records[1][0] != "1" || records[1][1] != "someuser" {
		t.Errorf("Unexpected manifest row: %v", records[1])
	}
}

func TestManagerResumesNumberingFromManifest(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(tempDir, 1)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	for _, id := range []string{"AAA111", "BBB222"} {
		if _, err := manager.Save(bytes.NewReader([]byte("data")), SaveRequest{
			ContentID: id,
			Creator:   "someuser",
			Link:      "https://www.instagram.com/reel/" + id + "/",
			Ext:       "mp4",
		}); err != nil {
			t.Fatalf("Failed to save %s: %v", id, err)
		}
	}

	// A fresh manager over the same directory continues after the
	// highest manifest number and remembers what was saved
	resumed, err := NewManager(tempDir, 1)
	if err != nil {
		t.Fatalf("Failed to create resumed manager: %v", err)
	}

	if resumed.NextNumber() != 3 {
		t.Errorf("Expected numbering to resume at 3, got %d", resumed.NextNumber())
	}
	if !resumed.IsSaved("AAA111") || !resumed.IsSaved("BBB222") {
		t.Error("Expected saved contents to be recognized across runs")
	}
	if resumed.IsSaved("CCC333") {
		t.Error("Unexpected duplicate hit for unseen content")
	}
}

func TestManagerStartNumber(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(tempDir, 100)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	filename, err := manager.Save(bytes.NewReader([]byte("data")), SaveRequest{
		ContentID: "ABC123",
		Creator:   "someuser",
		Link:      "https://www.instagram.com/p/ABC123/",
		Ext:       "jpg",
	})
	if err != nil {
		t.Fatalf("Failed to save: %v", err)
	}
	if filename != "100.jpg" {
		t.Errorf("Expected filename 100.jpg, got %s", filename)
	}
}

func TestManagerNoTempFileLeftBehind(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(tempDir, 1)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if _, err := manager.Save(bytes.NewReader([]byte("data")), SaveRequest{
		ContentID: "ABC123",
		Creator:   "someuser",
		Link:      "https://www.instagram.com/p/ABC123/",
		Ext:       "mp4",
	}); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".tmp" {
			t.Errorf("Temporary file left behind: %s", entry.Name())
		}
	}
}
