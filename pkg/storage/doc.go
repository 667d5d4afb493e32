// Package storage provides download output management for batch runs.
//
// The storage package handles:
//   - Creating and managing output directories
//   - Numbered file naming that continues across runs
//   - Duplicate detection keyed on the upstream content identifier
//   - Atomic file writes using temporary files and rename
//   - A CSV manifest mapping each numbered file to its creator and link
//
// The Manager type is the primary interface. On startup it replays the
// manifest in the output directory to rebuild the duplicate set and the
// numbering high-water mark, so re-running the same link list only
// downloads what is new.
//
// Usage:
//
//	manager, err := storage.NewManager("downloads", 1)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if !manager.IsSaved("ABC123") {
//	    _, err = manager.Save(body, storage.SaveRequest{
//	        ContentID: "ABC123",
//	        Creator:   "someuser",
//	        Link:      "https://www.instagram.com/p/ABC123/",
//	        Ext:       "mp4",
//	    })
//	}
package storage
