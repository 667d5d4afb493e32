package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"igresolver/internal/downloader"
	"igresolver/pkg/instagram"
	"igresolver/pkg/ratelimit"
	"igresolver/pkg/storage"
)

var (
	downloadFile        string
	downloadOutput      string
	downloadConcurrent  int
	downloadStartNumber int
)

var downloadCmd = &cobra.Command{
	Use:   "download [urls...]",
	Short: "Batch-download a list of links into numbered files",
	Long: `Resolve a list of Instagram links and download the media into numbered
files. Links can come from arguments, a file (one per line), or stdin.

Duplicate links are collapsed before downloading, and links already
present in the output directory's manifest are skipped, so the same
list can be re-run to pick up only what is new. Every saved file gets
a row in manifest.csv mapping its number to the creator and the
original link.`,
	Example: `  igresolver download https://www.instagram.com/reel/ABC123/
  igresolver download --file links.txt --output ./downloads
  cat links.txt | igresolver download`,
	Run: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadFile, "file", "f", "", "read links from file, one per line")
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output directory (overrides config)")
	downloadCmd.Flags().IntVar(&downloadConcurrent, "concurrent", 0, "concurrent downloads (overrides config)")
	downloadCmd.Flags().IntVar(&downloadStartNumber, "start-number", 0, "first file number (overrides config)")
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) {
	cfg, log, err := loadConfiguration()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if downloadOutput != "" {
		cfg.Download.OutputDirectory = downloadOutput
	}
	if downloadConcurrent > 0 {
		cfg.Download.ConcurrentDownloads = downloadConcurrent
	}
	if downloadStartNumber > 0 {
		cfg.Download.StartNumber = downloadStartNumber
	}

	links, err := gatherLinks(args, downloadFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if len(links) == 0 {
		fmt.Fprintln(os.Stderr, "no links given; pass URLs as arguments, --file, or stdin")
		os.Exit(1)
	}

	// Collapse duplicate links before any network work
	refs := make([]*instagram.PostReference, 0, len(links))
	seen := make(map[string]bool)
	for _, link := range links {
		ref, err := instagram.Classify(link)
		if err != nil {
			log.WithField("link", link).Warn("skipping unrecognized link")
			continue
		}
		if seen[ref.ContentID] {
			continue
		}
		seen[ref.ContentID] = true
		refs = append(refs, ref)
	}
	if len(refs) == 0 {
		fmt.Fprintln(os.Stderr, "none of the given links look like Instagram content")
		os.Exit(1)
	}

	store, err := storage.NewManager(cfg.Download.OutputDirectory, cfg.Download.StartNumber)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	sessionToken := resolveSessionToken(cfg, log)
	client, engine := buildEngine(cfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter := ratelimit.NewTokenBucket(cfg.Server.RequestsPerMinute, time.Minute)
	pool := downloader.NewWorkerPool(cfg.Download.ConcurrentDownloads, bodyFetcher{client}, store, limiter, log)
	pool.Start()

	var summary struct {
		downloaded int
		skipped    int
		failed     int
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range pool.Results() {
			switch {
			case result.Success && result.Skipped:
				summary.skipped++
			case result.Success:
				summary.downloaded++
				fmt.Printf("saved %s  (%s)\n", result.Filename, result.Job.Link)
			default:
				summary.failed++
				fmt.Fprintf(os.Stderr, "failed %s: %v\n", result.Job.Link, result.Error)
			}
		}
	}()

	// Resolution-stage counters are separate from the download goroutine's
	resolved, preSkipped, unresolved := 0, 0, 0
	for _, ref := range refs {
		if ctx.Err() != nil {
			break
		}
		if store.IsSaved(ref.ContentID) {
			preSkipped++
			continue
		}

		outcome := engine.Resolve(ctx, ref.Raw, sessionToken)
		if !outcome.Success() {
			unresolved++
			fmt.Fprintf(os.Stderr, "failed %s: %s\n", ref.Raw, outcome.Err.Message)
			continue
		}
		resolved++

		for i, asset := range outcome.Assets {
			key := ref.ContentID
			if len(outcome.Assets) > 1 {
				key = fmt.Sprintf("%s_%d", ref.ContentID, i+1)
			}
			creator := asset.OwnerHandle
			if creator == "" {
				creator = "unknown"
			}
			job := downloader.Job{
				Key:     key,
				Asset:   asset,
				Creator: creator,
				Link:    ref.Raw,
			}
			if err := pool.Submit(job); err != nil {
				unresolved++
				break
			}
		}
	}

	pool.Stop()
	wg.Wait()

	skipped := summary.skipped + preSkipped
	failed := summary.failed + unresolved
	fmt.Printf("\nDone: %d downloaded, %d skipped, %d failed (%d links resolved)\n",
		summary.downloaded, skipped, failed, resolved)
	fmt.Printf("Output: %s\n", store.OutputDir())

	if failed > 0 {
		os.Exit(1)
	}
}

// bodyFetcher adapts the upstream client to the pool's streaming interface
type bodyFetcher struct {
	client *instagram.Client
}

func (f bodyFetcher) Stream(ctx context.Context, url string) (io.ReadCloser, error) {
	resp, err := f.client.Stream(ctx, url)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// gatherLinks collects links from arguments, a file, and piped stdin.
// Blank lines and #-comments are ignored.
func gatherLinks(args []string, file string) ([]string, error) {
	links := make([]string, 0, len(args))
	links = append(links, args...)

	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open link file: %w", err)
		}
		defer f.Close()
		fileLinks, err := readLinks(f)
		if err != nil {
			return nil, err
		}
		links = append(links, fileLinks...)
	}

	if len(links) == 0 {
		if stat, err := os.Stdin.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
			stdinLinks, err := readLinks(os.Stdin)
			if err != nil {
				return nil, err
			}
			links = append(links, stdinLinks...)
		}
	}

	return links, nil
}

func readLinks(r io.Reader) ([]string, error) {
	var links []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		links = append(links, line)
	}
	return links, scanner.Err()
}
