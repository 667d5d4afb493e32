package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <url>",
	Short: "Resolve a single link and print the media URLs as JSON",
	Long: `Resolve one Instagram post, reel, or story link into direct media URLs.

The result is printed as JSON:

  {"success": true, "media": [{"id": "...", "type": "video", "url": "..."}]}
  {"success": false, "error": "..."}

The exit code is 0 on success and 1 when resolution fails.`,
	Example: `  igresolver resolve https://www.instagram.com/p/ABC123/
  igresolver resolve https://www.instagram.com/reel/XYZ789/`,
	Args: cobra.ExactArgs(1),
	Run:  runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) {
	cfg, log, err := loadConfiguration()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	sessionToken := resolveSessionToken(cfg, log)
	_, engine := buildEngine(cfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcome := engine.Resolve(ctx, args[0], sessionToken)

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(outcome.ToResponse()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if !outcome.Success() {
		os.Exit(1)
	}
}
