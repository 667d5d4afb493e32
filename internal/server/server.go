package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"igresolver/pkg/config"
	errs "igresolver/pkg/errors"
	"igresolver/pkg/logger"
	"igresolver/pkg/ratelimit"
	"igresolver/pkg/resolver"
)

// MediaResolver is the resolution engine surface the server depends on
type MediaResolver interface {
	Resolve(ctx context.Context, rawReference, sessionToken string) resolver.Outcome
}

// MediaStreamer streams upstream media for the proxy endpoint
type MediaStreamer interface {
	Stream(ctx context.Context, url string) (*http.Response, error)
}

// SweepableCache is the cache surface the janitor needs
type SweepableCache interface {
	Sweep()
}

// Server exposes the resolution engine over HTTP
type Server struct {
	cfg      *config.Config
	resolver MediaResolver
	streamer MediaStreamer
	cache    SweepableCache
	limiter  *ratelimit.KeyedLimiter
	logger   logger.Logger
	httpSrv  *http.Server
}

// New creates a server around a resolver and a media streamer
func New(cfg *config.Config, mediaResolver MediaResolver, streamer MediaStreamer, cache SweepableCache, log logger.Logger) *Server {
	if log == nil {
		log = logger.GetLogger()
	}

	s := &Server{
		cfg:      cfg,
		resolver: mediaResolver,
		streamer: streamer,
		cache:    cache,
		limiter:  ratelimit.NewKeyedLimiter(cfg.Server.RequestsPerMinute, time.Minute),
		logger:   log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/resolve", s.rateLimited(s.handleResolve))
	mux.HandleFunc("/api/proxy", s.rateLimited(s.handleProxy))
	mux.HandleFunc("/healthz", s.handleHealth)

	s.httpSrv = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

// Handler returns the HTTP handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Run serves until the context is cancelled, then shuts down gracefully.
// It also runs the janitors that sweep the result cache and the per-client
// limiter buckets.
func (s *Server) Run(ctx context.Context) error {
	janitorCtx, stopJanitors := context.WithCancel(ctx)
	defer stopJanitors()
	go s.runJanitors(janitorCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoWithFields("http server listening", map[string]interface{}{
			"address": s.cfg.Server.Address,
		})
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	}
}

func (s *Server) runJanitors(ctx context.Context) {
	interval := s.cfg.Resolver.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.cache != nil {
				s.cache.Sweep()
			}
			s.limiter.Sweep()
		}
	}
}

// rateLimited enforces the per-client request budget
func (s *Server) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !s.limiter.Allow(key) {
			s.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
				"client": key,
				"path":   r.URL.Path,
			})
			writeJSON(w, http.StatusTooManyRequests, resolver.Response{
				Success: false,
				Error:   "rate limit exceeded, slow down",
			})
			return
		}
		next(w, r)
	}
}

// clientKey identifies the caller for rate limiting, honoring the first
// hop of X-Forwarded-For when present
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.Index(fwd, ","); idx >= 0 {
			fwd = fwd[:idx]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type resolveRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, resolver.Response{
			Success: false,
			Error:   "method not allowed",
		})
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil || req.URL == "" {
		writeJSON(w, http.StatusBadRequest, resolver.Response{
			Success: false,
			Error:   "request body must be JSON with a non-empty url field",
		})
		return
	}

	start := time.Now()
	outcome := s.resolver.Resolve(r.Context(), req.URL, s.cfg.Instagram.SessionToken)

	s.logger.InfoWithFields("resolve request", map[string]interface{}{
		"client":   clientKey(r),
		"success":  outcome.Success(),
		"duration": time.Since(start),
	})

	writeJSON(w, statusFor(outcome), outcome.ToResponse())
}

func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, resolver.Response{
			Success: false,
			Error:   "method not allowed",
		})
		return
	}

	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeJSON(w, http.StatusBadRequest, resolver.Response{
			Success: false,
			Error:   "url query parameter is required",
		})
		return
	}

	target, err := url.Parse(rawURL)
	if err != nil || target.Scheme != "https" || !allowedProxyHost(target.Host) {
		writeJSON(w, http.StatusBadRequest, resolver.Response{
			Success: false,
			Error:   "url must point at an Instagram media host",
		})
		return
	}

	resp, err := s.streamer.Stream(r.Context(), rawURL)
	if err != nil {
		s.logger.ErrorWithFields("proxy fetch failed", map[string]interface{}{
			"error": err.Error(),
		})
		writeJSON(w, http.StatusBadGateway, resolver.Response{
			Success: false,
			Error:   "failed to fetch media from upstream",
		})
		return
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		w.Header().Set("Content-Length", cl)
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", proxyFilename(target)))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, resp.Body); err != nil {
		s.logger.DebugWithFields("proxy stream interrupted", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// allowedProxyHost restricts the proxy to known media CDNs so the server
// cannot be used as an open relay
func allowedProxyHost(host string) bool {
	host = strings.ToLower(host)
	return strings.HasSuffix(host, ".cdninstagram.com") ||
		strings.HasSuffix(host, ".fbcdn.net") ||
		host == "cdninstagram.com"
}

// proxyFilename derives a download filename from the media URL path
func proxyFilename(target *url.URL) string {
	segments := strings.Split(strings.Trim(target.Path, "/"), "/")
	name := segments[len(segments)-1]
	if name == "" {
		return "media"
	}
	return name
}

// statusFor maps a resolution outcome to an HTTP status
func statusFor(outcome resolver.Outcome) int {
	if outcome.Success() {
		return http.StatusOK
	}
	if outcome.Err == nil {
		return http.StatusInternalServerError
	}
	switch outcome.Err.Type {
	case errs.ErrorTypeInvalidReference:
		return http.StatusBadRequest
	case errs.ErrorTypeNoMediaFound, errs.ErrorTypeNotFound, errs.ErrorTypeExhausted:
		return http.StatusNotFound
	case errs.ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
