package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/example/go-morpho/internal/batch"
	"github.com/example/go-morpho/internal/dict"
	"github.com/example/go-morpho/internal/text"
	"github.com/example/go-morpho/internal/tokenizer"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// Analyzer produces scored segmentations of a text.
type Analyzer interface {
	TokenizeNBestScored(text string, n int) ([]tokenizer.Scored, error)
}

// Describer reports the loaded dictionary.
type Describer interface {
	Info() dict.Info
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxBodyBytes   int64
	maxNBest       int
	workers        int
	requestTimeout time.Duration
	normalize      text.Mode
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		maxBodyBytes:   1 << 20,
		maxNBest:       50,
		workers:        4,
		requestTimeout: 10 * time.Second,
		normalize:      text.ModeNone,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxBodyBytes sets the largest accepted request body.
func WithMaxBodyBytes(n int) Option {
	return func(o *options) { o.maxBodyBytes = int64(n) }
}

// WithMaxNBest sets the largest nbest a request may ask for.
func WithMaxNBest(n int) Option {
	return func(o *options) { o.maxNBest = n }
}

// WithWorkers sets the maximum number of concurrent analysis calls.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout sets the per-request deadline, including the wait for
// a worker slot.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithNormalize sets the normalization applied to request text.
func WithNormalize(m text.Mode) Option {
	return func(o *options) { o.normalize = m }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

// handler holds the dependencies needed to serve HTTP requests.
type handler struct {
	an   Analyzer
	desc Describer
	opts options
	sem  *semaphore.Weighted // worker pool; a batch takes one slot per parallel input
	log  *slog.Logger
}

// NewHandler returns an http.Handler that serves /health, /dictionary,
// POST /tokenize and POST /tokenize/batch.
func NewHandler(an Analyzer, desc Describer, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.workers = max(opts.workers, 1)
	opts.maxNBest = max(opts.maxNBest, 1)

	h := &handler{
		an:   an,
		desc: desc,
		opts: opts,
		sem:  semaphore.NewWeighted(int64(opts.workers)),
		log:  opts.logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/dictionary", h.handleDictionary)
	mux.HandleFunc("/tokenize", h.handleTokenize)
	mux.HandleFunc("/tokenize/batch", h.handleBatch)
	return h.withRequestID(mux)
}

type ctxKey struct{}

// withRequestID reuses an incoming X-Request-ID or mints one, echoes it and
// stores it in the request context.
func (h *handler) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildVersion(),
	})
}

func (h *handler) handleDictionary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.desc == nil {
		writeError(w, http.StatusNotFound, "no dictionary information available")
		return
	}
	writeJSON(w, http.StatusOK, h.desc.Info())
}

type tokenizeRequest struct {
	Text  *string `json:"text"`
	NBest int     `json:"nbest"`
}

type tokenizeResponse struct {
	RequestID string             `json:"request_id"`
	Text      string             `json:"text"`
	Tokens    []tokenizer.Token  `json:"tokens"`
	Cost      int64              `json:"cost"`
	Analyses  []tokenizer.Scored `json:"analyses,omitempty"`
}

type batchRequest struct {
	Texts []string `json:"texts"`
	NBest int      `json:"nbest"`
}

type batchItem struct {
	Text     string             `json:"text"`
	Tokens   []tokenizer.Token  `json:"tokens"`
	Cost     int64              `json:"cost"`
	Analyses []tokenizer.Scored `json:"analyses,omitempty"`
}

type batchResponse struct {
	RequestID string      `json:"request_id"`
	Results   []batchItem `json:"results"`
}

func (h *handler) handleTokenize(w http.ResponseWriter, r *http.Request) {
	var req tokenizeRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Text == nil {
		writeError(w, http.StatusBadRequest, "text field is required")
		return
	}
	n, ok := h.nbest(w, req.NBest)
	if !ok {
		return
	}

	input := text.Normalize(*req.Text, h.opts.normalize)

	start := time.Now()
	var analyses []tokenizer.Scored
	err := h.run(r.Context(), 1, func(context.Context) error {
		var err error
		analyses, err = h.an.TokenizeNBestScored(input, n)
		return err
	})
	durationMS := time.Since(start).Milliseconds()

	if err != nil {
		h.fail(w, r, err, slog.Int("text_len", len(input)), slog.Int64("duration_ms", durationMS))
		return
	}

	resp := tokenizeResponse{
		RequestID: requestID(r.Context()),
		Text:      input,
		Tokens:    []tokenizer.Token{},
	}
	if len(analyses) > 0 {
		resp.Tokens = analyses[0].Tokens
		resp.Cost = analyses[0].Cost
	}
	if n > 1 {
		resp.Analyses = analyses
	}

	h.log.InfoContext(r.Context(), "tokenize complete",
		slog.String("request_id", resp.RequestID),
		slog.Int("text_len", len(input)),
		slog.Int("nbest", n),
		slog.Int("tokens", len(resp.Tokens)),
		slog.Int64("duration_ms", durationMS),
	)
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Texts == nil {
		writeError(w, http.StatusBadRequest, "texts field is required")
		return
	}
	n, ok := h.nbest(w, req.NBest)
	if !ok {
		return
	}

	inputs := make([]string, len(req.Texts))
	total := 0
	for i, t := range req.Texts {
		inputs[i] = text.Normalize(t, h.opts.normalize)
		total += len(inputs[i])
	}

	parallel := min(max(len(inputs), 1), h.opts.workers)

	start := time.Now()
	var results []batch.Result
	err := h.run(r.Context(), parallel, func(ctx context.Context) error {
		var err error
		results, err = batch.Run(ctx, h.an, inputs, batch.Options{NBest: n, Workers: parallel})
		return err
	})
	durationMS := time.Since(start).Milliseconds()

	if err != nil {
		h.fail(w, r, err,
			slog.Int("texts", len(inputs)),
			slog.Int("text_len", total),
			slog.Int64("duration_ms", durationMS),
		)
		return
	}

	resp := batchResponse{RequestID: requestID(r.Context()), Results: make([]batchItem, len(results))}
	for i, res := range results {
		item := batchItem{Text: res.Text, Tokens: []tokenizer.Token{}}
		if len(res.Analyses) > 0 {
			item.Tokens = res.Analyses[0].Tokens
			item.Cost = res.Analyses[0].Cost
		}
		if n > 1 {
			item.Analyses = res.Analyses
		}
		resp.Results[i] = item
	}

	h.log.InfoContext(r.Context(), "batch complete",
		slog.String("request_id", resp.RequestID),
		slog.Int("texts", len(inputs)),
		slog.Int("text_len", total),
		slog.Int("nbest", n),
		slog.Int64("duration_ms", durationMS),
	)
	writeJSON(w, http.StatusOK, resp)
}

// decode enforces POST and the body limit and decodes JSON into dst.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}

	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "request body is required")
		return false
	}

	body := http.MaxBytesReader(w, r.Body, h.opts.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds maximum size of %d bytes", h.opts.maxBodyBytes))
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

// nbest resolves the requested count; 0 means 1.
func (h *handler) nbest(w http.ResponseWriter, n int) (int, bool) {
	switch {
	case n == 0:
		return 1, true
	case n < 0:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("nbest must be positive, got %d", n))
		return 0, false
	case n > h.opts.maxNBest:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("nbest %d exceeds maximum of %d", n, h.opts.maxNBest))
		return 0, false
	}
	return n, true
}

var errWorkerWait = errors.New("request cancelled while waiting for worker")

// run executes fn holding weight worker slots, bounded by the request
// timeout. fn keeps its slots until it returns, even after the caller has
// given up on it. A zero timeout means no deadline.
func (h *handler) run(ctx context.Context, weight int, fn func(context.Context) error) error {
	var cancel context.CancelFunc
	if h.opts.requestTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, h.opts.requestTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	if err := h.sem.Acquire(ctx, int64(weight)); err != nil {
		return fmt.Errorf("%w: %w", errWorkerWait, err)
	}

	done := make(chan error, 1)
	go func() {
		defer h.sem.Release(int64(weight))
		done <- fn(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fail logs err and writes the mapped status.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error, attrs ...slog.Attr) {
	attrs = append(attrs,
		slog.String("request_id", requestID(r.Context())),
		slog.String("error", err.Error()),
	)
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}

	switch {
	case errors.Is(err, tokenizer.ErrInvalidArgument):
		h.log.InfoContext(r.Context(), "rejected input", args...)
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errWorkerWait):
		h.log.WarnContext(r.Context(), "no worker available", args...)
		writeError(w, http.StatusServiceUnavailable, errWorkerWait.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		h.log.WarnContext(r.Context(), "analysis timed out", args...)
		writeError(w, http.StatusGatewayTimeout, "analysis timed out")
	default:
		h.log.ErrorContext(r.Context(), "analysis failed", args...)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
