package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/go-morpho/internal/config"
	"github.com/example/go-morpho/internal/tokenizer"
)

// ---------------------------------------------------------------------------
// Server lifecycle
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	tok             *tokenizer.Tokenizer
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

// New returns a Server for cfg. When tok is nil, Start loads the dictionary
// named by cfg.
func New(cfg config.Config, tok *tokenizer.Tokenizer) *Server {
	return &Server{
		cfg:             cfg,
		tok:             tok,
		logger:          slog.Default(),
		shutdownTimeout: cfg.ShutdownTimeout(),
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

// WithLogger sets the logger for request and lifecycle records.
func (s *Server) WithLogger(l *slog.Logger) *Server {
	s.logger = l
	return s
}

// Handler builds the HTTP handler, loading the tokenizer if needed.
func (s *Server) Handler() (http.Handler, error) {
	if err := s.cfg.ValidateServer(); err != nil {
		return nil, err
	}
	mode, err := s.cfg.NormalizeMode()
	if err != nil {
		return nil, err
	}

	tok := s.tok
	if tok == nil {
		tc, err := s.cfg.TokenizerConfig(s.logger)
		if err != nil {
			return nil, err
		}
		if tok, err = tokenizer.New(tc); err != nil {
			return nil, fmt.Errorf("initialize tokenizer: %w", err)
		}
		s.tok = tok
	}

	return NewHandler(tok, tok.Store(),
		WithWorkers(s.cfg.Server.Workers),
		WithMaxBodyBytes(s.cfg.Server.MaxBodyBytes),
		WithMaxNBest(s.cfg.Server.MaxNBest),
		WithRequestTimeout(s.cfg.RequestTimeout()),
		WithNormalize(mode),
		WithLogger(s.logger),
	), nil
}

func (s *Server) Start(ctx context.Context) error {
	h, err := s.Handler()
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	s.logger.Info("server listening", slog.String("addr", s.cfg.Server.ListenAddr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		s.logger.Info("server stopped")
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

// ProbeHTTP checks GET /health on addr.
func ProbeHTTP(ctx context.Context, addr string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}
