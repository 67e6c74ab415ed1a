package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/go-morpho/internal/charcat"
	"github.com/example/go-morpho/internal/dict"
	"github.com/example/go-morpho/internal/lattice"
	"github.com/example/go-morpho/internal/text"
	"github.com/example/go-morpho/internal/tokenizer"
)

// Validate checks values that cannot be expressed by the flag types alone.
func (c Config) Validate() error {
	var errs []error

	if _, err := dict.NormalizeCharset(c.Dictionary.Charset); err != nil {
		errs = append(errs, fmt.Errorf("dictionary.charset: %w", err))
	}
	if _, err := c.LatticeOptions(); err != nil {
		errs = append(errs, err)
	}
	if c.Lattice.MaxUnknownLength < 0 {
		errs = append(errs, fmt.Errorf("lattice.max_unknown_length must be >= 0, got %d", c.Lattice.MaxUnknownLength))
	}
	if c.Tokenizer.MaxInputBytes < 0 {
		errs = append(errs, fmt.Errorf("tokenizer.max_input_bytes must be >= 0, got %d", c.Tokenizer.MaxInputBytes))
	}
	if _, err := text.ParseMode(c.Tokenizer.Normalize); err != nil {
		errs = append(errs, fmt.Errorf("tokenizer.normalize: %w", err))
	}

	return errors.Join(errs...)
}

// ValidateServer checks the server section on top of Validate.
func (c Config) ValidateServer() error {
	var errs []error
	if c.Server.Workers < 1 {
		errs = append(errs, fmt.Errorf("server.workers must be >= 1, got %d", c.Server.Workers))
	}
	if c.Server.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.request_timeout must be >= 0, got %d", c.Server.RequestTimeout))
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout must be >= 0, got %d", c.Server.ShutdownTimeout))
	}
	if c.Server.MaxNBest < 1 {
		errs = append(errs, fmt.Errorf("server.max_nbest must be >= 1, got %d", c.Server.MaxNBest))
	}
	if c.Server.MaxBodyBytes < 1 {
		errs = append(errs, fmt.Errorf("server.max_body_bytes must be >= 1, got %d", c.Server.MaxBodyBytes))
	}
	return errors.Join(c.Validate(), errors.Join(errs...))
}

// LatticeOptions converts the lattice section into builder options.
func (c Config) LatticeOptions() (lattice.Options, error) {
	opts := lattice.Options{
		MaxUnknownLength: c.Lattice.MaxUnknownLength,
		UnknownCost:      c.Lattice.UnknownCost,
		UnknownFeature:   c.Lattice.UnknownFeature,
	}
	for _, name := range c.Lattice.InvokeUnknown {
		cat, err := charcat.Parse(name)
		if err != nil {
			return lattice.Options{}, fmt.Errorf("lattice.invoke_unknown: %w", err)
		}
		opts.InvokeUnknown = append(opts.InvokeUnknown, cat)
	}
	return opts, nil
}

// NormalizeMode returns the parsed tokenizer.normalize value.
func (c Config) NormalizeMode() (text.Mode, error) {
	return text.ParseMode(c.Tokenizer.Normalize)
}

// TokenizerConfig assembles what tokenizer.New needs.
func (c Config) TokenizerConfig(logger *slog.Logger) (tokenizer.Config, error) {
	opts, err := c.LatticeOptions()
	if err != nil {
		return tokenizer.Config{}, err
	}
	return tokenizer.Config{
		DictionaryDir: c.Dictionary.Dir,
		Charset:       c.Dictionary.Charset,
		Lattice:       opts,
		MaxInputBytes: c.Tokenizer.MaxInputBytes,
		Logger:        logger,
	}, nil
}

// RequestTimeout returns server.request_timeout as a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeout) * time.Second
}

// ShutdownTimeout returns server.shutdown_timeout as a duration.
func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeout) * time.Second
}
