// Package inpdeck reads keyword-delimited finite-element decks (the
// Abaqus-style INP family and its native BDF mirror) into a validated,
// cross-referenced model.
//
// A deck is lexed line by line, dispatched through a scope stack of Parts,
// an Assembly with Instances, and Steps, and then resolved: section
// references are checked and boundary conditions are replayed across Steps
// into per-step snapshots.
//
// Example:
//
//	m, err := inpdeck.Load(ctx,
//	    inpdeck.WithFile("block.inp"),
//	    inpdeck.WithLogger(slog.Default()),
//	)
//	if err != nil {
//	    var de *model.DeckError
//	    if errors.As(err, &de) { ... }
//	}
//	for _, step := range m.Steps() {
//	    for _, kv := range step.BoundaryState().Entries() { ... }
//	}
package inpdeck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/golangfem/inpdeck/internal/deck"
	"github.com/golangfem/inpdeck/internal/lexer"
	"github.com/golangfem/inpdeck/internal/resolver"
	"github.com/golangfem/inpdeck/internal/types"
	"github.com/golangfem/inpdeck/model"
)

// ErrNoSource is returned when Load is called without a source.
var ErrNoSource = errors.New("no deck source provided")

// LevelTrace is a custom log level more verbose than Debug.
// Use for per-item iteration logging (records, boundary keys).
// Enable with: &slog.HandlerOptions{Level: slog.Level(-8)}
const LevelTrace = types.LevelTrace

// Dialect names accepted by WithDialect.
const (
	DialectINP = "inp"
	DialectBDF = "bdf"
)

// LoadOption configures Load.
type LoadOption func(*loadConfig)

type loadConfig struct {
	source     Source
	logger     *slog.Logger
	mode       model.Mode
	dialect    string
	markers    *lexer.Dialect
	workers    int
	diagConfig model.DiagnosticConfig
	err        error
}

// WithSource sets where the deck is read from.
func WithSource(src Source) LoadOption {
	return func(c *loadConfig) { c.source = src }
}

// WithFile reads the deck from a file path.
func WithFile(path string) LoadOption {
	return WithSource(File(path))
}

// WithReader streams the deck from r; name labels errors.
func WithReader(name string, r io.Reader) LoadOption {
	return WithSource(Reader(name, r))
}

// WithLogger sets the logger for debug/trace output.
// If not set, no logging occurs (zero overhead).
func WithLogger(logger *slog.Logger) LoadOption {
	return func(c *loadConfig) { c.logger = logger }
}

// WithStrict makes unknown keywords fatal. Error-severity diagnostics also
// fail the load.
func WithStrict() LoadOption {
	return func(c *loadConfig) { c.mode = model.ModeStrict }
}

// WithLenient skips unknown keywords with a diagnostic. This is the default.
func WithLenient() LoadOption {
	return func(c *loadConfig) { c.mode = model.ModeLenient }
}

// WithDialect selects the comment/keyword markers by name ("inp" or
// "bdf"). Without it the dialect follows the source name's extension.
func WithDialect(name string) LoadOption {
	return func(c *loadConfig) {
		if _, ok := lexer.DialectByName(name); !ok {
			c.err = fmt.Errorf("unknown dialect %q", name)
			return
		}
		c.dialect = name
	}
}

// WithMarkers sets explicit keyword and comment markers, overriding any
// dialect.
func WithMarkers(keyword, comment string) LoadOption {
	return func(c *loadConfig) {
		if keyword == "" || comment == "" {
			c.err = errors.New("keyword and comment markers must be non-empty")
			return
		}
		c.markers = &lexer.Dialect{Name: "custom", Keyword: keyword, Comment: comment}
	}
}

// WithWorkers bounds how many Parts are validated concurrently. Values
// <= 1 validate each Part inline as it closes.
func WithWorkers(n int) LoadOption {
	return func(c *loadConfig) { c.workers = n }
}

// WithDiagnosticConfig sets diagnostic filtering and the failure threshold.
func WithDiagnosticConfig(cfg model.DiagnosticConfig) LoadOption {
	return func(c *loadConfig) { c.diagConfig = cfg }
}

// WithConfig applies a decoded configuration file.
func WithConfig(cfg *Config) LoadOption {
	return func(c *loadConfig) {
		opts, err := cfg.Options()
		if err != nil {
			c.err = err
			return
		}
		for _, opt := range opts {
			opt(c)
		}
	}
}

// Load reads, validates and resolves one deck. On any fatal failure it
// returns a nil model and an error; deck failures are *model.DeckError.
// When reported diagnostics reach the failure threshold the error is a
// *model.DiagnosticsError.
func Load(ctx context.Context, opts ...LoadOption) (*model.Model, error) {
	cfg := loadConfig{
		mode:       model.ModeLenient,
		workers:    1,
		diagConfig: model.DefaultDiagnosticConfig(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.err != nil {
		return nil, cfg.err
	}
	if cfg.source == nil {
		return nil, ErrNoSource
	}

	rc, name, err := cfg.source.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	dialect := cfg.dialectFor(name)
	logger := cfg.logger
	log := types.Logger{L: logger}
	log.Log(slog.LevelInfo, "loading deck", slog.String("source", name),
		slog.String("dialect", dialect.Name), slog.String("mode", cfg.mode.String()))

	p := deck.New(rc, deck.Config{
		Mode:        cfg.mode,
		Dialect:     dialect,
		Diagnostics: cfg.diagConfig,
		Workers:     cfg.workers,
		LexerLogger: types.Component(logger, "lexer"),
	}, types.Component(logger, "deck"))
	m, err := p.Parse(ctx)
	if err != nil {
		return nil, withFile(err, name)
	}

	rcfg := resolver.Config{Diagnostics: cfg.diagConfig}
	if err := resolver.Resolve(ctx, m, rcfg, types.Component(logger, "resolver")); err != nil {
		return nil, withFile(err, name)
	}

	failAt := cfg.diagConfig.FailAt
	if cfg.mode == model.ModeStrict && failAt < model.SeverityError {
		failAt = model.SeverityError
	}
	var failing []model.Diagnostic
	for _, d := range m.Diagnostics() {
		if d.Severity.AtLeast(failAt) {
			failing = append(failing, d)
		}
	}
	if len(failing) > 0 {
		return nil, &model.DiagnosticsError{Diagnostics: failing}
	}
	return m, nil
}

func (c *loadConfig) dialectFor(name string) lexer.Dialect {
	if c.markers != nil {
		return *c.markers
	}
	dn := c.dialect
	if dn == "" {
		dn = dialectForName(name)
	}
	d, _ := lexer.DialectByName(dn)
	return d
}

// withFile stamps the source name onto a DeckError.
func withFile(err error, name string) error {
	if de, ok := model.AsDeckError(err); ok && de.File == "" {
		de.File = name
	}
	return err
}
