// Package deck drives the keyword state machine that turns lexed records
// into a model.
//
// The parser keeps an explicit stack of scope frames (Deck, Part, Assembly,
// Instance, Step). Each keyword is looked up in a Registry; its handler may
// mutate the current frame's entity, push a new frame or close the current
// one. Data lines go to the consumer installed by the last keyword of the
// current frame.
//
// Part-local references are checked when a Part closes, either inline or
// by a bounded worker pool that runs before the Assembly begins.
// Cross-entity references (materials, section controls, boundary targets)
// are left to the resolver once the whole deck has been read.
package deck

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strconv"

	"github.com/golangfem/inpdeck/internal/lexer"
	"github.com/golangfem/inpdeck/internal/resolver"
	"github.com/golangfem/inpdeck/internal/types"
	"github.com/golangfem/inpdeck/model"
)

// cancelCheckInterval is how many records pass between context checks.
const cancelCheckInterval = 1024

// Config controls a parse.
type Config struct {
	Mode        model.Mode
	Dialect     lexer.Dialect
	Registry    *Registry
	Diagnostics model.DiagnosticConfig
	// Workers bounds parallel Part validation. Values <= 1 validate each
	// Part inline when it closes.
	Workers int
	// Lexer logger; nil disables lexer logging.
	LexerLogger *slog.Logger
}

// Parser reads one deck.
type Parser struct {
	lx    *lexer.Lexer
	cfg   Config
	reg   *Registry
	model *model.Model
	stack *stack

	// material is the open *Material definition, closed by the first
	// keyword that is not a material property.
	material *model.Material
	// keyword is the keyword currently being handled.
	keyword *lexer.Keyword
	// skipping is set after an unknown keyword in lenient mode.
	skipping bool
	// pending holds closed Parts awaiting parallel validation.
	pending []*model.Part

	ctx context.Context
	types.Logger
}

// New returns a Parser reading deck text from r.
func New(r io.Reader, cfg Config, logger *slog.Logger) *Parser {
	if cfg.Registry == nil {
		cfg.Registry = DefaultRegistry()
	}
	return &Parser{
		lx:     lexer.New(r, cfg.Dialect, cfg.LexerLogger),
		cfg:    cfg,
		reg:    cfg.Registry,
		model:  model.New(),
		stack:  newStack(),
		ctx:    context.Background(),
		Logger: types.Logger{L: logger},
	}
}

// Model returns the model under construction.
func (p *Parser) Model() *model.Model { return p.model }

// Top returns the innermost open frame.
func (p *Parser) Top() *Frame { return p.stack.top() }

// Keyword returns the keyword currently being handled.
func (p *Parser) Keyword() *lexer.Keyword { return p.keyword }

// Parse reads the whole deck. On failure no model is returned.
func (p *Parser) Parse(ctx context.Context) (*model.Model, error) {
	p.ctx = ctx
	p.Log(slog.LevelDebug, "starting phase", slog.String("phase", "parse"))

	records := 0
	for rec, err := range p.lx.Records() {
		if err != nil {
			return nil, p.fail(err)
		}
		records++
		if records%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if rec.IsKeyword() {
			err = p.dispatch(rec.Keyword)
		} else {
			err = p.feed(rec.Data)
		}
		if err != nil {
			return nil, p.fail(err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}

	p.Log(slog.LevelDebug, "phase complete", slog.String("phase", "parse"),
		slog.Int("records", records),
		slog.Int("lines", p.lx.Line()),
		slog.Int("parts", len(p.model.Parts())),
		slog.Int("materials", len(p.model.Materials())),
		slog.Int("steps", len(p.model.Steps())))
	return p.model, nil
}

// dispatch routes a keyword to its handler.
func (p *Parser) dispatch(kw *lexer.Keyword) error {
	p.keyword = kw
	top := p.stack.top()
	top.data = nil
	top.dataLines = 0
	top.raw = false
	p.skipping = false

	h, ok := p.reg.Lookup(kw.Name)
	if !ok {
		return p.unknown(kw)
	}
	if !h.MaterialProperty {
		p.material = nil
	}
	p.checkParams(h, kw)

	switch h.Action {
	case ActionBegin:
		if !h.allowedIn(top.Kind) {
			return p.misplaced(kw, top)
		}
		p.stack.push(&Frame{Kind: h.Scope, Line: kw.Line})
	case ActionEnd:
		if top.Kind != h.Scope {
			return &model.DeckError{
				Kind:    model.KindStructural,
				Line:    kw.Line,
				Keyword: kw.Name,
				Message: "*" + kw.Display + " closes a " + h.Scope.String() +
					" but the innermost open scope is " + top.describe() + openedAt(top),
			}
		}
	default:
		if !h.allowedIn(top.Kind) {
			return p.misplaced(kw, top)
		}
	}

	data, err := h.Run(p, kw)
	if err != nil {
		return withKeyword(err, kw)
	}
	if h.Action == ActionEnd {
		p.stack.pop()
		return nil
	}
	p.stack.top().data = data
	p.stack.top().raw = h.RawData
	return nil
}

// feed routes a data line to the current keyword's consumer.
func (p *Parser) feed(dl *lexer.DataLine) error {
	if p.skipping {
		return nil
	}
	top := p.stack.top()
	if dl.Err != nil && !top.raw {
		return dl.Err
	}
	if top.data == nil {
		return &model.DeckError{
			Kind:    model.KindStructural,
			Line:    dl.Line,
			Raw:     dl.Raw,
			Message: "data line is not preceded by a keyword that takes data",
		}
	}
	top.dataLines++
	if err := top.data(p, dl); err != nil {
		return withKeyword(err, p.keyword)
	}
	return nil
}

func (p *Parser) unknown(kw *lexer.Keyword) error {
	if p.cfg.Mode == model.ModeStrict {
		return &model.DeckError{
			Kind:    model.KindUnknownKeyword,
			Line:    kw.Line,
			Keyword: kw.Name,
			Message: "unknown keyword *" + kw.Display,
		}
	}
	p.skipping = true
	p.Log(slog.LevelWarn, "skipping unknown keyword",
		slog.String("keyword", kw.Name), slog.Int("line", kw.Line))
	p.Report(model.Diagnostic{
		Severity: model.SeverityWarning,
		Code:     model.DiagUnknownKeyword,
		Message:  "unknown keyword *" + kw.Display + " skipped",
		Keyword:  kw.Name,
		Line:     kw.Line,
	})
	return nil
}

func (p *Parser) misplaced(kw *lexer.Keyword, top *Frame) error {
	msg := "*" + kw.Display + " is not allowed in " + top.describe()
	if top.Kind != ScopeDeck {
		msg += openedAt(top)
	}
	return &model.DeckError{
		Kind:    model.KindStructural,
		Line:    kw.Line,
		Keyword: kw.Name,
		Message: msg,
	}
}

func (p *Parser) checkParams(h *Handler, kw *lexer.Keyword) {
	if h.Params == nil {
		return
	}
	for _, prm := range kw.Params {
		if slices.Contains(h.Params, prm.Name) {
			continue
		}
		p.Report(model.Diagnostic{
			Severity: model.SeverityInfo,
			Code:     model.DiagUnknownParameter,
			Message:  "parameter " + strconv.Quote(prm.Name) + " of *" + kw.Display + " ignored",
			Keyword:  kw.Name,
			Line:     kw.Line,
		})
	}
}

func openedAt(f *Frame) string {
	if f.Line == 0 {
		return ""
	}
	return " (opened at line " + strconv.Itoa(f.Line) + ")"
}

// Report records a diagnostic, honoring the diagnostic config.
func (p *Parser) Report(d model.Diagnostic) {
	if !p.cfg.Diagnostics.ShouldReport(d.Code) {
		return
	}
	d.Severity = p.cfg.Diagnostics.Severity(d.Code, d.Severity)
	p.model.AddDiagnostic(d)
}

// finish runs end-of-deck structural checks.
func (p *Parser) finish() error {
	if p.stack.depth() > 1 {
		top := p.stack.top()
		return p.fail(&model.DeckError{
			Kind:    model.KindStructural,
			Line:    p.lx.Line(),
			Message: "end of deck with " + top.describe() + " still open" + openedAt(top),
		})
	}
	p.material = nil
	return p.flushParts()
}

// closePart validates a Part that just closed, or queues it for the
// worker pool.
func (p *Parser) closePart(part *model.Part) error {
	if p.cfg.Workers <= 1 {
		return resolver.CheckPart(part)
	}
	p.pending = append(p.pending, part)
	return nil
}

// flushParts validates queued Parts concurrently and waits for them.
func (p *Parser) flushParts() error {
	if len(p.pending) == 0 {
		return nil
	}
	parts := p.pending
	p.pending = nil
	return resolver.ValidateParts(p.ctx, parts, p.cfg.Workers, p.L)
}

// fail returns err unless a queued Part is invalid. Parts closed earlier in
// the file report first, as they do when checked inline.
func (p *Parser) fail(err error) error {
	if ferr := p.flushParts(); ferr != nil {
		return ferr
	}
	return err
}

// withKeyword stamps the keyword onto a DeckError that lacks one.
func withKeyword(err error, kw *lexer.Keyword) error {
	var de *model.DeckError
	if errors.As(err, &de) && de.Keyword == "" && kw != nil {
		de.Keyword = kw.Name
	}
	return err
}
