// Package service is the collaborator layer around the translators: it
// enforces the source size ceiling, resolves languages, caches results by
// content hash, persists diagrams and translates whole trees in parallel.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dusk-indust/flowchart/internal/config"
	"github.com/dusk-indust/flowchart/internal/flow"
	"github.com/dusk-indust/flowchart/internal/store"
	"github.com/dusk-indust/flowchart/internal/translate"
)

var (
	// ErrTooLarge is returned for sources above the configured ceiling.
	ErrTooLarge = errors.New("source too large")

	// ErrUnsupportedLanguage is returned when neither the language tag nor
	// the file extension names a supported language.
	ErrUnsupportedLanguage = translate.ErrUnsupportedLanguage

	// ErrNoStore is returned by lookups when no store is configured.
	ErrNoStore = errors.New("no diagram store configured")

	// ErrNotFound is returned by lookups of a source or unit never stored.
	ErrNotFound = errors.New("not found")
)

// Options configures a Service. Zero values take the config defaults.
type Options struct {
	MaxSourceBytes int64
	MaxDepth       int
	CacheSize      int
	Workers        int
	ExcludeDirs    []string

	// Store persists every translation when set.
	Store store.Store

	// Logger receives debug and warning records. Nil discards them.
	Logger *log.Logger

	// OnProgress is called from batch workers as files move through
	// translation. It may be nil.
	OnProgress func(ProgressEvent)
}

// OptionsFromConfig maps a loaded config onto Options.
func OptionsFromConfig(cfg config.Config) Options {
	cfg = cfg.WithDefaults()
	return Options{
		MaxSourceBytes: cfg.MaxSourceBytes,
		MaxDepth:       cfg.MaxDepth,
		CacheSize:      cfg.CacheSize,
		Workers:        cfg.Workers,
		ExcludeDirs:    cfg.ExcludeDirs,
	}
}

// Service translates sources on behalf of the CLI, HTTP API and MCP tools.
// It is safe for concurrent use.
type Service struct {
	opts     Options
	registry *translate.Registry
	cache    *lru.Cache[string, *flow.Result]
	store    store.Store
	logger   *log.Logger
}

// New creates a Service.
func New(opts Options) (*Service, error) {
	defaults := config.Config{
		MaxSourceBytes: opts.MaxSourceBytes,
		CacheSize:      opts.CacheSize,
		Workers:        opts.Workers,
		ExcludeDirs:    opts.ExcludeDirs,
	}.WithDefaults()
	opts.MaxSourceBytes = defaults.MaxSourceBytes
	opts.CacheSize = defaults.CacheSize
	opts.Workers = defaults.Workers
	opts.ExcludeDirs = defaults.ExcludeDirs

	cache, err := lru.New[string, *flow.Result](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Service{
		opts:     opts,
		registry: translate.NewRegistry(opts.MaxDepth),
		cache:    cache,
		store:    opts.Store,
		logger:   logger,
	}, nil
}

// Languages returns the supported input languages.
func (s *Service) Languages() []flow.Language {
	return s.registry.Languages()
}

// MaxSourceBytes reports the size ceiling in force.
func (s *Service) MaxSourceBytes() int64 {
	return s.opts.MaxSourceBytes
}

// Store returns the configured store, or nil.
func (s *Service) Store() store.Store {
	return s.store
}

// Request is one source to translate.
type Request struct {
	Source []byte
	// Language is an explicit tag ("python", "js", "c#", ...). When empty
	// the language is detected from Filename.
	Language string
	Filename string
}

// Translation is the outcome of one Request. Result may be shared with
// the cache and other callers and must not be modified.
type Translation struct {
	// Name identifies the source in the store: the file name when one was
	// given, otherwise a content hash.
	Name     string        `json:"name"`
	Language flow.Language `json:"language"`
	Cached   bool          `json:"cached"`
	Result   *flow.Result  `json:"result"`
}

// Translate converts one source. Oversized sources fail with ErrTooLarge
// before any parsing; Python syntax errors surface as *flow.SyntaxError.
func (s *Service) Translate(ctx context.Context, req Request) (*Translation, error) {
	if int64(len(req.Source)) > s.opts.MaxSourceBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrTooLarge, len(req.Source), s.opts.MaxSourceBytes)
	}
	lang, err := translate.Resolve(req.Language, req.Filename)
	if err != nil {
		return nil, err
	}

	key := contentKey(lang, req.Source)
	name := req.Filename
	if name == "" {
		name = "sha256:" + key[:16]
	}

	t := &Translation{Name: name, Language: lang}
	if res, ok := s.cache.Get(key); ok {
		t.Result, t.Cached = res, true
	} else {
		start := time.Now()
		res, err := s.registry.Translate(ctx, lang, req.Source)
		if err != nil {
			s.logger.Debug("translation failed", "source", name, "lang", lang, "err", err)
			return nil, err
		}
		s.cache.Add(key, res)
		t.Result = res
		s.logger.Debug("translated", "source", name, "lang", lang,
			"units", len(res.Functions)+len(res.Classes), "elapsed", time.Since(start).Round(time.Millisecond))
	}

	if s.store != nil {
		if err := s.store.SaveResult(ctx, name, lang, t.Result); err != nil {
			return nil, fmt.Errorf("persist %s: %w", name, err)
		}
	}
	return t, nil
}

// TranslateFile reads and translates the file at path. The size ceiling is
// checked against the file's size before it is read.
func (s *Service) TranslateFile(ctx context.Context, path string) (*Translation, error) {
	lang, err := translate.DetectLanguage(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > s.opts.MaxSourceBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, path, info.Size(), s.opts.MaxSourceBytes)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.Translate(ctx, Request{Source: src, Language: string(lang), Filename: path})
}

// Diagram returns a stored diagram. An empty unit selects the main diagram.
func (s *Service) Diagram(ctx context.Context, source, unit string) (*flow.Diagram, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	d, err := s.store.GetDiagram(ctx, source, unit)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("%w: no diagram %q stored for %s", ErrNotFound, unit, source)
	}
	return d, nil
}

// Sources lists the stored sources.
func (s *Service) Sources(ctx context.Context) ([]store.SourceInfo, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.ListSources(ctx)
}

// contentKey hashes the language tag and the source text.
func contentKey(lang flow.Language, source []byte) string {
	h := sha256.New()
	h.Write([]byte(lang))
	h.Write([]byte{0})
	h.Write(source)
	return hex.EncodeToString(h.Sum(nil))
}
