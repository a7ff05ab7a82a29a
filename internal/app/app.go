// Package app wires configuration into a running chatbot: knowledge base
// index, retrieval components, generator, session store and transcripts.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/heartline-ai/heartline/internal/cache"
	"github.com/heartline-ai/heartline/internal/chat"
	"github.com/heartline-ai/heartline/internal/config"
	"github.com/heartline-ai/heartline/internal/embedding"
	"github.com/heartline-ai/heartline/internal/generate"
	"github.com/heartline-ai/heartline/internal/knowledge"
	"github.com/heartline-ai/heartline/internal/normalize"
	"github.com/heartline-ai/heartline/internal/observability"
	"github.com/heartline-ai/heartline/internal/retrieval"
	"github.com/heartline-ai/heartline/internal/session"
	"github.com/heartline-ai/heartline/internal/storage"
)

// Options tunes startup.
type Options struct {
	// IndexProgress receives encoder progress while the index is built.
	IndexProgress func(done, total int)
	// Generator replaces the configured generator when set.
	Generator generate.Generator
	// ResetEmbeddingCache drops cached embeddings before the index is built.
	ResetEmbeddingCache bool
}

// App is the assembled chatbot. The index and orchestrator are read-only
// after New; sessions are serialized per id.
type App struct {
	Config       *config.Config
	Logger       *observability.Logger
	Index        *knowledge.Index
	LoadReport   knowledge.LoadReport
	Orchestrator *chat.Orchestrator
	Sessions     session.Store
	Transcripts  *storage.TranscriptRepository

	locker     *session.Locker
	cache      cache.Client
	embedCache cache.Client
	db         *sql.DB
}

// New builds every component from cfg. The knowledge base is loaded and
// encoded once here.
func New(ctx context.Context, cfg *config.Config, logger *observability.Logger, opts Options) (*App, error) {
	a := &App{Config: cfg, Logger: logger, locker: session.NewLocker()}

	cacheClient, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	a.cache = cacheClient
	a.embedCache = cacheClient

	// In process, embeddings get their own bound so a stream of new queries
	// cannot evict session histories.
	if _, ok := cacheClient.(*cache.MemoryClient); ok {
		a.embedCache = cache.NewMemoryClient(cfg.Cache.MaxEntries)
	}

	if err := a.build(ctx, opts); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, opts Options) error {
	cfg := a.Config

	records, report, err := knowledge.LoadCSV(cfg.KnowledgeBase.Path)
	if err != nil {
		return fmt.Errorf("load knowledge base: %w", err)
	}
	a.LoadReport = report
	for _, s := range report.Skipped {
		a.Logger.Warn().Int("line", s.Line).Str("reason", s.Reason).Msg("Skipped knowledge base row")
	}

	if opts.ResetEmbeddingCache {
		if err := a.embedCache.DeleteByPrefix(ctx, embedding.CacheKeyPrefix+":"); err != nil {
			return fmt.Errorf("reset embedding cache: %w", err)
		}
		a.Logger.Info().Msg("Embedding cache cleared")
	}

	enc, err := embedding.New(cfg.Embedding, a.embedCache, cfg.Cache.TTL, a.Logger)
	if err != nil {
		return fmt.Errorf("create embedder: %w", err)
	}

	idx, err := knowledge.Build(ctx, records, enc, knowledge.BuildOptions{Progress: opts.IndexProgress})
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	a.Index = idx

	a.Logger.Info().
		Str("path", cfg.KnowledgeBase.Path).
		Int("records", idx.Len()).
		Str("model", idx.Model()).
		Msg("Knowledge base indexed")

	norm := normalize.New(normalize.NewSpellCorrector(idx.Vocabulary(), cfg.Retrieval.SpellCutoff), cfg.Retrieval.Lemmatize)

	gate, err := retrieval.NewGate(ctx, enc, cfg.Retrieval.DomainKeywords, cfg.Retrieval.DomainThreshold, a.Logger)
	if err != nil {
		return fmt.Errorf("create domain gate: %w", err)
	}

	gen := opts.Generator
	if gen == nil {
		gen, err = generate.New(ctx, cfg.Generation)
		if err != nil {
			return fmt.Errorf("create generator: %w", err)
		}
	}

	a.Orchestrator = chat.NewOrchestrator(chat.Deps{
		Index:      idx,
		Matcher:    retrieval.NewMatcher(idx, enc, a.Logger, retrieval.MatcherConfig{StrongThreshold: cfg.Retrieval.StrongThreshold}),
		Router:     retrieval.NewRouter(idx, enc, norm, a.Logger, retrieval.RouterConfig{Fallback: cfg.Retrieval.IntentFallback}),
		Normalizer: norm,
		Gate:       gate,
		Generator:  gen,
		Logger:     a.Logger,
	}, chat.Config{
		MatchThreshold: cfg.Retrieval.MatchThreshold,
		MaxHistory:     cfg.Chat.MaxHistory,
	})

	a.Sessions = session.NewCacheStore(a.cache, cfg.Chat.SessionTTL)

	if cfg.Transcripts.Enabled {
		db, err := storage.Open(ctx, cfg.Transcripts.Driver, cfg.Transcripts.DSN)
		if err != nil {
			return fmt.Errorf("open transcripts: %w", err)
		}
		a.db = db
		a.Transcripts = storage.NewTranscriptRepository(db)
	}

	return nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Ready checks the external stores the app depends on.
func (a *App) Ready(ctx context.Context) error {
	if p, ok := a.cache.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("cache: %w", err)
		}
	}
	if a.db != nil {
		if err := a.db.PingContext(ctx); err != nil {
			return fmt.Errorf("transcripts: %w", err)
		}
	}
	return nil
}

// Close releases the cache and database connections.
func (a *App) Close() error {
	var errs []error
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.embedCache != nil && a.embedCache != a.cache {
		errs = append(errs, a.embedCache.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
