// Package app assembles the engine and its collaborators from configuration.
// Both binaries build their object graph through it.
package app

import (
	"context"
	"fmt"

	"invoicevault/internal/config"
	"invoicevault/internal/email/noop"
	"invoicevault/internal/email/ses"
	"invoicevault/internal/extract"
	"invoicevault/internal/fetch"
	"invoicevault/internal/normalize"
	"invoicevault/internal/port"
	"invoicevault/internal/service"
	s3storage "invoicevault/internal/storage/s3"
	"invoicevault/internal/validator"
)

// Engine holds the parsing and validation components.
type Engine struct {
	Normalizer *normalize.Normalizer
	Extractor  *extract.Extractor
	Validator  *validator.Validator
}

// NewEngine builds the engine from its settings.
func NewEngine(cfg *config.EngineConfig) *Engine {
	norm := normalize.New(cfg.NormalizeConfig())
	return &Engine{
		Normalizer: norm,
		Extractor:  extract.New(norm, cfg.ExtractConfig()),
		Validator:  validator.New(cfg.ValidatorConfig()),
	}
}

// NewDocumentCache returns the cache selected by fetch.cache_backend, or nil
// for "none".
func NewDocumentCache(ctx context.Context, cfg *config.Config) (port.DocumentCache, error) {
	switch cfg.Fetch.CacheBackend {
	case "none":
		return nil, nil
	case "s3":
		cache, err := s3storage.NewDocumentCache(ctx, &cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("creating s3 document cache: %w", err)
		}
		return cache, nil
	case "fs", "":
		cache, err := fetch.NewFSCache(cfg.Fetch.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("creating document cache: %w", err)
		}
		return cache, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Fetch.CacheBackend)
	}
}

// NewResolver builds the document resolver over the configured cache.
func NewResolver(ctx context.Context, cfg *config.Config) (*fetch.Resolver, error) {
	cache, err := NewDocumentCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return fetch.NewResolver(cfg.Fetch.ResolverConfig(), cache), nil
}

// NewReportSender returns the sender selected by email.provider.
func NewReportSender(cfg *config.EmailConfig) (port.ReportSender, error) {
	switch cfg.Provider {
	case "", "noop":
		return noop.NewNoopSender(), nil
	case "ses":
		return ses.NewSESSender(cfg.Region, cfg.FromAddress, cfg.FromName)
	default:
		return nil, fmt.Errorf("unknown email provider %q (want noop or ses)", cfg.Provider)
	}
}

// NewIngestService wires the ingest pipeline to store.
func NewIngestService(cfg *config.Config, engine *Engine, resolver port.DocumentResolver, store port.OrderStore, sender port.ReportSender) service.IngestService {
	return service.NewIngestService(
		engine.Extractor,
		engine.Validator,
		resolver,
		service.NewLoader(store),
		sender,
		service.IngestConfig{
			Concurrency: cfg.Ingest.Concurrency,
			ReportTo:    cfg.Email.ReportTo,
		},
	)
}
