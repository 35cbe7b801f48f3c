// Package app wires the question bank, search pipeline and answer store
// from configuration. The API server and the CLI share it.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dsjohal14/studybank/internal/libs/config"
	"github.com/dsjohal14/studybank/internal/scope/answers"
	"github.com/dsjohal14/studybank/internal/scope/bank"
	"github.com/dsjohal14/studybank/internal/scope/db"
	"github.com/dsjohal14/studybank/internal/scope/pipeline"
	"github.com/dsjohal14/studybank/internal/scope/search"
)

// Container holds the wired components
type Container struct {
	Bank     *bank.Bank
	Index    *search.Index
	Pipeline *pipeline.Pipeline
	Answers  *answers.Store
	KV       db.KV
}

// New loads the bank, builds the index and opens the answer store.
// A dataset failure is returned wrapping bank.ErrDatasetLoad.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Container, error) {
	b, err := bank.Load(ctx, bank.NewSource(cfg.QuestionsSource))
	if err != nil {
		return nil, err
	}

	index := search.NewIndex(b.All())
	logger.Info().
		Str("source", cfg.QuestionsSource).
		Int("questions", b.Len()).
		Int("modules", len(b.Modules())).
		Msg("question bank loaded")

	kv, err := db.Open(ctx, db.OptionsFromConfig(cfg, logger.With().Str("backend", cfg.StoreBackend).Logger()))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreBackend, err)
	}

	store := answers.Open(ctx, kv, logger)
	logger.Info().Str("backend", cfg.StoreBackend).Int("answers", store.Count()).Msg("answer store ready")

	return &Container{
		Bank:     b,
		Index:    index,
		Pipeline: pipeline.New(index, logger),
		Answers:  store,
		KV:       kv,
	}, nil
}

// Close releases the store backend
func (c *Container) Close() error {
	return c.KV.Close()
}
