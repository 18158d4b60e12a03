package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"www.github.com/Wanderer0074348/HybridRoute/src/cache"
	"www.github.com/Wanderer0074348/HybridRoute/src/classifier"
	"www.github.com/Wanderer0074348/HybridRoute/src/config"
	"www.github.com/Wanderer0074348/HybridRoute/src/inference"
	"www.github.com/Wanderer0074348/HybridRoute/src/logging"
	"www.github.com/Wanderer0074348/HybridRoute/src/models"
	"www.github.com/Wanderer0074348/HybridRoute/src/router"
	"www.github.com/Wanderer0074348/HybridRoute/src/utils"
)

// app holds the wired components shared by every subcommand.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	router *router.QueryRouter
	store  models.ResultStore
}

func buildApp(configPath string) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(cfg.Logging)

	cls, err := classifier.New(&cfg.Classifier, logging.Component(logger, "classifier"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize classifier: %w", err)
	}
	logger.Info().Int("patterns", cls.PatternCount()).Msg("classifier ready")

	var store models.ResultStore
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(&cfg.Redis, cfg.Cache.TTL)
		if err != nil {
			// The memory tier still works without Redis.
			logger.Warn().Err(err).Str("address", cfg.Redis.Address).Msg("redis unavailable, using memory cache only")
		} else {
			store = redisCache
			logger.Info().Str("address", cfg.Redis.Address).Msg("redis connected")
		}
	}
	rc := cache.NewResultCache(&cfg.Cache, store, logging.Component(logger, "cache"))

	opts := []router.Option{
		router.WithLogger(logging.Component(logger, "router")),
		router.WithCostCalculator(utils.NewCostCalculator()),
	}

	client, err := inference.NewCompletionClient(&cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize completion client: %w", err)
	}
	if client != nil {
		opts = append(opts, router.WithCompletionClient(client))
		logger.Info().Str("provider", cfg.LLM.Provider).Str("model", cfg.LLM.Model).Msg("networked client ready")
	} else {
		logger.Warn().Msg("no llm api key configured, running local-only")
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		router: router.NewQueryRouter(cfg, cls, rc, opts...),
		store:  store,
	}, nil
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to close result store")
		}
	}
}
