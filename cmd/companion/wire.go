package main

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"companion-bot/internal/auth"
	"companion-bot/internal/bridge"
	"companion-bot/internal/companion"
	"companion-bot/internal/config"
	"companion-bot/internal/core"
	"companion-bot/internal/history"
	"companion-bot/internal/llm"
	"companion-bot/internal/persona"
	"companion-bot/internal/storage"
)

// app holds the composed core and whatever needs closing on shutdown.
type app struct {
	core    *core.Core
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func wireApp(cfg *config.Config, mode string, logger *zap.Logger) (*app, error) {
	a := &app{}

	mirror, err := cfg.MirrorMap()
	if err != nil {
		return nil, err
	}
	secrets := auth.DefaultSecrets().WithOverrides(cfg.PrimaryPhrases, mirror, cfg.EmergencyWords, cfg.LightningTriggers)
	gate := auth.NewGate(secrets, nil)

	var store persona.Store
	if cfg.PersonaDir != "" {
		fs, err := persona.NewFileStore(cfg.PersonaDir)
		if err != nil {
			logger.Warn("persona documents disabled", zap.String("dir", cfg.PersonaDir), zap.Error(err))
		} else {
			store = fs
		}
	}
	personas := persona.NewManager(store,
		persona.Name(strings.ToLower(strings.TrimSpace(cfg.DefaultIdentity))),
		persona.Scope(cfg.StateScope),
		logger.Named("persona"),
	)

	var hist history.Store = history.NewManager()
	if cfg.HistoryDBPath != "" {
		sq, err := history.NewSQLiteStore(cfg.HistoryDBPath)
		if err != nil {
			return nil, fmt.Errorf("open history db: %w", err)
		}
		a.closers = append(a.closers, sq.Close)
		hist = sq
	}

	factory := llm.NewFactory(cfg)
	hosted, err := factory.CreateHosted(string(cfg.HostedProvider))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create hosted client: %w", err)
	}
	if hosted == nil {
		logger.Info("hosted backend not configured", zap.String("provider", string(cfg.HostedProvider)))
	}
	br := bridge.New(personas, bridge.Options{
		Local:         factory.CreateLocal(),
		Hosted:        hosted,
		History:       hist,
		Limiter:       bridge.NewRateLimiter(cfg.RateLimitGap),
		HostedPersona: persona.Name(strings.ToLower(cfg.HostedPersona)),
		HostedTimeout: cfg.HostedTimeout,
		Logger:        logger.Named("bridge"),
	})

	var rec storage.Recorder
	if cfg.TranscriptPath != "" {
		fr, err := storage.NewFileRecorder(cfg.TranscriptPath)
		if err != nil {
			logger.Warn("transcript disabled", zap.Error(err))
		} else {
			rec = fr
		}
	}
	var status storage.StatusStore
	if cfg.StatusPath != "" {
		ss, err := storage.NewFileStatusStore(cfg.StatusPath)
		if err != nil {
			logger.Warn("status snapshots disabled", zap.Error(err))
		} else {
			status = ss
		}
	}

	a.core = core.New(core.Options{
		Gate:     gate,
		Personas: personas,
		Bridge:   br,
		Healing: companion.NewHealing(companion.HealingConfig{
			InteractionCap: cfg.HealingInteractionCap,
			TrimThreshold:  cfg.AnchorTrimThreshold,
			TrimTarget:     cfg.AnchorTrimTarget,
		}),
		Registry:      companion.NewRegistry(),
		Recorder:      rec,
		Status:        status,
		AdminID:       cfg.AdminUserID,
		BridgeEnabled: cfg.BridgeEnabled,
		ChaptersDir:   cfg.ChaptersDir,
		Mode:          mode,
		LocalURL:      cfg.LocalLLMURL,
		Logger:        logger.Named("core"),
	})
	return a, nil
}
