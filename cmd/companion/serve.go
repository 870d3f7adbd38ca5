package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"companion-bot/internal/scheduler"
	"companion-bot/internal/telegram"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot (webhook when WEBHOOK_URL is set, polling otherwise)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			if cfg.TelegramToken == "" {
				return errors.New("TELEGRAM_TOKEN is required")
			}

			mode := "POLLING"
			if cfg.WebhookURL != "" {
				mode = "WEBHOOK"
			}
			a, err := wireApp(cfg, mode, logger)
			if err != nil {
				logger.Fatal("failed to wire app", zap.Error(err))
			}
			defer a.Close()

			bot, err := telegram.New(cfg.TelegramToken, a.core, logger.Named("telegram"))
			if err != nil {
				logger.Fatal("failed to create telegram bot", zap.Error(err))
			}

			sched := scheduler.New(logger.Named("scheduler"))
			if cfg.SnapshotSchedule != "" {
				if err := sched.Add("snapshot", cfg.SnapshotSchedule, a.core.SaveSnapshot); err != nil {
					return err
				}
			}
			if cfg.ReportSchedule != "" && a.core.AdminID() != 0 {
				err := sched.Add("daily-report", cfg.ReportSchedule, func(context.Context) error {
					report, err := a.core.DailyReport()
					if err != nil {
						return err
					}
					bot.Notify(a.core.AdminID(), report)
					return nil
				})
				if err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				if mode == "WEBHOOK" {
					return bot.StartWebhook(gctx, cfg.WebhookURL, cfg.Port)
				}
				return bot.Start(gctx)
			})
			g.Go(func() error {
				sched.Start()
				<-gctx.Done()
				sched.Stop()
				return nil
			})

			logger.Info("companion bot started", zap.String("mode", mode))
			err = g.Wait()
			if serr := a.core.SaveSnapshot(context.Background()); serr != nil {
				logger.Warn("final snapshot failed", zap.Error(serr))
			}
			logger.Info("companion bot stopped")
			return err
		},
	}
}
