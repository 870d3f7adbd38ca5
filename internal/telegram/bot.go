package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"companion-bot/internal/core"
)

// maxMessageLen keeps chunks under Telegram's 4096 limit.
const maxMessageLen = 3900

// Handler answers one inbound message. *core.Core implements it.
type Handler interface {
	Handle(ctx context.Context, req core.Request) string
}

type Bot struct {
	api     *tgbotapi.BotAPI
	s       sender
	handler Handler
	token   string
	logger  *zap.Logger
}

func New(botToken string, handler Handler, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("authorized on telegram", zap.String("username", api.Self.UserName))
	return &Bot{
		api:     api,
		s:       botAPISender{api: api},
		handler: handler,
		token:   botToken,
		logger:  logger,
	}, nil
}

// Start long-polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		b.logger.Warn("failed to delete webhook before polling", zap.Error(err))
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("polling for updates")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// StartWebhook registers https://<publicHost>/<token> with Telegram and
// serves it on port until ctx is done.
func (b *Bot) StartWebhook(ctx context.Context, publicHost string, port int) error {
	wh, err := tgbotapi.NewWebhook(fmt.Sprintf("https://%s/%s", publicHost, b.token))
	if err != nil {
		return fmt.Errorf("invalid webhook url: %w", err)
	}
	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("failed to register webhook: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           NewRouter(b.token, b.handleUpdate, b.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		b.logger.Info("webhook listening", zap.Int("port", port), zap.String("host", publicHost))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("webhook server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message != nil {
		b.handleIncomingMessage(ctx, update.Message)
	}
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Text == "" {
		return
	}
	req := core.Request{CallerID: msg.From.ID, Text: msg.Text}
	if msg.IsCommand() {
		req.Command = msg.Command()
		req.Args = msg.CommandArguments()
	}
	b.logger.Debug("incoming message",
		zap.Int64("caller_id", msg.From.ID),
		zap.String("username", msg.From.UserName),
		zap.String("command", req.Command),
	)
	reply := b.handler.Handle(ctx, req)
	if reply == "" {
		return
	}
	b.sendMessage(msg.Chat.ID, reply)
}

// Notify sends an unsolicited message, e.g. a scheduled report.
func (b *Bot) Notify(chatID int64, text string) {
	b.sendMessage(chatID, text)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		if _, err := b.s.Send(tgbotapi.NewMessage(chatID, chunk)); err != nil {
			b.logger.Error("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
			return
		}
	}
}

// splitMessage cuts text into chunks of at most limit runes.
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}
	var chunks []string
	runes := []rune(text)
	for len(runes) > 0 {
		n := limit
		if len(runes) < n {
			n = len(runes)
		}
		chunks = append(chunks, string(runes[:n]))
		runes = runes[n:]
	}
	return chunks
}
