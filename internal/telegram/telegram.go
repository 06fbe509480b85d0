// Package telegram wires the question-answering bot.
package telegram

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/askdocs/askdocs-backend/internal/config"
	"github.com/askdocs/askdocs-backend/internal/telegram/bot"
)

// Bot is the main telegram bot interface
type Bot interface {
	Start(ctx context.Context) error
	Stop() error
}

// NewBot initializes the telegram bot with all dependencies
func NewBot(
	cfg *config.TelegramConfig,
	chatUC bot.ChatUsecase,
	logger *zap.Logger,
) (Bot, error) {
	b, err := bot.New(cfg, chatUC, logger)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	logger.Info("telegram bot initialized successfully")
	return b, nil
}
