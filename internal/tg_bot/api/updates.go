package api

import (
	"context"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"time"
)

// UpdatesGetter is the long-polling call of *tgbotapi.BotAPI.
type UpdatesGetter interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// UpdatesPoller long-polls Telegram until its context is cancelled.
type UpdatesPoller struct {
	bot        UpdatesGetter
	buffer     int
	retryDelay time.Duration
}

// NewUpdatesPoller creates a poller with a 100 update buffer and a 3s retry delay.
func NewUpdatesPoller(bot UpdatesGetter) *UpdatesPoller {
	return &UpdatesPoller{bot: bot, buffer: 100, retryDelay: 3 * time.Second}
}

// Updates returns a channel of updates that is closed once ctx is done.
// Failed polls are logged and retried after the retry delay.
func (p *UpdatesPoller) Updates(ctx context.Context, config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update, p.buffer)

	go func() {
		defer close(ch)
		for ctx.Err() == nil {
			updates, err := p.bot.GetUpdates(config)
			if err != nil {
				logrus.WithError(err).Warnf("Failed to get updates, retrying in %v", p.retryDelay)
				select {
				case <-ctx.Done():
					return
				case <-time.After(p.retryDelay):
				}
				continue
			}

			for _, update := range updates {
				if update.UpdateID < config.Offset {
					continue
				}
				config.Offset = update.UpdateID + 1
				select {
				case ch <- update:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch
}
