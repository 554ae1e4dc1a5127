package notify

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"tg-channel-catalog/internal/domain"
	"tg-channel-catalog/internal/infra/metrics"
)

// Notifier сообщает авторам заявок о решении модератора через бота.
type Notifier struct {
	bot *tgbotapi.BotAPI
	log zerolog.Logger
}

// NewNotifier создаёт нотификатор.
func NewNotifier(bot *tgbotapi.BotAPI, log zerolog.Logger) *Notifier {
	return &Notifier{bot: bot, log: log}
}

// Notify отправляет автору заявки сообщение о результате модерации.
func (n *Notifier) Notify(ctx context.Context, event domain.ModerationEvent) error {
	var text string
	switch event.Action {
	case domain.ActionApprove:
		text = fmt.Sprintf("Канал @%s одобрен и опубликован в каталоге.", event.Handle)
	case domain.ActionReject:
		text = fmt.Sprintf("Заявка на канал @%s отклонена модератором.", event.Handle)
	default:
		// остальные действия автора не касаются
		return nil
	}

	msg := tgbotapi.NewMessage(event.SubmitterID, text)
	start := time.Now()
	_, err := n.bot.Send(msg)
	metrics.ObserveNetworkRequest("telegram", "send_message", "notify", start, err)
	if err != nil {
		return fmt.Errorf("отправка уведомления: %w", err)
	}
	n.log.Debug().Int64("submitter_id", event.SubmitterID).Str("handle", event.Handle).Msg("notify: уведомление отправлено")
	return nil
}
