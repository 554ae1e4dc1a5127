package tgmeta

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"tg-channel-catalog/internal/domain"
	"tg-channel-catalog/internal/infra/metrics"
)

// Provider получает метаданные канала через Bot API.
// Три операции провайдера: карточка канала, прямая ссылка на аватар,
// количество участников. Любая ошибка API сворачивается в ErrProviderLookup.
type Provider struct {
	bot *tgbotapi.BotAPI
	log zerolog.Logger
}

// NewProvider создаёт провайдер метаданных.
func NewProvider(bot *tgbotapi.BotAPI, log zerolog.Logger) *Provider {
	return &Provider{bot: bot, log: log}
}

var _ domain.MetadataProvider = (*Provider)(nil)

// Resolve возвращает снимок метаданных публичного канала по хэндлу.
func (p *Provider) Resolve(ctx context.Context, handle string) (domain.MetadataSnapshot, error) {
	chatConfig := tgbotapi.ChatConfig{SuperGroupUsername: "@" + handle}

	start := time.Now()
	chat, err := p.bot.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: chatConfig})
	metrics.ObserveNetworkRequest("telegram", "get_chat", handle, start, err)
	if err != nil {
		if isNotFound(err) {
			return domain.MetadataSnapshot{}, domain.ErrChannelNotFound
		}
		return domain.MetadataSnapshot{}, fmt.Errorf("%w: %s", domain.ErrProviderLookup, err)
	}

	snapshot := domain.MetadataSnapshot{
		Title:       chat.Title,
		Description: chat.Description,
		InviteLink:  chat.InviteLink,
	}

	if chat.Photo != nil && chat.Photo.BigFileID != "" {
		start = time.Now()
		url, err := p.bot.GetFileDirectURL(chat.Photo.BigFileID)
		metrics.ObserveNetworkRequest("telegram", "get_file_url", handle, start, err)
		if err != nil {
			return domain.MetadataSnapshot{}, fmt.Errorf("%w: %s", domain.ErrProviderLookup, err)
		}
		snapshot.AvatarURL = url
	}

	start = time.Now()
	members, err := p.bot.GetChatMembersCount(tgbotapi.ChatMemberCountConfig{ChatConfig: chatConfig})
	metrics.ObserveNetworkRequest("telegram", "get_members_count", handle, start, err)
	if err != nil {
		return domain.MetadataSnapshot{}, fmt.Errorf("%w: %s", domain.ErrProviderLookup, err)
	}
	snapshot.Members = members

	return snapshot, nil
}

func isNotFound(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "chat not found")
}
