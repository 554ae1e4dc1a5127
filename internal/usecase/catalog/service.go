package catalog

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tg-channel-catalog/internal/domain"
	"tg-channel-catalog/internal/infra/metrics"
)

var handleRegex = regexp.MustCompile(`(?i)^(?:@|https?://t\.me/|t\.me/)?([a-z0-9_]{5,})$`)

// Service — агрегатор каталога: заявки, модерация, выдача, закладки.
type Service struct {
	repo      domain.SubmissionRepo
	bookmarks domain.BookmarkRepo
	promo     domain.PromoRepo
	cache     domain.MetadataCache
	provider  domain.MetadataProvider
	events    domain.ModerationQueue
	log       zerolog.Logger
}

// NewService создаёт сервис каталога.
func NewService(repo domain.SubmissionRepo, bookmarks domain.BookmarkRepo, promo domain.PromoRepo,
	cache domain.MetadataCache, provider domain.MetadataProvider, events domain.ModerationQueue, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		bookmarks: bookmarks,
		promo:     promo,
		cache:     cache,
		provider:  provider,
		events:    events,
		log:       log,
	}
}

// ParseHandle приводит ввод пользователя к каноничному хэндлу канала.
func ParseHandle(input string) (string, error) {
	trim := strings.TrimSpace(input)
	matches := handleRegex.FindStringSubmatch(trim)
	if len(matches) < 2 {
		return "", domain.ErrChannelNotFound
	}
	return strings.ToLower(matches[1]), nil
}

// SubmitInput описывает поля заявки, заполняемые пользователем.
type SubmitInput struct {
	Handle      string
	Category    string
	Description string
}

// Submit создаёт заявку. Существование канала подтверждается провайдером
// метаданных (через кэш), заголовок, аватар и число участников берутся из снимка.
func (s *Service) Submit(ctx context.Context, input SubmitInput, submitter domain.Identity) (domain.ChannelSubmission, error) {
	if submitter.Role == domain.RoleGuest || submitter.ID == 0 {
		return domain.ChannelSubmission{}, domain.ErrForbidden
	}
	handle, err := ParseHandle(input.Handle)
	if err != nil {
		return domain.ChannelSubmission{}, err
	}

	snapshot, err := s.cache.Resolve(ctx, handle, func(ctx context.Context) (domain.MetadataSnapshot, error) {
		return s.provider.Resolve(ctx, handle)
	})
	if err != nil {
		return domain.ChannelSubmission{}, fmt.Errorf("резолв канала: %w", err)
	}

	created, err := s.repo.CreateSubmission(ctx, domain.ChannelSubmission{
		Handle:      handle,
		Title:       snapshot.Title,
		Category:    input.Category,
		Description: input.Description,
		AvatarURL:   snapshot.AvatarURL,
		Members:     snapshot.Members,
		SubmitterID: submitter.ID,
	})
	if err != nil {
		return domain.ChannelSubmission{}, fmt.Errorf("сохранение заявки: %w", err)
	}
	metrics.SubmissionsTotal.Inc()
	return created, nil
}

// Moderate применяет действие модератора к заявке и публикует событие
// для уведомления автора при approve/reject.
func (s *Service) Moderate(ctx context.Context, action domain.ModerationAction, id int64, actor domain.Identity) (domain.ChannelSubmission, error) {
	if !actor.IsModerator() {
		return domain.ChannelSubmission{}, domain.ErrForbidden
	}

	current, err := s.repo.GetSubmission(ctx, id)
	if err != nil {
		return domain.ChannelSubmission{}, err
	}

	next, err := domain.ApplyModeration(action, current)
	metrics.ObserveModeration(string(action), err)
	if err != nil {
		return domain.ChannelSubmission{}, err
	}

	patch := domain.SubmissionPatch{}
	switch action {
	case domain.ActionApprove, domain.ActionReject:
		patch.Status = &next.Status
	case domain.ActionToggleFeatured:
		patch.Featured = &next.Featured
	case domain.ActionToggleVerified:
		patch.Verified = &next.Verified
	}

	updated, err := s.repo.UpdateSubmission(ctx, id, patch)
	if err != nil {
		return domain.ChannelSubmission{}, fmt.Errorf("обновление заявки: %w", err)
	}

	if s.events != nil && (action == domain.ActionApprove || action == domain.ActionReject) {
		event := domain.ModerationEvent{
			ID:           uuid.NewString(),
			SubmissionID: updated.ID,
			Handle:       updated.Handle,
			Action:       action,
			SubmitterID:  updated.SubmitterID,
			OccurredAt:   time.Now().UTC(),
		}
		if err := s.events.Enqueue(ctx, event); err != nil {
			// заявка уже обновлена, уведомление не критично
			s.log.Warn().Err(err).Int64("submission_id", updated.ID).Msg("catalog: не удалось опубликовать событие модерации")
		}
	}
	return updated, nil
}

// Remove безвозвратно удаляет заявку. Доступно только модераторам.
func (s *Service) Remove(ctx context.Context, id int64, actor domain.Identity) error {
	if !actor.IsModerator() {
		return domain.ErrForbidden
	}
	return s.repo.RemoveSubmission(ctx, id)
}

// Listing — публичная выдача каталога.
type Listing struct {
	Page           domain.ListingPage
	Featured       []domain.ChannelSubmission
	PromoPrimary   domain.PromotionalContent
	PromoSecondary domain.PromotionalContent
}

// BuildListing собирает страницу выдачи, избранное и оба промо-слота.
// Сборка атомарна: любая неудавшаяся часть роняет весь запрос,
// частичная выдача не возвращается.
func (s *Service) BuildListing(ctx context.Context, filter domain.ListingFilter, cursor string, limit int) (Listing, error) {
	page, err := s.repo.ListApproved(ctx, filter, cursor, limit)
	if err != nil {
		return Listing{}, fmt.Errorf("выдача каталога: %w", err)
	}
	featured, err := s.repo.ListFeatured(ctx)
	if err != nil {
		return Listing{}, fmt.Errorf("избранные каналы: %w", err)
	}
	primary, err := s.promo.GetPromo(ctx, domain.PromoSlotPrimary)
	if err != nil {
		return Listing{}, fmt.Errorf("промо primary: %w", err)
	}
	secondary, err := s.promo.GetPromo(ctx, domain.PromoSlotSecondary)
	if err != nil {
		return Listing{}, fmt.Errorf("промо secondary: %w", err)
	}
	return Listing{
		Page:           page,
		Featured:       featured,
		PromoPrimary:   primary,
		PromoSecondary: secondary,
	}, nil
}

// Board возвращает заявки, сгруппированные по статусу, для панели модератора.
func (s *Service) Board(ctx context.Context, actor domain.Identity) (domain.StatusGroups, error) {
	if !actor.IsModerator() {
		return domain.StatusGroups{}, domain.ErrForbidden
	}
	return s.repo.ListByStatus(ctx)
}

// SetPromo целиком перезаписывает промо-слот. Доступно только модераторам.
func (s *Service) SetPromo(ctx context.Context, content domain.PromotionalContent, actor domain.Identity) error {
	if !actor.IsModerator() {
		return domain.ErrForbidden
	}
	if content.Slot != domain.PromoSlotPrimary && content.Slot != domain.PromoSlotSecondary {
		return fmt.Errorf("неизвестный промо-слот: %s", content.Slot)
	}
	return s.promo.SetPromo(ctx, content)
}

// Bookmark сохраняет канал в закладки пользователя.
func (s *Service) Bookmark(ctx context.Context, user domain.Identity, channelID int64) error {
	if user.Role == domain.RoleGuest || user.ID == 0 {
		return domain.ErrForbidden
	}
	if _, err := s.repo.GetSubmission(ctx, channelID); err != nil {
		return err
	}
	return s.bookmarks.AddBookmark(ctx, user.ID, channelID)
}

// Unbookmark убирает канал из закладок пользователя.
func (s *Service) Unbookmark(ctx context.Context, user domain.Identity, channelID int64) error {
	if user.Role == domain.RoleGuest || user.ID == 0 {
		return domain.ErrForbidden
	}
	return s.bookmarks.RemoveBookmark(ctx, user.ID, channelID)
}

// ListBookmarks возвращает закладки пользователя с живыми данными каналов.
func (s *Service) ListBookmarks(ctx context.Context, user domain.Identity) ([]domain.Bookmark, error) {
	if user.Role == domain.RoleGuest || user.ID == 0 {
		return nil, domain.ErrForbidden
	}
	return s.bookmarks.ListBookmarks(ctx, user.ID)
}
