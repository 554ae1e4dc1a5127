package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"tg-channel-catalog/internal/domain"
	"tg-channel-catalog/internal/infra/metrics"
)

var (
	_ domain.BookmarkRepo = (*Postgres)(nil)
	_ domain.PromoRepo    = (*Postgres)(nil)
)

// AddBookmark сохраняет закладку. Повторное добавление той же пары не ошибка.
func (p *Postgres) AddBookmark(ctx context.Context, userID, channelID int64) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO bookmarks (user_id, channel_id)
VALUES ($1, $2)
ON CONFLICT (user_id, channel_id) DO NOTHING
`, userID, channelID)
	metrics.ObserveNetworkRequest("postgres", "bookmarks_add", "bookmarks", start, err)
	return err
}

// RemoveBookmark удаляет закладку.
func (p *Postgres) RemoveBookmark(ctx context.Context, userID, channelID int64) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `DELETE FROM bookmarks WHERE user_id=$1 AND channel_id=$2`, userID, channelID)
	metrics.ObserveNetworkRequest("postgres", "bookmarks_remove", "bookmarks", start, err)
	return err
}

// ListBookmarks возвращает закладки пользователя, разрешая каждую по живой заявке.
// Снимки канала в закладке не хранятся, иначе они протухают.
func (p *Postgres) ListBookmarks(ctx context.Context, userID int64) ([]domain.Bookmark, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT b.user_id, b.channel_id, b.added_at,
       c.id, c.handle, c.title, c.category, c.description, c.avatar_url, c.members,
       c.status, c.featured, c.verified, c.submitter_id, c.submitted_at, c.updated_at
FROM bookmarks b JOIN channel_submissions c ON c.id = b.channel_id
WHERE b.user_id=$1
ORDER BY b.added_at DESC
`, userID)
	metrics.ObserveNetworkRequest("postgres", "bookmarks_list", "bookmarks", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookmarks []domain.Bookmark
	for rows.Next() {
		var b domain.Bookmark
		c := &b.Channel
		if err := rows.Scan(&b.UserID, &b.ChannelID, &b.AddedAt,
			&c.ID, &c.Handle, &c.Title, &c.Category, &c.Description, &c.AvatarURL, &c.Members,
			&c.Status, &c.Featured, &c.Verified, &c.SubmitterID, &c.SubmittedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}

// GetPromo возвращает содержимое промо-слота.
func (p *Postgres) GetPromo(ctx context.Context, slot domain.PromoSlot) (domain.PromotionalContent, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var content domain.PromotionalContent
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT slot, title, description, cta_link, cta_text, image
FROM promo_slots WHERE slot=$1
`, slot).Scan(&content.Slot, &content.Title, &content.Description, &content.CTALink, &content.CTAText, &content.Image)
	metrics.ObserveNetworkRequest("postgres", "promo_get", "promo_slots", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		// пустой слот — не ошибка, выдача показывает заглушку
		return domain.PromotionalContent{Slot: slot}, nil
	}
	return content, err
}

// SetPromo целиком перезаписывает промо-слот.
func (p *Postgres) SetPromo(ctx context.Context, content domain.PromotionalContent) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO promo_slots (slot, title, description, cta_link, cta_text, image, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now())
ON CONFLICT (slot) DO UPDATE
SET title = EXCLUDED.title,
    description = EXCLUDED.description,
    cta_link = EXCLUDED.cta_link,
    cta_text = EXCLUDED.cta_text,
    image = EXCLUDED.image,
    updated_at = now()
`, content.Slot, content.Title, content.Description, content.CTALink, content.CTAText, content.Image)
	metrics.ObserveNetworkRequest("postgres", "promo_set", "promo_slots", start, err)
	return err
}
