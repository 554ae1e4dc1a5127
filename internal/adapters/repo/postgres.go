package repo

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tg-channel-catalog/internal/domain"
	"tg-channel-catalog/internal/infra/metrics"
)

// Postgres реализует репозитории каталога на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ domain.SubmissionRepo = (*Postgres)(nil)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

const submissionColumns = `id, handle, title, category, description, avatar_url, members, status, featured, verified, submitter_id, submitted_at, updated_at`

func scanSubmission(row pgx.Row) (domain.ChannelSubmission, error) {
	var s domain.ChannelSubmission
	err := row.Scan(&s.ID, &s.Handle, &s.Title, &s.Category, &s.Description, &s.AvatarURL, &s.Members,
		&s.Status, &s.Featured, &s.Verified, &s.SubmitterID, &s.SubmittedAt, &s.UpdatedAt)
	return s, err
}

// CreateSubmission сохраняет новую заявку со статусом pending.
func (p *Postgres) CreateSubmission(ctx context.Context, s domain.ChannelSubmission) (domain.ChannelSubmission, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	created, err := scanSubmission(p.pool.QueryRow(ctx, `
INSERT INTO channel_submissions (handle, title, category, description, avatar_url, members, submitter_id, status, featured, verified)
VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', false, false)
RETURNING `+submissionColumns+`
`, s.Handle, s.Title, s.Category, s.Description, s.AvatarURL, s.Members, s.SubmitterID))
	metrics.ObserveNetworkRequest("postgres", "submissions_insert", "channel_submissions", start, err)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ChannelSubmission{}, domain.ErrHandleTaken
		}
		return domain.ChannelSubmission{}, err
	}
	return created, nil
}

// GetSubmission возвращает заявку по ID.
func (p *Postgres) GetSubmission(ctx context.Context, id int64) (domain.ChannelSubmission, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	s, err := scanSubmission(p.pool.QueryRow(ctx, `
SELECT `+submissionColumns+` FROM channel_submissions WHERE id=$1
`, id))
	metrics.ObserveNetworkRequest("postgres", "submissions_get", "channel_submissions", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ChannelSubmission{}, domain.ErrNotFound
	}
	return s, err
}

// UpdateSubmission применяет частичное обновление и обновляет updated_at.
func (p *Postgres) UpdateSubmission(ctx context.Context, id int64, patch domain.SubmissionPatch) (domain.ChannelSubmission, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	sets := []string{"updated_at=now()"}
	args := []any{id}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.AvatarURL != nil {
		add("avatar_url", *patch.AvatarURL)
	}
	if patch.Members != nil {
		add("members", *patch.Members)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.Featured != nil {
		add("featured", *patch.Featured)
	}
	if patch.Verified != nil {
		add("verified", *patch.Verified)
	}

	start := time.Now()
	s, err := scanSubmission(p.pool.QueryRow(ctx, `
UPDATE channel_submissions SET `+strings.Join(sets, ", ")+`
WHERE id=$1
RETURNING `+submissionColumns+`
`, args...))
	metrics.ObserveNetworkRequest("postgres", "submissions_update", "channel_submissions", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ChannelSubmission{}, domain.ErrNotFound
	}
	return s, err
}

// RemoveSubmission безвозвратно удаляет заявку.
func (p *Postgres) RemoveSubmission(ctx context.Context, id int64) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `DELETE FROM channel_submissions WHERE id=$1`, id)
	metrics.ObserveNetworkRequest("postgres", "submissions_delete", "channel_submissions", start, err)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByStatus возвращает все заявки, сгруппированные по статусу, одним проходом.
func (p *Postgres) ListByStatus(ctx context.Context) (domain.StatusGroups, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+submissionColumns+` FROM channel_submissions ORDER BY submitted_at DESC
`)
	metrics.ObserveNetworkRequest("postgres", "submissions_list_by_status", "channel_submissions", start, err)
	if err != nil {
		return domain.StatusGroups{}, err
	}
	defer rows.Close()

	var groups domain.StatusGroups
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return domain.StatusGroups{}, err
		}
		switch s.Status {
		case domain.StatusApproved:
			groups.Approved = append(groups.Approved, s)
		case domain.StatusRejected:
			groups.Rejected = append(groups.Rejected, s)
		default:
			groups.Pending = append(groups.Pending, s)
		}
	}
	return groups, rows.Err()
}

// ListFeatured возвращает одобренные и отмеченные заявки, свежеобновлённые первыми.
func (p *Postgres) ListFeatured(ctx context.Context) ([]domain.ChannelSubmission, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+submissionColumns+`
FROM channel_submissions
WHERE status='approved' AND featured=true
ORDER BY updated_at DESC, id DESC
`)
	metrics.ObserveNetworkRequest("postgres", "submissions_list_featured", "channel_submissions", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var featured []domain.ChannelSubmission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		featured = append(featured, s)
	}
	return featured, rows.Err()
}

// ListApproved возвращает страницу одобренных заявок с фильтрами и курсором.
// Порядок стабильный: updated_at DESC, id DESC. Курсор непрозрачен для вызывающего.
func (p *Postgres) ListApproved(ctx context.Context, filter domain.ListingFilter, cursor string, limit int) (domain.ListingPage, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	conds := []string{"status='approved'"}
	var args []any
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Category != "" {
		conds = append(conds, "category="+arg(filter.Category))
	}
	if filter.Search != "" {
		placeholder := arg("%" + filter.Search + "%")
		conds = append(conds, fmt.Sprintf("(title ILIKE %s OR handle ILIKE %s)", placeholder, placeholder))
	}
	if filter.Verified != nil {
		conds = append(conds, "verified="+arg(*filter.Verified))
	}
	if cursor != "" {
		after, afterID, err := decodeCursor(cursor)
		if err != nil {
			return domain.ListingPage{}, err
		}
		conds = append(conds, fmt.Sprintf("(updated_at, id) < (%s, %s)", arg(after), arg(afterID)))
	}

	query := `
SELECT ` + submissionColumns + `
FROM channel_submissions
WHERE ` + strings.Join(conds, " AND ") + `
ORDER BY updated_at DESC, id DESC
LIMIT ` + arg(limit)

	start := time.Now()
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", "submissions_list_approved", "channel_submissions", start, err)
	if err != nil {
		return domain.ListingPage{}, err
	}
	defer rows.Close()

	var items []domain.ChannelSubmission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return domain.ListingPage{}, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return domain.ListingPage{}, err
	}

	page := domain.ListingPage{Items: items, HasMore: len(items) == limit}
	if page.HasMore {
		last := items[len(items)-1]
		page.NextCursor = encodeCursor(last.UpdatedAt, last.ID)
	}
	return page, nil
}

func encodeCursor(updatedAt time.Time, id int64) string {
	raw := strconv.FormatInt(updatedAt.UTC().UnixNano(), 10) + ":" + strconv.FormatInt(id, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (time.Time, int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("некорректный курсор: %w", err)
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return time.Time{}, 0, fmt.Errorf("некорректный курсор")
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("некорректный курсор: %w", err)
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("некорректный курсор: %w", err)
	}
	return time.Unix(0, nanos).UTC(), id, nil
}
