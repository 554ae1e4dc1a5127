package domain

import "context"

// MetadataProvider отвечает за получение метаданных канала у внешнего API.
type MetadataProvider interface {
	Resolve(ctx context.Context, handle string) (MetadataSnapshot, error)
}

// MetadataCache хранит снимки метаданных с ограниченным временем жизни.
type MetadataCache interface {
	Get(key string) (MetadataSnapshot, bool)
	Set(key string, value MetadataSnapshot)
	Clear(key string)
	// Resolve возвращает снимок из кэша либо загружает его через fn,
	// схлопывая конкурентные запросы по одному ключу в один вызов.
	Resolve(ctx context.Context, key string, fn func(ctx context.Context) (MetadataSnapshot, error)) (MetadataSnapshot, error)
}

// SubmissionRepo управляет заявками каталога.
type SubmissionRepo interface {
	CreateSubmission(ctx context.Context, s ChannelSubmission) (ChannelSubmission, error)
	GetSubmission(ctx context.Context, id int64) (ChannelSubmission, error)
	UpdateSubmission(ctx context.Context, id int64, patch SubmissionPatch) (ChannelSubmission, error)
	RemoveSubmission(ctx context.Context, id int64) error
	ListByStatus(ctx context.Context) (StatusGroups, error)
	ListFeatured(ctx context.Context) ([]ChannelSubmission, error)
	ListApproved(ctx context.Context, filter ListingFilter, cursor string, limit int) (ListingPage, error)
}

// BookmarkRepo управляет закладками пользователей.
type BookmarkRepo interface {
	AddBookmark(ctx context.Context, userID, channelID int64) error
	RemoveBookmark(ctx context.Context, userID, channelID int64) error
	ListBookmarks(ctx context.Context, userID int64) ([]Bookmark, error)
}

// PromoRepo хранит промо-блоки выдачи.
type PromoRepo interface {
	GetPromo(ctx context.Context, slot PromoSlot) (PromotionalContent, error)
	SetPromo(ctx context.Context, content PromotionalContent) error
}

// SessionStore хранит проверенную личность на время сессии клиента.
type SessionStore interface {
	Login(ctx context.Context, identity Identity) (string, error)
	Current(ctx context.Context, token string) (Identity, error)
	Logout(ctx context.Context, token string) error
}
