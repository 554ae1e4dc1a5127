package domain

import "time"

// Identity описывает проверенный профиль пользователя Telegram.
// Живёт только в сессионном хранилище, в БД не сохраняется.
type Identity struct {
	ID        int64    `json:"id"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName,omitempty"`
	Username  string   `json:"username,omitempty"`
	PhotoURL  string   `json:"photoUrl,omitempty"`
	Role      UserRole `json:"role"`
}

// SubmissionStatus описывает статус заявки в каталоге.
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusRejected SubmissionStatus = "rejected"
)

// ChannelSubmission представляет заявку на размещение канала в каталоге.
type ChannelSubmission struct {
	ID          int64
	Handle      string
	Title       string
	Category    string
	Description string
	AvatarURL   string
	Members     int
	Status      SubmissionStatus
	Featured    bool
	Verified    bool
	SubmitterID int64
	SubmittedAt time.Time
	UpdatedAt   time.Time
}

// SubmissionPatch описывает частичное обновление заявки.
// nil-поле означает "не менять".
type SubmissionPatch struct {
	Title       *string
	Category    *string
	Description *string
	AvatarURL   *string
	Members     *int
	Status      *SubmissionStatus
	Featured    *bool
	Verified    *bool
}

// StatusGroups содержит заявки, сгруппированные по статусу.
type StatusGroups struct {
	Pending  []ChannelSubmission
	Approved []ChannelSubmission
	Rejected []ChannelSubmission
}

// MetadataSnapshot содержит метаданные канала от внешнего провайдера.
type MetadataSnapshot struct {
	Title       string
	AvatarURL   string
	Members     int
	Description string
	InviteLink  string
}

// PromoSlot задаёт позицию промо-блока в выдаче.
type PromoSlot string

const (
	PromoSlotPrimary   PromoSlot = "primary"
	PromoSlotSecondary PromoSlot = "secondary"
)

// PromotionalContent описывает промо-блок, редактируемый модераторами целиком.
type PromotionalContent struct {
	Slot        PromoSlot `json:"slot"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CTALink     string    `json:"cta_link"`
	CTAText     string    `json:"cta_text"`
	Image       string    `json:"image"`
}

// Bookmark связывает пользователя с сохранённым каналом.
// Хранится по одной записи на пару пользователь-канал, данные канала
// разрешаются по живой заявке при чтении.
type Bookmark struct {
	UserID    int64
	ChannelID int64
	AddedAt   time.Time
	Channel   ChannelSubmission
}

// ListingFilter задаёт фильтры публичной выдачи одобренных каналов.
type ListingFilter struct {
	Category string
	Search   string
	Verified *bool
}

// ListingPage содержит страницу выдачи с непрозрачным курсором.
type ListingPage struct {
	Items      []ChannelSubmission
	NextCursor string
	HasMore    bool
}
