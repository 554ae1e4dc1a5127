package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"

	"tg-channel-catalog/internal/domain"
)

// DefaultMaxAuthAge ограничивает возраст колбэка виджета логина,
// иначе перехваченный колбэк можно было бы проигрывать бесконечно.
const DefaultMaxAuthAge = 24 * time.Hour

// WidgetVerifier проверяет подпись колбэка Telegram Login Widget.
type WidgetVerifier struct {
	secret     []byte
	maxAuthAge time.Duration
	roles      *domain.RoleDirectory
	now        func() time.Time
}

// NewWidgetVerifier создаёт верификатор. Секрет — SHA256 от токена бота.
func NewWidgetVerifier(botToken string, maxAuthAge time.Duration, roles *domain.RoleDirectory) *WidgetVerifier {
	secret := sha256.Sum256([]byte(botToken))
	if maxAuthAge <= 0 {
		maxAuthAge = DefaultMaxAuthAge
	}
	return &WidgetVerifier{secret: secret[:], maxAuthAge: maxAuthAge, roles: roles, now: time.Now}
}

// Verify проверяет подпись и свежесть полей колбэка и возвращает личность с ролью.
func (v *WidgetVerifier) Verify(fields map[string]string) (domain.Identity, error) {
	supplied, ok := fields["hash"]
	if !ok || supplied == "" {
		return domain.Identity{}, domain.ErrSignatureMismatch
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		if key == "hash" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, key+"="+fields[key])
	}

	h := hmac.New(sha256.New, v.secret)
	h.Write([]byte(strings.Join(lines, "\n")))
	expected, err := hex.DecodeString(supplied)
	if err != nil {
		return domain.Identity{}, domain.ErrSignatureMismatch
	}
	if !hmac.Equal(h.Sum(nil), expected) {
		return domain.Identity{}, domain.ErrSignatureMismatch
	}

	authDate, err := strconv.ParseInt(fields["auth_date"], 10, 64)
	if err != nil {
		return domain.Identity{}, domain.ErrAuthExpired
	}
	if v.now().Sub(time.Unix(authDate, 0)) > v.maxAuthAge {
		return domain.Identity{}, domain.ErrAuthExpired
	}

	id, err := strconv.ParseInt(fields["id"], 10, 64)
	if err != nil {
		return domain.Identity{}, domain.ErrSignatureMismatch
	}

	return domain.Identity{
		ID:        id,
		FirstName: fields["first_name"],
		LastName:  fields["last_name"],
		Username:  fields["username"],
		PhotoURL:  fields["photo_url"],
		Role:      v.roles.Resolve(id),
	}, nil
}
