package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tg-channel-catalog/internal/domain"
	"tg-channel-catalog/internal/infra/cache"
)

type stubStore struct {
	nextID      int64
	submissions map[int64]domain.ChannelSubmission
	promoErr    error
	listErr     error
}

func newStubStore() *stubStore {
	return &stubStore{nextID: 1, submissions: make(map[int64]domain.ChannelSubmission)}
}

func (s *stubStore) CreateSubmission(_ context.Context, sub domain.ChannelSubmission) (domain.ChannelSubmission, error) {
	for _, existing := range s.submissions {
		if existing.Handle == sub.Handle {
			return domain.ChannelSubmission{}, domain.ErrHandleTaken
		}
	}
	sub.ID = s.nextID
	s.nextID++
	sub.Status = domain.StatusPending
	sub.Featured = false
	sub.Verified = false
	sub.SubmittedAt = time.Now()
	sub.UpdatedAt = sub.SubmittedAt
	s.submissions[sub.ID] = sub
	return sub, nil
}

func (s *stubStore) GetSubmission(_ context.Context, id int64) (domain.ChannelSubmission, error) {
	sub, ok := s.submissions[id]
	if !ok {
		return domain.ChannelSubmission{}, domain.ErrNotFound
	}
	return sub, nil
}

func (s *stubStore) UpdateSubmission(_ context.Context, id int64, patch domain.SubmissionPatch) (domain.ChannelSubmission, error) {
	sub, ok := s.submissions[id]
	if !ok {
		return domain.ChannelSubmission{}, domain.ErrNotFound
	}
	if patch.Status != nil {
		sub.Status = *patch.Status
	}
	if patch.Featured != nil {
		sub.Featured = *patch.Featured
	}
	if patch.Verified != nil {
		sub.Verified = *patch.Verified
	}
	sub.UpdatedAt = time.Now()
	s.submissions[id] = sub
	return sub, nil
}

func (s *stubStore) RemoveSubmission(_ context.Context, id int64) error {
	if _, ok := s.submissions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.submissions, id)
	return nil
}

func (s *stubStore) ListByStatus(context.Context) (domain.StatusGroups, error) {
	var groups domain.StatusGroups
	for _, sub := range s.submissions {
		switch sub.Status {
		case domain.StatusApproved:
			groups.Approved = append(groups.Approved, sub)
		case domain.StatusRejected:
			groups.Rejected = append(groups.Rejected, sub)
		default:
			groups.Pending = append(groups.Pending, sub)
		}
	}
	return groups, nil
}

func (s *stubStore) ListFeatured(context.Context) ([]domain.ChannelSubmission, error) {
	var featured []domain.ChannelSubmission
	for _, sub := range s.submissions {
		if sub.Status == domain.StatusApproved && sub.Featured {
			featured = append(featured, sub)
		}
	}
	return featured, nil
}

func (s *stubStore) ListApproved(context.Context, domain.ListingFilter, string, int) (domain.ListingPage, error) {
	if s.listErr != nil {
		return domain.ListingPage{}, s.listErr
	}
	var items []domain.ChannelSubmission
	for _, sub := range s.submissions {
		if sub.Status == domain.StatusApproved {
			items = append(items, sub)
		}
	}
	return domain.ListingPage{Items: items}, nil
}

func (s *stubStore) AddBookmark(_ context.Context, userID, channelID int64) error { return nil }
func (s *stubStore) RemoveBookmark(context.Context, int64, int64) error           { return nil }
func (s *stubStore) ListBookmarks(context.Context, int64) ([]domain.Bookmark, error) {
	return nil, nil
}

func (s *stubStore) GetPromo(_ context.Context, slot domain.PromoSlot) (domain.PromotionalContent, error) {
	if s.promoErr != nil {
		return domain.PromotionalContent{}, s.promoErr
	}
	return domain.PromotionalContent{Slot: slot}, nil
}
func (s *stubStore) SetPromo(context.Context, domain.PromotionalContent) error { return nil }

type stubProvider struct {
	snapshots map[string]domain.MetadataSnapshot
	calls     int
}

func (p *stubProvider) Resolve(_ context.Context, handle string) (domain.MetadataSnapshot, error) {
	p.calls++
	snapshot, ok := p.snapshots[handle]
	if !ok {
		return domain.MetadataSnapshot{}, domain.ErrChannelNotFound
	}
	return snapshot, nil
}

type capturedQueue struct {
	events []domain.ModerationEvent
}

func (q *capturedQueue) Enqueue(_ context.Context, event domain.ModerationEvent) error {
	q.events = append(q.events, event)
	return nil
}

func (q *capturedQueue) Pop(context.Context) (domain.ModerationEvent, error) {
	return domain.ModerationEvent{}, errors.New("not implemented")
}

func newTestService(store *stubStore, provider *stubProvider, queue domain.ModerationQueue) *Service {
	return NewService(store, store, store, cache.NewMemory(time.Minute, 16), provider, queue, zerolog.Nop())
}

var (
	submitter = domain.Identity{ID: 42, Role: domain.RoleUser}
	moderator = domain.Identity{ID: 7, Role: domain.RoleModerator}
)

func TestSubmitCreatesPendingRecord(t *testing.T) {
	store := newStubStore()
	provider := &stubProvider{snapshots: map[string]domain.MetadataSnapshot{
		"newschan": {Title: "Новости", AvatarURL: "https://example.org/a.jpg", Members: 1500},
	}}
	service := newTestService(store, provider, nil)

	created, err := service.Submit(context.Background(), SubmitInput{Handle: "@newschan", Category: "news"}, submitter)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if created.Status != domain.StatusPending {
		t.Fatalf("ожидали статус pending, получили %s", created.Status)
	}
	if created.Featured || created.Verified {
		t.Fatalf("флаги новой заявки должны быть false")
	}
	if created.Title != "Новости" || created.Members != 1500 {
		t.Fatalf("данные провайдера должны попасть в заявку: %+v", created)
	}
	if created.SubmitterID != 42 {
		t.Fatalf("ожидали submitter 42, получили %d", created.SubmitterID)
	}
}

func TestSubmitUnresolvableHandle(t *testing.T) {
	store := newStubStore()
	service := newTestService(store, &stubProvider{}, nil)

	_, err := service.Submit(context.Background(), SubmitInput{Handle: "ghostchan"}, submitter)
	if !errors.Is(err, domain.ErrChannelNotFound) {
		t.Fatalf("ожидали ErrChannelNotFound, получили %v", err)
	}
	if len(store.submissions) != 0 {
		t.Fatalf("заявка не должна создаваться для неизвестного хэндла")
	}
}

func TestSubmitUsesCache(t *testing.T) {
	store := newStubStore()
	provider := &stubProvider{snapshots: map[string]domain.MetadataSnapshot{
		"newschan": {Title: "Новости"},
	}}
	service := newTestService(store, provider, nil)

	if _, err := service.Submit(context.Background(), SubmitInput{Handle: "newschan"}, submitter); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	_, err := service.Submit(context.Background(), SubmitInput{Handle: "newschan"}, submitter)
	if !errors.Is(err, domain.ErrHandleTaken) {
		t.Fatalf("ожидали ErrHandleTaken при повторной заявке, получили %v", err)
	}
	if provider.calls != 1 {
		t.Fatalf("повторный резолв должен идти из кэша, провайдер вызван %d раз", provider.calls)
	}
}

func TestSubmitRequiresAuthenticatedUser(t *testing.T) {
	service := newTestService(newStubStore(), &stubProvider{}, nil)
	_, err := service.Submit(context.Background(), SubmitInput{Handle: "newschan"}, domain.Identity{Role: domain.RoleGuest})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("ожидали ErrForbidden для гостя, получили %v", err)
	}
}

func TestModerateRequiresModerator(t *testing.T) {
	service := newTestService(newStubStore(), &stubProvider{}, nil)
	_, err := service.Moderate(context.Background(), domain.ActionApprove, 1, submitter)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("ожидали ErrForbidden, получили %v", err)
	}
}

func TestModerateApproveIsTerminal(t *testing.T) {
	store := newStubStore()
	provider := &stubProvider{snapshots: map[string]domain.MetadataSnapshot{"newschan": {Title: "Новости"}}}
	queue := &capturedQueue{}
	service := newTestService(store, provider, queue)

	created, err := service.Submit(context.Background(), SubmitInput{Handle: "newschan", Category: "news"}, submitter)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	approved, err := service.Moderate(context.Background(), domain.ActionApprove, created.ID, moderator)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if approved.Status != domain.StatusApproved {
		t.Fatalf("ожидали approved, получили %s", approved.Status)
	}
	if approved.Featured {
		t.Fatalf("featured должен остаться false после approve")
	}

	if _, err := service.Moderate(context.Background(), domain.ActionApprove, created.ID, moderator); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("ожидали ErrInvalidTransition при повторном approve, получили %v", err)
	}
	if _, err := service.Moderate(context.Background(), domain.ActionReject, created.ID, moderator); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("ожидали ErrInvalidTransition при reject одобренной заявки, получили %v", err)
	}

	if len(queue.events) != 1 {
		t.Fatalf("ожидали одно событие модерации, получили %d", len(queue.events))
	}
	if queue.events[0].Action != domain.ActionApprove || queue.events[0].SubmitterID != 42 {
		t.Fatalf("некорректное событие модерации: %+v", queue.events[0])
	}
}

func TestToggleFeaturedRoundTrip(t *testing.T) {
	store := newStubStore()
	provider := &stubProvider{snapshots: map[string]domain.MetadataSnapshot{"newschan": {Title: "Новости"}}}
	service := newTestService(store, provider, nil)

	created, _ := service.Submit(context.Background(), SubmitInput{Handle: "newschan", Category: "news"}, submitter)
	if _, err := service.Moderate(context.Background(), domain.ActionApprove, created.ID, moderator); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	toggled, err := service.Moderate(context.Background(), domain.ActionToggleFeatured, created.ID, moderator)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !toggled.Featured {
		t.Fatalf("ожидали featured=true")
	}
	featured, err := store.ListFeatured(context.Background())
	if err != nil || len(featured) != 1 {
		t.Fatalf("заявка должна появиться в избранном: %v, %d", err, len(featured))
	}

	toggled, err = service.Moderate(context.Background(), domain.ActionToggleFeatured, created.ID, moderator)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if toggled.Featured {
		t.Fatalf("ожидали featured=false после повторного переключения")
	}
	featured, _ = store.ListFeatured(context.Background())
	if len(featured) != 0 {
		t.Fatalf("заявка должна уйти из избранного")
	}
}

func TestToggleFeaturedOnPending(t *testing.T) {
	store := newStubStore()
	provider := &stubProvider{snapshots: map[string]domain.MetadataSnapshot{"newschan": {Title: "Новости"}}}
	service := newTestService(store, provider, nil)

	created, _ := service.Submit(context.Background(), SubmitInput{Handle: "newschan"}, submitter)
	if _, err := service.Moderate(context.Background(), domain.ActionToggleFeatured, created.ID, moderator); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("ожидали ErrInvalidState для pending, получили %v", err)
	}
}

func TestBuildListingAllOrNothing(t *testing.T) {
	store := newStubStore()
	store.promoErr = errors.New("хранилище недоступно")
	service := newTestService(store, &stubProvider{}, nil)

	if _, err := service.BuildListing(context.Background(), domain.ListingFilter{}, "", 20); err == nil {
		t.Fatalf("ожидали ошибку всей выдачи при отказе промо-слота")
	}
}

func TestBoardRequiresModerator(t *testing.T) {
	service := newTestService(newStubStore(), &stubProvider{}, nil)
	if _, err := service.Board(context.Background(), submitter); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("ожидали ErrForbidden, получили %v", err)
	}
}

func TestParseHandle(t *testing.T) {
	cases := map[string]string{
		"@NewsChan":            "newschan",
		"https://t.me/golangx": "golangx",
		"t.me/rustlang":        "rustlang",
		"bad!":                 "",
		"a":                    "",
	}
	for input, expected := range cases {
		handle, err := ParseHandle(input)
		if expected == "" {
			if err == nil {
				t.Fatalf("ожидали ошибку для %s", input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("не ожидали ошибку: %v", err)
		}
		if handle != expected {
			t.Fatalf("ожидали %s, получили %s", expected, handle)
		}
	}
}
