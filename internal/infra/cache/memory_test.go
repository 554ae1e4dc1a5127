package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tg-channel-catalog/internal/domain"
)

func TestGetAfterSet(t *testing.T) {
	c := NewMemory(time.Minute, 10)
	snapshot := domain.MetadataSnapshot{Title: "Новости", Members: 1200}
	c.Set("newschan", snapshot)

	got, ok := c.Get("newschan")
	if !ok {
		t.Fatalf("ожидали попадание в кэш")
	}
	if got != snapshot {
		t.Fatalf("ожидали %+v, получили %+v", snapshot, got)
	}
}

func TestGetExpiredEntry(t *testing.T) {
	c := NewMemory(time.Minute, 10)
	current := time.Now()
	c.now = func() time.Time { return current }

	c.Set("newschan", domain.MetadataSnapshot{Title: "Новости"})
	current = current.Add(time.Minute)

	if _, ok := c.Get("newschan"); ok {
		t.Fatalf("просроченная запись не должна возвращаться")
	}
	// запись удалена лениво, повторное чтение тоже промах
	if _, ok := c.Get("newschan"); ok {
		t.Fatalf("ожидали промах после ленивого удаления")
	}
}

func TestClearRemovesOnlyOneKey(t *testing.T) {
	c := NewMemory(time.Minute, 10)
	c.Set("first", domain.MetadataSnapshot{Title: "Первый"})
	c.Set("second", domain.MetadataSnapshot{Title: "Второй"})

	c.Clear("first")

	if _, ok := c.Get("first"); ok {
		t.Fatalf("ключ first должен быть удалён")
	}
	if _, ok := c.Get("second"); !ok {
		t.Fatalf("ключ second не должен пострадать")
	}
}

func TestSetOverwriteResetsAge(t *testing.T) {
	c := NewMemory(time.Minute, 10)
	current := time.Now()
	c.now = func() time.Time { return current }

	c.Set("newschan", domain.MetadataSnapshot{Title: "Старый"})
	current = current.Add(50 * time.Second)
	c.Set("newschan", domain.MetadataSnapshot{Title: "Новый"})
	current = current.Add(30 * time.Second)

	got, ok := c.Get("newschan")
	if !ok {
		t.Fatalf("перезаписанная запись должна остаться свежей")
	}
	if got.Title != "Новый" {
		t.Fatalf("ожидали перезаписанное значение, получили %s", got.Title)
	}
}

func TestEvictOldestAtCapacity(t *testing.T) {
	c := NewMemory(time.Minute, 2)
	current := time.Now()
	c.now = func() time.Time { return current }

	c.Set("oldest", domain.MetadataSnapshot{Title: "1"})
	current = current.Add(time.Second)
	c.Set("middle", domain.MetadataSnapshot{Title: "2"})
	current = current.Add(time.Second)
	c.Set("newest", domain.MetadataSnapshot{Title: "3"})

	if _, ok := c.Get("oldest"); ok {
		t.Fatalf("самая старая запись должна быть вытеснена")
	}
	if _, ok := c.Get("middle"); !ok {
		t.Fatalf("запись middle должна остаться")
	}
	if _, ok := c.Get("newest"); !ok {
		t.Fatalf("запись newest должна остаться")
	}
}

func TestResolveCoalescesConcurrentLookups(t *testing.T) {
	c := NewMemory(time.Minute, 10)

	var mu sync.Mutex
	calls := 0
	release := make(chan struct{})
	load := func(ctx context.Context) (domain.MetadataSnapshot, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		<-release
		return domain.MetadataSnapshot{Title: "Новости"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Resolve(context.Background(), "newschan", load); err != nil {
				t.Errorf("не ожидали ошибку: %v", err)
			}
		}()
	}
	// даём горутинам дойти до singleflight
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("ожидали один вызов провайдера, получили %d", calls)
	}
}

func TestResolveDoesNotCacheError(t *testing.T) {
	c := NewMemory(time.Minute, 10)
	failing := func(ctx context.Context) (domain.MetadataSnapshot, error) {
		return domain.MetadataSnapshot{}, domain.ErrProviderLookup
	}
	if _, err := c.Resolve(context.Background(), "ghost", failing); !errors.Is(err, domain.ErrProviderLookup) {
		t.Fatalf("ожидали ErrProviderLookup, получили %v", err)
	}
	if _, ok := c.Get("ghost"); ok {
		t.Fatalf("ошибка провайдера не должна кэшироваться")
	}
}
