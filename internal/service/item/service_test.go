package item_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	itemmodel "github.com/zhouzirui/items/backend/internal/model/item"
	"github.com/zhouzirui/items/backend/internal/service/events"
	itemservice "github.com/zhouzirui/items/backend/internal/service/item"
)

// countingStore records Save calls on top of a MemoryStore.
type countingStore struct {
	*itemmodel.MemoryStore
	mu      sync.Mutex
	saves   int
	loadErr error
}

func (s *countingStore) Load(ctx context.Context) ([]itemmodel.Item, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.MemoryStore.Load(ctx)
}

func (s *countingStore) Save(ctx context.Context, items []itemmodel.Item) error {
	s.mu.Lock()
	s.saves++
	s.mu.Unlock()
	return s.MemoryStore.Save(ctx, items)
}

func newService(t *testing.T) (*itemservice.Service, *countingStore) {
	t.Helper()
	store := &countingStore{MemoryStore: itemmodel.NewMemoryStore(nil)}
	return itemservice.NewService(store, nil), store
}

func input(name string) itemmodel.Input {
	return itemmodel.Input{Name: name}
}

func TestServiceCreateAssignsSequentialIDs(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, input("A"))
	require.NoError(t, err)
	b, err := svc.Create(ctx, input("B"))
	require.NoError(t, err)

	assert.Equal(t, 1, a.ID)
	assert.Equal(t, 2, b.ID)

	got, err := svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestServiceReusesHighestIDAfterDelete(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, input("A"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, input("B"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, 1))

	c, err := svc.Create(ctx, input("C"))
	require.NoError(t, err)
	assert.Equal(t, 3, c.ID, "max(2)+1")

	require.NoError(t, svc.Delete(ctx, 3))
	d, err := svc.Create(ctx, input("D"))
	require.NoError(t, err)
	assert.Equal(t, 3, d.ID, "deleting the highest id frees it")
}

func TestServiceScenarioDeleteFirstThenCreate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, input("A"))
	b, _ := svc.Create(ctx, input("B"))
	require.Equal(t, 1, a.ID)
	require.Equal(t, 2, b.ID)
	require.NoError(t, svc.Delete(ctx, 1))

	c, err := svc.Create(ctx, input("C"))
	require.NoError(t, err)
	// max of remaining ids is 2, so C gets 3; the id only repeats when the
	// highest item is the one deleted.
	assert.Equal(t, 3, c.ID)
}

func TestServiceUpdateKeepsIDAndPosition(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, _ = svc.Create(ctx, input("A"))
	_, _ = svc.Create(ctx, input("B"))
	_, _ = svc.Create(ctx, input("C"))

	desc := "renamed"
	updated, err := svc.Update(ctx, 2, itemmodel.Input{Name: "B2", Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.ID)
	assert.Equal(t, "B2", updated.Name)

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, updated, items[1])

	got, err := svc.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "renamed", *got.Description)
}

func TestServiceUpdateClearsDescription(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	desc := "x"
	_, err := svc.Create(ctx, itemmodel.Input{Name: "A", Description: &desc})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, 1, input("A"))
	require.NoError(t, err)
	assert.Nil(t, updated.Description)
}

func TestServiceDeleteRemovesExactlyOne(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, _ = svc.Create(ctx, input("A"))
	_, _ = svc.Create(ctx, input("B"))

	require.NoError(t, svc.Delete(ctx, 1))
	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].ID)

	assert.ErrorIs(t, svc.Delete(ctx, 1), itemservice.ErrNotFound)
	_, err = svc.Get(ctx, 1)
	assert.ErrorIs(t, err, itemservice.ErrNotFound)
}

func TestServiceFailuresDoNotPersist(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, input("A"))
	require.NoError(t, err)
	require.Equal(t, 1, store.saves)

	_, err = svc.Create(ctx, input(""))
	var vErr *itemmodel.ValidationError
	assert.ErrorAs(t, err, &vErr)

	_, err = svc.Update(ctx, 999, input("X"))
	assert.ErrorIs(t, err, itemservice.ErrNotFound)

	_, err = svc.Update(ctx, 1, input(" "))
	assert.ErrorAs(t, err, &vErr)

	assert.ErrorIs(t, svc.Delete(ctx, 999), itemservice.ErrNotFound)

	assert.Equal(t, 1, store.saves)
	items, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []itemmodel.Item{{ID: 1, Name: "A"}}, items)
}

func TestServiceListIsStable(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, _ = svc.Create(ctx, input("A"))
	_, _ = svc.Create(ctx, input("B"))

	first, err := svc.List(ctx)
	require.NoError(t, err)
	second, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestServicePropagatesStorageErrors(t *testing.T) {
	svc, store := newService(t)
	store.loadErr = errors.New("disk on fire")

	_, err := svc.List(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, store.loadErr)
	assert.NotErrorIs(t, err, itemservice.ErrNotFound)
}

func TestServiceConcurrentCreatesGetUniqueIDs(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	ids := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := svc.Create(ctx, input("concurrent"))
			if err == nil {
				ids <- created.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)

	items, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, n)
}

func TestServicePublishesEvents(t *testing.T) {
	hub := events.NewHub(8)
	ch, cancel := hub.Subscribe()
	defer cancel()

	svc := itemservice.NewService(itemmodel.NewMemoryStore(nil), hub)
	ctx := context.Background()

	created, err := svc.Create(ctx, input("A"))
	require.NoError(t, err)
	_, err = svc.Update(ctx, created.ID, input("B"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Update(ctx, created.ID, input("C"))
	require.ErrorIs(t, err, itemservice.ErrNotFound)

	want := []events.Type{events.TypeCreated, events.TypeUpdated, events.TypeDeleted}
	for _, kind := range want {
		evt := <-ch
		assert.Equal(t, kind, evt.Type)
		assert.Equal(t, created.ID, evt.ItemID)
	}
	select {
	case evt := <-ch:
		t.Fatalf("unexpected event after failed update: %+v", evt)
	default:
	}
}
