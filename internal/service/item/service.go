package item

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/zhouzirui/items/backend/internal/model/item"
	"github.com/zhouzirui/items/backend/internal/service/events"
)

var ErrNotFound = errors.New("item not found")

// Publisher receives an event after each committed write.
type Publisher interface {
	Publish(evt events.Event)
}

// Service runs every operation as a load-mutate-save cycle against the store.
// A single mutex covers the whole cycle so concurrent writers cannot lose
// each other's updates.
type Service struct {
	mu        sync.Mutex
	store     item.Store
	publisher Publisher
}

// NewService wraps store. publisher may be nil.
func NewService(store item.Store, publisher Publisher) *Service {
	return &Service{store: store, publisher: publisher}
}

// List returns the full collection in storage order.
func (s *Service) List(ctx context.Context) ([]item.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	return items, nil
}

// Get returns the first item with the given id.
func (s *Service) Get(ctx context.Context, id int) (item.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.store.Load(ctx)
	if err != nil {
		return item.Item{}, fmt.Errorf("load items: %w", err)
	}
	idx := item.IndexOf(items, id)
	if idx < 0 {
		return item.Item{}, ErrNotFound
	}
	return items[idx], nil
}

// Create appends a new item with the next id and persists the collection.
func (s *Service) Create(ctx context.Context, in item.Input) (item.Item, error) {
	if err := in.Validate(); err != nil {
		return item.Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.store.Load(ctx)
	if err != nil {
		return item.Item{}, fmt.Errorf("load items: %w", err)
	}

	created := item.Item{
		ID:          item.NextID(items),
		Name:        in.Name,
		Description: in.Description,
	}
	items = append(items, created)

	if err := s.store.Save(ctx, items); err != nil {
		return item.Item{}, fmt.Errorf("save items: %w", err)
	}

	s.publish(events.TypeCreated, created.ID, &created)
	return created, nil
}

// Update replaces name and description of an existing item, keeping its id
// and position.
func (s *Service) Update(ctx context.Context, id int, in item.Input) (item.Item, error) {
	if err := in.Validate(); err != nil {
		return item.Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.store.Load(ctx)
	if err != nil {
		return item.Item{}, fmt.Errorf("load items: %w", err)
	}
	idx := item.IndexOf(items, id)
	if idx < 0 {
		return item.Item{}, ErrNotFound
	}

	items[idx].Name = in.Name
	items[idx].Description = in.Description

	if err := s.store.Save(ctx, items); err != nil {
		return item.Item{}, fmt.Errorf("save items: %w", err)
	}

	updated := items[idx]
	s.publish(events.TypeUpdated, updated.ID, &updated)
	return updated, nil
}

// Delete removes the item with the given id.
func (s *Service) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	idx := item.IndexOf(items, id)
	if idx < 0 {
		return ErrNotFound
	}

	items = append(items[:idx], items[idx+1:]...)
	if err := s.store.Save(ctx, items); err != nil {
		return fmt.Errorf("save items: %w", err)
	}

	s.publish(events.TypeDeleted, id, nil)
	return nil
}

func (s *Service) publish(kind events.Type, id int, it *item.Item) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(events.NewEvent(kind, id, it))
}
