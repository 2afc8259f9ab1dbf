package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/mlezi/darasa/core/school"
)

type eventRepository struct {
	db *DB
}

var _ school.EventRepository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db *DB) *eventRepository {
	return &eventRepository{db: db}
}

func (repo *eventRepository) CreateEvent(ctx context.Context, evt school.Event) (school.Event, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	evt.ID = uuid.New().String()
	repo.db.events[evt.ID] = &evt
	return evt, nil
}

func (repo *eventRepository) GetEvent(ctx context.Context, id string) (school.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if evt, ok := repo.db.events[id]; ok {
		return *evt, nil
	}
	return school.Event{}, school.ErrEventNotFound
}

func (repo *eventRepository) QueryEvents(ctx context.Context) ([]school.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	events := make([]school.Event, 0, len(repo.db.events))
	for _, evt := range repo.db.events {
		events = append(events, *evt)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
	return events, nil
}

func (repo *eventRepository) UpdateEvent(ctx context.Context, evt school.Event) (school.Event, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.events[evt.ID]; !ok {
		return school.Event{}, school.ErrEventNotFound
	}
	repo.db.events[evt.ID] = &evt
	return evt, nil
}

func (repo *eventRepository) DeleteEventsByID(ctx context.Context, ids []string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.events[id]; ok {
			delete(repo.db.events, id)
			cnt++
		}
	}
	return cnt, nil
}
