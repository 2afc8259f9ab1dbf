package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/mlezi/darasa/core/school"
)

type mediaRepository struct {
	db *DB
}

var _ school.MediaRepository = (*mediaRepository)(nil) // interface compliance check

func NewMediaRepository(db *DB) *mediaRepository {
	return &mediaRepository{db: db}
}

func (repo *mediaRepository) CreateMediaItem(ctx context.Context, item school.MediaItem) (school.MediaItem, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	item.ID = uuid.New().String()
	repo.db.media[item.ID] = &item
	return item, nil
}

func (repo *mediaRepository) GetMediaItem(ctx context.Context, id string) (school.MediaItem, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if item, ok := repo.db.media[id]; ok {
		return *item, nil
	}
	return school.MediaItem{}, school.ErrMediaNotFound
}

func (repo *mediaRepository) QueryMediaItems(ctx context.Context) ([]school.MediaItem, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	items := make([]school.MediaItem, 0, len(repo.db.media))
	for _, item := range repo.db.media {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Date.After(items[j].Date) })
	return items, nil
}

func (repo *mediaRepository) DeleteMediaItemsByID(ctx context.Context, ids []string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.media[id]; ok {
			delete(repo.db.media, id)
			cnt++
		}
	}
	return cnt, nil
}
