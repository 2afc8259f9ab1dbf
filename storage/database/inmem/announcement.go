package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/mlezi/darasa/core/school"
)

type announcementRepository struct {
	db *DB
}

var _ school.AnnouncementRepository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(db *DB) *announcementRepository {
	return &announcementRepository{db: db}
}

func (repo *announcementRepository) CreateAnnouncement(ctx context.Context, ann school.Announcement) (school.Announcement, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	ann.ID = uuid.New().String()
	repo.db.announcements[ann.ID] = &ann
	return ann, nil
}

func (repo *announcementRepository) GetAnnouncement(ctx context.Context, id string) (school.Announcement, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if ann, ok := repo.db.announcements[id]; ok {
		return *ann, nil
	}
	return school.Announcement{}, school.ErrAnnouncementNotFound
}

func (repo *announcementRepository) QueryAnnouncements(ctx context.Context, filter school.AnnouncementFilter) ([]school.Announcement, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	anns := make([]school.Announcement, 0, len(repo.db.announcements))
	for _, ann := range repo.db.announcements {
		if !announcementVisible(*ann, filter) {
			continue
		}
		anns = append(anns, *ann)
	}
	// newest first
	sort.Slice(anns, func(i, j int) bool { return anns[i].CreatedAt.After(anns[j].CreatedAt) })
	return anns, nil
}

func announcementVisible(ann school.Announcement, filter school.AnnouncementFilter) bool {
	if filter.GlobalOnly {
		return ann.IsGlobal()
	}
	if len(filter.ClassIDs) > 0 {
		if ann.IsGlobal() {
			return true
		}
		for _, id := range filter.ClassIDs {
			if ann.ClassID == id {
				return true
			}
		}
		return false
	}
	return true
}

func (repo *announcementRepository) UpdateAnnouncement(ctx context.Context, ann school.Announcement) (school.Announcement, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.announcements[ann.ID]; !ok {
		return school.Announcement{}, school.ErrAnnouncementNotFound
	}
	repo.db.announcements[ann.ID] = &ann
	return ann, nil
}

func (repo *announcementRepository) DeleteAnnouncementsByID(ctx context.Context, ids []string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.announcements[id]; ok {
			delete(repo.db.announcements, id)
			cnt++
		}
	}
	return cnt, nil
}
