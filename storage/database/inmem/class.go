package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/mlezi/darasa/core/school"
)

type classRepository struct {
	db *DB
}

var _ school.ClassRepository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *DB) *classRepository {
	return &classRepository{db: db}
}

func (repo *classRepository) CreateClass(ctx context.Context, cls school.Class) (school.Class, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	cls.ID = uuid.New().String()
	repo.db.classes[cls.ID] = &cls
	return cls, nil
}

func (repo *classRepository) GetClass(ctx context.Context, id string) (school.Class, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if cls, ok := repo.db.classes[id]; ok {
		return *cls, nil
	}
	return school.Class{}, school.ErrClassNotFound
}

func (repo *classRepository) QueryClasses(ctx context.Context, filter school.ClassFilter) ([]school.Class, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	classes := make([]school.Class, 0, len(repo.db.classes))
	for _, cls := range repo.db.classes {
		if filter.MemberID != "" && !cls.HasMember(filter.MemberID) {
			continue
		}
		classes = append(classes, *cls)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	return classes, nil
}

func (repo *classRepository) UpdateClass(ctx context.Context, cls school.Class) (school.Class, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.classes[cls.ID]; !ok {
		return school.Class{}, school.ErrClassNotFound
	}
	repo.db.classes[cls.ID] = &cls
	return cls, nil
}

func (repo *classRepository) DeleteClassesByID(ctx context.Context, ids []string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.classes[id]; ok {
			delete(repo.db.classes, id)
			cnt++
		}
	}
	return cnt, nil
}
