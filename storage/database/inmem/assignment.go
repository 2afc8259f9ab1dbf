package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/mlezi/darasa/core/school"
)

type assignmentRepository struct {
	db *DB
}

var _ school.AssignmentRepository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, asg school.Assignment) (school.Assignment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	asg.ID = uuid.New().String()
	repo.db.assignments[asg.ID] = &asg
	return asg, nil
}

func (repo *assignmentRepository) GetAssignment(ctx context.Context, id string) (school.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if asg, ok := repo.db.assignments[id]; ok {
		return *asg, nil
	}
	return school.Assignment{}, school.ErrAssignmentNotFound
}

func (repo *assignmentRepository) QueryAssignments(ctx context.Context, filter school.AssignmentFilter) ([]school.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	asgs := make([]school.Assignment, 0, len(repo.db.assignments))
	for _, asg := range repo.db.assignments {
		if filter.AuthorID != "" && asg.AuthorID != filter.AuthorID {
			continue
		}
		if len(filter.ClassIDs) > 0 && !containsID(filter.ClassIDs, asg.ClassID) {
			continue
		}
		asgs = append(asgs, *asg)
	}
	sort.Slice(asgs, func(i, j int) bool { return asgs[i].DueAt.Before(asgs[j].DueAt) })
	return asgs, nil
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (repo *assignmentRepository) UpdateAssignment(ctx context.Context, asg school.Assignment) (school.Assignment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.assignments[asg.ID]; !ok {
		return school.Assignment{}, school.ErrAssignmentNotFound
	}
	repo.db.assignments[asg.ID] = &asg
	return asg, nil
}

func (repo *assignmentRepository) DeleteAssignmentsByID(ctx context.Context, ids []string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.assignments[id]; ok {
			delete(repo.db.assignments, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *assignmentRepository) UpsertSubmission(ctx context.Context, sub school.Submission) (school.Submission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.submissions {
		if existing.AssignmentID == sub.AssignmentID && existing.StudentID == sub.StudentID {
			sub.ID = existing.ID
			repo.db.submissions[sub.ID] = &sub
			return sub, nil
		}
	}
	sub.ID = uuid.New().String()
	repo.db.submissions[sub.ID] = &sub
	return sub, nil
}

func (repo *assignmentRepository) QuerySubmissions(ctx context.Context, assignmentID string) ([]school.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	subs := make([]school.Submission, 0)
	for _, sub := range repo.db.submissions {
		if sub.AssignmentID == assignmentID {
			subs = append(subs, *sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].CreatedAt.Before(subs[j].CreatedAt) })
	return subs, nil
}
