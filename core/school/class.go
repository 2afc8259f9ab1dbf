// Package school holds the portal resources: class groups, announcements,
// assignments with submissions, events and the media gallery.
package school

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/mlezi/darasa/core"
	"github.com/mlezi/darasa/core/user"
)

var (
	ErrClassNotFound = errors.New("class not found")
	// ErrNotClassMember rejects operations on classes the caller does not belong to.
	ErrNotClassMember = errors.New("not a member of this class")
)

type Class struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	TeacherIDs []string  `json:"teacher_ids"`
	StudentIDs []string  `json:"student_ids"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

func (c *Class) HasTeacher(userID string) bool { return contains(c.TeacherIDs, userID) }
func (c *Class) HasStudent(userID string) bool { return contains(c.StudentIDs, userID) }
func (c *Class) HasMember(userID string) bool {
	return c.HasTeacher(userID) || c.HasStudent(userID)
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// NewClass contains information needed to create a new Class.
// Referenced users must exist; membership rows are rejected by the database
// otherwise. There is no cascading delete of class content.
type NewClass struct {
	Name       string   `json:"name" validate:"required"`
	TeacherIDs []string `json:"teacher_ids"`
	StudentIDs []string `json:"student_ids"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	return validate.Struct(nc)
}

// UpdateClass defines what may be modified on an existing Class.
// A nil member slice leaves the current membership untouched.
type UpdateClass struct {
	Name       string   `json:"name"`
	TeacherIDs []string `json:"teacher_ids"`
	StudentIDs []string `json:"student_ids"`
}

func (uc *UpdateClass) Validate(origCls Class, validate *validator.Validate) error {
	name := core.CleanString(uc.Name)
	if name != "" {
		uc.Name = name
	} else {
		uc.Name = origCls.Name
	}
	if uc.TeacherIDs == nil {
		uc.TeacherIDs = origCls.TeacherIDs
	}
	if uc.StudentIDs == nil {
		uc.StudentIDs = origCls.StudentIDs
	}
	return validate.Struct(uc)
}

// ClassFilter narrows class listings; zero value matches all.
type ClassFilter struct {
	MemberID string
}

type ClassRepository interface {
	CreateClass(ctx context.Context, cls Class) (Class, error)
	GetClass(ctx context.Context, id string) (Class, error)
	QueryClasses(ctx context.Context, filter ClassFilter) ([]Class, error)
	UpdateClass(ctx context.Context, cls Class) (Class, error)
	DeleteClassesByID(ctx context.Context, ids []string) (int, error)
}

type ClassService struct {
	repo ClassRepository
}

func NewClassService(repo ClassRepository) *ClassService {
	return &ClassService{repo: repo}
}

func (svc *ClassService) Create(ctx context.Context, nc NewClass) (Class, error) {
	now := time.Now().UTC()
	cls := Class{
		Name:       nc.Name,
		TeacherIDs: nc.TeacherIDs,
		StudentIDs: nc.StudentIDs,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreateClass(ctx, cls)
}

func (svc *ClassService) GetByID(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClass(ctx, id)
}

// QueryVisible lists the classes the viewer may see: all of them for admins,
// the viewer's own memberships otherwise.
func (svc *ClassService) QueryVisible(ctx context.Context, viewer user.User) ([]Class, error) {
	filter := ClassFilter{}
	if !viewer.IsAdmin() {
		filter.MemberID = viewer.ID
	}
	return svc.repo.QueryClasses(ctx, filter)
}

func (svc *ClassService) Update(ctx context.Context, id string, uc UpdateClass) (Class, error) {
	cls, err := svc.repo.GetClass(ctx, id)
	if err != nil {
		return Class{}, err
	}
	cls.Name = uc.Name
	cls.TeacherIDs = uc.TeacherIDs
	cls.StudentIDs = uc.StudentIDs
	cls.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateClass(ctx, cls)
}

// Delete removes classes and their membership rows. Announcements and
// assignments bound to a deleted class are kept as-is.
func (svc *ClassService) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteClassesByID(ctx, ids)
	return err
}
