package school

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/mlezi/darasa/core"
	"github.com/mlezi/darasa/core/user"
)

var ErrAnnouncementNotFound = errors.New("announcement not found")

// Announcement scopes
const (
	ScopeGlobal = "global"
	ScopeClass  = "class"
)

type Announcement struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Scope     string    `json:"scope"`
	ClassID   string    `json:"class_id,omitempty"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

func (a *Announcement) IsGlobal() bool { return a.Scope == ScopeGlobal }

type NewAnnouncement struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
	Scope   string `json:"scope" validate:"required,oneof=global class"`
	ClassID string `json:"class_id"`
}

// Validate checks scope consistency: class-bound announcements must carry a
// class reference, global ones must not.
func (na *NewAnnouncement) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Content = core.CleanString(na.Content)

	if err := validate.Struct(na); err != nil {
		return err
	}
	switch na.Scope {
	case ScopeClass:
		if na.ClassID == "" {
			return core.NewValidationError(nil, core.FieldError{Field: "class_id", Error: "a class-bound announcement requires a class"})
		}
	case ScopeGlobal:
		if na.ClassID != "" {
			return core.NewValidationError(nil, core.FieldError{Field: "class_id", Error: "a global announcement cannot reference a class"})
		}
	}
	return nil
}

// UpdateAnnouncement defines what may be modified on an existing
// Announcement. Scope and class binding are immutable after creation.
type UpdateAnnouncement struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (ua *UpdateAnnouncement) Validate(origAnn Announcement, validate *validator.Validate) error {
	title := core.CleanString(ua.Title)
	if title != "" {
		ua.Title = title
	} else {
		ua.Title = origAnn.Title
	}
	content := core.CleanString(ua.Content)
	if content != "" {
		ua.Content = content
	} else {
		ua.Content = origAnn.Content
	}
	return validate.Struct(ua)
}

// AnnouncementFilter narrows listings: GlobalOnly limits to global scope;
// ClassIDs widens global scope with the given class-bound announcements.
// The zero value matches all.
type AnnouncementFilter struct {
	GlobalOnly bool
	ClassIDs   []string
}

type AnnouncementRepository interface {
	CreateAnnouncement(ctx context.Context, ann Announcement) (Announcement, error)
	GetAnnouncement(ctx context.Context, id string) (Announcement, error)
	QueryAnnouncements(ctx context.Context, filter AnnouncementFilter) ([]Announcement, error)
	UpdateAnnouncement(ctx context.Context, ann Announcement) (Announcement, error)
	DeleteAnnouncementsByID(ctx context.Context, ids []string) (int, error)
}

type AnnouncementService struct {
	repo AnnouncementRepository
}

func NewAnnouncementService(repo AnnouncementRepository) *AnnouncementService {
	return &AnnouncementService{repo: repo}
}

// Create makes a new announcement authored by the given user. Non-admin
// authors may only bind announcements to classes they belong to.
func (svc *AnnouncementService) Create(ctx context.Context, na NewAnnouncement, author user.User) (Announcement, error) {
	if na.Scope == ScopeClass && !author.IsAdmin() && !author.InClass(na.ClassID) {
		return Announcement{}, ErrNotClassMember
	}
	ann := Announcement{
		Title:     na.Title,
		Content:   na.Content,
		Scope:     na.Scope,
		ClassID:   na.ClassID,
		AuthorID:  author.ID,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateAnnouncement(ctx, ann)
}

func (svc *AnnouncementService) GetByID(ctx context.Context, id string) (Announcement, error) {
	return svc.repo.GetAnnouncement(ctx, id)
}

// QueryVisible lists announcements for a viewer: global only for anonymous
// callers, global plus the viewer's classes for members, everything for
// admins.
func (svc *AnnouncementService) QueryVisible(ctx context.Context, viewer *user.User) ([]Announcement, error) {
	filter := AnnouncementFilter{}
	switch {
	case viewer == nil:
		filter.GlobalOnly = true
	case viewer.IsAdmin():
		// unrestricted
	default:
		if len(viewer.ClassIDs) == 0 {
			filter.GlobalOnly = true
		} else {
			filter.ClassIDs = viewer.ClassIDs
		}
	}
	return svc.repo.QueryAnnouncements(ctx, filter)
}

func (svc *AnnouncementService) Update(ctx context.Context, id string, ua UpdateAnnouncement) (Announcement, error) {
	ann, err := svc.repo.GetAnnouncement(ctx, id)
	if err != nil {
		return Announcement{}, err
	}
	ann.Title = ua.Title
	ann.Content = ua.Content
	return svc.repo.UpdateAnnouncement(ctx, ann)
}

func (svc *AnnouncementService) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteAnnouncementsByID(ctx, ids)
	return err
}
