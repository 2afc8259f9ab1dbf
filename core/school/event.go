package school

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/mlezi/darasa/core"
	"github.com/mlezi/darasa/core/user"
)

var ErrEventNotFound = errors.New("event not found")

type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	AuthorID    string    `json:"author_id"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

type NewEvent struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Date        time.Time `json:"date" validate:"required"`
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	ne.Description = core.CleanString(ne.Description)
	return validate.Struct(ne)
}

type UpdateEvent struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

func (ue *UpdateEvent) Validate(origEvt Event, validate *validator.Validate) error {
	title := core.CleanString(ue.Title)
	if title != "" {
		ue.Title = title
	} else {
		ue.Title = origEvt.Title
	}
	desc := core.CleanString(ue.Description)
	if desc != "" {
		ue.Description = desc
	} else {
		ue.Description = origEvt.Description
	}
	if ue.Date.IsZero() {
		ue.Date = origEvt.Date
	}
	return validate.Struct(ue)
}

type EventRepository interface {
	CreateEvent(ctx context.Context, evt Event) (Event, error)
	GetEvent(ctx context.Context, id string) (Event, error)
	// QueryEvents returns events ordered by date.
	QueryEvents(ctx context.Context) ([]Event, error)
	UpdateEvent(ctx context.Context, evt Event) (Event, error)
	DeleteEventsByID(ctx context.Context, ids []string) (int, error)
}

type EventService struct {
	repo EventRepository
}

func NewEventService(repo EventRepository) *EventService {
	return &EventService{repo: repo}
}

func (svc *EventService) Create(ctx context.Context, ne NewEvent, author user.User) (Event, error) {
	evt := Event{
		Title:       ne.Title,
		Description: ne.Description,
		Date:        ne.Date,
		AuthorID:    author.ID,
		CreatedAt:   time.Now().UTC(),
	}
	return svc.repo.CreateEvent(ctx, evt)
}

func (svc *EventService) GetByID(ctx context.Context, id string) (Event, error) {
	return svc.repo.GetEvent(ctx, id)
}

func (svc *EventService) QueryAll(ctx context.Context) ([]Event, error) {
	return svc.repo.QueryEvents(ctx)
}

func (svc *EventService) Update(ctx context.Context, id string, ue UpdateEvent) (Event, error) {
	evt, err := svc.repo.GetEvent(ctx, id)
	if err != nil {
		return Event{}, err
	}
	evt.Title = ue.Title
	evt.Description = ue.Description
	evt.Date = ue.Date
	return svc.repo.UpdateEvent(ctx, evt)
}

func (svc *EventService) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteEventsByID(ctx, ids)
	return err
}
