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
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrNotAssignmentAuthor rejects submission listings on another teacher's assignment.
	ErrNotAssignmentAuthor = errors.New("not the author of this assignment")
)

type Assignment struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	ClassID     string       `json:"class_id"`
	AuthorID    string       `json:"author_id"`
	DueAt       time.Time    `json:"due_at"`
	CreatedAt   time.Time    `json:"created_at"` // UTC
	UpdatedAt   time.Time    `json:"updated_at"` // UTC
	Submissions []Submission `json:"submissions,omitempty"`
}

// Submission is a student's response artifact to an Assignment: text and/or
// an uploaded file. A student has at most one submission per assignment;
// re-submitting replaces the previous one.
type Submission struct {
	ID           string    `json:"id"`
	AssignmentID string    `json:"assignment_id"`
	StudentID    string    `json:"student_id"`
	Text         string    `json:"text,omitempty"`
	FileURL      string    `json:"file_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

type NewAssignment struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	ClassID     string    `json:"class_id" validate:"required"`
	DueAt       time.Time `json:"due_at" validate:"required"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	return validate.Struct(na)
}

type UpdateAssignment struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueAt       time.Time `json:"due_at"`
}

func (ua *UpdateAssignment) Validate(origAsg Assignment, validate *validator.Validate) error {
	title := core.CleanString(ua.Title)
	if title != "" {
		ua.Title = title
	} else {
		ua.Title = origAsg.Title
	}
	desc := core.CleanString(ua.Description)
	if desc != "" {
		ua.Description = desc
	} else {
		ua.Description = origAsg.Description
	}
	if ua.DueAt.IsZero() {
		ua.DueAt = origAsg.DueAt
	}
	return validate.Struct(ua)
}

// NewSubmission carries a student's submission payload.
type NewSubmission struct {
	Text    string `json:"text"`
	FileURL string `json:"file_url"`
}

// Validate requires at least one of text or file to be present.
func (ns *NewSubmission) Validate() error {
	ns.Text = core.CleanString(ns.Text)
	if ns.Text == "" && ns.FileURL == "" {
		return core.NewValidationError(errors.New("a submission requires text or a file"))
	}
	return nil
}

// AssignmentFilter narrows assignment listings; zero value matches all.
type AssignmentFilter struct {
	ClassIDs []string
	AuthorID string
}

type AssignmentRepository interface {
	CreateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
	GetAssignment(ctx context.Context, id string) (Assignment, error)
	QueryAssignments(ctx context.Context, filter AssignmentFilter) ([]Assignment, error)
	UpdateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
	DeleteAssignmentsByID(ctx context.Context, ids []string) (int, error)
	// UpsertSubmission replaces any prior submission by the same student on
	// the same assignment (last write wins).
	UpsertSubmission(ctx context.Context, sub Submission) (Submission, error)
	// QuerySubmissions returns submissions ordered by creation time.
	QuerySubmissions(ctx context.Context, assignmentID string) ([]Submission, error)
}

type AssignmentService struct {
	repo AssignmentRepository
}

func NewAssignmentService(repo AssignmentRepository) *AssignmentService {
	return &AssignmentService{repo: repo}
}

// Create makes a new assignment authored by the given user. Non-admin
// authors must teach the target class.
func (svc *AssignmentService) Create(ctx context.Context, na NewAssignment, author user.User) (Assignment, error) {
	if !author.IsAdmin() && !author.InClass(na.ClassID) {
		return Assignment{}, ErrNotClassMember
	}
	now := time.Now().UTC()
	asg := Assignment{
		Title:       na.Title,
		Description: na.Description,
		ClassID:     na.ClassID,
		AuthorID:    author.ID,
		DueAt:       na.DueAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateAssignment(ctx, asg)
}

func (svc *AssignmentService) GetByID(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignment(ctx, id)
}

// QueryVisible lists assignments for a viewer: all for admins, the viewer's
// classes otherwise.
func (svc *AssignmentService) QueryVisible(ctx context.Context, viewer user.User) ([]Assignment, error) {
	filter := AssignmentFilter{}
	if !viewer.IsAdmin() {
		if len(viewer.ClassIDs) == 0 {
			return []Assignment{}, nil
		}
		filter.ClassIDs = viewer.ClassIDs
	}
	return svc.repo.QueryAssignments(ctx, filter)
}

func (svc *AssignmentService) Update(ctx context.Context, id string, ua UpdateAssignment) (Assignment, error) {
	asg, err := svc.repo.GetAssignment(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	asg.Title = ua.Title
	asg.Description = ua.Description
	asg.DueAt = ua.DueAt
	asg.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAssignment(ctx, asg)
}

func (svc *AssignmentService) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteAssignmentsByID(ctx, ids)
	return err
}

// Submit records a student's submission on an assignment. The student must
// be a member of the assignment's class.
func (svc *AssignmentService) Submit(ctx context.Context, assignmentID string, ns NewSubmission, student user.User) (Submission, error) {
	asg, err := svc.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return Submission{}, err
	}
	if !student.InClass(asg.ClassID) {
		return Submission{}, ErrNotClassMember
	}
	sub := Submission{
		AssignmentID: asg.ID,
		StudentID:    student.ID,
		Text:         ns.Text,
		FileURL:      ns.FileURL,
		CreatedAt:    time.Now().UTC(),
	}
	return svc.repo.UpsertSubmission(ctx, sub)
}

// Submissions lists an assignment's submissions for a viewer. Teachers may
// only inspect their own assignments; admins see all.
func (svc *AssignmentService) Submissions(ctx context.Context, assignmentID string, viewer user.User) ([]Submission, error) {
	asg, err := svc.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !viewer.IsAdmin() && asg.AuthorID != viewer.ID {
		return nil, ErrNotAssignmentAuthor
	}
	return svc.repo.QuerySubmissions(ctx, asg.ID)
}
