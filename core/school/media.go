package school

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/mlezi/darasa/core"
	"github.com/mlezi/darasa/core/user"
)

var ErrMediaNotFound = errors.New("media item not found")

// Media kinds
const (
	MediaImage = "image"
	MediaVideo = "video"
	MediaFile  = "file"
)

type MediaItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Kind      string    `json:"kind"`
	Date      time.Time `json:"date"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type NewMediaItem struct {
	Title string    `json:"title" validate:"required"`
	URL   string    `json:"url" validate:"required"`
	Kind  string    `json:"kind" validate:"required,oneof=image video file"`
	Date  time.Time `json:"date"`
}

func (nm *NewMediaItem) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	if nm.Date.IsZero() {
		nm.Date = time.Now().UTC()
	}
	return validate.Struct(nm)
}

type MediaRepository interface {
	CreateMediaItem(ctx context.Context, item MediaItem) (MediaItem, error)
	GetMediaItem(ctx context.Context, id string) (MediaItem, error)
	// QueryMediaItems returns items ordered by date, newest first.
	QueryMediaItems(ctx context.Context) ([]MediaItem, error)
	DeleteMediaItemsByID(ctx context.Context, ids []string) (int, error)
}

type MediaService struct {
	repo MediaRepository
}

func NewMediaService(repo MediaRepository) *MediaService {
	return &MediaService{repo: repo}
}

func (svc *MediaService) Create(ctx context.Context, nm NewMediaItem, author user.User) (MediaItem, error) {
	item := MediaItem{
		Title:     nm.Title,
		URL:       nm.URL,
		Kind:      nm.Kind,
		Date:      nm.Date,
		AuthorID:  author.ID,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateMediaItem(ctx, item)
}

func (svc *MediaService) GetByID(ctx context.Context, id string) (MediaItem, error) {
	return svc.repo.GetMediaItem(ctx, id)
}

func (svc *MediaService) QueryAll(ctx context.Context) ([]MediaItem, error) {
	return svc.repo.QueryMediaItems(ctx)
}

func (svc *MediaService) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteMediaItemsByID(ctx, ids)
	return err
}
