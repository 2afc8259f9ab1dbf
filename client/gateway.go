// Package client is the Go SDK for the portal API: a session state machine,
// a typed data gateway and a template-driven view controller. Construct the
// pieces once at app start and pass them explicitly; there are no package
// level singletons.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mlezi/darasa/core/school"
	"github.com/mlezi/darasa/core/user"
)

// Failure taxonomy. Every Gateway call returns nil, one of these sentinels
// (possibly wrapped) or a *ValidationError; callers switch on errors.Cause.
var (
	ErrNetwork      = errors.New("network error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrServer       = errors.New("server error")
)

// ValidationError carries a 400 response: either a general message or a
// field → message map.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "invalid input"
}

// LoginResult mirrors the API's login/register response.
type LoginResult struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

// Gateway wraps an http.Client against the API base URL. It attaches the
// bearer token to every call and normalizes failures into the package's
// error taxonomy. Safe for concurrent use.
type Gateway struct {
	baseURL string
	client  *http.Client

	mutex sync.RWMutex
	token string
}

func NewGateway(baseURL string, httpClient ...*http.Client) *Gateway {
	c := &http.Client{Timeout: 30 * time.Second}
	if len(httpClient) > 0 && httpClient[0] != nil {
		c = httpClient[0]
	}
	return &Gateway{baseURL: baseURL, client: c}
}

func (gw *Gateway) SetToken(token string) {
	gw.mutex.Lock()
	gw.token = token
	gw.mutex.Unlock()
}

func (gw *Gateway) ClearToken() { gw.SetToken("") }

func (gw *Gateway) Token() string {
	gw.mutex.RLock()
	defer gw.mutex.RUnlock()
	return gw.token
}

// Auth

func (gw *Gateway) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var res LoginResult
	err := gw.postJSON(ctx, "/api/login", map[string]string{"email": email, "password": password}, &res)
	return res, err
}

func (gw *Gateway) Register(ctx context.Context, nu user.NewUser) (LoginResult, error) {
	var res LoginResult
	err := gw.postJSON(ctx, "/api/register", nu, &res)
	return res, err
}

// ValidateToken re-checks the stored token and returns the account it
// belongs to.
func (gw *Gateway) ValidateToken(ctx context.Context) (user.User, error) {
	var usr user.User
	err := gw.do(ctx, http.MethodGet, "/api/validate-token", nil, "", &usr)
	return usr, err
}

// Users (admin)

func (gw *Gateway) Users(ctx context.Context) ([]user.User, error) {
	var users []user.User
	err := gw.do(ctx, http.MethodGet, "/api/users", nil, "", &users)
	return users, err
}

func (gw *Gateway) CreateUser(ctx context.Context, nu user.NewUser) (user.User, error) {
	var usr user.User
	err := gw.postJSON(ctx, "/api/users", nu, &usr)
	return usr, err
}

func (gw *Gateway) DeleteUser(ctx context.Context, id string) error {
	return gw.do(ctx, http.MethodDelete, "/api/users/"+id, nil, "", nil)
}

// Classes

func (gw *Gateway) Classes(ctx context.Context) ([]school.Class, error) {
	var classes []school.Class
	err := gw.do(ctx, http.MethodGet, "/api/classes", nil, "", &classes)
	return classes, err
}

func (gw *Gateway) CreateClass(ctx context.Context, nc school.NewClass) (school.Class, error) {
	var cls school.Class
	err := gw.postJSON(ctx, "/api/classes", nc, &cls)
	return cls, err
}

func (gw *Gateway) DeleteClass(ctx context.Context, id string) error {
	return gw.do(ctx, http.MethodDelete, "/api/classes/"+id, nil, "", nil)
}

// Announcements

func (gw *Gateway) Announcements(ctx context.Context) ([]school.Announcement, error) {
	var anns []school.Announcement
	err := gw.do(ctx, http.MethodGet, "/api/announcements", nil, "", &anns)
	return anns, err
}

func (gw *Gateway) CreateAnnouncement(ctx context.Context, na school.NewAnnouncement) (school.Announcement, error) {
	var ann school.Announcement
	err := gw.postJSON(ctx, "/api/announcements", na, &ann)
	return ann, err
}

func (gw *Gateway) DeleteAnnouncement(ctx context.Context, id string) error {
	return gw.do(ctx, http.MethodDelete, "/api/announcements/"+id, nil, "", nil)
}

// Assignments & submissions

func (gw *Gateway) Assignments(ctx context.Context) ([]school.Assignment, error) {
	var asgs []school.Assignment
	err := gw.do(ctx, http.MethodGet, "/api/assignments", nil, "", &asgs)
	return asgs, err
}

func (gw *Gateway) CreateAssignment(ctx context.Context, na school.NewAssignment) (school.Assignment, error) {
	var asg school.Assignment
	err := gw.postJSON(ctx, "/api/assignments", na, &asg)
	return asg, err
}

func (gw *Gateway) DeleteAssignment(ctx context.Context, id string) error {
	return gw.do(ctx, http.MethodDelete, "/api/assignments/"+id, nil, "", nil)
}

// SubmitAssignment posts a student's submission as a multipart form: the
// text field plus an optional file part.
func (gw *Gateway) SubmitAssignment(ctx context.Context, assignmentID, text, filename string, file io.Reader) (school.Submission, error) {
	var sub school.Submission

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if text != "" {
		if err := w.WriteField("text", text); err != nil {
			return sub, errors.Wrap(err, "writing text field")
		}
	}
	if file != nil {
		fw, err := w.CreateFormFile("file", filename)
		if err != nil {
			return sub, errors.Wrap(err, "creating file part")
		}
		if _, err = io.Copy(fw, file); err != nil {
			return sub, errors.Wrap(err, "copying file part")
		}
	}
	if err := w.Close(); err != nil {
		return sub, errors.Wrap(err, "closing multipart writer")
	}

	err := gw.do(ctx, http.MethodPost, "/api/assignments/"+assignmentID+"/submit", &body, w.FormDataContentType(), &sub)
	return sub, err
}

func (gw *Gateway) Submissions(ctx context.Context, assignmentID string) ([]school.Submission, error) {
	var subs []school.Submission
	err := gw.do(ctx, http.MethodGet, "/api/assignments/"+assignmentID+"/submissions", nil, "", &subs)
	return subs, err
}

// Events

func (gw *Gateway) Events(ctx context.Context) ([]school.Event, error) {
	var events []school.Event
	err := gw.do(ctx, http.MethodGet, "/api/events", nil, "", &events)
	return events, err
}

func (gw *Gateway) CreateEvent(ctx context.Context, ne school.NewEvent) (school.Event, error) {
	var evt school.Event
	err := gw.postJSON(ctx, "/api/events", ne, &evt)
	return evt, err
}

func (gw *Gateway) DeleteEvent(ctx context.Context, id string) error {
	return gw.do(ctx, http.MethodDelete, "/api/events/"+id, nil, "", nil)
}

// Media

func (gw *Gateway) MediaItems(ctx context.Context) ([]school.MediaItem, error) {
	var items []school.MediaItem
	err := gw.do(ctx, http.MethodGet, "/api/media", nil, "", &items)
	return items, err
}

func (gw *Gateway) CreateMediaItem(ctx context.Context, nm school.NewMediaItem) (school.MediaItem, error) {
	var item school.MediaItem
	err := gw.postJSON(ctx, "/api/media", nm, &item)
	return item, err
}

func (gw *Gateway) DeleteMediaItem(ctx context.Context, id string) error {
	return gw.do(ctx, http.MethodDelete, "/api/media/"+id, nil, "", nil)
}

// plumbing

func (gw *Gateway) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "encoding request body")
	}
	return gw.do(ctx, http.MethodPost, path, bytes.NewReader(data), "application/json", out)
}

func (gw *Gateway) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, gw.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := gw.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := gw.client.Do(req)
	if err != nil {
		return errors.Wrap(ErrNetwork, err.Error())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(ErrNetwork, err.Error())
	}
	if resp.StatusCode >= 400 {
		return normalizeError(resp.StatusCode, data)
	}
	if out != nil && len(data) > 0 {
		if err = json.Unmarshal(data, out); err != nil {
			return errors.Wrap(err, "decoding response")
		}
	}
	return nil
}

// normalizeError folds an HTTP failure into the package taxonomy.
func normalizeError(code int, body []byte) error {
	switch code {
	case http.StatusBadRequest:
		vErr := new(ValidationError)
		var fields map[string]string
		if err := json.Unmarshal(body, &fields); err == nil {
			if msg, ok := fields["error"]; ok && len(fields) == 1 {
				vErr.Message = msg
			} else {
				vErr.Fields = fields
			}
		}
		return vErr
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrServer
	}
}
