package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/mlezi/darasa/apps/api/echo"
	"github.com/mlezi/darasa/core"
	"github.com/mlezi/darasa/core/school"
	"github.com/mlezi/darasa/core/user"
	"github.com/mlezi/darasa/services/email"
	"github.com/mlezi/darasa/storage/database/inmem"
	"github.com/mlezi/darasa/storage/uploads"
)

var (
	conf = &core.Config{
		Env:       "TEST",
		Debug:     true,
		TestMode:  true,
		AppName:   "Darasa",
		SecretKey: "test-secret-key-do-not-use",

		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Uploads: core.UploadsConfig{
			URLPrefix: "/uploads",
			MaxSize:   1 << 20,
		},
	}

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errPermDenied   = httpErr{Error: "permission denied"}
	errNotAuthed    = httpErr{Error: "user not authenticated"}
)

type testRepos struct {
	db          *inmemdb.DB
	users       user.Repository
	classes     school.ClassRepository
	anns        school.AnnouncementRepository
	assignments school.AssignmentRepository
	events      school.EventRepository
	media       school.MediaRepository
}

func setup(t *testing.T) (Server, *testRepos) {
	t.Helper()

	db := inmemdb.NewDB()
	repos := &testRepos{
		db:          db,
		users:       inmemdb.NewUserRepository(db),
		classes:     inmemdb.NewClassRepository(db),
		anns:        inmemdb.NewAnnouncementRepository(db),
		assignments: inmemdb.NewAssignmentRepository(db),
		events:      inmemdb.NewEventRepository(db),
		media:       inmemdb.NewMediaRepository(db),
	}

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)
	user.InitTokenGenerator(conf)

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewServiceMock(conf, repos.users, mailSvc)

	uploadsDir := t.TempDir()
	testConf := *conf
	testConf.Uploads.Dir = uploadsDir

	app := NewServer(&Options{
		Conf:            &testConf,
		Logger:          &nopLogger{},
		DisableReqLogs:  true,
		Validate:        validate,
		Translator:      translator,
		UserSvc:         usrSvc,
		ClassSvc:        school.NewClassService(repos.classes),
		AnnouncementSvc: school.NewAnnouncementService(repos.anns),
		AssignmentSvc:   school.NewAssignmentService(repos.assignments),
		EventSvc:        school.NewEventService(repos.events),
		MediaSvc:        school.NewMediaService(repos.media),
		Uploads:         uploads.NewMemoryStore(testConf.Uploads.URLPrefix),
	})
	return app, repos
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

// fixtures

func createUser(t *testing.T, repos *testRepos, name, email, role string, active bool) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	usr.SetActive(active)
	if err := usr.SetPassword("Str0ng.Pa55w0rd!"); err != nil {
		t.Fatalf("SetPassword(): %v", err)
	}
	usr, err := repos.users.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
}

func createClass(t *testing.T, repos *testRepos, name string, teacherIDs, studentIDs []string) school.Class {
	t.Helper()
	now := time.Now().UTC()
	cls, err := repos.classes.CreateClass(context.Background(), school.Class{
		Name:       name,
		TeacherIDs: teacherIDs,
		StudentIDs: studentIDs,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateClass(): %v", err)
	}
	return cls
}

func createAnnouncement(t *testing.T, repos *testRepos, title, scope, classID, authorID string) school.Announcement {
	t.Helper()
	ann, err := repos.anns.CreateAnnouncement(context.Background(), school.Announcement{
		Title:     title,
		Content:   title + " content",
		Scope:     scope,
		ClassID:   classID,
		AuthorID:  authorID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateAnnouncement(): %v", err)
	}
	return ann
}

func createAssignment(t *testing.T, repos *testRepos, title, classID, authorID string) school.Assignment {
	t.Helper()
	now := time.Now().UTC()
	asg, err := repos.assignments.CreateAssignment(context.Background(), school.Assignment{
		Title:     title,
		ClassID:   classID,
		AuthorID:  authorID,
		DueAt:     now.Add(7 * 24 * time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateAssignment(): %v", err)
	}
	return asg
}

func createAssignmentBody(t *testing.T, title, classID string) []byte {
	t.Helper()
	return marchallObj(t, school.NewAssignment{
		Title:   title,
		ClassID: classID,
		DueAt:   time.Now().UTC().Add(7 * 24 * time.Hour),
	})
}

// request helpers

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func newMultipartRequest(t *testing.T, method, path, token string, fields map[string]string, fileField, fileName string, fileContent []byte) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(): %v", err)
		}
	}
	if fileField != "" {
		fw, err := w.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatalf("CreateFormFile(): %v", err)
		}
		if _, err = io.Copy(fw, bytes.NewReader(fileContent)); err != nil {
			t.Fatalf("copying file content: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(conf, GetUserClaims(conf, usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	l1, ok1 := j1.([]interface{})
	l2, ok2 := j2.([]interface{})
	if ok1 && ok2 {
		return assert.ElementsMatch(t, l1, l2), nil
	}
	return false, nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
