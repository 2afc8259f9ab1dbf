package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/mlezi/darasa/core/school"
	"github.com/mlezi/darasa/core/user"
)

func createMediaItem(t *testing.T, repos *testRepos, title, kind string, date time.Time, authorID string) school.MediaItem {
	t.Helper()
	item, err := repos.media.CreateMediaItem(context.Background(), school.MediaItem{
		Title:     title,
		URL:       "https://cdn.test.cd/" + title,
		Kind:      kind,
		Date:      date,
		AuthorID:  authorID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateMediaItem(): %v", err)
	}
	return item
}

func Test_mediaApi_query(t *testing.T) {
	app, repos := setup(t)

	student := createUser(t, repos, "Hero", "hero@test.cd", user.RoleStudent, true)
	admin := createUser(t, repos, "Admin", "admin@test.cd", user.RoleAdmin, true)

	now := time.Now().UTC().Truncate(time.Second)
	sports := createMediaItem(t, repos, "sports.jpg", school.MediaImage, now.Add(-24*time.Hour), admin.ID)
	gala := createMediaItem(t, repos, "gala.mp4", school.MediaVideo, now, admin.ID)

	// the gallery is world-readable, newest first
	tests := []httpTest{
		{name: "anonymous reads", wantData: marchallList(t, gala, sports)},
		{name: "student reads", token: getToken(t, student), wantData: marchallList(t, gala, sports)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/api/media"
		tt.wantCode = http.StatusOK

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("anonymous retrieves", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/media/"+gala.ID)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, gala)}, rec)
	})
}

func Test_mediaApi_mutations(t *testing.T) {
	app, repos := setup(t)

	teacher := createUser(t, repos, "Teacher", "teacher@test.cd", user.RoleTeacher, true)
	admin := createUser(t, repos, "Admin", "admin@test.cd", user.RoleAdmin, true)

	adminToken := getToken(t, admin)

	t.Run("anonymous cannot create", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/media")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("teacher cannot create", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/media", getToken(t, teacher))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)}, rec)
	})

	t.Run("admin creates from URL", func(t *testing.T) {
		body := marchallObj(t, school.NewMediaItem{
			Title: "Prize giving",
			URL:   "https://cdn.test.cd/prize.jpg",
			Kind:  school.MediaImage,
		})
		req, rec := newAuthRequest(http.MethodPost, "/api/media", adminToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var item school.MediaItem
		if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if item.AuthorID != admin.ID {
			t.Errorf("failed! author = %v; want %v", item.AuthorID, admin.ID)
		}
		if item.Date.IsZero() {
			t.Error("failed! date not defaulted")
		}
	})

	t.Run("admin uploads a file", func(t *testing.T) {
		req, rec := newMultipartRequest(t, http.MethodPost, "/api/media", adminToken,
			map[string]string{"title": "Gala night", "kind": school.MediaVideo}, "file", "gala.mp4", []byte("mp4 bytes"))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var item school.MediaItem
		if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if !strings.HasPrefix(item.URL, conf.Uploads.URLPrefix+"/") {
			t.Errorf("failed! URL = %q", item.URL)
		}
		if !strings.Contains(item.URL, "gala.mp4") {
			t.Errorf("failed! URL = %q", item.URL)
		}
	})

	t.Run("invalid kind rejected", func(t *testing.T) {
		body := marchallObj(t, school.NewMediaItem{Title: "Oops", URL: "https://cdn.test.cd/x", Kind: "gif"})
		req, rec := newAuthRequest(http.MethodPost, "/api/media", adminToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("admin destroys", func(t *testing.T) {
		item := createMediaItem(t, repos, "old.jpg", school.MediaImage, time.Now().UTC(), admin.ID)
		req, rec := newAuthRequest(http.MethodDelete, "/api/media/"+item.ID, adminToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if _, err := repos.media.GetMediaItem(context.Background(), item.ID); err != school.ErrMediaNotFound {
			t.Errorf("failed! err = %v; want %v", err, school.ErrMediaNotFound)
		}
	})

	t.Run("teacher cannot destroy", func(t *testing.T) {
		item := createMediaItem(t, repos, "keep.jpg", school.MediaImage, time.Now().UTC(), admin.ID)
		req, rec := newAuthRequest(http.MethodDelete, "/api/media/"+item.ID, getToken(t, teacher))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)}, rec)
	})
}
