package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/mlezi/darasa/core/school"
	"github.com/mlezi/darasa/core/user"
)

func createEvent(t *testing.T, repos *testRepos, title string, date time.Time, authorID string) school.Event {
	t.Helper()
	evt, err := repos.events.CreateEvent(context.Background(), school.Event{
		Title:     title,
		Date:      date,
		AuthorID:  authorID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateEvent(): %v", err)
	}
	return evt
}

func Test_eventApi_query(t *testing.T) {
	app, repos := setup(t)

	student := createUser(t, repos, "Hero", "hero@test.cd", user.RoleStudent, true)
	admin := createUser(t, repos, "Admin", "admin@test.cd", user.RoleAdmin, true)

	now := time.Now().UTC().Truncate(time.Second)
	sports := createEvent(t, repos, "Sports day", now.Add(48*time.Hour), admin.ID)
	openDay := createEvent(t, repos, "Open day", now.Add(24*time.Hour), admin.ID)

	// the calendar is world-readable and sorted by date
	tests := []httpTest{
		{name: "anonymous reads", wantData: marchallList(t, openDay, sports)},
		{name: "student reads", token: getToken(t, student), wantData: marchallList(t, openDay, sports)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/api/events"
		tt.wantCode = http.StatusOK

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("anonymous retrieves", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/events/"+openDay.ID)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, openDay)}, rec)
	})
}

func Test_eventApi_mutations(t *testing.T) {
	app, repos := setup(t)

	student := createUser(t, repos, "Hero", "hero@test.cd", user.RoleStudent, true)
	teacher := createUser(t, repos, "Teacher", "teacher@test.cd", user.RoleTeacher, true)

	teacherToken := getToken(t, teacher)
	date := time.Now().UTC().Add(72 * time.Hour).Truncate(time.Second)

	t.Run("anonymous cannot create", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/events", marchallObj(t, school.NewEvent{Title: "Gala", Date: date}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("student cannot create", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/events", getToken(t, student), marchallObj(t, school.NewEvent{Title: "Gala", Date: date}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)}, rec)
	})

	var gala school.Event
	t.Run("teacher creates", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/events", teacherToken, marchallObj(t, school.NewEvent{Title: "Gala", Date: date}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &gala); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if gala.AuthorID != teacher.ID {
			t.Errorf("failed! author = %v; want %v", gala.AuthorID, teacher.ID)
		}
	})

	t.Run("teacher updates", func(t *testing.T) {
		body := marchallObj(t, school.UpdateEvent{Description: "Black tie"})
		req, rec := newAuthRequest(http.MethodPut, "/api/events/"+gala.ID, teacherToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var evt school.Event
		if err := json.Unmarshal(rec.Body.Bytes(), &evt); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if evt.Description != "Black tie" {
			t.Errorf("failed! description = %q", evt.Description)
		}
		if !evt.Date.Equal(gala.Date) {
			t.Errorf("failed! date changed: %v", evt.Date)
		}
	})

	t.Run("teacher destroys", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/api/events/"+gala.ID, teacherToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if _, err := repos.events.GetEvent(context.Background(), gala.ID); err != school.ErrEventNotFound {
			t.Errorf("failed! err = %v; want %v", err, school.ErrEventNotFound)
		}
	})
}
