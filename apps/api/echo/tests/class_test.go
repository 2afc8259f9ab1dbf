package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/mlezi/darasa/core/school"
	"github.com/mlezi/darasa/core/user"
)

func Test_classApi_query(t *testing.T) {
	app, repos := setup(t)

	student := createUser(t, repos, "Hero", "hero@test.cd", user.RoleStudent, true)
	outsider := createUser(t, repos, "Outsider", "out@test.cd", user.RoleStudent, true)
	teacher := createUser(t, repos, "Teacher", "teacher@test.cd", user.RoleTeacher, true)
	admin := createUser(t, repos, "Admin", "admin@test.cd", user.RoleAdmin, true)

	maths := createClass(t, repos, "Maths", []string{teacher.ID}, []string{student.ID})
	physics := createClass(t, repos, "Physics", []string{teacher.ID}, nil)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "student sees own classes", token: getToken(t, student), wantData: marchallList(t, maths)},
		{name: "outsider sees none", token: getToken(t, outsider), wantData: marchallList(t, []interface{}{}...)},
		{name: "teacher sees own classes", token: getToken(t, teacher), wantData: marchallList(t, maths, physics)},
		{name: "admin sees all", token: getToken(t, admin), wantData: marchallList(t, maths, physics)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/api/classes"
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_classApi_retrieve(t *testing.T) {
	app, repos := setup(t)

	student := createUser(t, repos, "Hero", "hero@test.cd", user.RoleStudent, true)
	outsider := createUser(t, repos, "Outsider", "out@test.cd", user.RoleStudent, true)
	teacher := createUser(t, repos, "Teacher", "teacher@test.cd", user.RoleTeacher, true)
	admin := createUser(t, repos, "Admin", "admin@test.cd", user.RoleAdmin, true)

	maths := createClass(t, repos, "Maths", []string{teacher.ID}, []string{student.ID})

	notFound := marchallObj(t, httpErr{Error: "not found"})
	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "member student", token: getToken(t, student), wantData: marchallObj(t, maths)},
		{name: "member teacher", token: getToken(t, teacher), wantData: marchallObj(t, maths)},
		{name: "admin", token: getToken(t, admin), wantData: marchallObj(t, maths)},
		{name: "non-member is 404", token: getToken(t, outsider), wantCode: http.StatusNotFound, wantData: notFound},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/api/classes/" + maths.ID
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("unknown class is 404", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/classes/e1f5c9ab-0000-4e39-9b10-54e74d1f2a01", getToken(t, admin))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: notFound}, rec)
	})
}

func Test_classApi_create(t *testing.T) {
	app, repos := setup(t)

	student := createUser(t, repos, "Hero", "hero@test.cd", user.RoleStudent, true)
	teacher := createUser(t, repos, "Teacher", "teacher@test.cd", user.RoleTeacher, true)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "student forbidden", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "required fields", token: getToken(t, teacher), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		},
		{
			name: "teacher creates", token: getToken(t, teacher), wantCode: http.StatusCreated,
			body: marchallObj(t, school.NewClass{
				Name:       "Chemistry",
				TeacherIDs: []string{teacher.ID},
				StudentIDs: []string{student.ID},
			}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/api/classes"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
				}
				var cls school.Class
				if err := json.Unmarshal(rec.Body.Bytes(), &cls); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if cls.ID == "" {
					t.Error("failed! empty class ID")
				}
				if !cls.HasTeacher(teacher.ID) || !cls.HasStudent(student.ID) {
					t.Errorf("failed! membership not stored: %+v", cls)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_classApi_update(t *testing.T) {
	app, repos := setup(t)

	student := createUser(t, repos, "Hero", "hero@test.cd", user.RoleStudent, true)
	teacher := createUser(t, repos, "Teacher", "teacher@test.cd", user.RoleTeacher, true)
	maths := createClass(t, repos, "Maths", []string{teacher.ID}, nil)

	t.Run("student forbidden", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/api/classes/"+maths.ID, getToken(t, student))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)}, rec)
	})

	t.Run("teacher renames and enrolls", func(t *testing.T) {
		body := marchallObj(t, school.UpdateClass{Name: "Maths II", StudentIDs: []string{student.ID}})
		req, rec := newAuthRequest(http.MethodPut, "/api/classes/"+maths.ID, getToken(t, teacher), body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var cls school.Class
		if err := json.Unmarshal(rec.Body.Bytes(), &cls); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if cls.Name != "Maths II" {
			t.Errorf("failed! name = %v; want %v", cls.Name, "Maths II")
		}
		if !cls.HasStudent(student.ID) {
			t.Errorf("failed! student not enrolled: %+v", cls)
		}
		if !cls.HasTeacher(teacher.ID) {
			t.Errorf("failed! teacher membership dropped: %+v", cls)
		}
	})
}

// Deleting a class removes the class and its membership rows only; bound
// announcements and assignments survive it.
func Test_classApi_destroy_keepsContent(t *testing.T) {
	app, repos := setup(t)

	teacher := createUser(t, repos, "Teacher", "teacher@test.cd", user.RoleTeacher, true)
	admin := createUser(t, repos, "Admin", "admin@test.cd", user.RoleAdmin, true)
	maths := createClass(t, repos, "Maths", []string{teacher.ID}, nil)

	ann := createAnnouncement(t, repos, "Exam prep", school.ScopeClass, maths.ID, teacher.ID)
	asg := createAssignment(t, repos, "Chapter 3", maths.ID, teacher.ID)

	req, rec := newAuthRequest(http.MethodDelete, "/api/classes/"+maths.ID, getToken(t, admin))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}

	ctx := context.Background()
	if _, err := repos.classes.GetClass(ctx, maths.ID); err != school.ErrClassNotFound {
		t.Errorf("failed! err = %v; want %v", err, school.ErrClassNotFound)
	}
	if _, err := repos.anns.GetAnnouncement(ctx, ann.ID); err != nil {
		t.Errorf("failed! announcement gone after class deletion: %v", err)
	}
	if _, err := repos.assignments.GetAssignment(ctx, asg.ID); err != nil {
		t.Errorf("failed! assignment gone after class deletion: %v", err)
	}

	// admin still sees the orphaned content through the API
	req, rec = newAuthRequest(http.MethodGet, "/api/assignments/"+asg.ID, getToken(t, admin))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
}
