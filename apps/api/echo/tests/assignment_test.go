package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/mlezi/darasa/core/school"
	"github.com/mlezi/darasa/core/user"
)

func Test_assignmentApi_query(t *testing.T) {
	app, repos := setup(t)

	student := createUser(t, repos, "Hero", "hero@test.cd", user.RoleStudent, true)
	outsider := createUser(t, repos, "Outsider", "out@test.cd", user.RoleStudent, true)
	teacher := createUser(t, repos, "Teacher", "teacher@test.cd", user.RoleTeacher, true)
	admin := createUser(t, repos, "Admin", "admin@test.cd", user.RoleAdmin, true)

	maths := createClass(t, repos, "Maths", []string{teacher.ID}, []string{student.ID})
	physics := createClass(t, repos, "Physics", nil, nil)

	chap3 := createAssignment(t, repos, "Chapter 3", maths.ID, teacher.ID)
	lab1 := createAssignment(t, repos, "Lab 1", physics.ID, admin.ID)

	empty := marchallList(t, []interface{}{}...)
	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "student sees own class only", token: getToken(t, student), wantData: marchallList(t, chap3)},
		{name: "teacher sees own class only", token: getToken(t, teacher), wantData: marchallList(t, chap3)},
		{name: "outsider sees none", token: getToken(t, outsider), wantData: empty},
		{name: "admin sees all", token: getToken(t, admin), wantData: marchallList(t, chap3, lab1)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/api/assignments"
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

func Test_assignmentApi_create(t *testing.T) {
	app, repos := setup(t)

	student := createUser(t, repos, "Hero", "hero@test.cd", user.RoleStudent, true)
	teacher := createUser(t, repos, "Teacher", "teacher@test.cd", user.RoleTeacher, true)
	stranger := createUser(t, repos, "Stranger", "stranger@test.cd", user.RoleTeacher, true)
	admin := createUser(t, repos, "Admin", "admin@test.cd", user.RoleAdmin, true)

	maths := createClass(t, repos, "Maths", []string{teacher.ID}, []string{student.ID})

	newAsg := func(classID string) []byte {
		asg := createAssignmentBody(t, "Chapter 5", classID)
		return asg
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "student forbidden", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "non-member teacher forbidden", token: getToken(t, stranger), body: newAsg(maths.ID),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
		{name: "class teacher creates", token: getToken(t, teacher), body: newAsg(maths.ID), wantCode: http.StatusCreated},
		{name: "admin creates anywhere", token: getToken(t, admin), body: newAsg(maths.ID), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/api/assignments"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
				}
				var asg school.Assignment
				if err := json.Unmarshal(rec.Body.Bytes(), &asg); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if asg.ClassID != maths.ID {
					t.Errorf("failed! class ID = %v; want %v", asg.ClassID, maths.ID)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_assignmentApi_submit(t *testing.T) {
	app, repos := setup(t)

	student := createUser(t, repos, "Hero", "hero@test.cd", user.RoleStudent, true)
	outsider := createUser(t, repos, "Outsider", "out@test.cd", user.RoleStudent, true)
	teacher := createUser(t, repos, "Teacher", "teacher@test.cd", user.RoleTeacher, true)

	maths := createClass(t, repos, "Maths", []string{teacher.ID}, []string{student.ID})
	chap3 := createAssignment(t, repos, "Chapter 3", maths.ID, teacher.ID)

	path := "/api/assignments/" + chap3.ID + "/submit"
	studentToken := getToken(t, student)

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newMultipartRequest(t, http.MethodPost, path, "", map[string]string{"text": "hi"}, "", "", nil)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("teacher cannot submit", func(t *testing.T) {
		req, rec := newMultipartRequest(t, http.MethodPost, path, getToken(t, teacher), map[string]string{"text": "hi"}, "", "", nil)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)}, rec)
	})

	t.Run("non-member student forbidden", func(t *testing.T) {
		req, rec := newMultipartRequest(t, http.MethodPost, path, getToken(t, outsider), map[string]string{"text": "hi"}, "", "", nil)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)}, rec)
	})

	t.Run("text or file required", func(t *testing.T) {
		req, rec := newMultipartRequest(t, http.MethodPost, path, studentToken, map[string]string{"text": "   "}, "", "", nil)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "a submission requires text or a file"}),
		}, rec)
	})

	var firstID string

	t.Run("text-only accepted", func(t *testing.T) {
		req, rec := newMultipartRequest(t, http.MethodPost, path, studentToken, map[string]string{"text": "my answer"}, "", "", nil)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var sub school.Submission
		if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if sub.Text != "my answer" {
			t.Errorf("failed! text = %q", sub.Text)
		}
		if sub.StudentID != student.ID {
			t.Errorf("failed! student ID = %v; want %v", sub.StudentID, student.ID)
		}
		firstID = sub.ID
	})

	t.Run("file-only accepted, resubmission replaces", func(t *testing.T) {
		req, rec := newMultipartRequest(t, http.MethodPost, path, studentToken, nil, "file", "essay.pdf", []byte("pdf bytes"))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var sub school.Submission
		if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if sub.FileURL == "" || !strings.Contains(sub.FileURL, "essay.pdf") {
			t.Errorf("failed! file URL = %q", sub.FileURL)
		}

		// last write wins: still a single submission for (assignment, student)
		subs, err := repos.assignments.QuerySubmissions(context.Background(), chap3.ID)
		if err != nil {
			t.Fatalf("QuerySubmissions(): %v", err)
		}
		if len(subs) != 1 {
			t.Fatalf("failed! len(subs) = %d; want 1", len(subs))
		}
		if subs[0].FileURL != sub.FileURL {
			t.Errorf("failed! stored file URL = %q; want %q", subs[0].FileURL, sub.FileURL)
		}

		// re-submission keeps the original row's ID, and the response
		// carries the ID the stored row actually has
		if sub.ID != firstID {
			t.Errorf("failed! ID = %v; want original %v", sub.ID, firstID)
		}
		if subs[0].ID != sub.ID {
			t.Errorf("failed! stored ID = %v; response ID = %v", subs[0].ID, sub.ID)
		}
	})
}

func Test_assignmentApi_submissions(t *testing.T) {
	app, repos := setup(t)

	student := createUser(t, repos, "Hero", "hero@test.cd", user.RoleStudent, true)
	teacher := createUser(t, repos, "Teacher", "teacher@test.cd", user.RoleTeacher, true)
	stranger := createUser(t, repos, "Stranger", "stranger@test.cd", user.RoleTeacher, true)
	admin := createUser(t, repos, "Admin", "admin@test.cd", user.RoleAdmin, true)

	maths := createClass(t, repos, "Maths", []string{teacher.ID, stranger.ID}, []string{student.ID})
	chap3 := createAssignment(t, repos, "Chapter 3", maths.ID, teacher.ID)

	sub, err := repos.assignments.UpsertSubmission(context.Background(), school.Submission{
		AssignmentID: chap3.ID,
		StudentID:    student.ID,
		Text:         "my answer",
	})
	if err != nil {
		t.Fatalf("UpsertSubmission(): %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "student forbidden", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
		{
			name: "non-author teacher forbidden", token: getToken(t, stranger),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied),
		},
		{name: "author reads", token: getToken(t, teacher), wantData: marchallList(t, sub)},
		{name: "admin reads", token: getToken(t, admin), wantData: marchallList(t, sub)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/api/assignments/" + chap3.ID + "/submissions"
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

// End to end: a teacher sets up a class and an assignment through the API,
// a student submits, and the teacher reads back exactly one submission.
func Test_assignmentApi_endToEnd(t *testing.T) {
	app, repos := setup(t)

	student := createUser(t, repos, "Hero", "hero@test.cd", user.RoleStudent, true)
	teacher := createUser(t, repos, "Teacher", "teacher@test.cd", user.RoleTeacher, true)

	teacherToken := getToken(t, teacher)

	// teacher creates the class with both members
	body := marchallObj(t, school.NewClass{
		Name:       "Maths",
		TeacherIDs: []string{teacher.ID},
		StudentIDs: []string{student.ID},
	})
	req, rec := newAuthRequest(http.MethodPost, "/api/classes", teacherToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("creating class failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var cls school.Class
	if err := json.Unmarshal(rec.Body.Bytes(), &cls); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}

	// teacher posts an assignment
	req, rec = newAuthRequest(http.MethodPost, "/api/assignments", teacherToken, createAssignmentBody(t, "Chapter 3", cls.ID))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("creating assignment failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var asg school.Assignment
	if err := json.Unmarshal(rec.Body.Bytes(), &asg); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}

	// student sees it and submits
	req, rec = newAuthRequest(http.MethodGet, "/api/assignments/"+asg.ID, getToken(t, student))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("retrieving assignment failed! code = %v; body %s", rec.Code, rec.Body.String())
	}

	req, rec = newMultipartRequest(t, http.MethodPost, "/api/assignments/"+asg.ID+"/submit",
		getToken(t, student), map[string]string{"text": "my answer"}, "", "", nil)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submitting failed! code = %v; body %s", rec.Code, rec.Body.String())
	}

	// teacher reads back exactly one submission
	req, rec = newAuthRequest(http.MethodGet, "/api/assignments/"+asg.ID+"/submissions", teacherToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("listing submissions failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var subs []school.Submission
	if err := json.Unmarshal(rec.Body.Bytes(), &subs); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("failed! len(subs) = %d; want 1", len(subs))
	}
	if subs[0].StudentID != student.ID || subs[0].Text != "my answer" {
		t.Errorf("failed! submission = %+v", subs[0])
	}
}
