package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlezi/darasa/core/user"
)

// fakeAuthServer accepts hero@darasa.io / Str0ng.Pa55w0rd! and hands out
// "tok-abc"; only that token validates.
func fakeAuthServer(t *testing.T) *httptest.Server {
	t.Helper()

	hero := user.User{ID: "u1", Name: "Hero", Email: "hero@darasa.io", Role: user.RoleTeacher}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		var creds struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		w.Header().Set("Content-Type", "application/json")
		if creds.Email != hero.Email || creds.Password != "Str0ng.Pa55w0rd!" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))
			return
		}
		require.NoError(t, json.NewEncoder(w).Encode(LoginResult{Token: "tok-abc", User: hero}))
	})
	mux.HandleFunc("/api/validate-token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer tok-abc" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"user not authenticated"}`))
			return
		}
		require.NoError(t, json.NewEncoder(w).Encode(hero))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func Test_Session_login(t *testing.T) {
	srv := fakeAuthServer(t)
	sess := NewSession(NewGateway(srv.URL))
	ctx := context.Background()

	assert.Equal(t, Anonymous, sess.State())
	assert.Empty(t, sess.Token())
	assert.False(t, sess.IsAuthenticated())

	// bad credentials leave no trace
	err := sess.Login(ctx, "hero@darasa.io", "wrong")
	require.Error(t, err)
	assert.Equal(t, ErrUnauthorized, errors.Cause(err))
	assert.Equal(t, Anonymous, sess.State())
	assert.Empty(t, sess.Token())
	assert.Zero(t, sess.User())

	require.NoError(t, sess.Login(ctx, "hero@darasa.io", "Str0ng.Pa55w0rd!"))
	assert.Equal(t, Authenticated, sess.State())
	assert.Equal(t, "tok-abc", sess.Token())
	assert.Equal(t, "Hero", sess.User().Name)
	assert.True(t, sess.IsAuthenticated())
	assert.True(t, sess.IsTeacher())
	assert.False(t, sess.IsStudent())
	assert.False(t, sess.IsAdmin())
}

func Test_Session_validate(t *testing.T) {
	srv := fakeAuthServer(t)
	gw := NewGateway(srv.URL)
	sess := NewSession(gw)
	ctx := context.Background()

	// no token at all
	err := sess.Validate(ctx)
	assert.Equal(t, ErrUnauthorized, errors.Cause(err))
	assert.Equal(t, Anonymous, sess.State())

	require.NoError(t, sess.Login(ctx, "hero@darasa.io", "Str0ng.Pa55w0rd!"))
	require.NoError(t, sess.Validate(ctx))
	assert.Equal(t, Authenticated, sess.State())

	// rejected token cascades into a logout
	gw.SetToken("tok-expired")
	err = sess.Validate(ctx)
	require.Error(t, err)
	assert.Equal(t, ErrUnauthorized, errors.Cause(err))
	assert.Equal(t, Anonymous, sess.State())
	assert.Empty(t, sess.Token())
	assert.Zero(t, sess.User())
	assert.False(t, sess.IsTeacher())
}

func Test_Session_validate_networkFailureKeepsSession(t *testing.T) {
	srv := fakeAuthServer(t)
	sess := NewSession(NewGateway(srv.URL))
	ctx := context.Background()

	require.NoError(t, sess.Login(ctx, "hero@darasa.io", "Str0ng.Pa55w0rd!"))

	srv.Close()
	err := sess.Validate(ctx)
	require.Error(t, err)
	assert.Equal(t, ErrNetwork, errors.Cause(err))

	// still logged in; a flaky connection must not drop the user
	assert.Equal(t, Authenticated, sess.State())
	assert.Equal(t, "tok-abc", sess.Token())
	assert.Equal(t, "Hero", sess.User().Name)
}

func Test_Session_logout(t *testing.T) {
	srv := fakeAuthServer(t)
	sess := NewSession(NewGateway(srv.URL))

	require.NoError(t, sess.Login(context.Background(), "hero@darasa.io", "Str0ng.Pa55w0rd!"))
	require.Equal(t, Authenticated, sess.State())

	sess.Logout()
	assert.Equal(t, Anonymous, sess.State())
	assert.Empty(t, sess.Token())
	assert.Zero(t, sess.User())

	// idempotent
	sess.Logout()
	assert.Equal(t, Anonymous, sess.State())
}
