package jellyfin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmcdole/jellyshelf/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(ClientConfig{
		BaseURL:    srv.URL + "/",
		Token:      "tok",
		UserID:     "u1",
		DeviceID:   "dev",
		RetryCount: 2,
		RetryWait:  time.Millisecond,
	}, nil)
	t.Cleanup(func() { _ = c.Close() })
	return c, srv
}

func TestClientFetchSendsAuthHeader(t *testing.T) {
	var gotAuth, gotPath string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("X-Emby-Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Items":[]}`))
	})

	body, err := c.Fetch(context.Background(), "/Users/u1/Views?format=json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"Items":[]}`, string(body))
	assert.Equal(t, "/Users/u1/Views", gotPath)
	assert.Contains(t, gotAuth, `Token="tok"`)
	assert.Contains(t, gotAuth, `DeviceId="dev"`)
	assert.True(t, strings.HasPrefix(gotAuth, "MediaBrowser "))
}

func TestClientFetchAbsoluteURL(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	body, err := c.Fetch(context.Background(), ViewsURL(srv.URL, "u1"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
}

func TestClientFetchUnauthorized(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Fetch(context.Background(), "/Users/u1/Views")
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
}

func TestClientFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := c.Fetch(context.Background(), "/Users/u1/Views")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientFetchPersistentServerError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Fetch(context.Background(), "/Users/u1/Views")
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
	assert.True(t, domain.IsTransient(err))
}

func TestClientFetchNotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Fetch(context.Background(), "/Items/missing")
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
}

func TestClientFetchServerOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(ClientConfig{BaseURL: url, RetryCount: -1, Timeout: time.Second}, nil)
	defer c.Close()

	_, err := c.Fetch(context.Background(), "/Users/u1/Views")
	assert.ErrorIs(t, err, domain.ErrServerOffline)
}

func TestClientMutations(t *testing.T) {
	type call struct{ method, path string }
	var calls []call
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, call{r.Method, r.URL.Path})
		w.WriteHeader(http.StatusOK)
	})

	ctx := context.Background()
	require.NoError(t, c.MarkPlayed(ctx, "i1"))
	require.NoError(t, c.MarkUnplayed(ctx, "i1"))
	require.NoError(t, c.SetFavorite(ctx, "i2", true))
	require.NoError(t, c.SetFavorite(ctx, "i2", false))

	assert.Equal(t, []call{
		{http.MethodPost, "/Users/u1/PlayedItems/i1"},
		{http.MethodDelete, "/Users/u1/PlayedItems/i1"},
		{http.MethodPost, "/Users/u1/FavoriteItems/i2"},
		{http.MethodDelete, "/Users/u1/FavoriteItems/i2"},
	}, calls)
}

func TestAuthenticate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Users/AuthenticateByName", r.URL.Path)
		assert.Contains(t, r.Header.Get("X-Emby-Authorization"), `DeviceId="dev-1"`)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["Pw"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(AuthResponse{
			AccessToken: "tok",
			User:        User{ID: "u1", Name: body["Username"]},
		})
	}))
	defer srv.Close()

	flow := NewAuthFlow("dev-1", nil)
	res, err := flow.Authenticate(context.Background(), srv.URL, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, &domain.AuthResult{Token: "tok", UserID: "u1", Username: "alice"}, res)

	_, err = flow.Authenticate(context.Background(), srv.URL, "alice", "wrong")
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
}

func TestURLBuildersAreStable(t *testing.T) {
	a := ChildrenURL("http://srv/", "u1", "p1")
	b := ChildrenURL("http://srv", "u1", "p1")
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "http://srv/Users/u1/Items?"))
	assert.Contains(t, a, "ParentId=p1")
	assert.Contains(t, LatestURL("http://srv", "u1", 20), "Limit=20")
	assert.Contains(t, ResumeURL("http://srv", "u1", 0), "/Items/Resume?")
	assert.NotEmpty(t, NewDeviceID())
}
