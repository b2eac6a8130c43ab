package x

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pun_archiver/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:     baseURL,
		TokenURL:    baseURL + "/oauth2/token",
		BearerToken: "bearer-123",
		AccountID:   "42",
		AccountName: "dadjokes",
		PageSize:    100,
		MaxPages:    1,
		Timeout:     5 * time.Second,
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	assert.NoError(t, json.NewEncoder(w).Encode(v))
}

func userHandler(t *testing.T, wantAuth string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != wantAuth {
			writeJSON(t, w, http.StatusUnauthorized, APIError{Title: "Unauthorized", Status: 401})
			return
		}
		writeJSON(t, w, http.StatusOK, UserResponse{Data: &User{ID: "42", Username: "dadjokes"}})
	}
}

func TestSource_Name(t *testing.T) {
	s := New(testConfig("http://unused"), testLogger())
	assert.Equal(t, "x", s.ID())
	assert.Equal(t, "X @dadjokes", s.Name())

	cfg := testConfig("http://unused")
	cfg.AccountName = ""
	assert.Equal(t, "X account 42", New(cfg, testLogger()).Name())
}

func TestAuthenticate_BearerToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/2/users/42", userHandler(t, "Bearer bearer-123"))
	ts := httptest.NewServer(mux)
	defer ts.Close()

	s := New(testConfig(ts.URL), testLogger())

	require.NoError(t, s.Authenticate(context.Background()))
}

func TestAuthenticate_Rejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/2/users/42", userHandler(t, "Bearer something-else"))
	ts := httptest.NewServer(mux)
	defer ts.Close()

	s := New(testConfig(ts.URL), testLogger())

	err := s.Authenticate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuth)
	assert.Contains(t, err.Error(), "Unauthorized")
}

func TestAuthenticate_NoCredentials(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer ts.Close()

	cfg := testConfig(ts.URL)
	cfg.BearerToken = ""

	err := New(cfg, testLogger()).Authenticate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuth)
	assert.Zero(t, calls.Load())
}

func TestAuthenticate_ClientCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		writeJSON(t, w, http.StatusOK, map[string]string{"token_type": "bearer", "access_token": "minted"})
	})
	mux.HandleFunc("/2/users/42", userHandler(t, "Bearer minted"))
	ts := httptest.NewServer(mux)
	defer ts.Close()

	cfg := testConfig(ts.URL)
	cfg.BearerToken = ""
	cfg.APIKey = "key"
	cfg.APIKeySecret = "secret"

	require.NoError(t, New(cfg, testLogger()).Authenticate(context.Background()))
}

func TestAuthenticate_TokenExchangeRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusForbidden, map[string]string{"error": "invalid_client"})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	cfg := testConfig(ts.URL)
	cfg.BearerToken = ""
	cfg.APIKey = "key"
	cfg.APIKeySecret = "wrong"

	err := New(cfg, testLogger()).Authenticate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuth)
}

func TestAuthenticate_UnknownAccount(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, UserResponse{Errors: []APIError{{Title: "Not Found Error", Detail: "Could not find user with id: [42]."}}})
	}))
	defer ts.Close()

	err := New(testConfig(ts.URL), testLogger()).Authenticate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfig)
	assert.Contains(t, err.Error(), "Could not find user")
}

func TestFetchPosts_NotAuthenticated(t *testing.T) {
	_, err := New(testConfig("http://unused"), testLogger()).FetchPosts(context.Background(), "")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuth)
}

func newAuthenticated(t *testing.T, cfg Config, tweets http.HandlerFunc) *Source {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/2/users/42", userHandler(t, "Bearer bearer-123"))
	mux.HandleFunc("/2/users/42/tweets", tweets)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	cfg.BaseURL = ts.URL
	s := New(cfg, testLogger())
	require.NoError(t, s.Authenticate(context.Background()))
	return s
}

func TestFetchPosts_Query(t *testing.T) {
	s := newAuthenticated(t, testConfig(""), func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "Bearer bearer-123", r.Header.Get("Authorization"))
		assert.Equal(t, "100", q.Get("max_results"))
		assert.Equal(t, "replies,retweets", q.Get("exclude"))
		assert.Equal(t, "id,text,created_at", q.Get("tweet.fields"))
		assert.Equal(t, "1600000000000000000", q.Get("since_id"))
		assert.Empty(t, q.Get("pagination_token"))

		writeJSON(t, w, http.StatusOK, TweetsResponse{
			Data: []Tweet{
				{ID: "1600000000000000002", Text: "Why?\n\nBecause &amp; so", CreatedAt: "2024-01-02T03:04:05.000Z"},
				{ID: "1600000000000000001", Text: "gm", CreatedAt: "2024-01-01T00:00:00.000Z"},
			},
			Meta: Meta{ResultCount: 2},
		})
	})

	posts, err := s.FetchPosts(context.Background(), "1600000000000000000")
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, "1600000000000000002", posts[0].ID)
	assert.Equal(t, "Why?\n\nBecause & so", posts[0].Text)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), posts[0].CreatedAt)
	assert.Equal(t, "1600000000000000001", posts[1].ID)
}

func TestFetchPosts_NoSinceID(t *testing.T) {
	s := newAuthenticated(t, testConfig(""), func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["since_id"]
		assert.False(t, present)
		writeJSON(t, w, http.StatusOK, TweetsResponse{Meta: Meta{ResultCount: 0}})
	})

	posts, err := s.FetchPosts(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestFetchPosts_Pagination(t *testing.T) {
	cfg := testConfig("")
	cfg.MaxPages = 3

	var calls atomic.Int32
	s := newAuthenticated(t, cfg, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Query().Get("pagination_token") {
		case "":
			writeJSON(t, w, http.StatusOK, TweetsResponse{
				Data: []Tweet{{ID: "30", Text: "c", CreatedAt: "2024-01-03T00:00:00Z"}},
				Meta: Meta{ResultCount: 1, NextToken: "page2"},
			})
		case "page2":
			writeJSON(t, w, http.StatusOK, TweetsResponse{
				Data: []Tweet{{ID: "20", Text: "b", CreatedAt: "2024-01-02T00:00:00Z"}},
				Meta: Meta{ResultCount: 1},
			})
		default:
			t.Errorf("unexpected token %q", r.URL.Query().Get("pagination_token"))
		}
	})

	posts, err := s.FetchPosts(context.Background(), "10")
	require.NoError(t, err)

	require.Len(t, posts, 2)
	assert.Equal(t, "30", posts[0].ID)
	assert.Equal(t, "20", posts[1].ID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchPosts_StopsAtMaxPages(t *testing.T) {
	var calls atomic.Int32
	s := newAuthenticated(t, testConfig(""), func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(t, w, http.StatusOK, TweetsResponse{
			Data: []Tweet{{ID: "30", Text: "c", CreatedAt: "2024-01-03T00:00:00Z"}},
			Meta: Meta{ResultCount: 1, NextToken: "more"},
		})
	})

	posts, err := s.FetchPosts(context.Background(), "")
	require.NoError(t, err)

	assert.Len(t, posts, 1)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchPosts_SkipsUnparseableDates(t *testing.T) {
	s := newAuthenticated(t, testConfig(""), func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, TweetsResponse{
			Data: []Tweet{
				{ID: "2", Text: "ok", CreatedAt: "2024-01-02T00:00:00Z"},
				{ID: "1", Text: "bad", CreatedAt: "yesterday"},
			},
			Meta: Meta{ResultCount: 2},
		})
	})

	posts, err := s.FetchPosts(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, posts, 1)
	assert.Equal(t, "2", posts[0].ID)
}

func TestFetchPosts_ServerError(t *testing.T) {
	s := newAuthenticated(t, testConfig(""), func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusServiceUnavailable, APIError{Title: "Service Unavailable", Status: 503})
	})

	posts, err := s.FetchPosts(context.Background(), "")

	require.Error(t, err)
	assert.Nil(t, posts)
	assert.ErrorIs(t, err, domain.ErrFetch)
	assert.Contains(t, err.Error(), "503")
}

func TestFetchPosts_ErrorsWithoutData(t *testing.T) {
	s := newAuthenticated(t, testConfig(""), func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, TweetsResponse{Errors: []APIError{{Title: "Invalid Request", Detail: "since_id is invalid"}}})
	})

	_, err := s.FetchPosts(context.Background(), "1")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFetch)
	assert.Contains(t, err.Error(), "since_id is invalid")
}
