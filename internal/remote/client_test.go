package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL, Token: "test-token"})
}

func TestPing(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/api/v1/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	err := client.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Token test-token", gotAuth)
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		check      func(t *testing.T, err error)
	}{
		{
			name:       "401 unauthorized",
			statusCode: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrUnauthorized)
				assert.False(t, IsRetryable(err))
			},
		},
		{
			name:       "404 not found",
			statusCode: http.StatusNotFound,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNotFound)
				assert.False(t, IsRetryable(err))
			},
		},
		{
			name:       "400 validation",
			statusCode: http.StatusBadRequest,
			body:       `{"message":"name is required"}`,
			check: func(t *testing.T, err error) {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, http.StatusBadRequest, verr.StatusCode)
				assert.Equal(t, "name is required", verr.Message)
				assert.True(t, IsValidation(err))
				assert.False(t, IsRetryable(err))
			},
		},
		{
			name:       "422 validation with error field",
			statusCode: http.StatusUnprocessableEntity,
			body:       `{"error":"unknown category"}`,
			check: func(t *testing.T, err error) {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, "unknown category", verr.Message)
				assert.True(t, IsValidation(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				if tt.body != "" {
					w.Write([]byte(tt.body))
				}
			})

			err := client.Ping(context.Background())
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrRateLimited))
	assert.True(t, IsRetryable(&ServerError{StatusCode: 503}))
	assert.False(t, IsRetryable(ErrUnauthorized))
	assert.False(t, IsRetryable(ErrNotFound))
	assert.False(t, IsRetryable(&ValidationError{StatusCode: 400}))
	assert.False(t, IsRetryable(errors.New("other")))
}

func TestCreateEntity(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/entities", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in Entity
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "Noma", in.Name)

		in.Version = "v1"
		in.UpdatedAt = time.Now().UTC()
		json.NewEncoder(w).Encode(in)
	})

	canonical, err := client.CreateEntity(context.Background(), Entity{
		EntityID: "ent-1",
		Type:     "restaurant",
		Name:     "Noma",
	})
	require.NoError(t, err)
	assert.Equal(t, "v1", canonical.Version)
	assert.False(t, canonical.UpdatedAt.IsZero())
}

func TestListEntities_QueryParams(t *testing.T) {
	after := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2026-03-01T12:00:00Z", q.Get("updatedAfter"))
		assert.Equal(t, "abc", q.Get("cursor"))
		assert.Equal(t, "50", q.Get("pageSize"))

		next := "def"
		json.NewEncoder(w).Encode(EntityPage{
			Count:      1,
			NextCursor: &next,
			Entities:   []Entity{{EntityID: "ent-1", Name: "Noma"}},
		})
	})

	page, err := client.ListEntities(context.Background(), ListOptions{
		UpdatedAfter: &after,
		Cursor:       "abc",
		PageSize:     50,
	})
	require.NoError(t, err)
	require.Len(t, page.Entities, 1)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, "def", *page.NextCursor)
}

func TestDeleteCuration(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusOK)
	})

	err := client.DeleteCuration(context.Background(), "cur-1")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/curations/cur-1", gotPath)
}

func TestRetry_ServerErrorThenSuccess(t *testing.T) {
	var attempts atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(Entity{EntityID: "ent-1", Version: "v2"})
	})

	canonical, err := client.UpdateEntity(context.Background(), "ent-1", Entity{EntityID: "ent-1"})
	require.NoError(t, err)
	assert.Equal(t, "v2", canonical.Version)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestRetry_ValidationNotRetried(t *testing.T) {
	var attempts atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"bad payload"}`))
	})

	_, err := client.CreateEntity(context.Background(), Entity{})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, int32(1), attempts.Load(), "validation errors must fail on the first attempt")
}

func TestRetry_ContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := client.CreateEntity(ctx, Entity{EntityID: "ent-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCalculateRetryDelay(t *testing.T) {
	assert.Equal(t, 1*time.Second, calculateRetryDelay(0))
	assert.Equal(t, 2*time.Second, calculateRetryDelay(1))
	assert.Equal(t, 4*time.Second, calculateRetryDelay(2))
	assert.Equal(t, 30*time.Second, calculateRetryDelay(10), "capped at the max delay")
}
