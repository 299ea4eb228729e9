package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akademi/akademi/internal/domain"
)

func TestCategories(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/categories", r.URL.Path)
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Accept"))

		json.NewEncoder(w).Encode([]domain.Category{
			{ID: 1, Slug: "dev", Title: domain.LocalizedText{EN: "Development", TR: "Geliştirme"}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	categories, err := client.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 1)
	require.Equal(t, "dev", categories[0].Slug)
	require.Equal(t, "Geliştirme", categories[0].Title.TR)
}

func TestCourseBySlugNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	_, err := client.CourseBySlug(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransportFailureIsServerOffline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := NewClient(server.URL, nil)
	_, err := client.Courses(context.Background())
	require.ErrorIs(t, err, domain.ErrServerOffline)
}

func TestVideosPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/courses/7/videos", r.URL.Path)
		json.NewEncoder(w).Encode([]domain.Video{
			{ID: 70, CourseID: 7, YoutubeID: "dQw4w9WgXcQ", Duration: 212, SequenceOrder: 1},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	videos, err := client.Videos(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	require.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", videos[0].WatchURL())
}

func TestSearchQueryParam(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, "go basics", r.URL.Query().Get("q"))
		json.NewEncoder(w).Encode([]domain.SearchResult{
			{Type: domain.ResultTypeCourse, ID: 1, Relevance: 0.8},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	results, err := client.Search(context.Background(), "go basics")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "course:1", results[0].Key())
}

func TestLoginSendsCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "alice", payload["username"])
		require.Equal(t, "secret", payload["password"])
		require.Equal(t, "https://auth.example.com", payload["authUrl"])
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	err := client.Login(context.Background(), "alice", "secret", "https://auth.example.com")
	require.NoError(t, err)
}

func TestLoginRejectedIsAuthFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	err := client.Login(context.Background(), "alice", "wrong", "")
	require.ErrorIs(t, err, domain.ErrAuthFailed)
}

func TestSaveProgressPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/progress", r.URL.Path)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, float64(3), payload["courseId"])
		require.Equal(t, float64(301), payload["videoId"])
		require.Equal(t, float64(42), payload["lastPosition"])
		require.Equal(t, true, payload["isCompleted"])
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	err := client.SaveProgress(context.Background(), 3, 301, 42.7, true)
	require.NoError(t, err)
}

func TestServerErrorIsNotSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	_, err := client.Categories(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrNotFound)
	require.NotErrorIs(t, err, domain.ErrServerOffline)
}
