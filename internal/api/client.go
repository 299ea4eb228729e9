package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/akademi/akademi/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Akademi/1.0"
)

// Client implements domain.CatalogClient, domain.SearchClient,
// domain.AuthClient, and domain.ProgressSink against the catalog REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new catalog API client.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// doRequest performs an HTTP request and returns the response body.
// Transport failures map to ErrServerOffline, 404 to ErrNotFound, and 401
// to ErrAuthFailed so callers can branch on sentinel errors.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload interface{}) ([]byte, error) {
	reqURL := c.baseURL + path
	if query != nil {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("api request", "method", method, "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("api request failed", "error", err)
		return nil, domain.ErrServerOffline
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, domain.ErrAuthFailed
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.logger.Error("api request error", "status", resp.StatusCode, "body", string(respBody))
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return respBody, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest interface{}) error {
	body, err := c.doRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		c.logger.Error("JSON parse error", "path", path, "error", err, "bodyLen", len(body))
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// Categories returns all catalog categories.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := c.getJSON(ctx, "/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// CategoryBySlug returns a single category, or ErrNotFound.
func (c *Client) CategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	var category domain.Category
	if err := c.getJSON(ctx, "/categories/"+url.PathEscape(slug), nil, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// Courses returns all courses.
func (c *Client) Courses(ctx context.Context) ([]domain.Course, error) {
	var courses []domain.Course
	if err := c.getJSON(ctx, "/courses", nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// CourseBySlug returns a single course, or ErrNotFound.
func (c *Client) CourseBySlug(ctx context.Context, slug string) (*domain.Course, error) {
	var course domain.Course
	if err := c.getJSON(ctx, "/courses/"+url.PathEscape(slug), nil, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// Videos returns a course's videos ordered by sequence.
func (c *Client) Videos(ctx context.Context, courseID int) ([]domain.Video, error) {
	var videos []domain.Video
	path := fmt.Sprintf("/courses/%d/videos", courseID)
	if err := c.getJSON(ctx, path, nil, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// Documents returns a course's documents.
func (c *Client) Documents(ctx context.Context, courseID int) ([]domain.Document, error) {
	var documents []domain.Document
	path := fmt.Sprintf("/courses/%d/documents", courseID)
	if err := c.getJSON(ctx, path, nil, &documents); err != nil {
		return nil, err
	}
	return documents, nil
}

// Search runs the server-side text search.
func (c *Client) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	q := url.Values{}
	q.Set("q", query)
	var results []domain.SearchResult
	if err := c.getJSON(ctx, "/search", q, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// Login authenticates against a protected course. When authURL is set the
// server forwards the credentials to the external auth service.
func (c *Client) Login(ctx context.Context, username, password, authURL string) error {
	payload := map[string]string{
		"username": username,
		"password": password,
	}
	if authURL != "" {
		payload["authUrl"] = authURL
	}
	_, err := c.doRequest(ctx, http.MethodPost, "/auth/login", nil, payload)
	return err
}

// SaveProgress upserts the server-side shadow progress record.
func (c *Client) SaveProgress(ctx context.Context, courseID, videoID int, lastPosition float64, completed bool) error {
	payload := map[string]interface{}{
		"courseId":     courseID,
		"videoId":      videoID,
		"lastPosition": int(lastPosition),
		"isCompleted":  completed,
	}
	_, err := c.doRequest(ctx, http.MethodPost, "/progress", nil, payload)
	return err
}
