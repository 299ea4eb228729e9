package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/akademi/akademi/internal/domain"
)

const prefetchTimeout = 2 * time.Minute

// CatalogService wraps every catalog read with cache-first semantics: a
// fresh store entry is returned without a network call, a miss is fetched,
// saved, and returned. Slug lookups that 404 resolve to (nil, nil) rather
// than an error.
type CatalogService struct {
	client domain.CatalogClient
	store  domain.Store
	logger *slog.Logger

	// prefetch is called asynchronously after a course list fetch; tests
	// replace it to run synchronously.
	prefetch func(courses []domain.Course)
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(client domain.CatalogClient, store domain.Store, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &CatalogService{
		client: client,
		store:  store,
		logger: logger,
	}
	s.prefetch = func(courses []domain.Course) { go s.prefetchVideos(courses) }
	return s
}

// Categories returns all categories, cache-first.
func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if s.store.GetCatalog(KeyCategories, &categories) {
		s.logger.Debug("cache hit", "key", KeyCategories)
		return categories, nil
	}

	categories, err := s.client.Categories(ctx)
	if err != nil {
		s.logger.Error("failed to fetch categories", "error", err)
		return nil, err
	}

	s.store.SaveCatalog(KeyCategories, categories)
	s.logger.Info("loaded categories", "count", len(categories))
	return categories, nil
}

// CategoryBySlug returns a category or nil when it does not exist.
func (s *CatalogService) CategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	key := CategoryKey(slug)

	var category domain.Category
	if s.store.GetCatalog(key, &category) {
		s.logger.Debug("cache hit", "key", key)
		return &category, nil
	}

	found, err := s.client.CategoryBySlug(ctx, slug)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("failed to fetch category", "slug", slug, "error", err)
		return nil, err
	}

	s.store.SaveCatalog(key, found)
	return found, nil
}

// Courses returns all courses, cache-first. After a successful network
// fetch the videos of each course are prefetched in the background.
func (s *CatalogService) Courses(ctx context.Context) ([]domain.Course, error) {
	var courses []domain.Course
	if s.store.GetCatalog(KeyCourses, &courses) {
		s.logger.Debug("cache hit", "key", KeyCourses)
		return courses, nil
	}

	courses, err := s.client.Courses(ctx)
	if err != nil {
		s.logger.Error("failed to fetch courses", "error", err)
		return nil, err
	}

	s.store.SaveCatalog(KeyCourses, courses)
	s.logger.Info("loaded courses", "count", len(courses))

	s.prefetch(courses)

	return courses, nil
}

// CourseBySlug returns a course or nil when it does not exist.
func (s *CatalogService) CourseBySlug(ctx context.Context, slug string) (*domain.Course, error) {
	key := CourseKey(slug)

	var course domain.Course
	if s.store.GetCatalog(key, &course) {
		s.logger.Debug("cache hit", "key", key)
		return &course, nil
	}

	found, err := s.client.CourseBySlug(ctx, slug)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("failed to fetch course", "slug", slug, "error", err)
		return nil, err
	}

	s.store.SaveCatalog(key, found)
	return found, nil
}

// Videos returns a course's videos ordered by sequence, cache-first.
func (s *CatalogService) Videos(ctx context.Context, courseID int) ([]domain.Video, error) {
	key := VideosKey(courseID)

	var videos []domain.Video
	if s.store.GetCatalog(key, &videos) {
		s.logger.Debug("cache hit", "key", key)
		return videos, nil
	}

	videos, err := s.client.Videos(ctx, courseID)
	if err != nil {
		s.logger.Error("failed to fetch videos", "courseID", courseID, "error", err)
		return nil, err
	}

	s.store.SaveCatalog(key, videos)
	s.logger.Debug("loaded videos", "count", len(videos), "courseID", courseID)
	return videos, nil
}

// Documents returns a course's documents, cache-first.
func (s *CatalogService) Documents(ctx context.Context, courseID int) ([]domain.Document, error) {
	key := DocumentsKey(courseID)

	var documents []domain.Document
	if s.store.GetCatalog(key, &documents) {
		s.logger.Debug("cache hit", "key", key)
		return documents, nil
	}

	documents, err := s.client.Documents(ctx, courseID)
	if err != nil {
		s.logger.Error("failed to fetch documents", "courseID", courseID, "error", err)
		return nil, err
	}

	s.store.SaveCatalog(key, documents)
	return documents, nil
}

// prefetchVideos warms the video cache for each course. Purely an
// optimization: every failure is swallowed, already-cached courses are
// skipped.
func (s *CatalogService) prefetchVideos(courses []domain.Course) {
	ctx, cancel := context.WithTimeout(context.Background(), prefetchTimeout)
	defer cancel()

	fetched := 0
	for _, course := range courses {
		var cached []domain.Video
		if s.store.GetCatalog(VideosKey(course.ID), &cached) {
			continue
		}

		videos, err := s.client.Videos(ctx, course.ID)
		if err != nil {
			s.logger.Debug("video prefetch failed", "courseID", course.ID, "error", err)
			continue
		}

		s.store.SaveCatalog(VideosKey(course.ID), videos)
		fetched++
	}

	if fetched > 0 {
		s.logger.Info("prefetched course videos", "courses", fetched)
	}
}

// CachedCourses returns the cached course list without touching the
// network. Used by the search engine's cache pass.
func (s *CatalogService) CachedCourses() []domain.Course {
	var courses []domain.Course
	if s.store.GetCatalog(KeyCourses, &courses) {
		return courses
	}
	return nil
}

// CachedVideos returns a course's cached video list, nil when absent.
func (s *CatalogService) CachedVideos(courseID int) []domain.Video {
	var videos []domain.Video
	if s.store.GetCatalog(VideosKey(courseID), &videos) {
		return videos
	}
	return nil
}

// CachedCategories returns the cached category list, nil when absent.
func (s *CatalogService) CachedCategories() []domain.Category {
	var categories []domain.Category
	if s.store.GetCatalog(KeyCategories, &categories) {
		return categories
	}
	return nil
}

// Refresh clears the whole catalog cache so every subsequent read
// refetches from the server.
func (s *CatalogService) Refresh() {
	s.store.ClearCatalog()
	s.logger.Info("cleared catalog cache")
}
