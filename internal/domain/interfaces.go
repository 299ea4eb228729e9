package domain

import "context"

// CatalogClient provides network access to the catalog API.
type CatalogClient interface {
	Categories(ctx context.Context) ([]Category, error)
	CategoryBySlug(ctx context.Context, slug string) (*Category, error)
	Courses(ctx context.Context) ([]Course, error)
	CourseBySlug(ctx context.Context, slug string) (*Course, error)
	Videos(ctx context.Context, courseID int) ([]Video, error)
	Documents(ctx context.Context, courseID int) ([]Document, error)
}

// SearchClient provides the server-side fallback search.
type SearchClient interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// AuthClient gates access to protected courses.
type AuthClient interface {
	Login(ctx context.Context, username, password, authURL string) error
}

// ProgressSink receives best-effort progress upserts for the server-side
// shadow copy. Implementations must not be relied on for UI state.
type ProgressSink interface {
	SaveProgress(ctx context.Context, courseID, videoID int, lastPosition float64, completed bool) error
}

// Store is the local persistent store. Catalog reads are fail-open: a
// missing, expired, or corrupt entry is simply a miss, and writes that
// fail are swallowed so that playback tracking can never crash on a
// storage fault.
type Store interface {
	// === Catalog cache (24h TTL) ===
	GetCatalog(key string, dest interface{}) bool
	SaveCatalog(key string, value interface{})
	DeleteCatalogPrefix(prefix string)
	ClearCatalog()

	// === Watch progress (no expiry) ===
	Progress(courseID, videoID int) (ProgressRecord, bool)
	SaveProgress(courseID, videoID int, rec ProgressRecord)
	AllProgress() map[string]ProgressRecord
	ResetProgress()

	// === UI preferences ===
	Preferences() Preferences
	SavePreferences(prefs Preferences)

	Close() error
}
