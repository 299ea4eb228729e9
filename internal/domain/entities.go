package domain

import "fmt"

// LocalizedText holds a bilingual string as served by the catalog API.
type LocalizedText struct {
	EN string `json:"en"`
	TR string `json:"tr"`
}

// Get returns the text for the given language code, falling back to English.
func (t LocalizedText) Get(lang string) string {
	if lang == "tr" && t.TR != "" {
		return t.TR
	}
	if t.EN != "" {
		return t.EN
	}
	return t.TR
}

// Category represents a catalog category. Categories form a shallow tree
// via ParentID; top-level categories have ParentID == 0.
type Category struct {
	ID       int           `json:"id"`
	Slug     string        `json:"slug"`
	Title    LocalizedText `json:"title"`
	Icon     string        `json:"icon"`
	ParentID int           `json:"parentId,omitempty"`
}

// Course represents a course in the catalog.
type Course struct {
	ID          int           `json:"id"`
	CategoryID  int           `json:"categoryId"`
	Slug        string        `json:"slug"`
	Title       LocalizedText `json:"title"`
	Description LocalizedText `json:"description"`
	Thumbnail   string        `json:"thumbnail"`
	TotalVideos int           `json:"totalVideos"`
	Protected   bool          `json:"protected,omitempty"`
	AuthURL     string        `json:"authUrl,omitempty"`
}

// Video represents a single YouTube-backed video within a course.
// Duration is in seconds. Lists from the API arrive ordered by SequenceOrder.
type Video struct {
	ID            int           `json:"id"`
	CourseID      int           `json:"courseId"`
	Title         LocalizedText `json:"title"`
	Description   LocalizedText `json:"description"`
	YoutubeID     string        `json:"youtubeId"`
	Duration      int           `json:"duration"`
	SequenceOrder int           `json:"sequenceOrder"`
}

// WatchURL returns the plain YouTube URL for the video.
func (v Video) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + v.YoutubeID
}

// FormattedDuration returns the duration in a human-readable format.
func (v Video) FormattedDuration() string {
	h := v.Duration / 3600
	m := (v.Duration % 3600) / 60
	s := v.Duration % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// Document represents a downloadable course document.
type Document struct {
	ID       int           `json:"id"`
	CourseID int           `json:"courseId"`
	Title    LocalizedText `json:"title"`
	FileURL  string        `json:"fileUrl"`
	FileType string        `json:"fileType"`
}

// Result types for search entries.
const (
	ResultTypeCourse = "course"
	ResultTypeVideo  = "video"
)

// SearchResult is a single entry in a merged search result set.
// Course entries precede their own matching video entries; the set is
// deduplicated by (Type, ID).
type SearchResult struct {
	Type         string        `json:"type"`
	ID           int           `json:"id"`
	Title        LocalizedText `json:"title"`
	URL          string        `json:"url"`
	Relevance    float64       `json:"relevance"`
	CourseID     int           `json:"courseId,omitempty"`
	CourseName   string        `json:"courseName,omitempty"`
	CourseSlug   string        `json:"courseSlug,omitempty"`
	CategoryName string        `json:"categoryName,omitempty"`
}

// Key returns the dedup key for the result.
func (r SearchResult) Key() string {
	return fmt.Sprintf("%s:%d", r.Type, r.ID)
}

// ProgressRecord is the persisted per-video watch state, keyed by
// "<courseID>-<videoID>". The local copy is authoritative for rendering;
// a backend shadow copy, when configured, is best-effort only.
type ProgressRecord struct {
	LastPositionSeconds float64 `json:"lastPositionSeconds"`
	Completed           bool    `json:"completed"`
	Watched             bool    `json:"watched"`
}

// ProgressKey builds the store key for a course/video pair.
func ProgressKey(courseID, videoID int) string {
	return fmt.Sprintf("%d-%d", courseID, videoID)
}

// WatchStatus returns the status implied by the record. Completed implies
// fully watched regardless of the stored position.
func (p ProgressRecord) WatchStatus() WatchStatus {
	switch {
	case p.Completed:
		return WatchStatusWatched
	case p.Watched:
		return WatchStatusInProgress
	default:
		return WatchStatusUnwatched
	}
}

// CourseProgress summarizes watch state across a course's videos.
type CourseProgress struct {
	CourseID       int
	TotalVideos    int
	CompletedCount int
	StartedCount   int
	Positions      map[int]float64 // videoID -> last position in seconds
}

// PercentComplete returns the completed fraction as a 0-100 percentage.
func (c CourseProgress) PercentComplete() int {
	if c.TotalVideos <= 0 {
		return 0
	}
	pct := c.CompletedCount * 100 / c.TotalVideos
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Preferences holds persisted UI preferences.
type Preferences struct {
	Language string `json:"language"` // "en" or "tr"
	Theme    string `json:"theme"`    // "light" or "dark"
}

// WatchStatus represents the viewing state of a video or course.
type WatchStatus int

const (
	WatchStatusUnwatched WatchStatus = iota
	WatchStatusInProgress
	WatchStatusWatched
)

// String returns a human-readable representation of the watch status.
func (w WatchStatus) String() string {
	switch w {
	case WatchStatusUnwatched:
		return "Unwatched"
	case WatchStatusInProgress:
		return "In Progress"
	case WatchStatusWatched:
		return "Completed"
	default:
		return "Unknown"
	}
}
