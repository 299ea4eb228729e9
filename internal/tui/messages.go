package tui

import (
	"time"

	"github.com/akademi/akademi/internal/domain"
)

// tickMsg drives the 1-second progress tracking loop.
type tickMsg time.Time

// searchDebounceMsg fires after the debounce window; Seq pairs it with the
// keystroke that scheduled it so stale timers are ignored.
type searchDebounceMsg struct {
	Seq int
}

type categoriesLoadedMsg struct {
	Categories []domain.Category
}

type coursesLoadedMsg struct {
	Courses []domain.Course
}

type courseContentLoadedMsg struct {
	Course    domain.Course
	Videos    []domain.Video
	Documents []domain.Document
}

type searchResultsMsg struct {
	Query   string
	Results []domain.SearchResult
}

type loginResultMsg struct {
	Course domain.Course
	Err    error
}

type errMsg struct {
	Err error
}
