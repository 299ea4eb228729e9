package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/akademi/akademi/internal/domain"
	"github.com/akademi/akademi/internal/playback"
	"github.com/akademi/akademi/internal/player"
	"github.com/akademi/akademi/internal/search"
	"github.com/akademi/akademi/internal/service"
)

// searchDebounce is how long keystrokes settle before the engine runs.
const searchDebounce = 300 * time.Millisecond

type view int

const (
	viewCategories view = iota
	viewCourses
	viewVideos
	viewSearch
	viewLogin
)

// progressEvent carries the latest tracker progress callback to the view.
type progressEvent struct {
	videoID     int
	currentTime float64
	duration    float64
	percent     int
}

// trackerEvents collects callback output emitted during a single Tick so
// Update can apply it after the tracker returns. The pointer is shared
// across model copies.
type trackerEvents struct {
	progress  *progressEvent
	completed []int
	advance   *int
}

func (e *trackerEvents) reset() {
	e.progress = nil
	e.completed = nil
	e.advance = nil
}

// Model is the bubbletea application model.
type Model struct {
	catalog  *service.CatalogService
	progress *service.ProgressService
	engine   *search.Engine
	auth     domain.AuthClient
	launcher *player.Launcher
	probe    playback.Player
	store    domain.Store
	logger   *slog.Logger

	playbackCfg playback.Config

	view    view
	width   int
	height  int
	lang    string
	loading bool
	err     error
	retry   tea.Cmd

	spin spinner.Model

	// Browse state
	categories     []domain.Category
	courses        []domain.Course
	visibleCourses []domain.Course
	activeCategory *domain.Category
	cursor         int

	// Course state
	course       domain.Course
	videos       []domain.Video
	documents    []domain.Document
	tracker      *playback.Tracker
	events       *trackerEvents
	playingIndex int
	lastProgress *progressEvent
	showOverlay  bool

	// Quick filter (current list only)
	filterInput  textinput.Model
	filterActive bool
	filtered     []search.FilterResult

	// Search state
	searchInput   textinput.Model
	searchSeq     int
	searchQuery   string
	searchResults []domain.SearchResult
	searchCursor  int

	// Login state
	loginUser     textinput.Model
	loginPass     textinput.Model
	loginFocus    int
	loginErr      error
	pendingCourse domain.Course
	unlocked      map[int]bool
}

// New creates the application model.
func New(
	catalog *service.CatalogService,
	progress *service.ProgressService,
	engine *search.Engine,
	auth domain.AuthClient,
	launcher *player.Launcher,
	probe playback.Player,
	store domain.Store,
	playbackCfg playback.Config,
	logger *slog.Logger,
) Model {
	if logger == nil {
		logger = slog.Default()
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	searchInput := textinput.New()
	searchInput.Placeholder = "Search courses and videos..."
	searchInput.CharLimit = 80

	filterInput := textinput.New()
	filterInput.Placeholder = "Filter..."
	filterInput.CharLimit = 80

	loginUser := textinput.New()
	loginUser.Placeholder = "Username"
	loginPass := textinput.New()
	loginPass.Placeholder = "Password"
	loginPass.EchoMode = textinput.EchoPassword

	prefs := store.Preferences()

	return Model{
		catalog:      catalog,
		progress:     progress,
		engine:       engine,
		auth:         auth,
		launcher:     launcher,
		probe:        probe,
		store:        store,
		logger:       logger,
		playbackCfg:  playbackCfg,
		view:         viewCategories,
		lang:         prefs.Language,
		loading:      true,
		spin:         sp,
		searchInput:  searchInput,
		filterInput:  filterInput,
		loginUser:    loginUser,
		loginPass:    loginPass,
		events:       &trackerEvents{},
		playingIndex: -1,
		unlocked:     make(map[int]bool),
	}
}

// Init starts the category load and the tracking tick loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.loadCategoriesCmd(), tickCmd())
}

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.FocusMsg:
		if m.tracker != nil {
			m.tracker.SetVisible(true)
		}
		return m, nil

	case tea.BlurMsg:
		if m.tracker != nil {
			m.tracker.SetVisible(false)
		}
		return m, nil

	case tickMsg:
		return m.handleTick(time.Time(msg))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case categoriesLoadedMsg:
		m.loading = false
		m.err = nil
		m.categories = msg.Categories
		m.cursor = 0
		return m, nil

	case coursesLoadedMsg:
		m.loading = false
		m.err = nil
		m.courses = msg.Courses
		m.visibleCourses = m.filterByCategory(msg.Courses)
		m.cursor = 0
		return m, nil

	case courseContentLoadedMsg:
		return m.enterCourse(msg)

	case searchResultsMsg:
		if msg.Query == m.searchInput.Value() {
			m.searchQuery = msg.Query
			m.searchResults = msg.Results
			m.searchCursor = 0
		}
		return m, nil

	case searchDebounceMsg:
		if msg.Seq == m.searchSeq && len(m.searchInput.Value()) >= search.MinQueryLength {
			return m, m.searchCmd(m.searchInput.Value())
		}
		return m, nil

	case loginResultMsg:
		return m.handleLoginResult(msg)

	case errMsg:
		m.loading = false
		m.err = msg.Err
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleTick drives the progress state machine and drains its callbacks.
func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	if m.tracker == nil {
		return m, tickCmd()
	}

	m.events.reset()
	m.tracker.Tick(now)

	if ev := m.events.progress; ev != nil {
		m.lastProgress = ev
	}
	if len(m.events.completed) > 0 {
		m.showOverlay = true
	}
	if next := m.events.advance; next != nil {
		m = m.playVideo(*next)
	}

	return m, tickCmd()
}

// handleKey routes key presses per view.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Text-entry views swallow most keys.
	switch m.view {
	case viewSearch:
		return m.handleSearchKey(msg)
	case viewLogin:
		return m.handleLoginKey(msg)
	}

	if m.filterActive {
		return m.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Retry):
		if m.err != nil && m.retry != nil {
			m.err = nil
			m.loading = true
			return m, m.retry
		}

	case key.Matches(msg, keys.Refresh):
		m.catalog.Refresh()
		m.loading = true
		return m, m.reloadCmd()

	case key.Matches(msg, keys.Language):
		return m.toggleLanguage()

	case key.Matches(msg, keys.Search):
		m.view = viewSearch
		m.searchInput.SetValue("")
		m.searchResults = nil
		m.searchCursor = 0
		return m, m.searchInput.Focus()

	case key.Matches(msg, keys.Filter):
		if m.view == viewCourses || m.view == viewVideos {
			m.filterActive = true
			m.filterInput.SetValue("")
			m.filtered = nil
			return m, m.filterInput.Focus()
		}

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, keys.Down):
		if m.cursor < m.listLen()-1 {
			m.cursor++
		}

	case key.Matches(msg, keys.Enter):
		return m.handleEnter()

	case key.Matches(msg, keys.Back):
		return m.handleBack()
	}

	return m, nil
}

func (m Model) listLen() int {
	switch m.view {
	case viewCategories:
		return len(m.categories)
	case viewCourses:
		return len(m.visibleCourses)
	case viewVideos:
		return len(m.videos)
	}
	return 0
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	switch m.view {
	case viewCategories:
		if m.cursor >= len(m.categories) {
			return m, nil
		}
		cat := m.categories[m.cursor]
		m.activeCategory = &cat
		m.view = viewCourses
		m.loading = true
		m.retry = m.loadCoursesCmd()
		return m, m.retry

	case viewCourses:
		if m.cursor >= len(m.visibleCourses) {
			return m, nil
		}
		course := m.visibleCourses[m.cursor]
		return m.openCourse(course)

	case viewVideos:
		if m.cursor >= len(m.videos) {
			return m, nil
		}
		m = m.playVideo(m.cursor)
		return m, nil
	}
	return m, nil
}

func (m Model) handleBack() (tea.Model, tea.Cmd) {
	switch m.view {
	case viewCourses:
		m.view = viewCategories
		m.activeCategory = nil
		m.cursor = 0
	case viewVideos:
		if m.tracker != nil {
			m.tracker.Deactivate()
			m.tracker = nil
		}
		m.lastProgress = nil
		m.showOverlay = false
		m.playingIndex = -1
		m.view = viewCourses
		m.cursor = 0
	}
	return m, nil
}

// openCourse routes a protected course through the login view.
func (m Model) openCourse(course domain.Course) (tea.Model, tea.Cmd) {
	if course.Protected && !m.unlocked[course.ID] {
		m.view = viewLogin
		m.pendingCourse = course
		m.loginErr = nil
		m.loginUser.SetValue("")
		m.loginPass.SetValue("")
		m.loginFocus = 0
		m.loginPass.Blur()
		return m, m.loginUser.Focus()
	}

	m.loading = true
	m.retry = m.loadCourseContentCmd(course)
	return m, m.retry
}

func (m Model) enterCourse(msg courseContentLoadedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	m.err = nil
	m.course = msg.Course
	m.videos = msg.Videos
	m.documents = msg.Documents
	m.view = viewVideos
	m.cursor = 0
	m.playingIndex = -1
	m.lastProgress = nil
	m.showOverlay = false

	ev := m.events
	cb := playback.Callbacks{
		OnProgress: func(videoID int, currentTime, duration float64, percent int) {
			ev.progress = &progressEvent{
				videoID:     videoID,
				currentTime: currentTime,
				duration:    duration,
				percent:     percent,
			}
		},
		OnComplete: func(videoID int) {
			ev.completed = append(ev.completed, videoID)
		},
		OnAdvance: func(next int) {
			ev.advance = &next
		},
	}
	m.tracker = playback.NewTracker(msg.Course.ID, msg.Videos, m.probe, m.progress, cb, m.playbackCfg, m.logger)

	return m, nil
}

// playVideo activates tracking for the video at index and hands the URL to
// the external player at the resume offset.
func (m Model) playVideo(index int) Model {
	if m.tracker == nil || index < 0 || index >= len(m.videos) {
		return m
	}

	m.tracker.Activate(index)
	m.playingIndex = index
	m.cursor = index
	m.showOverlay = false
	m.lastProgress = nil

	video := m.videos[index]
	if err := m.launcher.Launch(video.WatchURL(), m.tracker.StartPosition()); err != nil {
		m.logger.Warn("player launch failed", "videoID", video.ID, "error", err)
	}
	return m
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.view = m.viewAfterSearch()
		m.searchInput.Blur()
		return m, nil

	case "enter":
		if m.searchCursor < len(m.searchResults) {
			return m.openSearchResult(m.searchResults[m.searchCursor])
		}
		return m, nil

	case "up":
		if m.searchCursor > 0 {
			m.searchCursor--
		}
		return m, nil

	case "down":
		if m.searchCursor < len(m.searchResults)-1 {
			m.searchCursor++
		}
		return m, nil
	}

	var cmd tea.Cmd
	before := m.searchInput.Value()
	m.searchInput, cmd = m.searchInput.Update(msg)

	if m.searchInput.Value() != before {
		m.searchSeq++
		if len(m.searchInput.Value()) < search.MinQueryLength {
			m.searchResults = nil
			return m, cmd
		}
		return m, tea.Batch(cmd, debounceCmd(m.searchSeq))
	}
	return m, cmd
}

func (m Model) viewAfterSearch() view {
	if m.activeCategory != nil {
		return viewCourses
	}
	return viewCategories
}

// openSearchResult navigates to the course behind a result; video results
// open their parent course.
func (m Model) openSearchResult(result domain.SearchResult) (tea.Model, tea.Cmd) {
	m.searchInput.Blur()

	courseID := result.ID
	if result.Type == domain.ResultTypeVideo {
		courseID = result.CourseID
	}
	for _, course := range m.courses {
		if course.ID == courseID {
			m.view = m.viewAfterSearch()
			return m.openCourse(course)
		}
	}

	// Course not in the cached list (server-only hit): resolve by slug.
	if result.CourseSlug != "" {
		m.loading = true
		m.view = m.viewAfterSearch()
		slug := result.CourseSlug
		m.retry = func() tea.Msg {
			return m.resolveCourseBySlug(slug)
		}
		return m, m.retry
	}

	m.view = m.viewAfterSearch()
	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filterActive = false
		m.filtered = nil
		m.filterInput.Blur()
		return m, nil

	case "enter":
		if len(m.filtered) > 0 {
			m.cursor = m.filtered[0].Index
		}
		m.filterActive = false
		m.filtered = nil
		m.filterInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.filtered = m.filterIndex().Filter(m.filterInput.Value())
	return m, cmd
}

// filterIndex builds the quick-filter index for the visible list.
func (m Model) filterIndex() *search.FilterIndex {
	var items []search.FilterItem
	switch m.view {
	case viewCourses:
		for i, c := range m.visibleCourses {
			items = append(items, search.FilterItem{
				Title: c.Title.Get(m.lang),
				Kind:  domain.ResultTypeCourse,
				ID:    c.ID,
				Index: i,
			})
		}
	case viewVideos:
		for i, v := range m.videos {
			items = append(items, search.FilterItem{
				Title: v.Title.Get(m.lang),
				Kind:  domain.ResultTypeVideo,
				ID:    v.ID,
				Index: i,
			})
		}
	}
	return search.NewFilterIndex(items)
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.view = viewCourses
		return m, nil

	case "tab", "shift+tab":
		m.loginFocus = 1 - m.loginFocus
		if m.loginFocus == 0 {
			m.loginPass.Blur()
			return m, m.loginUser.Focus()
		}
		m.loginUser.Blur()
		return m, m.loginPass.Focus()

	case "enter":
		if m.loginFocus == 0 {
			m.loginFocus = 1
			m.loginUser.Blur()
			return m, m.loginPass.Focus()
		}
		return m, m.loginCmd(m.pendingCourse, m.loginUser.Value(), m.loginPass.Value())
	}

	var cmd tea.Cmd
	if m.loginFocus == 0 {
		m.loginUser, cmd = m.loginUser.Update(msg)
	} else {
		m.loginPass, cmd = m.loginPass.Update(msg)
	}
	return m, cmd
}

func (m Model) handleLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.loginErr = msg.Err
		return m, nil
	}

	m.unlocked[msg.Course.ID] = true
	m.view = viewCourses
	m.loading = true
	m.retry = m.loadCourseContentCmd(msg.Course)
	return m, m.retry
}

func (m Model) toggleLanguage() (tea.Model, tea.Cmd) {
	if m.lang == "tr" {
		m.lang = "en"
	} else {
		m.lang = "tr"
	}
	prefs := m.store.Preferences()
	prefs.Language = m.lang
	m.store.SavePreferences(prefs)
	return m, nil
}

func (m Model) filterByCategory(courses []domain.Course) []domain.Course {
	if m.activeCategory == nil {
		return courses
	}
	var out []domain.Course
	for _, c := range courses {
		if c.CategoryID == m.activeCategory.ID {
			out = append(out, c)
		}
	}
	return out
}

// reloadCmd refetches whatever the current view shows.
func (m Model) reloadCmd() tea.Cmd {
	switch m.view {
	case viewCourses:
		return m.loadCoursesCmd()
	case viewVideos:
		return m.loadCourseContentCmd(m.course)
	default:
		return m.loadCategoriesCmd()
	}
}

func (m Model) resolveCourseBySlug(slug string) tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	course, err := m.catalog.CourseBySlug(ctx, slug)
	if err != nil {
		return errMsg{Err: err}
	}
	if course == nil {
		return errMsg{Err: domain.ErrNotFound}
	}

	videos, err := m.catalog.Videos(ctx, course.ID)
	if err != nil {
		return errMsg{Err: err}
	}
	documents, _ := m.catalog.Documents(ctx, course.ID)

	return courseContentLoadedMsg{Course: *course, Videos: videos, Documents: documents}
}
