package tui

import (
	"fmt"
	"strings"

	"github.com/akademi/akademi/internal/domain"
)

// View renders the current screen.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Akademi"))
	b.WriteString("  ")
	b.WriteString(breadcrumbStyle.Render(m.breadcrumb()))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("r retry • esc back • q quit"))
		return b.String()

	case m.loading:
		b.WriteString(m.spin.View())
		b.WriteString(" Loading...")
		return b.String()
	}

	switch m.view {
	case viewCategories:
		b.WriteString(m.viewCategoryList())
	case viewCourses:
		b.WriteString(m.viewCourseList())
	case viewVideos:
		b.WriteString(m.viewCourseDetail())
	case viewSearch:
		b.WriteString(m.viewSearchScreen())
	case viewLogin:
		b.WriteString(m.viewLoginScreen())
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.helpLine()))
	return b.String()
}

func (m Model) breadcrumb() string {
	parts := []string{"Home"}
	if m.activeCategory != nil {
		parts = append(parts, m.activeCategory.Title.Get(m.lang))
	}
	if m.view == viewVideos {
		parts = append(parts, m.course.Title.Get(m.lang))
	}
	if m.view == viewSearch {
		parts = append(parts, "Search")
	}
	return strings.Join(parts, " › ")
}

func (m Model) helpLine() string {
	switch m.view {
	case viewSearch:
		return "type to search • ↑/↓ select • enter open • esc back"
	case viewLogin:
		return "tab switch field • enter submit • esc cancel"
	case viewVideos:
		if m.filterActive {
			return "type to filter • enter jump • esc cancel"
		}
		return "↑/↓ move • enter play • f filter • / search • esc back • q quit"
	default:
		if m.filterActive {
			return "type to filter • enter jump • esc cancel"
		}
		return "↑/↓ move • enter open • / search • ctrl+r refresh • L language • q quit"
	}
}

func (m Model) viewCategoryList() string {
	if len(m.categories) == 0 {
		return dimStyle.Render("No categories available.")
	}

	var b strings.Builder
	for i, cat := range m.categories {
		line := cat.Title.Get(m.lang)
		if i == m.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewCourseList() string {
	if m.filterActive {
		return m.viewFilterOverlay()
	}
	if len(m.visibleCourses) == 0 {
		return dimStyle.Render("No courses in this category.")
	}

	var b strings.Builder
	for i, course := range m.visibleCourses {
		title := course.Title.Get(m.lang)
		if course.Protected {
			title += " 🔒"
		}

		prog := m.progress.CourseProgress(course.ID, course.TotalVideos)
		suffix := ""
		if pct := prog.PercentComplete(); pct > 0 {
			suffix = dimStyle.Render(fmt.Sprintf("  %d%%", pct))
		}

		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + title))
		} else {
			b.WriteString("  " + title)
		}
		b.WriteString(suffix)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewCourseDetail() string {
	if m.filterActive {
		return m.viewFilterOverlay()
	}

	var b strings.Builder

	if len(m.videos) == 0 {
		b.WriteString(dimStyle.Render("This course has no videos yet."))
		b.WriteString("\n")
	}

	for i, video := range m.videos {
		rec := m.progress.VideoProgress(m.course.ID, video.ID)
		badge := watchBadge(rec.Completed, rec.Watched)

		line := fmt.Sprintf("%s%s %s", badge, video.Title.Get(m.lang), dimStyle.Render(video.FormattedDuration()))
		if i == m.playingIndex {
			line += " " + inProgressBadge.Render("▶")
		}
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	if len(m.documents) > 0 {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("Documents"))
		b.WriteString("\n")
		for _, doc := range m.documents {
			b.WriteString(dimStyle.Render("  • " + doc.Title.Get(m.lang)))
			b.WriteString("\n")
		}
	}

	if m.lastProgress != nil {
		b.WriteString("\n")
		b.WriteString(m.progressBar(*m.lastProgress))
		b.WriteString("\n")
	}

	if m.showOverlay {
		b.WriteString("\n")
		b.WriteString(overlayStyle.Render("Video complete ✓"))
		b.WriteString("\n")
	}

	return b.String()
}

// progressBar renders a live position bar for the video being tracked.
func (m Model) progressBar(ev progressEvent) string {
	const barWidth = 30
	filled := 0
	if ev.duration > 0 {
		filled = int(float64(barWidth) * ev.currentTime / ev.duration)
	}
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	return fmt.Sprintf("%s %3d%%  %s / %s",
		bar, ev.percent,
		formatSeconds(ev.currentTime), formatSeconds(ev.duration))
}

func formatSeconds(s float64) string {
	total := int(s)
	if total < 0 {
		total = 0
	}
	if total >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func (m Model) viewFilterOverlay() string {
	var b strings.Builder
	b.WriteString(m.filterInput.View())
	b.WriteString("\n\n")

	if len(m.filtered) == 0 {
		b.WriteString(dimStyle.Render("No matches."))
		b.WriteString("\n")
		return b.String()
	}

	for i, res := range m.filtered {
		if i >= 10 {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  ... %d more", len(m.filtered)-10)))
			b.WriteString("\n")
			break
		}
		prefix := "  "
		if i == 0 {
			prefix = selectedStyle.Render("> ")
		}
		b.WriteString(prefix + res.Title)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewSearchScreen() string {
	var b strings.Builder
	b.WriteString(m.searchInput.View())
	b.WriteString("\n\n")

	query := m.searchInput.Value()
	switch {
	case len(query) == 0:
		b.WriteString(dimStyle.Render("Type at least 2 characters to search."))
	case len(query) < 2:
		b.WriteString(dimStyle.Render("Keep typing..."))
	case len(m.searchResults) == 0 && m.searchQuery == query:
		b.WriteString(dimStyle.Render("No results for \"" + query + "\"."))
	default:
		for i, res := range m.searchResults {
			b.WriteString(m.renderSearchResult(res, i == m.searchCursor))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderSearchResult(res domain.SearchResult, selected bool) string {
	label := res.Title.Get(m.lang)
	switch res.Type {
	case domain.ResultTypeCourse:
		if res.CategoryName != "" {
			label += dimStyle.Render("  " + res.CategoryName)
		}
	case domain.ResultTypeVideo:
		if res.CourseName != "" {
			label += dimStyle.Render("  " + res.CourseName)
		}
		label = "▸ " + label
	}

	if selected {
		return selectedStyle.Render("> ") + label
	}
	return "  " + label
}

func (m Model) viewLoginScreen() string {
	var b strings.Builder

	title := m.pendingCourse.Title.Get(m.lang)
	b.WriteString("This course requires a login: " + title)
	b.WriteString("\n\n")
	b.WriteString(m.loginUser.View())
	b.WriteString("\n")
	b.WriteString(m.loginPass.View())
	b.WriteString("\n")

	if m.loginErr != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.loginErr.Error()))
		b.WriteString("\n")
	}
	return b.String()
}
