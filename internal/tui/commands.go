package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/akademi/akademi/internal/domain"
)

const requestTimeout = 30 * time.Second

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func debounceCmd(seq int) tea.Cmd {
	return tea.Tick(searchDebounce, func(time.Time) tea.Msg {
		return searchDebounceMsg{Seq: seq}
	})
}

func (m *Model) loadCategoriesCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		categories, err := m.catalog.Categories(ctx)
		if err != nil {
			return errMsg{Err: err}
		}
		return categoriesLoadedMsg{Categories: categories}
	}
}

func (m *Model) loadCoursesCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		courses, err := m.catalog.Courses(ctx)
		if err != nil {
			return errMsg{Err: err}
		}
		return coursesLoadedMsg{Courses: courses}
	}
}

func (m *Model) loadCourseContentCmd(course domain.Course) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		videos, err := m.catalog.Videos(ctx, course.ID)
		if err != nil {
			return errMsg{Err: err}
		}

		// Documents are secondary; a failure there should not block the
		// video list.
		documents, err := m.catalog.Documents(ctx, course.ID)
		if err != nil {
			documents = nil
		}

		return courseContentLoadedMsg{Course: course, Videos: videos, Documents: documents}
	}
}

func (m *Model) searchCmd(query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		results, err := m.engine.Search(ctx, query)
		if err != nil {
			return errMsg{Err: err}
		}
		return searchResultsMsg{Query: query, Results: results}
	}
}

func (m *Model) loginCmd(course domain.Course, username, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		err := m.auth.Login(ctx, username, password, course.AuthURL)
		return loginResultMsg{Course: course, Err: err}
	}
}
