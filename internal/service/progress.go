package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/akademi/akademi/internal/domain"
)

const sinkTimeout = 10 * time.Second

// ProgressService owns persisted watch progress. The local store is
// authoritative; when a sink is configured each write is also forwarded
// to the backend fire-and-forget.
type ProgressService struct {
	store  domain.Store
	sink   domain.ProgressSink // optional
	logger *slog.Logger

	// report forwards a record to the sink; tests replace it to run
	// synchronously.
	report func(courseID, videoID int, rec domain.ProgressRecord)
}

// NewProgressService creates a new progress service. sink may be nil.
func NewProgressService(store domain.Store, sink domain.ProgressSink, logger *slog.Logger) *ProgressService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ProgressService{
		store:  store,
		sink:   sink,
		logger: logger,
	}
	s.report = func(courseID, videoID int, rec domain.ProgressRecord) {
		go s.reportToSink(courseID, videoID, rec)
	}
	return s
}

// SetVideoProgress records the playback position for a course/video pair.
func (s *ProgressService) SetVideoProgress(courseID, videoID int, currentTime float64) {
	rec, _ := s.store.Progress(courseID, videoID)
	rec.LastPositionSeconds = currentTime
	s.store.SaveProgress(courseID, videoID, rec)
	s.report(courseID, videoID, rec)
}

// MarkVideoComplete latches the completed flag for a course/video pair.
func (s *ProgressService) MarkVideoComplete(courseID, videoID int) {
	rec, _ := s.store.Progress(courseID, videoID)
	rec.Completed = true
	s.store.SaveProgress(courseID, videoID, rec)
	s.report(courseID, videoID, rec)
}

// IsVideoComplete reports whether the pair has crossed the completion
// threshold in any session.
func (s *ProgressService) IsVideoComplete(courseID, videoID int) bool {
	rec, ok := s.store.Progress(courseID, videoID)
	return ok && rec.Completed
}

// VideoProgress returns the record for a pair, zero-valued when absent.
func (s *ProgressService) VideoProgress(courseID, videoID int) domain.ProgressRecord {
	rec, _ := s.store.Progress(courseID, videoID)
	return rec
}

// ResumePosition returns the offset playback should start from. Replay of
// a completed video starts over.
func (s *ProgressService) ResumePosition(courseID, videoID int) float64 {
	rec, ok := s.store.Progress(courseID, videoID)
	if !ok || rec.Completed {
		return 0
	}
	return rec.LastPositionSeconds
}

// CourseProgress aggregates per-video records into a course summary.
func (s *ProgressService) CourseProgress(courseID, totalVideos int) domain.CourseProgress {
	summary := domain.CourseProgress{
		CourseID:    courseID,
		TotalVideos: totalVideos,
		Positions:   make(map[int]float64),
	}

	for key, rec := range s.store.AllProgress() {
		var cID, vID int
		if !parseProgressKey(key, &cID, &vID) || cID != courseID {
			continue
		}
		summary.Positions[vID] = rec.LastPositionSeconds
		if rec.Watched {
			summary.StartedCount++
		}
		if rec.Completed {
			summary.CompletedCount++
		}
	}

	return summary
}

// Reset wipes all local progress.
func (s *ProgressService) Reset() {
	s.store.ResetProgress()
	s.logger.Info("reset local progress")
}

func (s *ProgressService) reportToSink(courseID, videoID int, rec domain.ProgressRecord) {
	if s.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()

	err := s.sink.SaveProgress(ctx, courseID, videoID, rec.LastPositionSeconds, rec.Completed)
	if err != nil {
		s.logger.Debug("progress sink write failed", "courseID", courseID, "videoID", videoID, "error", err)
	}
}

// parseProgressKey splits a "<courseID>-<videoID>" store key.
func parseProgressKey(key string, courseID, videoID *int) bool {
	left, right, found := strings.Cut(key, "-")
	if !found {
		return false
	}
	c, err1 := strconv.Atoi(left)
	v, err2 := strconv.Atoi(right)
	if err1 != nil || err2 != nil {
		return false
	}
	*courseID, *videoID = c, v
	return true
}
