package analytics

import (
	"context"
	"time"

	"eventlogger/internal/storage"
)

type Service struct {
	store *storage.Store
}

func New(store *storage.Store) *Service {
	return &Service{store: store}
}

type Report struct {
	Since       time.Time      `json:"since"`
	Total       int            `json:"total"`
	ByEventType map[string]int `json:"by_event_type"`
}

// Ping reports whether the submission store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) Report(ctx context.Context, since time.Time) (Report, error) {
	counts, err := s.store.CountSubmissionsByType(ctx, since)
	if err != nil {
		return Report{}, err
	}

	report := Report{Since: since, ByEventType: counts}
	for _, count := range counts {
		report.Total += count
	}
	return report, nil
}

// Submissions lists delivered event logs since the given time, newest first.
func (s *Service) Submissions(ctx context.Context, since time.Time) ([]storage.Submission, error) {
	subs, err := s.store.ListSubmissions(ctx, since)
	if subs == nil && err == nil {
		subs = []storage.Submission{}
	}
	return subs, err
}

// AuditTrail lists audit entries since the given time, newest first.
func (s *Service) AuditTrail(ctx context.Context, since time.Time) ([]storage.AuditLog, error) {
	logs, err := s.store.ListAuditLogs(ctx, since)
	if logs == nil && err == nil {
		logs = []storage.AuditLog{}
	}
	return logs, err
}
