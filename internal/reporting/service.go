package reporting

import (
	"context"
	"errors"
	"time"

	"dialtrack/internal/contacts"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts read access to the reconciled attempt log. Reads go
// against call_attempts rather than the contact mirror so redialed contacts
// contribute every attempt, not just the latest.
type Repository interface {
	ListAttempts(ctx context.Context, from, to time.Time, userID string) ([]contacts.CallAttempt, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) OutcomesSummary(ctx context.Context, req OutcomesSummaryRequest) (OutcomesSummary, error) {
	if err := validateRange(req.Range); err != nil {
		return OutcomesSummary{}, err
	}
	if s.repo == nil {
		return OutcomesSummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListAttempts(ctx, req.Range.From, req.Range.To, req.UserID)
	if err != nil {
		return OutcomesSummary{}, err
	}

	out := OutcomesSummary{UserID: req.UserID}
	for _, a := range rows {
		out.TotalAttempts++
		if a.Duration != nil {
			out.TotalDurationSeconds += *a.Duration
		}
		if a.RecordingURL != nil && *a.RecordingURL != "" {
			out.RecordedAttempts++
		}
		switch a.Status {
		case contacts.StatusCompleted:
			out.Completed++
			if a.Duration == nil {
				out.UnresolvedDurations++
			}
		case contacts.StatusBusy:
			out.Busy++
		case contacts.StatusNoAnswer:
			out.NoAnswer++
		case contacts.StatusFailed:
			out.Failed++
		case contacts.StatusSwitchedOff:
			out.SwitchedOff++
		case contacts.StatusCancelled:
			out.Cancelled++
		default:
			out.InFlight++
		}
	}
	if out.TotalAttempts > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.TotalAttempts
	}
	return out, nil
}

func (s *Service) Reachability(ctx context.Context, req ReachabilityRequest) (Reachability, error) {
	if err := validateRange(req.Range); err != nil {
		return Reachability{}, err
	}
	if s.repo == nil {
		return Reachability{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListAttempts(ctx, req.Range.From, req.Range.To, req.UserID)
	if err != nil {
		return Reachability{}, err
	}

	out := Reachability{UserID: req.UserID}
	for _, a := range rows {
		if !a.Status.IsTerminal() {
			continue
		}
		out.AttemptsPlaced++
		switch a.Status {
		case contacts.StatusCompleted:
			out.Connected++
		case contacts.StatusBusy, contacts.StatusNoAnswer, contacts.StatusSwitchedOff:
			out.Unreachable++
		}
	}
	if out.AttemptsPlaced > 0 {
		out.ConnectionRate = float64(out.Connected) / float64(out.AttemptsPlaced)
	}
	return out, nil
}

func validateRange(r TimeRange) error {
	if r.From.IsZero() || r.To.IsZero() || !r.To.After(r.From) {
		return ErrInvalidRequest
	}
	return nil
}
