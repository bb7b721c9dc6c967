package teams

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/hearth-erp/hearth-erp/internal/shared"
)

const (
	dashboardCacheKey = "teams:ledger:dashboard"
	dashboardCacheTTL = 30 * time.Second
)

// Service aggregates what teams are owed against what they were paid.
type Service struct {
	repo    RepositoryPort
	cache   *redis.Client
	logger  *slog.Logger
	printer *message.Printer
}

// NewService builds a Service instance. The cache client may be nil, in
// which case every dashboard read recomputes.
func NewService(repo RepositoryPort, cache *redis.Client, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		cache:   cache,
		logger:  logger,
		printer: message.NewPrinter(language.English),
	}
}

func (s *Service) CreateTeam(ctx context.Context, req CreateTeamRequest) (*Team, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	id, err := s.repo.CreateTeam(ctx, Team{Name: req.Name, Specialty: req.Specialty, Phone: req.Phone})
	if err != nil {
		return nil, err
	}
	return s.repo.GetTeam(ctx, id)
}

func (s *Service) GetTeam(ctx context.Context, id int64) (*Team, error) {
	return s.repo.GetTeam(ctx, id)
}

func (s *Service) ListTeams(ctx context.Context) ([]Team, error) {
	return s.repo.ListTeams(ctx)
}

func (s *Service) ListPayments(ctx context.Context, teamID int64) ([]Payment, error) {
	if _, err := s.repo.GetTeam(ctx, teamID); err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, teamID)
}

// RecordPayment appends a payment to a team. An assignment-scoped payment
// must reference an assignment owned by that team.
func (s *Service) RecordPayment(ctx context.Context, teamID int64, req RecordPaymentRequest) (*Payment, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetTeam(ctx, teamID); err != nil {
		return nil, err
	}
	if req.AssignmentID != nil {
		owner, err := s.repo.AssignmentTeam(ctx, *req.AssignmentID)
		if err != nil {
			return nil, fmt.Errorf("verify assignment: %w", err)
		}
		if owner != teamID {
			return nil, fmt.Errorf("%w: assignment %d belongs to team %d", shared.ErrValidation, *req.AssignmentID, owner)
		}
	}

	payment := Payment{
		TeamID:          teamID,
		AssignmentID:    req.AssignmentID,
		Amount:          req.Amount,
		Method:          req.Method,
		PaidAt:          time.Now(),
		ReferenceNumber: uuid.NewString(),
		Notes:           req.Notes,
	}
	if req.PaidAt != nil {
		payment.PaidAt = *req.PaidAt
	}
	if req.ReferenceNumber != nil && *req.ReferenceNumber != "" {
		payment.ReferenceNumber = *req.ReferenceNumber
	}

	id, err := s.repo.CreatePayment(ctx, payment)
	if err != nil {
		return nil, err
	}
	payment.ID = id

	s.invalidateDashboard(ctx)
	return &payment, nil
}

// Ledger computes a team's balance. The aggregate remaining is clamped at
// zero; the per-assignment lines are not, deliberately mirroring how the
// dashboard and the assignment detail screens disagree on overpayment.
func (s *Service) Ledger(ctx context.Context, teamID int64) (*Ledger, error) {
	team, err := s.repo.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	totalWork, err := s.repo.SumAssignmentPrices(ctx, teamID)
	if err != nil {
		return nil, err
	}
	totalPaid, err := s.repo.SumPayments(ctx, teamID)
	if err != nil {
		return nil, err
	}
	balances, err := s.repo.AssignmentBalances(ctx, teamID)
	if err != nil {
		return nil, err
	}

	remaining := totalWork - totalPaid
	if remaining < 0 {
		remaining = 0
	}
	return &Ledger{
		TeamID:         team.ID,
		TeamName:       team.Name,
		TotalWork:      totalWork,
		TotalPaid:      totalPaid,
		TotalRemaining: remaining,
		Assignments:    balances,
	}, nil
}

// Dashboard returns every team's balance, cached for a short window.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, dashboardCacheKey).Bytes()
		if err == nil {
			var cached Dashboard
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		} else if !errors.Is(err, redis.Nil) && s.logger != nil {
			s.logger.Warn("ledger cache read", slog.Any("error", err))
		}
	}

	totals, err := s.repo.AllTeamTotals(ctx)
	if err != nil {
		return nil, err
	}
	dashboard := &Dashboard{GeneratedAt: time.Now()}
	for _, tt := range totals {
		remaining := tt.TotalWork - tt.TotalPaid
		if remaining < 0 {
			remaining = 0
		}
		dashboard.Rows = append(dashboard.Rows, DashboardRow{
			TeamID:             tt.TeamID,
			TeamName:           tt.TeamName,
			TotalWork:          tt.TotalWork,
			TotalPaid:          tt.TotalPaid,
			TotalRemaining:     remaining,
			FormattedWork:      s.formatAmount(tt.TotalWork),
			FormattedPaid:      s.formatAmount(tt.TotalPaid),
			FormattedRemaining: s.formatAmount(remaining),
		})
	}

	if s.cache != nil {
		if raw, err := json.Marshal(dashboard); err == nil {
			if err := s.cache.Set(ctx, dashboardCacheKey, raw, dashboardCacheTTL).Err(); err != nil && s.logger != nil {
				s.logger.Warn("ledger cache write", slog.Any("error", err))
			}
		}
	}
	return dashboard, nil
}

func (s *Service) formatAmount(v float64) string {
	return s.printer.Sprintf("%.2f", v)
}

func (s *Service) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, dashboardCacheKey).Err(); err != nil && s.logger != nil {
		s.logger.Warn("ledger cache invalidate", slog.Any("error", err))
	}
}
