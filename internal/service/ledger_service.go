package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/globlecampus/campus-api/internal/models"
	"github.com/globlecampus/campus-api/internal/repository"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
)

type ledgerRepository interface {
	Award(ctx context.Context, entry repository.LedgerEntry) (*models.Transaction, bool, error)
	Spend(ctx context.Context, entry repository.LedgerEntry) (*models.Transaction, bool, error)
	History(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, int, error)
	Recent(ctx context.Context, userID string, limit int) ([]models.Transaction, error)
	Balance(ctx context.Context, userID string) (float64, error)
}

// LedgerService exposes the GC-Token ledger to the rest of the application.
type LedgerService struct {
	repo    ledgerRepository
	metrics *MetricsService
	logger  *zap.Logger
}

// NewLedgerService constructs a LedgerService. A nil metrics service
// disables movement counters.
func NewLedgerService(repo ledgerRepository, metrics *MetricsService, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{repo: repo, metrics: metrics, logger: logger}
}

// Award credits tokens. Returns the transaction and whether this call
// created it (false when the idempotency key already matched).
func (s *LedgerService) Award(ctx context.Context, entry repository.LedgerEntry) (*models.Transaction, bool, error) {
	transaction, created, err := s.repo.Award(ctx, entry)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to award tokens")
	}
	if created {
		s.metrics.RecordTokens(string(models.TransactionEarned), entry.Amount)
		s.logger.Info("tokens awarded",
			zap.String("user_id", entry.UserID),
			zap.Float64("amount", entry.Amount),
			zap.String("reference", entry.Reference))
	}
	return transaction, created, nil
}

// Spend debits tokens, surfacing the typed insufficient-balance error.
func (s *LedgerService) Spend(ctx context.Context, entry repository.LedgerEntry) (*models.Transaction, error) {
	transaction, _, err := s.repo.Spend(ctx, entry)
	if err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrInsufficientTokens.Code {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to spend tokens")
	}
	s.metrics.RecordTokens(string(models.TransactionSpent), entry.Amount)
	return transaction, nil
}

// History lists a user's transactions with pagination metadata.
func (s *LedgerService) History(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, *models.Pagination, error) {
	transactions, total, err := s.repo.History(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list transactions")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return transactions, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Recent returns the newest transactions for dashboards.
func (s *LedgerService) Recent(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	transactions, err := s.repo.Recent(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent transactions")
	}
	return transactions, nil
}

// Balance reads a user's current balance.
func (s *LedgerService) Balance(ctx context.Context, userID string) (float64, error) {
	balance, err := s.repo.Balance(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read balance")
	}
	return balance, nil
}
