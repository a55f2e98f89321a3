package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/globlecampus/campus-api/internal/models"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
)

const transactionColumns = `id, user_id, amount, type, description, material_id, reference, created_at`

// LedgerEntry describes a single balance mutation request.
type LedgerEntry struct {
	UserID      string
	Amount      float64
	Description string
	MaterialID  *string
	Reference   string
}

// LedgerRepository mutates GC-Token balances. Every mutation updates the
// profile balance and appends a gc_transactions row inside one database
// transaction, so the balance always equals the signed sum of the ledger.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository constructs a LedgerRepository.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Award credits tokens to a user. When the entry carries a reference that
// already exists the call is a no-op returning the existing transaction,
// which makes retries and racing moderators safe.
func (r *LedgerRepository) Award(ctx context.Context, entry LedgerEntry) (*models.Transaction, bool, error) {
	if entry.Amount <= 0 {
		return nil, false, fmt.Errorf("award amount must be positive, got %v", entry.Amount)
	}
	return r.apply(ctx, entry, models.TransactionEarned, entry.Amount)
}

// Spend debits tokens from a user. The balance precondition is enforced at
// write time with a conditional update; a losing race surfaces as an
// insufficient-balance error instead of a negative balance.
func (r *LedgerRepository) Spend(ctx context.Context, entry LedgerEntry) (*models.Transaction, bool, error) {
	if entry.Amount <= 0 {
		return nil, false, fmt.Errorf("spend amount must be positive, got %v", entry.Amount)
	}
	return r.apply(ctx, entry, models.TransactionSpent, -entry.Amount)
}

func (r *LedgerRepository) apply(ctx context.Context, entry LedgerEntry, txType models.TransactionType, signedAmount float64) (*models.Transaction, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin ledger tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if entry.Reference != "" {
		existing, err := findTransactionByReference(ctx, tx, entry.Reference)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, false, err
		}
		if existing != nil {
			return existing, false, nil
		}
	}

	var result sql.Result
	if txType == models.TransactionSpent {
		const debit = `UPDATE profiles SET gc_token_balance = gc_token_balance + $2, updated_at = $3
            WHERE id = $1 AND trashed_at IS NULL AND gc_token_balance >= $4`
		result, err = tx.ExecContext(ctx, debit, entry.UserID, signedAmount, time.Now().UTC(), entry.Amount)
	} else {
		const credit = `UPDATE profiles SET gc_token_balance = gc_token_balance + $2, updated_at = $3
            WHERE id = $1 AND trashed_at IS NULL`
		result, err = tx.ExecContext(ctx, credit, entry.UserID, signedAmount, time.Now().UTC())
	}
	if err != nil {
		return nil, false, fmt.Errorf("update balance: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("update balance: %w", err)
	}
	if affected == 0 {
		if txType == models.TransactionSpent {
			exists, err := profileSpendable(ctx, tx, entry.UserID)
			if err != nil {
				return nil, false, err
			}
			if exists {
				return nil, false, appErrors.ErrInsufficientTokens
			}
		}
		return nil, false, sql.ErrNoRows
	}

	transaction := &models.Transaction{
		ID:          uuid.NewString(),
		UserID:      entry.UserID,
		Amount:      signedAmount,
		Type:        txType,
		Description: entry.Description,
		MaterialID:  entry.MaterialID,
		CreatedAt:   time.Now().UTC(),
	}
	if entry.Reference != "" {
		ref := entry.Reference
		transaction.Reference = &ref
	}

	const insert = `INSERT INTO gc_transactions (id, user_id, amount, type, description, material_id, reference, created_at)
        VALUES (:id, :user_id, :amount, :type, :description, :material_id, :reference, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, transaction); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && entry.Reference != "" {
			// A concurrent writer committed the same reference first.
			// Roll back the balance update and return their row.
			_ = tx.Rollback()
			existing, ferr := r.FindByReference(ctx, entry.Reference)
			if ferr != nil {
				return nil, false, ferr
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("insert transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit ledger tx: %w", err)
	}
	return transaction, true, nil
}

// FindByReference resolves a transaction by its idempotency key.
func (r *LedgerRepository) FindByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM gc_transactions WHERE reference = $1 LIMIT 1`, transactionColumns)
	var transaction models.Transaction
	if err := r.db.GetContext(ctx, &transaction, query, reference); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find transaction by reference: %w", err)
	}
	return &transaction, nil
}

// History lists a user's transactions newest-first with total count.
func (r *LedgerRepository) History(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, int, error) {
	baseQuery := `FROM gc_transactions WHERE user_id = $1`
	args := []interface{}{filter.UserID}

	if filter.Type != nil {
		baseQuery += fmt.Sprintf(" AND type = $%d", len(args)+1)
		args = append(args, *filter.Type)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		transactionColumns, baseQuery, pageSize, offset)

	var transactions []models.Transaction
	if err := r.db.SelectContext(ctx, &transactions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + baseQuery
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}
	return transactions, total, nil
}

// Recent returns the newest transactions for a user without pagination.
func (r *LedgerRepository) Recent(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 50 {
		limit = 5
	}
	query := fmt.Sprintf(`SELECT %s FROM gc_transactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, transactionColumns)
	var transactions []models.Transaction
	if err := r.db.SelectContext(ctx, &transactions, query, userID, limit); err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	return transactions, nil
}

// Balance reads the current token balance for a user.
func (r *LedgerRepository) Balance(ctx context.Context, userID string) (float64, error) {
	const query = `SELECT gc_token_balance FROM profiles WHERE id = $1 LIMIT 1`
	var balance float64
	if err := r.db.GetContext(ctx, &balance, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return 0, err
		}
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}

func findTransactionByReference(ctx context.Context, tx *sqlx.Tx, reference string) (*models.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM gc_transactions WHERE reference = $1 LIMIT 1`, transactionColumns)
	var transaction models.Transaction
	if err := tx.GetContext(ctx, &transaction, query, reference); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find transaction by reference: %w", err)
	}
	return &transaction, nil
}

func profileSpendable(ctx context.Context, tx *sqlx.Tx, userID string) (bool, error) {
	const query = `SELECT 1 FROM profiles WHERE id = $1 AND trashed_at IS NULL LIMIT 1`
	var exists int
	if err := tx.GetContext(ctx, &exists, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check profile: %w", err)
	}
	return true, nil
}
