package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/globlecampus/campus-api/internal/models"
	"github.com/globlecampus/campus-api/internal/repository"
	appErrors "github.com/globlecampus/campus-api/pkg/errors"
	"github.com/globlecampus/campus-api/pkg/mailer"
)

// fakeLedger is an in-memory stand-in for the transactional ledger. It
// honours the idempotency reference and the non-negative balance rule.
type fakeLedger struct {
	mu       sync.Mutex
	balances map[string]float64
	byRef    map[string]*models.Transaction
	history  []models.Transaction
	awardErr error
	spendErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances: make(map[string]float64),
		byRef:    make(map[string]*models.Transaction),
	}
}

func (f *fakeLedger) Award(_ context.Context, entry repository.LedgerEntry) (*models.Transaction, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.awardErr != nil {
		return nil, false, f.awardErr
	}
	if entry.Reference != "" {
		if existing, ok := f.byRef[entry.Reference]; ok {
			return existing, false, nil
		}
	}
	f.balances[entry.UserID] += entry.Amount
	tx := f.record(entry, models.TransactionEarned, entry.Amount)
	return tx, true, nil
}

func (f *fakeLedger) Spend(_ context.Context, entry repository.LedgerEntry) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.spendErr != nil {
		return nil, f.spendErr
	}
	if f.balances[entry.UserID] < entry.Amount {
		return nil, appErrors.Clone(appErrors.ErrInsufficientTokens, "insufficient balance")
	}
	f.balances[entry.UserID] -= entry.Amount
	tx := f.record(entry, models.TransactionSpent, -entry.Amount)
	return tx, nil
}

func (f *fakeLedger) Balance(_ context.Context, userID string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID], nil
}

func (f *fakeLedger) Recent(_ context.Context, userID string, limit int) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Transaction
	for i := len(f.history) - 1; i >= 0 && len(out) < limit; i-- {
		if f.history[i].UserID == userID {
			out = append(out, f.history[i])
		}
	}
	return out, nil
}

func (f *fakeLedger) record(entry repository.LedgerEntry, txType models.TransactionType, signed float64) *models.Transaction {
	ref := entry.Reference
	tx := &models.Transaction{
		ID:          uuid.NewString(),
		UserID:      entry.UserID,
		Amount:      signed,
		Type:        txType,
		Description: entry.Description,
		MaterialID:  entry.MaterialID,
	}
	if ref != "" {
		tx.Reference = &ref
		f.byRef[ref] = tx
	}
	f.history = append(f.history, *tx)
	return tx
}

func (f *fakeLedger) transactionCount(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, tx := range f.history {
		if tx.UserID == userID {
			n++
		}
	}
	return n
}

// fakeMail captures queued messages instead of delivering them.
type fakeMail struct {
	mu         sync.Mutex
	configured bool
	siteURL    string
	messages   []mailer.Message
	adminMail  []mailer.Message
}

func (f *fakeMail) Configured() bool { return f.configured }
func (f *fakeMail) SiteURL() string  { return f.siteURL }

func (f *fakeMail) Enqueue(msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeMail) EnqueueToAdmin(subject, html string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adminMail = append(f.adminMail, mailer.Message{To: "admin", Subject: subject, HTML: html})
	return nil
}
