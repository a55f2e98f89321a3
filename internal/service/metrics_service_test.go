package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/globlecampus/campus-api/internal/models"
	"github.com/globlecampus/campus-api/internal/repository"
	"github.com/globlecampus/campus-api/pkg/config"
	"github.com/globlecampus/campus-api/pkg/mailer"
)

// stubLedgerStore satisfies the ledger service's repository surface with
// canned results so the counter paths can be exercised in isolation.
type stubLedgerStore struct {
	created bool
}

func (s *stubLedgerStore) Award(_ context.Context, entry repository.LedgerEntry) (*models.Transaction, bool, error) {
	return &models.Transaction{UserID: entry.UserID, Amount: entry.Amount, Type: models.TransactionEarned}, s.created, nil
}

func (s *stubLedgerStore) Spend(_ context.Context, entry repository.LedgerEntry) (*models.Transaction, bool, error) {
	return &models.Transaction{UserID: entry.UserID, Amount: -entry.Amount, Type: models.TransactionSpent}, true, nil
}

func (s *stubLedgerStore) History(context.Context, models.TransactionFilter) ([]models.Transaction, int, error) {
	return nil, 0, nil
}

func (s *stubLedgerStore) Recent(context.Context, string, int) ([]models.Transaction, error) {
	return nil, nil
}

func (s *stubLedgerStore) Balance(context.Context, string) (float64, error) {
	return 0, nil
}

type stubSender struct {
	err error
}

func (s stubSender) Send(mailer.Message) error { return s.err }

func TestLedgerMovementsIncrementTokenCounters(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewLedgerService(&stubLedgerStore{created: true}, metrics, nil)

	_, created, err := svc.Award(context.Background(), repository.LedgerEntry{UserID: "user-1", Amount: 5})
	require.NoError(t, err)
	require.True(t, created)

	_, err = svc.Spend(context.Background(), repository.LedgerEntry{UserID: "user-1", Amount: 2})
	require.NoError(t, err)

	earned := testutil.ToFloat64(metrics.tokensMoved.WithLabelValues(string(models.TransactionEarned)))
	spent := testutil.ToFloat64(metrics.tokensMoved.WithLabelValues(string(models.TransactionSpent)))
	require.Equal(t, 5.0, earned)
	require.Equal(t, 2.0, spent)
}

func TestReplayedAwardDoesNotIncrementTokenCounter(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewLedgerService(&stubLedgerStore{created: false}, metrics, nil)

	_, created, err := svc.Award(context.Background(), repository.LedgerEntry{UserID: "user-1", Amount: 5, Reference: "signup:user-1"})
	require.NoError(t, err)
	require.False(t, created)

	earned := testutil.ToFloat64(metrics.tokensMoved.WithLabelValues(string(models.TransactionEarned)))
	require.Equal(t, 0.0, earned)
}

func TestMailEnqueueIncrementsQueuedCounter(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewMailService(MailDeps{
		Sender:  stubSender{},
		Queue:   config.MailQueueConfig{Workers: 1, MaxRetries: 1, RetryDelay: time.Millisecond},
		Metrics: metrics,
	})
	svc.Start(context.Background())
	defer svc.Stop()

	require.NoError(t, svc.Enqueue(mailer.Message{To: "ana@example.com", Subject: "hi"}))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.mailQueued))
	require.Equal(t, 0.0, testutil.ToFloat64(metrics.mailFailed))
}

func TestMailRetryExhaustionIncrementsFailedCounter(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewMailService(MailDeps{
		Sender:  stubSender{err: errors.New("smtp unreachable")},
		Queue:   config.MailQueueConfig{Workers: 1, MaxRetries: 1, RetryDelay: time.Millisecond},
		Metrics: metrics,
	})
	svc.Start(context.Background())
	defer svc.Stop()

	require.NoError(t, svc.Enqueue(mailer.Message{To: "ana@example.com", Subject: "hi"}))

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.mailFailed) == 1.0
	}, 5*time.Second, 5*time.Millisecond)
}
