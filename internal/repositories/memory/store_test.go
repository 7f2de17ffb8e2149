package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/qorinti/ledger_backend/internal/apperrors"
	"github.com/qorinti/ledger_backend/internal/core/domain"
	portsrepo "github.com/qorinti/ledger_backend/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type StoreTestSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func (s *StoreTestSuite) SetupTest() {
	s.store = NewStore()
	s.ctx = context.Background()
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func trip(driverID, tripID string, at time.Time) domain.Transaction {
	return domain.Transaction{
		TransactionID: fmt.Sprintf("%s-%s", driverID, tripID),
		DriverID:      driverID,
		Source:        domain.TripSource(tripID),
		Status:        domain.TransactionSettled,
		Timestamps:    domain.Timestamps{CreatedAt: at, UpdatedAt: at},
	}
}

func (s *StoreTestSuite) TestWithLedgerLock_EnsuresLedgerOnSuccess() {
	_, err := s.store.FindLedger(s.ctx, "d1")
	s.ErrorIs(err, apperrors.ErrNotFound)

	err = s.store.WithLedgerLock(s.ctx, "d1", func(_ portsrepo.LedgerTx, l *domain.AccountLedger) error {
		s.True(l.CommissionDebt.IsZero())
		s.Equal(domain.AccountActive, l.AccountStatus)
		return nil
	})
	s.Require().NoError(err)

	l, err := s.store.FindLedger(s.ctx, "d1")
	s.Require().NoError(err)
	s.Equal("d1", l.DriverID)
}

func (s *StoreTestSuite) TestWithLedgerLock_DiscardsWritesOnError() {
	boom := errors.New("boom")
	err := s.store.WithLedgerLock(s.ctx, "d1", func(tx portsrepo.LedgerTx, l *domain.AccountLedger) error {
		l.CommissionDebt = decimal.NewFromInt(10)
		s.Require().NoError(tx.SaveLedger(s.ctx, *l))
		s.Require().NoError(tx.AppendTransaction(s.ctx, trip("d1", "t1", time.Now())))
		return boom
	})
	s.ErrorIs(err, boom)

	_, err = s.store.FindLedger(s.ctx, "d1")
	s.ErrorIs(err, apperrors.ErrNotFound)
	txns, _, err := s.store.ListTransactionsByDriver(s.ctx, "d1", 10, nil)
	s.Require().NoError(err)
	s.Empty(txns)
}

func (s *StoreTestSuite) TestWithLedgerLock_DuplicateTripRejectsWholeUnit() {
	now := time.Now()
	s.Require().NoError(s.store.WithLedgerLock(s.ctx, "d1", func(tx portsrepo.LedgerTx, _ *domain.AccountLedger) error {
		return tx.AppendTransaction(s.ctx, trip("d1", "t1", now))
	}))

	err := s.store.WithLedgerLock(s.ctx, "d1", func(tx portsrepo.LedgerTx, l *domain.AccountLedger) error {
		charged, err := tx.TripCharged(s.ctx, "t1")
		s.Require().NoError(err)
		s.True(charged)
		l.CommissionDebt = decimal.NewFromInt(99)
		_ = tx.SaveLedger(s.ctx, *l)
		dup := trip("d1", "t1", now)
		dup.TransactionID = "other"
		return tx.AppendTransaction(s.ctx, dup)
	})
	s.ErrorIs(err, apperrors.ErrDuplicate)

	l, err := s.store.FindLedger(s.ctx, "d1")
	s.Require().NoError(err)
	s.True(l.CommissionDebt.IsZero())
}

func (s *StoreTestSuite) TestListTransactionsByDriver_Paginates() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.WithLedgerLock(s.ctx, "d1", func(tx portsrepo.LedgerTx, _ *domain.AccountLedger) error {
		for i := 0; i < 5; i++ {
			_ = tx.AppendTransaction(s.ctx, trip("d1", fmt.Sprintf("t%d", i), base.Add(time.Duration(i)*time.Minute)))
		}
		return nil
	}))

	page1, next, err := s.store.ListTransactionsByDriver(s.ctx, "d1", 2, nil)
	s.Require().NoError(err)
	s.Require().Len(page1, 2)
	s.Require().NotNil(next)
	s.Equal("d1-t4", page1[0].TransactionID)
	s.Equal("d1-t3", page1[1].TransactionID)

	page2, next, err := s.store.ListTransactionsByDriver(s.ctx, "d1", 2, next)
	s.Require().NoError(err)
	s.Equal([]string{"d1-t2", "d1-t1"}, []string{page2[0].TransactionID, page2[1].TransactionID})

	page3, next, err := s.store.ListTransactionsByDriver(s.ctx, "d1", 2, next)
	s.Require().NoError(err)
	s.Len(page3, 1)
	s.Nil(next)
}

func (s *StoreTestSuite) TestListTransactionsByDriver_BadToken() {
	bad := "%%%"
	_, _, err := s.store.ListTransactionsByDriver(s.ctx, "d1", 2, &bad)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *StoreTestSuite) TestReceiptsAreUniquePerPaymentRequest() {
	r := domain.Receipt{ReceiptID: "r1", PaymentRequestID: "p1"}
	s.Require().NoError(s.store.SaveReceipt(s.ctx, r))

	r.ReceiptID = "r2"
	s.ErrorIs(s.store.SaveReceipt(s.ctx, r), apperrors.ErrDuplicate)

	got, err := s.store.FindReceiptByPaymentRequest(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal("r1", got.ReceiptID)
}

func (s *StoreTestSuite) TestClaimDueReceiptJobs_Leases() {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.store.jobs["j1"] = domain.ReceiptJob{JobID: "j1", Status: domain.ReceiptJobPending, NextAttemptAt: now.Add(-time.Second)}
	s.store.jobs["j2"] = domain.ReceiptJob{JobID: "j2", Status: domain.ReceiptJobPending, NextAttemptAt: now.Add(time.Hour)}
	s.store.jobs["j3"] = domain.ReceiptJob{JobID: "j3", Status: domain.ReceiptJobFailed, NextAttemptAt: now.Add(-time.Hour)}

	claimed, err := s.store.ClaimDueReceiptJobs(s.ctx, now, now.Add(time.Minute), 10)
	s.Require().NoError(err)
	s.Require().Len(claimed, 1)
	s.Equal("j1", claimed[0].JobID)

	again, err := s.store.ClaimDueReceiptJobs(s.ctx, now, now.Add(time.Minute), 10)
	s.Require().NoError(err)
	s.Empty(again)
}

func TestWithLedgerLock_SerializesSameDriver(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.WithLedgerLock(ctx, "d1", func(tx portsrepo.LedgerTx, l *domain.AccountLedger) error {
				l.CommissionDebt = l.CommissionDebt.Add(decimal.NewFromInt(1))
				return tx.SaveLedger(ctx, *l)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	l, err := store.FindLedger(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "50", l.CommissionDebt.String())
}
