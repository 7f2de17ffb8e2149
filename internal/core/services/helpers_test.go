package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/qorinti/ledger_backend/internal/core/domain"
	"github.com/qorinti/ledger_backend/internal/repositories/memory"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// testClock advances one second on every reading so that ordering by time is stable.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func seedDebt(store *memory.Store, driverID, debt string) {
	l := domain.NewAccountLedger(driverID, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	l.CommissionDebt = dec(debt)
	store.PutLedger(l)
}

func mustLedger(store *memory.Store, driverID string) domain.AccountLedger {
	l, err := store.FindLedger(context.Background(), driverID)
	if err != nil {
		panic(err)
	}
	return *l
}

type countingSignal struct {
	mu sync.Mutex
	n  int
}

func (s *countingSignal) Notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
}

func (s *countingSignal) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

type fakeRenderer struct {
	mu   sync.Mutex
	docs []domain.ReceiptDocument
	err  error
}

func (r *fakeRenderer) ContentType() string { return "application/pdf" }

func (r *fakeRenderer) Render(doc domain.ReceiptDocument) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.docs = append(r.docs, doc)
	return []byte("%PDF-" + doc.Receipt.SeriesNumber), nil
}

func (r *fakeRenderer) Rendered() []domain.ReceiptDocument {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ReceiptDocument(nil), r.docs...)
}

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	fails   int
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string][]byte), types: make(map[string]string)}
}

var errBlobDown = errors.New("blob store unavailable")

func (b *fakeBlobs) Put(_ context.Context, path, contentType string, data []byte) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fails > 0 {
		b.fails--
		return "", errBlobDown
	}
	b.objects[path] = data
	b.types[path] = contentType
	return "https://blobs.test/" + path, nil
}

type seqNumberer struct {
	mu sync.Mutex
	n  int
}

func (s *seqNumberer) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%d", 1000+s.n)
}
