// Package memory implements the repository interfaces over process memory.
// It mirrors the conditional-update semantics of the postgres implementation
// (balance guards, status compare-and-set) and backs tests and dev tooling.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chineduogbonna/marketpay/internal/models"
)

type Stores struct {
	Wallets   *WalletStore
	Ledger    *LedgerStore
	Escrows   *EscrowStore
	Schedules *ScheduleStore
	Plans     *PlanStore
}

func NewStores() *Stores {
	return &Stores{
		Wallets:   &WalletStore{wallets: map[string]*models.Wallet{}},
		Ledger:    &LedgerStore{byID: map[string]*models.LedgerEntry{}},
		Escrows:   &EscrowStore{byID: map[string]*models.EscrowTransaction{}},
		Schedules: &ScheduleStore{byID: map[string]*models.ScheduledPurchase{}},
		Plans:     &PlanStore{byID: map[string]models.DataPlan{}},
	}
}

// ---------------- wallets ----------------

type WalletStore struct {
	mu      sync.Mutex
	wallets map[string]*models.Wallet
}

func (s *WalletStore) GetOrCreate(_ context.Context, userID string) (models.Wallet, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.wallets[userID]; ok {
		return *w, false, nil
	}
	now := time.Now()
	w := &models.Wallet{UserID: userID, CreatedAt: now, UpdatedAt: now}
	s.wallets[userID] = w
	return *w, true, nil
}

func (s *WalletStore) Get(_ context.Context, userID string) (models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[userID]
	if !ok {
		return models.Wallet{}, models.ErrWalletNotFound
	}
	return *w, nil
}

func (s *WalletStore) Credit(_ context.Context, userID string, amount int64) (models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[userID]
	if !ok {
		return models.Wallet{}, models.ErrWalletNotFound
	}
	w.Balance += amount
	w.UpdatedAt = time.Now()
	return *w, nil
}

func (s *WalletStore) Debit(_ context.Context, userID string, amount int64) (models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[userID]
	if !ok {
		return models.Wallet{}, models.ErrWalletNotFound
	}
	if w.Balance < amount {
		return models.Wallet{}, models.ErrInsufficientFunds
	}
	w.Balance -= amount
	w.TotalSpent += amount
	w.UpdatedAt = time.Now()
	return *w, nil
}

func (s *WalletStore) LockSecurityDeposit(_ context.Context, userID string, amount int64) (models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[userID]
	if !ok {
		return models.Wallet{}, models.ErrWalletNotFound
	}
	if w.Balance < amount {
		return models.Wallet{}, models.ErrInsufficientFunds
	}
	w.Balance -= amount
	w.SecurityDepositLocked += amount
	w.UpdatedAt = time.Now()
	return *w, nil
}

func (s *WalletStore) HoldEscrow(_ context.Context, buyerID, sellerID string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buyer, ok := s.wallets[buyerID]
	if !ok {
		return models.ErrWalletNotFound
	}
	seller, ok := s.wallets[sellerID]
	if !ok {
		return models.ErrWalletNotFound
	}
	if buyer.Balance < amount {
		return models.ErrInsufficientFunds
	}
	buyer.Balance -= amount
	buyer.TotalSpent += amount
	seller.EscrowBalance += amount
	return nil
}

func (s *WalletStore) ReleaseEscrow(_ context.Context, sellerID string, amount, fee int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seller, ok := s.wallets[sellerID]
	if !ok {
		return models.ErrWalletNotFound
	}
	if seller.EscrowBalance < amount {
		return models.ErrInsufficientFunds
	}
	seller.EscrowBalance -= amount
	seller.Balance += amount - fee
	seller.TotalEarned += amount - fee
	return nil
}

func (s *WalletStore) RefundEscrow(_ context.Context, sellerID, buyerID string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seller, ok := s.wallets[sellerID]
	if !ok {
		return models.ErrWalletNotFound
	}
	buyer, ok := s.wallets[buyerID]
	if !ok {
		return models.ErrWalletNotFound
	}
	if seller.EscrowBalance < amount {
		return models.ErrInsufficientFunds
	}
	seller.EscrowBalance -= amount
	buyer.Balance += amount
	return nil
}

// ---------------- ledger ----------------

type LedgerStore struct {
	mu      sync.Mutex
	entries []*models.LedgerEntry
	byID    map[string]*models.LedgerEntry
}

func (s *LedgerStore) Append(_ context.Context, e models.LedgerEntry) (models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = models.LedgerCompleted
	}
	e.CreatedAt = time.Now()
	cp := e
	s.entries = append(s.entries, &cp)
	s.byID[e.ID] = &cp
	return e, nil
}

func (s *LedgerStore) UpdateStatus(_ context.Context, id string, status models.LedgerStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return errors.New("ledger entry not found")
	}
	e.Status = status
	return nil
}

func (s *LedgerStore) ListByWallet(_ context.Context, walletID string, limit, offset int) ([]models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.LedgerEntry
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].WalletID == walletID {
			out = append(out, *s.entries[i])
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---------------- escrows ----------------

type EscrowStore struct {
	mu   sync.Mutex
	byID map[string]*models.EscrowTransaction
}

func (s *EscrowStore) Create(_ context.Context, e models.EscrowTransaction) (models.EscrowTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = time.Now()
	cp := e
	s.byID[e.ID] = &cp
	return e, nil
}

func (s *EscrowStore) GetByID(_ context.Context, id string) (models.EscrowTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return models.EscrowTransaction{}, models.ErrEscrowNotFound
	}
	return *e, nil
}

func (s *EscrowStore) SetConfirmed(_ context.Context, id string, byBuyer bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return models.ErrEscrowNotFound
	}
	if byBuyer {
		e.BuyerConfirmed = true
	} else {
		e.SellerConfirmed = true
	}
	return nil
}

func (s *EscrowStore) Transition(_ context.Context, id string, from []models.EscrowStatus, to models.EscrowStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return models.ErrEscrowNotFound
	}
	for _, f := range from {
		if e.Status == f {
			e.Status = to
			if to == models.EscrowReleased {
				now := time.Now()
				e.ReleasedAt = &now
			}
			return nil
		}
	}
	return models.ErrInvalidStateTransition
}

// All snapshots every escrow record, for test assertions over the whole set.
func (s *EscrowStore) All() []models.EscrowTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.EscrowTransaction, 0, len(s.byID))
	for _, e := range s.byID {
		out = append(out, *e)
	}
	return out
}

func (s *EscrowStore) ListDueForRelease(_ context.Context, now time.Time, limit int) ([]models.EscrowTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.EscrowTransaction
	for _, e := range s.byID {
		if e.Status != models.EscrowHeld {
			continue
		}
		if !e.AutoReleaseDate.After(now) || e.BuyerConfirmed || e.SellerConfirmed {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AutoReleaseDate.Before(out[j].AutoReleaseDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---------------- schedules ----------------

type ScheduleStore struct {
	mu   sync.Mutex
	byID map[string]*models.ScheduledPurchase
}

func (s *ScheduleStore) Create(_ context.Context, sp models.ScheduledPurchase) (models.ScheduledPurchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sp.ID == "" {
		sp.ID = uuid.NewString()
	}
	sp.CreatedAt = time.Now()
	cp := sp
	s.byID[sp.ID] = &cp
	return sp, nil
}

func (s *ScheduleStore) GetByID(_ context.Context, id string) (models.ScheduledPurchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.byID[id]
	if !ok {
		return models.ScheduledPurchase{}, models.ErrScheduleNotFound
	}
	return *sp, nil
}

func (s *ScheduleStore) ListByUser(_ context.Context, userID string) ([]models.ScheduledPurchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ScheduledPurchase
	for _, sp := range s.byID {
		if sp.UserID == userID {
			out = append(out, *sp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *ScheduleStore) ListDue(_ context.Context, now time.Time) ([]models.ScheduledPurchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ScheduledPurchase
	for _, sp := range s.byID {
		if sp.Status == models.ScheduleActive && !sp.NextRunAt.After(now) {
			out = append(out, *sp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextRunAt.Before(out[j].NextRunAt) })
	return out, nil
}

func (s *ScheduleStore) Pause(_ context.Context, id, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.byID[id]
	if !ok {
		return models.ErrScheduleNotFound
	}
	sp.Status = models.SchedulePaused
	sp.PauseReason = reason
	return nil
}

func (s *ScheduleStore) Resume(_ context.Context, id string, nextRunAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.byID[id]
	if !ok {
		return models.ErrScheduleNotFound
	}
	sp.Status = models.ScheduleActive
	sp.PauseReason = ""
	sp.NextRunAt = nextRunAt
	return nil
}

func (s *ScheduleStore) MarkRun(_ context.Context, id string, lastRunAt, nextRunAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.byID[id]
	if !ok {
		return models.ErrScheduleNotFound
	}
	sp.LastRunAt = &lastRunAt
	sp.NextRunAt = nextRunAt
	sp.RunCount++
	return nil
}

func (s *ScheduleStore) AdvanceNextRun(_ context.Context, id string, nextRunAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.byID[id]
	if !ok {
		return models.ErrScheduleNotFound
	}
	sp.NextRunAt = nextRunAt
	return nil
}

// ---------------- plans ----------------

type PlanStore struct {
	mu   sync.Mutex
	byID map[string]models.DataPlan
}

func (s *PlanStore) Put(p models.DataPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[p.ID] = p
}

func (s *PlanStore) GetByID(_ context.Context, id string) (models.DataPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return models.DataPlan{}, models.ErrPlanNotFound
	}
	return p, nil
}

func (s *PlanStore) List(_ context.Context) ([]models.DataPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.DataPlan, 0, len(s.byID))
	for _, p := range s.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
