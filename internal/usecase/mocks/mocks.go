// Package mocks provides in-memory implementations of the usecase ports.
// The store applies staged writes atomically on Commit and re-checks version
// and idempotency-key guards under its lock, so tests exercise the same
// conflict semantics as the real repositories.
package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletd/internal/domain"
	"github.com/iho/walletd/internal/usecase"
)

// MockStore is the shared backing state for all mock repositories.
type MockStore struct {
	mu              sync.Mutex
	walletsByTenant map[string]*domain.Wallet
	walletsByID     map[string]*domain.Wallet
	accountsByKey   map[string]*domain.Account // walletID|type
	accountsByID    map[string]*domain.Account
	transactions    map[string]*domain.Transaction
	chains          map[string][]string // accountID -> ordered transaction IDs
	byIdemKey       map[string]string   // idempotency key -> transaction ID
	events          []*domain.OutboxEvent
	nextID          int
}

// NewMockStore creates an empty MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		walletsByTenant: make(map[string]*domain.Wallet),
		walletsByID:     make(map[string]*domain.Wallet),
		accountsByKey:   make(map[string]*domain.Account),
		accountsByID:    make(map[string]*domain.Account),
		transactions:    make(map[string]*domain.Transaction),
		chains:          make(map[string][]string),
		byIdemKey:       make(map[string]string),
	}
}

func accountKey(walletID string, accountType domain.AccountType) string {
	return walletID + "|" + string(accountType)
}

func (s *MockStore) generateID(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

// SeedWallet inserts an active wallet for tenantID and returns it.
func (s *MockStore) SeedWallet(tenantID string) *domain.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()

	wallet := &domain.Wallet{
		ID:       s.generateID("wal"),
		TenantID: tenantID,
		Currency: "USD",
		Status:   domain.WalletStatusActive,
	}
	s.walletsByTenant[tenantID] = wallet
	s.walletsByID[wallet.ID] = wallet

	return wallet
}

// SeedAccount inserts an account with the given balance and returns it.
func (s *MockStore) SeedAccount(walletID string, accountType domain.AccountType, balance decimal.Decimal) *domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	account := &domain.Account{
		ID:       s.generateID("acc"),
		WalletID: walletID,
		Type:     accountType,
		Balance:  balance,
	}
	s.accountsByKey[accountKey(walletID, accountType)] = account
	s.accountsByID[account.ID] = account

	return account
}

// Account returns a copy of the stored account, for assertions.
func (s *MockStore) Account(id string) *domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acc, ok := s.accountsByID[id]; ok {
		cp := *acc
		return &cp
	}

	return nil
}

// Transactions returns the committed chain of an account, oldest first.
func (s *MockStore) Transactions(accountID string) []*domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Transaction
	for _, id := range s.chains[accountID] {
		out = append(out, s.transactions[id])
	}

	return out
}

// Events returns all committed outbox events.
func (s *MockStore) Events() []*domain.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*domain.OutboxEvent(nil), s.events...)
}

// TamperTransaction mutates a stored record in place, for integrity tests.
func (s *MockStore) TamperTransaction(id string, mutate func(*domain.Transaction)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx, ok := s.transactions[id]; ok {
		mutate(tx)
	}
}

type accountUpdate struct {
	accountID         string
	expectedVersion   int64
	balance           decimal.Decimal
	lastTransactionID string
	updatedAt         time.Time
}

type statusUpdate struct {
	walletID  string
	status    domain.WalletStatus
	updatedAt time.Time
}

// MockTx stages writes until Commit.
type MockTx struct {
	store      *MockStore
	appends    []*domain.Transaction
	updates    []accountUpdate
	statuses   []statusUpdate
	newWallets []*domain.Wallet
	events     []*domain.OutboxEvent
	done       bool
}

// Commit applies all staged writes atomically, re-checking the version and
// idempotency guards under the store lock.
func (t *MockTx) Commit(ctx context.Context) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if t.done {
		return nil
	}
	t.done = true

	for _, u := range t.updates {
		acc, ok := t.store.accountsByID[u.accountID]
		if !ok || acc.Version != u.expectedVersion {
			return domain.ErrVersionConflict
		}
	}

	for _, tx := range t.appends {
		if tx.IdempotencyKey != nil {
			if _, exists := t.store.byIdemKey[*tx.IdempotencyKey]; exists {
				return domain.ErrDuplicateIdempotencyKey
			}
		}
	}

	for _, w := range t.newWallets {
		t.store.walletsByTenant[w.TenantID] = w
		t.store.walletsByID[w.ID] = w
	}

	for _, tx := range t.appends {
		t.store.transactions[tx.ID] = tx
		t.store.chains[tx.AccountID] = append(t.store.chains[tx.AccountID], tx.ID)
		if tx.IdempotencyKey != nil {
			t.store.byIdemKey[*tx.IdempotencyKey] = tx.ID
		}
	}

	for _, u := range t.updates {
		acc := t.store.accountsByID[u.accountID]
		acc.Balance = u.balance
		acc.Version++
		last := u.lastTransactionID
		acc.LastTransactionID = &last
		acc.UpdatedAt = u.updatedAt
	}

	for _, su := range t.statuses {
		if w, ok := t.store.walletsByID[su.walletID]; ok {
			w.Status = su.status
			w.UpdatedAt = su.updatedAt
		}
	}

	t.store.events = append(t.store.events, t.events...)

	return nil
}

// Rollback discards staged writes.
func (t *MockTx) Rollback(ctx context.Context) error {
	t.done = true
	return nil
}

// MockTxManager starts MockTx units of work.
type MockTxManager struct {
	Store *MockStore

	BeginFunc func(ctx context.Context) (usecase.Tx, error)
}

func NewMockTxManager(store *MockStore) *MockTxManager {
	return &MockTxManager{Store: store}
}

func (m *MockTxManager) Begin(ctx context.Context) (usecase.Tx, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}

	return &MockTx{store: m.Store}, nil
}

// MockWalletRepository is a mock implementation of WalletRepository.
type MockWalletRepository struct {
	Store *MockStore

	CreateFunc       func(ctx context.Context, tx usecase.Tx, wallet *domain.Wallet) error
	GetByTenantFunc  func(ctx context.Context, tenantID string) (*domain.Wallet, error)
	GetByIDFunc      func(ctx context.Context, id string) (*domain.Wallet, error)
	UpdateStatusFunc func(ctx context.Context, tx usecase.Tx, id string, status domain.WalletStatus, updatedAt time.Time) error
}

func NewMockWalletRepository(store *MockStore) *MockWalletRepository {
	return &MockWalletRepository{Store: store}
}

func (m *MockWalletRepository) Create(ctx context.Context, tx usecase.Tx, wallet *domain.Wallet) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, wallet)
	}

	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()

	if _, exists := m.Store.walletsByTenant[wallet.TenantID]; exists {
		return fmt.Errorf("wallet for tenant %s already exists", wallet.TenantID)
	}

	tx.(*MockTx).newWallets = append(tx.(*MockTx).newWallets, wallet)

	return nil
}

func (m *MockWalletRepository) GetByTenant(ctx context.Context, tenantID string) (*domain.Wallet, error) {
	if m.GetByTenantFunc != nil {
		return m.GetByTenantFunc(ctx, tenantID)
	}

	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()

	if wallet, ok := m.Store.walletsByTenant[tenantID]; ok {
		cp := *wallet
		return &cp, nil
	}

	return nil, domain.ErrWalletNotFound
}

func (m *MockWalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}

	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()

	if wallet, ok := m.Store.walletsByID[id]; ok {
		cp := *wallet
		return &cp, nil
	}

	return nil, domain.ErrWalletNotFound
}

func (m *MockWalletRepository) UpdateStatus(ctx context.Context, tx usecase.Tx, id string, status domain.WalletStatus, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, status, updatedAt)
	}

	mockTx := tx.(*MockTx)
	mockTx.statuses = append(mockTx.statuses, statusUpdate{walletID: id, status: status, updatedAt: updatedAt})

	return nil
}

func (m *MockWalletRepository) List(ctx context.Context, limit, offset int) ([]*domain.Wallet, error) {
	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()

	var wallets []*domain.Wallet
	for _, w := range m.Store.walletsByID {
		cp := *w
		wallets = append(wallets, &cp)
	}

	sort.Slice(wallets, func(i, j int) bool { return wallets[i].ID < wallets[j].ID })

	return paginate(wallets, limit, offset), nil
}

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	Store *MockStore

	GetOrCreateFunc       func(ctx context.Context, tx usecase.Tx, walletID string, accountType domain.AccountType) (*domain.Account, error)
	GetFunc               func(ctx context.Context, walletID string, accountType domain.AccountType) (*domain.Account, error)
	ConditionalUpdateFunc func(ctx context.Context, tx usecase.Tx, id string, expectedVersion int64, balance decimal.Decimal, lastTransactionID string, updatedAt time.Time) error
}

func NewMockAccountRepository(store *MockStore) *MockAccountRepository {
	return &MockAccountRepository{Store: store}
}

func (m *MockAccountRepository) GetOrCreate(ctx context.Context, tx usecase.Tx, walletID string, accountType domain.AccountType) (*domain.Account, error) {
	if m.GetOrCreateFunc != nil {
		return m.GetOrCreateFunc(ctx, tx, walletID, accountType)
	}

	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()

	key := accountKey(walletID, accountType)
	if acc, ok := m.Store.accountsByKey[key]; ok {
		cp := *acc
		return &cp, nil
	}

	account := &domain.Account{
		ID:       m.Store.generateID("acc"),
		WalletID: walletID,
		Type:     accountType,
		Balance:  decimal.Zero,
	}
	m.Store.accountsByKey[key] = account
	m.Store.accountsByID[account.ID] = account

	cp := *account

	return &cp, nil
}

func (m *MockAccountRepository) Get(ctx context.Context, walletID string, accountType domain.AccountType) (*domain.Account, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, walletID, accountType)
	}

	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()

	if acc, ok := m.Store.accountsByKey[accountKey(walletID, accountType)]; ok {
		cp := *acc
		return &cp, nil
	}

	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()

	if acc, ok := m.Store.accountsByID[id]; ok {
		cp := *acc
		return &cp, nil
	}

	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) ListByWallet(ctx context.Context, walletID string) ([]*domain.Account, error) {
	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()

	var accounts []*domain.Account
	for _, acc := range m.Store.accountsByID {
		if acc.WalletID == walletID {
			cp := *acc
			accounts = append(accounts, &cp)
		}
	}

	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Type < accounts[j].Type })

	return accounts, nil
}

func (m *MockAccountRepository) ConditionalUpdate(ctx context.Context, tx usecase.Tx, id string, expectedVersion int64, balance decimal.Decimal, lastTransactionID string, updatedAt time.Time) error {
	if m.ConditionalUpdateFunc != nil {
		return m.ConditionalUpdateFunc(ctx, tx, id, expectedVersion, balance, lastTransactionID, updatedAt)
	}

	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()

	acc, ok := m.Store.accountsByID[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if acc.Version != expectedVersion {
		return domain.ErrVersionConflict
	}

	mockTx := tx.(*MockTx)
	mockTx.updates = append(mockTx.updates, accountUpdate{
		accountID:         id,
		expectedVersion:   expectedVersion,
		balance:           balance,
		lastTransactionID: lastTransactionID,
		updatedAt:         updatedAt,
	})

	return nil
}

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	Store *MockStore

	AppendFunc              func(ctx context.Context, tx usecase.Tx, transaction *domain.Transaction) error
	GetByIdempotencyKeyFunc func(ctx context.Context, key string) (*domain.Transaction, error)
	ReadChainFunc           func(ctx context.Context, accountID string, afterID *string, limit int) ([]*domain.Transaction, error)
}

func NewMockTransactionRepository(store *MockStore) *MockTransactionRepository {
	return &MockTransactionRepository{Store: store}
}

func (m *MockTransactionRepository) Append(ctx context.Context, tx usecase.Tx, transaction *domain.Transaction) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, tx, transaction)
	}

	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()

	if transaction.IdempotencyKey != nil {
		if _, exists := m.Store.byIdemKey[*transaction.IdempotencyKey]; exists {
			return domain.ErrDuplicateIdempotencyKey
		}
	}

	mockTx := tx.(*MockTx)
	mockTx.appends = append(mockTx.appends, transaction)

	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()

	if tx, ok := m.Store.transactions[id]; ok {
		cp := *tx
		return &cp, nil
	}

	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) GetByIDTx(ctx context.Context, tx usecase.Tx, id string) (*domain.Transaction, error) {
	return m.GetByID(ctx, id)
}

func (m *MockTransactionRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	if m.GetByIdempotencyKeyFunc != nil {
		return m.GetByIdempotencyKeyFunc(ctx, key)
	}

	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()

	if id, ok := m.Store.byIdemKey[key]; ok {
		cp := *m.Store.transactions[id]
		return &cp, nil
	}

	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*domain.Transaction, error) {
	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()

	var txs []*domain.Transaction
	for _, tx := range m.Store.transactions {
		if tx.TenantID == tenantID {
			cp := *tx
			txs = append(txs, &cp)
		}
	}

	sort.Slice(txs, func(i, j int) bool { return txs[i].CreatedAt.After(txs[j].CreatedAt) })

	return paginate(txs, limit, offset), nil
}

func (m *MockTransactionRepository) ReadChain(ctx context.Context, accountID string, afterID *string, limit int) ([]*domain.Transaction, error) {
	if m.ReadChainFunc != nil {
		return m.ReadChainFunc(ctx, accountID, afterID, limit)
	}

	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()

	chain := m.Store.chains[accountID]

	start := 0
	if afterID != nil {
		for i, id := range chain {
			if id == *afterID {
				start = i + 1
				break
			}
		}
	}

	var out []*domain.Transaction
	for i := start; i < len(chain) && len(out) < limit; i++ {
		cp := *m.Store.transactions[chain[i]]
		out = append(out, &cp)
	}

	return out, nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	Store *MockStore

	CreateFunc func(ctx context.Context, tx usecase.Tx, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository(store *MockStore) *MockOutboxRepository {
	return &MockOutboxRepository{Store: store}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Tx, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}

	mockTx := tx.(*MockTx)
	mockTx.events = append(mockTx.events, event)

	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()

	var out []*domain.OutboxEvent
	for _, e := range m.Store.events {
		if !e.Published {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}

	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()

	for _, e := range m.Store.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}

	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()

	kept := m.Store.events[:0]
	for _, e := range m.Store.events {
		if !e.Published || e.CreatedAt.After(before) {
			kept = append(kept, e)
		}
	}
	m.Store.events = kept

	return nil
}

// MockIDGenerator generates sequential IDs.
type MockIDGenerator struct {
	mu      sync.Mutex
	counter int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++

	return fmt.Sprintf("id-%d", m.counter)
}

// MockCache is an in-memory Cache.
type MockCache struct {
	mu     sync.Mutex
	values map[string]string

	GetFunc func(ctx context.Context, key string) (string, error)
	SetFunc func(ctx context.Context, key, value string, ttl time.Duration) error
}

func NewMockCache() *MockCache {
	return &MockCache{values: make(map[string]string)}
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.values[key]; ok {
		return v, nil
	}

	return "", fmt.Errorf("cache miss: %s", key)
}

func (m *MockCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value

	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)

	return nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}

	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}

	return items[offset:end]
}
