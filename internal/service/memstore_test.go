package service

import (
	"context"
	"sort"
	"time"

	"parking-gate-service/internal/domain/account"
	"parking-gate-service/internal/domain/parking"
	"parking-gate-service/internal/store"
)

// memStore is an in-memory store.Store used by the service tests. InTx
// takes a snapshot and restores it when fn fails, mirroring the rollback
// behavior the real store gets from its transaction mechanism.
type memStore struct {
	entries      []parking.Entry
	activeCars   []parking.ActiveCar
	exits        []parking.Exit
	gateEvents   []parking.GateEvent
	settings     map[string]string
	users        []account.User
	wallets      []account.Wallet
	transactions []account.Transaction
	userPlates   []account.UserPlate
	tokens       map[string]memToken

	nextID int64

	// Error injection for atomicity tests.
	failCreateTransaction error
	failDeleteActiveCar   error
}

type memToken struct {
	userID    int64
	createdAt time.Time
	expiresAt time.Time
}

func newMemStore() *memStore {
	return &memStore{
		settings: map[string]string{
			"capacity":       "200",
			"price_per_hour": "20000",
		},
		tokens: map[string]memToken{},
		nextID: 0,
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) snapshot() memStore {
	cp := *m
	cp.entries = append([]parking.Entry(nil), m.entries...)
	cp.activeCars = append([]parking.ActiveCar(nil), m.activeCars...)
	cp.exits = append([]parking.Exit(nil), m.exits...)
	cp.gateEvents = append([]parking.GateEvent(nil), m.gateEvents...)
	cp.users = append([]account.User(nil), m.users...)
	cp.wallets = append([]account.Wallet(nil), m.wallets...)
	cp.transactions = append([]account.Transaction(nil), m.transactions...)
	cp.userPlates = append([]account.UserPlate(nil), m.userPlates...)
	cp.settings = map[string]string{}
	for k, v := range m.settings {
		cp.settings[k] = v
	}
	cp.tokens = map[string]memToken{}
	for k, v := range m.tokens {
		cp.tokens[k] = v
	}
	return cp
}

func (m *memStore) InTx(ctx context.Context, fn func(store.Store) error) error {
	saved := m.snapshot()
	if err := fn(m); err != nil {
		*m = saved
		return err
	}
	return nil
}

func (m *memStore) CreateEntry(_ context.Context, e *parking.Entry) error {
	e.ID = m.id()
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memStore) LastEntryTime(_ context.Context, plate string) (*time.Time, error) {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].Plate == plate {
			t := m.entries[i].TimestampIn
			return &t, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateActiveCar(_ context.Context, ac *parking.ActiveCar) error {
	m.activeCars = append(m.activeCars, *ac)
	return nil
}

func (m *memStore) EarliestActiveCar(_ context.Context, plate string) (*parking.ActiveCar, error) {
	var matches []parking.ActiveCar
	for _, ac := range m.activeCars {
		if ac.Plate == plate {
			matches = append(matches, ac)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].TimestampIn.Equal(matches[j].TimestampIn) {
			return matches[i].TimestampIn.Before(matches[j].TimestampIn)
		}
		return matches[i].EntryID < matches[j].EntryID
	})
	ac := matches[0]
	return &ac, nil
}

func (m *memStore) DeleteActiveCar(_ context.Context, entryID int64) error {
	if m.failDeleteActiveCar != nil {
		return m.failDeleteActiveCar
	}
	kept := m.activeCars[:0]
	for _, ac := range m.activeCars {
		if ac.EntryID != entryID {
			kept = append(kept, ac)
		}
	}
	m.activeCars = kept
	return nil
}

func (m *memStore) CountActiveCars(_ context.Context) (int64, error) {
	return int64(len(m.activeCars)), nil
}

func (m *memStore) CreateExit(_ context.Context, e *parking.Exit) error {
	e.ID = m.id()
	m.exits = append(m.exits, *e)
	return nil
}

func (m *memStore) CreateGateEvent(_ context.Context, ev *parking.GateEvent) error {
	ev.ID = m.id()
	m.gateEvents = append(m.gateEvents, *ev)
	return nil
}

func (m *memStore) GetSetting(_ context.Context, key string) (string, error) {
	return m.settings[key], nil
}

func (m *memStore) SetSetting(_ context.Context, key, value string) error {
	m.settings[key] = value
	return nil
}

func (m *memStore) CreateUser(_ context.Context, u *account.User) error {
	u.ID = m.id()
	m.users = append(m.users, *u)
	return nil
}

func (m *memStore) UserByPhone(_ context.Context, phone string) (*account.User, error) {
	for _, u := range m.users {
		if u.PhoneNumber == phone {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memStore) UserByID(_ context.Context, id int64) (*account.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListUsers(_ context.Context, limit, offset int) ([]account.User, error) {
	if offset >= len(m.users) {
		return nil, nil
	}
	end := offset + limit
	if end > len(m.users) {
		end = len(m.users)
	}
	return append([]account.User(nil), m.users[offset:end]...), nil
}

func (m *memStore) UpdateUserRole(_ context.Context, id int64, role string) error {
	for i := range m.users {
		if m.users[i].ID == id {
			m.users[i].Role = role
		}
	}
	return nil
}

func (m *memStore) CreateWallet(_ context.Context, w *account.Wallet) error {
	w.ID = m.id()
	m.wallets = append(m.wallets, *w)
	return nil
}

func (m *memStore) WalletByUserID(_ context.Context, userID int64) (*account.Wallet, error) {
	for _, w := range m.wallets {
		if w.UserID == userID {
			w := w
			return &w, nil
		}
	}
	return nil, nil
}

func (m *memStore) UpdateWalletBalance(_ context.Context, walletID, newBalance int64, now time.Time) error {
	for i := range m.wallets {
		if m.wallets[i].ID == walletID {
			m.wallets[i].Balance = newBalance
			m.wallets[i].LastUpdated = now
		}
	}
	return nil
}

func (m *memStore) CreateTransaction(_ context.Context, t *account.Transaction) error {
	if m.failCreateTransaction != nil {
		return m.failCreateTransaction
	}
	t.ID = m.id()
	m.transactions = append(m.transactions, *t)
	return nil
}

func (m *memStore) TransactionsForWallet(_ context.Context, walletID int64, limit, offset int) ([]account.Transaction, error) {
	var out []account.Transaction
	for i := len(m.transactions) - 1; i >= 0; i-- {
		if m.transactions[i].WalletID == walletID {
			out = append(out, m.transactions[i])
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (m *memStore) CreateUserPlate(_ context.Context, p *account.UserPlate) error {
	p.ID = m.id()
	m.userPlates = append(m.userPlates, *p)
	return nil
}

func (m *memStore) UserPlateByID(_ context.Context, id int64) (*account.UserPlate, error) {
	for _, p := range m.userPlates {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (m *memStore) UserPlateFor(_ context.Context, userID int64, plate string) (*account.UserPlate, error) {
	for _, p := range m.userPlates {
		if p.UserID == userID && p.Plate == plate {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (m *memStore) PlatesForUser(_ context.Context, userID int64) ([]account.UserPlate, error) {
	var out []account.UserPlate
	for _, p := range m.userPlates {
		if p.UserID == userID && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) DeactivateUserPlate(_ context.Context, id int64) error {
	for i := range m.userPlates {
		if m.userPlates[i].ID == id {
			m.userPlates[i].IsActive = false
		}
	}
	return nil
}

func (m *memStore) ActiveOwner(_ context.Context, plate string) (*account.UserPlate, error) {
	best := -1
	for i, p := range m.userPlates {
		if p.Plate == plate && p.IsActive {
			if best == -1 || p.ID < m.userPlates[best].ID {
				best = i
			}
		}
	}
	if best == -1 {
		return nil, nil
	}
	p := m.userPlates[best]
	return &p, nil
}

func (m *memStore) CreateAuthToken(_ context.Context, userID int64, token string, createdAt, expiresAt time.Time) error {
	m.tokens[token] = memToken{userID: userID, createdAt: createdAt, expiresAt: expiresAt}
	return nil
}

func (m *memStore) AuthTokenUser(_ context.Context, token string) (int64, *time.Time, error) {
	row, ok := m.tokens[token]
	if !ok {
		return 0, nil, nil
	}
	exp := row.expiresAt
	return row.userID, &exp, nil
}

func (m *memStore) DeleteAuthToken(_ context.Context, token string) error {
	delete(m.tokens, token)
	return nil
}

func (m *memStore) DeleteUserTokens(_ context.Context, userID int64) error {
	for token, row := range m.tokens {
		if row.userID == userID {
			delete(m.tokens, token)
		}
	}
	return nil
}

var _ store.Store = (*memStore)(nil)
