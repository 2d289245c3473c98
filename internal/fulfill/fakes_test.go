package fulfill

import (
	"context"
	"sync"

	"github.com/tinechelovec/funpay-premium-bot/internal/domain"
	"github.com/tinechelovec/funpay-premium-bot/internal/fragment"
)

type sentMessage struct {
	chatID int64
	text   string
}

// fakeMarket implements the marketplace slices the pipeline consumes.
type fakeMarket struct {
	mu sync.Mutex

	lots    []domain.Lot
	fields  map[int64]*domain.LotFields
	cats    []domain.Category
	listErr error
	getErr  error
	saveErr error

	orders      map[string]*domain.Order
	getOrderErr error

	sent      []sentMessage
	refunds   []string
	refundErr error

	getCalls  int
	saveCalls int
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		fields: make(map[int64]*domain.LotFields),
		orders: make(map[string]*domain.Order),
	}
}

func (f *fakeMarket) MySubcategoryLots(_ context.Context, _ int64) ([]domain.Lot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.lots, nil
}

func (f *fakeMarket) Categories(_ context.Context) ([]domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cats, nil
}

func (f *fakeMarket) GetLotFields(_ context.Context, lotID int64) (*domain.LotFields, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	lf, ok := f.fields[lotID]
	if !ok {
		return &domain.LotFields{LotID: lotID}, nil
	}
	cp := *lf
	return &cp, nil
}

func (f *fakeMarket) SaveLotFields(_ context.Context, fields *domain.LotFields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	if f.saveErr != nil {
		return f.saveErr
	}
	cp := *fields
	f.fields[fields.LotID] = &cp
	return nil
}

func (f *fakeMarket) GetOrder(_ context.Context, orderID string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getOrderErr != nil {
		return nil, f.getOrderErr
	}
	return f.orders[orderID], nil
}

func (f *fakeMarket) SendMessage(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakeMarket) Refund(_ context.Context, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refundErr != nil {
		return f.refundErr
	}
	f.refunds = append(f.refunds, orderID)
	return nil
}

func (f *fakeMarket) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.text
	}
	return out
}

func (f *fakeMarket) activeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, lf := range f.fields {
		if lf.Active {
			n++
		}
	}
	return n
}

// fakeChecker implements UserChecker from a canned table.
type fakeChecker struct {
	users map[string]fragment.UserStatus
	err   error
}

func (f *fakeChecker) CheckUser(_ context.Context, username string) (fragment.UserStatus, error) {
	if f.err != nil {
		return fragment.UserStatus{}, f.err
	}
	return f.users[username], nil
}

// fakeProvisioner implements Provisioner, recording issuance calls.
type fakeProvisioner struct {
	mu     sync.Mutex
	err    error
	nicks  []string
	months []int
}

func (f *fakeProvisioner) OrderPremium(_ context.Context, username string, months int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nicks = append(f.nicks, username)
	f.months = append(f.months, months)
	return f.err
}

func (f *fakeProvisioner) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.nicks)
}

// fakeWallet implements BalanceQuerier.
type fakeWallet struct {
	balance float64
	err     error
}

func (f *fakeWallet) Balance(_ context.Context) (float64, error) {
	return f.balance, f.err
}
