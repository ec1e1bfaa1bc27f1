package testing

import (
	"context"
	"fmt"
	"sync"

	"github.com/aristath/tradejournal/internal/domain"
)

// ErrNotFound is returned by MockTransport for unknown ids
var ErrNotFound = domain.ErrNotFound

// MockTransport is an in-memory implementation of both transport
// interfaces. Calls are counted per method; SetError makes the next calls
// to a method fail and Block holds a method until the returned release
// function is called.
type MockTransport struct {
	mu       sync.Mutex
	journals map[string]domain.Journal
	trades   map[string]domain.Trade
	stats    map[string]domain.JournalStats
	calls    map[string]int
	errs     map[string]error
	gates    map[string]chan struct{}
	entered  map[string]chan struct{}
	payloads []*domain.TradePayload
	nextID   int
}

// NewMockTransport creates an empty mock transport
func NewMockTransport() *MockTransport {
	return &MockTransport{
		journals: make(map[string]domain.Journal),
		trades:   make(map[string]domain.Trade),
		stats:    make(map[string]domain.JournalStats),
		calls:    make(map[string]int),
		errs:     make(map[string]error),
		gates:    make(map[string]chan struct{}),
		entered:  make(map[string]chan struct{}),
	}
}

// AddJournal seeds a journal
func (m *MockTransport) AddJournal(j domain.Journal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.journals[j.ID] = j
}

// AddTrade seeds a trade
func (m *MockTransport) AddTrade(t domain.Trade) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades[t.ID] = t
}

// SetStats seeds a journal's statistics
func (m *MockTransport) SetStats(journalID string, s domain.JournalStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[journalID] = s
}

// SetError makes method fail with err until cleared with a nil err
func (m *MockTransport) SetError(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, method)
		return
	}
	m.errs[method] = err
}

// Block makes calls to method wait until release is called. The entered
// channel is closed once a call is waiting.
func (m *MockTransport) Block(method string) (entered <-chan struct{}, release func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gate := make(chan struct{})
	in := make(chan struct{})
	m.gates[method] = gate
	m.entered[method] = in
	var once sync.Once
	return in, func() { once.Do(func() { close(gate) }) }
}

// Calls returns how often method was called
func (m *MockTransport) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// Payloads returns every trade payload received
func (m *MockTransport) Payloads() []*domain.TradePayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.TradePayload(nil), m.payloads...)
}

// enter records the call, waits on a gate and returns the injected error
func (m *MockTransport) enter(ctx context.Context, method string) error {
	m.mu.Lock()
	m.calls[method]++
	gate := m.gates[method]
	in := m.entered[method]
	if gate != nil {
		delete(m.gates, method)
		delete(m.entered, method)
	}
	m.mu.Unlock()

	if gate != nil {
		close(in)
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errs[method]
}

func (m *MockTransport) ListJournals(ctx context.Context) ([]domain.Journal, error) {
	if err := m.enter(ctx, "ListJournals"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Journal, 0, len(m.journals))
	for _, j := range m.journals {
		out = append(out, j)
	}
	return out, nil
}

func (m *MockTransport) GetJournal(ctx context.Context, journalID string) (*domain.Journal, error) {
	if err := m.enter(ctx, "GetJournal"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.journals[journalID]
	if !ok {
		return nil, fmt.Errorf("journal %s: %w", journalID, ErrNotFound)
	}
	return &j, nil
}

func (m *MockTransport) CreateJournal(ctx context.Context, in domain.JournalInput) (*domain.Journal, error) {
	if err := m.enter(ctx, "CreateJournal"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	j := domain.Journal{ID: fmt.Sprintf("j-%d", m.nextID), Name: in.Name, Description: in.Description}
	m.journals[j.ID] = j
	return &j, nil
}

func (m *MockTransport) UpdateJournal(ctx context.Context, journalID string, in domain.JournalInput) (*domain.Journal, error) {
	if err := m.enter(ctx, "UpdateJournal"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.journals[journalID]
	if !ok {
		return nil, fmt.Errorf("journal %s: %w", journalID, ErrNotFound)
	}
	if in.Name != "" {
		j.Name = in.Name
	}
	if in.Description != "" {
		j.Description = in.Description
	}
	m.journals[journalID] = j
	return &j, nil
}

func (m *MockTransport) DeleteJournal(ctx context.Context, journalID string) error {
	if err := m.enter(ctx, "DeleteJournal"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.journals[journalID]; !ok {
		return fmt.Errorf("journal %s: %w", journalID, ErrNotFound)
	}
	delete(m.journals, journalID)
	for id, t := range m.trades {
		if t.JournalID == journalID {
			delete(m.trades, id)
		}
	}
	return nil
}

func (m *MockTransport) ListTrades(ctx context.Context, journalID string, status domain.TradeStatus) ([]domain.Trade, error) {
	if err := m.enter(ctx, "ListTrades"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Trade{}
	for _, t := range m.trades {
		if t.JournalID == journalID && (status == "" || t.Status == status) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MockTransport) GetTrade(ctx context.Context, tradeID string) (*domain.Trade, error) {
	if err := m.enter(ctx, "GetTrade"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trades[tradeID]
	if !ok {
		return nil, fmt.Errorf("trade %s: %w", tradeID, ErrNotFound)
	}
	return &t, nil
}

func (m *MockTransport) GetJournalStats(ctx context.Context, journalID string) (*domain.JournalStats, error) {
	if err := m.enter(ctx, "GetJournalStats"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stats[journalID]
	return &s, nil
}

func (m *MockTransport) CreateTrade(ctx context.Context, payload *domain.TradePayload) (*domain.Trade, error) {
	if err := m.enter(ctx, "CreateTrade"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = append(m.payloads, payload)
	m.nextID++
	t := domain.Trade{ID: fmt.Sprintf("t-%d", m.nextID)}
	applyPayload(&t, payload)
	m.trades[t.ID] = t
	return &t, nil
}

func (m *MockTransport) UpdateTrade(ctx context.Context, tradeID string, payload *domain.TradePayload) (*domain.Trade, error) {
	if err := m.enter(ctx, "UpdateTrade"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = append(m.payloads, payload)
	t, ok := m.trades[tradeID]
	if !ok {
		return nil, fmt.Errorf("trade %s: %w", tradeID, ErrNotFound)
	}
	applyPayload(&t, payload)
	m.trades[tradeID] = t
	return &t, nil
}

func (m *MockTransport) DeleteTrade(ctx context.Context, tradeID string) error {
	if err := m.enter(ctx, "DeleteTrade"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trades[tradeID]; !ok {
		return fmt.Errorf("trade %s: %w", tradeID, ErrNotFound)
	}
	delete(m.trades, tradeID)
	return nil
}
