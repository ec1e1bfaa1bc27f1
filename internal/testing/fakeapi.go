package testing

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/go-chi/chi/v5"
)

// RecordedPart is one multipart part received by the fake API
type RecordedPart struct {
	Name        string
	FileName    string
	ContentType string
	Value       string
}

// FakeAPI is an in-memory journal API served over httptest
type FakeAPI struct {
	Server *httptest.Server

	mu       sync.Mutex
	journals map[string]domain.Journal
	trades   map[string]domain.Trade
	requests map[string]int
	failures map[string]failure
	parts    [][]RecordedPart
	nextID   int
}

type failure struct {
	status int
	detail string
}

// NewFakeAPI starts a fake API that is shut down when the test ends
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	api := &FakeAPI{
		journals: make(map[string]domain.Journal),
		trades:   make(map[string]domain.Trade),
		requests: make(map[string]int),
		failures: make(map[string]failure),
	}

	r := chi.NewRouter()
	r.Use(api.record)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/journals", api.listJournals)
		r.Post("/journals", api.createJournal)
		r.Get("/journals/{id}", api.getJournal)
		r.Put("/journals/{id}", api.updateJournal)
		r.Delete("/journals/{id}", api.deleteJournal)

		r.Get("/trades", api.listTrades)
		r.Post("/trades", api.createTrade)
		r.Get("/trades/journal/{id}/stats", api.stats)
		r.Get("/trades/{id}", api.getTrade)
		r.Put("/trades/{id}", api.updateTrade)
		r.Delete("/trades/{id}", api.deleteTrade)
	})

	api.Server = httptest.NewServer(r)
	t.Cleanup(api.Server.Close)
	return api
}

// URL is the API base, e.g. http://127.0.0.1:1234/api/v1
func (a *FakeAPI) URL() string {
	return a.Server.URL + "/api/v1"
}

// AddJournal seeds a journal
func (a *FakeAPI) AddJournal(j domain.Journal) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.journals[j.ID] = j
}

// AddTrade seeds a trade
func (a *FakeAPI) AddTrade(t domain.Trade) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.trades[t.ID] = t
}

// Trade returns the stored trade
func (a *FakeAPI) Trade(id string) (domain.Trade, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.trades[id]
	return t, ok
}

// Fail makes every request matching "METHOD /path" answer with status
// until cleared with status 0
func (a *FakeAPI) Fail(route string, status int, detail string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if status == 0 {
		delete(a.failures, route)
		return
	}
	a.failures[route] = failure{status: status, detail: detail}
}

// Requests returns how often "METHOD /path" was requested
func (a *FakeAPI) Requests(route string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests[route]
}

// Parts returns the multipart parts of every trade mutation, in order
func (a *FakeAPI) Parts() [][]RecordedPart {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([][]RecordedPart(nil), a.parts...)
}

func (a *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path
		a.mu.Lock()
		a.requests[route]++
		f, failing := a.failures[route]
		a.mu.Unlock()

		if failing {
			writeJSON(w, f.status, map[string]string{"detail": f.detail})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter, what string) {
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": what + " not found"})
}

func (a *FakeAPI) listJournals(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.Journal, 0, len(a.journals))
	for _, j := range a.journals {
		count := 0
		for _, t := range a.trades {
			if t.JournalID == j.ID {
				count++
			}
		}
		j.TradesCount = &count
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	writeJSON(w, http.StatusOK, out)
}

func (a *FakeAPI) getJournal(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	j, ok := a.journals[chi.URLParam(r, "id")]
	if !ok {
		notFound(w, "journal")
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (a *FakeAPI) createJournal(w http.ResponseWriter, r *http.Request) {
	var in domain.JournalInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "name is required"})
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	j := domain.Journal{ID: fmt.Sprintf("j-%d", a.nextID), Name: in.Name, Description: in.Description, CreatedAt: domain.NewTimestamp(FixtureTime)}
	a.journals[j.ID] = j
	writeJSON(w, http.StatusCreated, j)
}

func (a *FakeAPI) updateJournal(w http.ResponseWriter, r *http.Request) {
	var in domain.JournalInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	id := chi.URLParam(r, "id")
	j, ok := a.journals[id]
	if !ok {
		notFound(w, "journal")
		return
	}
	if in.Name != "" {
		j.Name = in.Name
	}
	if in.Description != "" {
		j.Description = in.Description
	}
	a.journals[id] = j
	writeJSON(w, http.StatusOK, j)
}

func (a *FakeAPI) deleteJournal(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, ok := a.journals[id]; !ok {
		notFound(w, "journal")
		return
	}
	delete(a.journals, id)
	for tid, t := range a.trades {
		if t.JournalID == id {
			delete(a.trades, tid)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *FakeAPI) listTrades(w http.ResponseWriter, r *http.Request) {
	journalID := r.URL.Query().Get("journal_id")
	status := domain.TradeStatus(r.URL.Query().Get("status"))

	a.mu.Lock()
	defer a.mu.Unlock()
	out := []domain.Trade{}
	for _, t := range a.trades {
		if (journalID == "" || t.JournalID == journalID) && (status == "" || t.Status == status) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	writeJSON(w, http.StatusOK, out)
}

func (a *FakeAPI) getTrade(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.trades[chi.URLParam(r, "id")]
	if !ok {
		notFound(w, "trade")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *FakeAPI) stats(w http.ResponseWriter, r *http.Request) {
	journalID := chi.URLParam(r, "id")

	a.mu.Lock()
	defer a.mu.Unlock()
	var s domain.JournalStats
	for _, t := range a.trades {
		if t.JournalID != journalID {
			continue
		}
		s.TotalTrades++
		if t.Status != domain.TradeStatusClosed {
			continue
		}
		s.TotalPnLUSDT += t.PnLUSDT
		if t.PnLUSDT > 0 {
			s.WinningTrades++
		} else {
			s.LosingTrades++
		}
		if t.PnLUSDT > s.BestTrade {
			s.BestTrade = t.PnLUSDT
		}
		if t.PnLUSDT < s.WorstTrade {
			s.WorstTrade = t.PnLUSDT
		}
	}
	if closed := s.WinningTrades + s.LosingTrades; closed > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(closed) * 100
	}
	writeJSON(w, http.StatusOK, s)
}

func (a *FakeAPI) createTrade(w http.ResponseWriter, r *http.Request) {
	parts, err := readParts(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.parts = append(a.parts, parts)
	a.nextID++
	t := domain.Trade{
		ID:        fmt.Sprintf("t-%d", a.nextID),
		CreatedAt: domain.NewTimestamp(FixtureTime),
		UpdatedAt: domain.NewTimestamp(FixtureTime),
	}
	applyParts(&t, parts)
	if _, ok := a.journals[t.JournalID]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "journal not found"})
		return
	}
	a.trades[t.ID] = t
	writeJSON(w, http.StatusCreated, t)
}

func (a *FakeAPI) updateTrade(w http.ResponseWriter, r *http.Request) {
	parts, err := readParts(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.parts = append(a.parts, parts)
	id := chi.URLParam(r, "id")
	t, ok := a.trades[id]
	if !ok {
		notFound(w, "trade")
		return
	}
	applyParts(&t, parts)
	a.trades[id] = t
	writeJSON(w, http.StatusOK, t)
}

func (a *FakeAPI) deleteTrade(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, ok := a.trades[id]; !ok {
		notFound(w, "trade")
		return
	}
	delete(a.trades, id)
	w.WriteHeader(http.StatusNoContent)
}

// readParts reads a multipart body in order without buffering it to disk
func readParts(r *http.Request) ([]RecordedPart, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("expected multipart body: %w", err)
	}

	var parts []RecordedPart
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			return parts, nil
		}
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(p)
		if err != nil {
			return nil, err
		}
		rp := RecordedPart{
			Name:        p.FormName(),
			FileName:    p.FileName(),
			ContentType: p.Header.Get("Content-Type"),
		}
		if rp.FileName == "" {
			rp.Value = string(content)
		}
		parts = append(parts, rp)
	}
}

func applyParts(t *domain.Trade, parts []RecordedPart) {
	get := func(name string) (string, bool) {
		for _, p := range parts {
			if p.Name == name && p.FileName == "" {
				return p.Value, true
			}
		}
		return "", false
	}
	var uploaded []string
	for _, p := range parts {
		if p.Name == domain.FieldScreenshots && p.FileName != "" {
			uploaded = append(uploaded, p.FileName)
		}
	}
	applyFields(t, get, uploaded)
}
