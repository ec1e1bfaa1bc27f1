// Package journalapi is the HTTP transport to the journal API.
//
// Reads are JSON. Trade create and update are single multipart requests
// carrying the scalar fields, new screenshots and the removal list
// together, so the server applies them as one change.
package journalapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aristath/tradejournal/internal/domain"
	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL    = "http://localhost:8000/api/v1"
	DefaultUploadsURL = "http://localhost:8000/uploads"
	DefaultTimeout    = 30 * time.Second

	// error bodies larger than this are truncated
	maxErrorBody = 64 << 10
)

var (
	_ domain.JournalTransport = (*Client)(nil)
	_ domain.TradeTransport   = (*Client)(nil)
)

// Client talks to the journal API
type Client struct {
	baseURL    string
	uploadsURL string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a client. Empty URLs and a zero timeout fall back to
// the defaults.
func NewClient(baseURL, uploadsURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if uploadsURL == "" {
		uploadsURL = DefaultUploadsURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		uploadsURL: strings.TrimRight(uploadsURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With().Str("client", "journalapi").Logger(),
	}
}

// UploadURL resolves a stored screenshot path against the uploads base.
// Absolute URLs are returned unchanged.
func (c *Client) UploadURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.uploadsURL + "/" + strings.TrimLeft(path, "/")
}

// ListJournals returns every journal
func (c *Client) ListJournals(ctx context.Context) ([]domain.Journal, error) {
	var out []domain.Journal
	if err := c.doJSON(ctx, http.MethodGet, "/journals", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetJournal returns one journal
func (c *Client) GetJournal(ctx context.Context, journalID string) (*domain.Journal, error) {
	var out domain.Journal
	if err := c.doJSON(ctx, http.MethodGet, "/journals/"+url.PathEscape(journalID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateJournal creates a journal
func (c *Client) CreateJournal(ctx context.Context, in domain.JournalInput) (*domain.Journal, error) {
	var out domain.Journal
	if err := c.doJSON(ctx, http.MethodPost, "/journals", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateJournal updates a journal
func (c *Client) UpdateJournal(ctx context.Context, journalID string, in domain.JournalInput) (*domain.Journal, error) {
	var out domain.Journal
	if err := c.doJSON(ctx, http.MethodPut, "/journals/"+url.PathEscape(journalID), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteJournal deletes a journal and, on the server, its trades
func (c *Client) DeleteJournal(ctx context.Context, journalID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/journals/"+url.PathEscape(journalID), nil, nil)
}

// ListTrades lists a journal's trades; an empty status means no filter
func (c *Client) ListTrades(ctx context.Context, journalID string, status domain.TradeStatus) ([]domain.Trade, error) {
	q := url.Values{}
	q.Set("journal_id", journalID)
	if status != "" {
		q.Set("status", string(status))
	}

	var out []domain.Trade
	if err := c.doJSON(ctx, http.MethodGet, "/trades?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTrade returns one trade
func (c *Client) GetTrade(ctx context.Context, tradeID string) (*domain.Trade, error) {
	var out domain.Trade
	if err := c.doJSON(ctx, http.MethodGet, "/trades/"+url.PathEscape(tradeID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetJournalStats returns the server-computed statistics of a journal
func (c *Client) GetJournalStats(ctx context.Context, journalID string) (*domain.JournalStats, error) {
	var out domain.JournalStats
	if err := c.doJSON(ctx, http.MethodGet, "/trades/journal/"+url.PathEscape(journalID)+"/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTrade sends a new trade as one multipart request
func (c *Client) CreateTrade(ctx context.Context, payload *domain.TradePayload) (*domain.Trade, error) {
	return c.sendTrade(ctx, http.MethodPost, "/trades", payload)
}

// UpdateTrade sends a trade edit as one multipart request
func (c *Client) UpdateTrade(ctx context.Context, tradeID string, payload *domain.TradePayload) (*domain.Trade, error) {
	return c.sendTrade(ctx, http.MethodPut, "/trades/"+url.PathEscape(tradeID), payload)
}

// DeleteTrade deletes a trade
func (c *Client) DeleteTrade(ctx context.Context, tradeID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/trades/"+url.PathEscape(tradeID), nil, nil)
}

func (c *Client) sendTrade(ctx context.Context, method, path string, payload *domain.TradePayload) (*domain.Trade, error) {
	if payload == nil {
		return nil, errors.New("trade payload is nil")
	}

	body, contentType, err := encodeMultipart(payload)
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("fields", len(payload.Fields)).
		Int("screenshots", len(payload.Screenshots)).
		Int("bytes", body.Len()).
		Msg("Sending trade")

	var out domain.Trade
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body *bytes.Buffer
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(b)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body *bytes.Buffer) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = body
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Journal API response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newAPIError(req, resp.StatusCode, raw)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
