package horizon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/olehkaliuzhnyi/piwallet/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"
)

// Breaker thresholds.
var (
	MaxNumOfFailingRequests = 10
	FailingRatio            = 0.6
)

// Result code the network returns when the validity window has passed.
const codeTooLate = "tx_too_late"

const maxBodySize = 1 << 20

// Observer receives per-request latency. Implemented by the metrics package.
type Observer interface {
	ObserveHorizon(op string, d time.Duration, err error)
}

// Client talks to a Horizon-compatible REST API. It never retries; a failing
// upstream trips the circuit breaker instead.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	limiter    ratelimit.Limiter
	observer   Observer
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default 30s-timeout HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit caps outbound requests per second. Zero disables the cap.
func WithRateLimit(perSecond int) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = ratelimit.New(perSecond)
		} else {
			c.limiter = ratelimit.NewUnlimited()
		}
	}
}

// WithObserver reports request latencies.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient creates a new Horizon client for baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: ratelimit.NewUnlimited(),
		logger:  slog.Default().With("component", "horizon"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = newCircuitBreaker("horizon")
	return c
}

// newCircuitBreaker trips once more than MaxNumOfFailingRequests requests
// were seen and at least FailingRatio of them failed. Only upstream
// unavailability counts as a failure; 404s and rejections are answers.
func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: name,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return int(counts.Requests) > MaxNumOfFailingRequests && ratio >= FailingRatio
		},
		IsSuccessful: func(err error) bool {
			var gone callerGone
			if err == nil || errors.As(err, &gone) {
				return true
			}
			return !errors.Is(err, models.ErrOracleUnavailable)
		},
	})
}

// FetchBalance returns the native balance of address. An account that does
// not exist yet has a zero balance.
func (c *Client) FetchBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	acc, err := c.account(ctx, "fetch_balance", address)
	if err != nil {
		return decimal.Zero, err
	}
	if acc == nil {
		c.logger.Info("account not found, treating balance as zero", "address", address)
		return decimal.Zero, nil
	}
	return nativeBalance(acc)
}

// LoadAccount reads the live account state, including the sequence number
// the next transaction must consume. A missing account cannot send.
func (c *Client) LoadAccount(ctx context.Context, address string) (*models.Account, error) {
	acc, err := c.account(ctx, "load_account", address)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, models.NewError(models.KindInsufficientBalance, "account %s does not exist", address).
			WithBalance(address, decimal.Zero)
	}

	seq, err := strconv.ParseInt(acc.Sequence, 10, 64)
	if err != nil {
		return nil, &models.Error{Kind: models.KindMalformedOracleResponse, Message: "parse sequence", Err: err}
	}
	balance, err := nativeBalance(acc)
	if err != nil {
		return nil, err
	}

	id := acc.AccountID
	if id == "" {
		id = acc.ID
	}
	return &models.Account{ID: id, Sequence: seq, Balance: balance}, nil
}

// SubmitTransaction posts a base64 transaction envelope. Structured
// rejections are decoded into their result codes.
func (c *Client) SubmitTransaction(ctx context.Context, envelope string) (*models.Receipt, error) {
	form := url.Values{"tx": {envelope}}

	var receipt *models.Receipt
	err := c.do(ctx, "submit", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transactions", strings.NewReader(form.Encode()))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")

		status, body, err := c.send(req)
		if err != nil {
			return &models.Error{Kind: models.KindOracleUnavailable, Message: "submission outcome unknown", Err: err}
		}
		if status != http.StatusOK {
			return decodeSubmitFailure(status, body)
		}

		var resp submitResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return &models.Error{Kind: models.KindMalformedOracleResponse, Message: "decode submit response", Err: err}
		}
		if resp.Hash == "" {
			return models.NewError(models.KindMalformedOracleResponse, "submit response has no hash")
		}
		if resp.Successful != nil && !*resp.Successful {
			return &models.Error{Kind: models.KindSubmissionRejected, Message: "transaction failed", Status: status}
		}
		receipt = &models.Receipt{Hash: resp.Hash, Ledger: resp.Ledger}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// account fetches /accounts/{address}. A nil record with nil error means the
// account does not exist.
func (c *Client) account(ctx context.Context, op, address string) (*accountResponse, error) {
	var acc *accountResponse
	err := c.do(ctx, op, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/accounts/"+url.PathEscape(address), nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		status, body, err := c.send(req)
		if err != nil {
			return &models.Error{Kind: models.KindOracleUnavailable, Message: "query account", Err: err}
		}
		switch {
		case status == http.StatusNotFound:
			return nil
		case status != http.StatusOK:
			return &models.Error{Kind: models.KindOracleUnavailable, Message: "query account", Status: status}
		}

		var resp accountResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return &models.Error{Kind: models.KindMalformedOracleResponse, Message: "decode account", Err: err}
		}
		acc = &resp
		return nil
	})
	return acc, err
}

// do runs fn under the rate limiter and circuit breaker and reports latency.
func (c *Client) do(ctx context.Context, op string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return &models.Error{Kind: models.KindOracleUnavailable, Message: op, Err: err}
	}
	c.limiter.Take()
	if err := ctx.Err(); err != nil {
		return &models.Error{Kind: models.KindOracleUnavailable, Message: op, Err: err}
	}

	start := time.Now()
	_, err := c.breaker.Execute(func() (interface{}, error) {
		err := fn()
		if err != nil && ctx.Err() != nil {
			return nil, callerGone{err: err}
		}
		return nil, err
	})
	var gone callerGone
	switch {
	case errors.As(err, &gone):
		err = gone.err
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		err = &models.Error{Kind: models.KindOracleUnavailable, Message: "horizon circuit open", Err: err}
	}
	if c.observer != nil {
		c.observer.ObserveHorizon(op, time.Since(start), err)
	}
	if err != nil {
		c.logger.Warn("horizon request failed", "op", op, "error", err)
	}
	return err
}

// callerGone marks a failure caused by the caller's own context ending. It
// says nothing about upstream health, so the breaker does not count it.
type callerGone struct{ err error }

func (e callerGone) Error() string { return e.err.Error() }
func (e callerGone) Unwrap() error { return e.err }

func (c *Client) send(req *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return 0, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func nativeBalance(acc *accountResponse) (decimal.Decimal, error) {
	for _, b := range acc.Balances {
		if b.AssetType != nativeAssetType {
			continue
		}
		v, err := decimal.NewFromString(b.Balance)
		if err != nil {
			return decimal.Zero, &models.Error{Kind: models.KindMalformedOracleResponse, Message: "parse native balance", Err: err}
		}
		return v, nil
	}
	return decimal.Zero, models.NewError(models.KindMalformedOracleResponse, "no native balance entry")
}

// decodeSubmitFailure turns a non-200 submit response into a typed error.
func decodeSubmitFailure(status int, body []byte) error {
	var p problem
	if err := json.Unmarshal(body, &p); err != nil || p.Extras.ResultCodes == nil {
		if status >= http.StatusInternalServerError {
			return &models.Error{Kind: models.KindOracleUnavailable, Message: "submission outcome unknown", Status: status}
		}
		msg := p.Title
		if msg == "" {
			msg = "transaction rejected"
		}
		return &models.Error{Kind: models.KindSubmissionRejected, Message: msg, Status: status}
	}

	codes := &models.ResultCodes{
		Transaction: p.Extras.ResultCodes.Transaction,
		Operations:  p.Extras.ResultCodes.Operations,
	}
	kind := models.KindSubmissionRejected
	if codes.Has(codeTooLate) {
		kind = models.KindSubmissionExpired
	}
	return &models.Error{Kind: kind, Message: p.Title, Status: status, ResultCodes: codes}
}
