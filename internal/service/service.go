// Package service runs the two caller-facing flows: a read-only balance check
// and a reserve-respecting automatic transfer. Transport adapters stay thin
// and call into here.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/olehkaliuzhnyi/piwallet/internal/planner"
	"github.com/olehkaliuzhnyi/piwallet/internal/tx"
	"github.com/olehkaliuzhnyi/piwallet/internal/wallet"
	"github.com/olehkaliuzhnyi/piwallet/pkg/models"
	"github.com/shopspring/decimal"
)

// BalanceOracle reads the native balance of an account.
type BalanceOracle interface {
	FetchBalance(ctx context.Context, address string) (decimal.Decimal, error)
}

// PaymentSender loads, signs and submits a payment once.
type PaymentSender interface {
	Send(ctx context.Context, req tx.SendRequest) (*models.Transaction, error)
}

// Recorder counts flow outcomes. A nil error is a success.
type Recorder interface {
	RecordBalanceCheck(err error)
	RecordSubmission(err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordBalanceCheck(error) {}
func (nopRecorder) RecordSubmission(error)   {}

// Settings are the deployment-level policy values.
type Settings struct {
	MinReserve         decimal.Decimal
	PlanningFee        decimal.Decimal
	DefaultDestination string
}

// Service owns no cross-request state; every call derives its own keypair
// and reads the network afresh.
type Service struct {
	deriver     wallet.Deriver
	oracle      BalanceOracle
	sender      PaymentSender
	planner     *planner.Planner
	destination string
	recorder    Recorder
	logger      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder reports outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// New creates a Service.
func New(deriver wallet.Deriver, oracle BalanceOracle, sender PaymentSender, settings Settings, opts ...Option) *Service {
	s := &Service{
		deriver:     deriver,
		oracle:      oracle,
		sender:      sender,
		planner:     planner.New(settings.MinReserve, settings.PlanningFee),
		destination: settings.DefaultDestination,
		recorder:    nopRecorder{},
		logger:      slog.Default().With("component", "service", "network", string(deriver.Network())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Address derives only the public account address for mnemonic.
func (s *Service) Address(mnemonic string) (string, error) {
	kp, err := s.deriver.Derive(mnemonic)
	if err != nil {
		return "", err
	}
	return kp.Address(), nil
}

// Describe derives the account's public details: address, path and hex
// public key.
func (s *Service) Describe(mnemonic string) (*models.DerivedAddress, error) {
	return s.deriver.Describe(mnemonic)
}

// CheckBalance derives the account, reads its balance and reports what could
// be sent under the default reserve.
func (s *Service) CheckBalance(ctx context.Context, mnemonic string) (report *models.BalanceReport, err error) {
	defer func() { s.recorder.RecordBalanceCheck(err) }()

	kp, err := s.deriver.Derive(mnemonic)
	if err != nil {
		return nil, err
	}
	address := kp.Address()

	balance, err := s.oracle.FetchBalance(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("fetch balance: %w", err)
	}

	plan := s.planner.Plan(balance)
	s.logger.Info("balance checked",
		"address", address,
		"balance", balance.StringFixed(planner.AmountPrecision),
		"can_send", plan.Feasible,
	)

	return &models.BalanceReport{
		PublicKey:       address,
		Balance:         balance,
		CanSend:         plan.Feasible,
		AvailableToSend: plan.Amount,
		MinBalance:      plan.MinReserve,
		TxFee:           plan.Fee,
	}, nil
}

// AutoSendRequest carries the caller's inputs. Destination and MinReserve are
// optional; MinReserve is coerced with planner.ParseReserve.
type AutoSendRequest struct {
	Mnemonic    string
	Destination string
	MinReserve  string
}

// AutoSend moves everything above reserve and fee to the destination. An
// infeasible plan returns ErrInsufficientBalance before any account load,
// signature or submission takes place.
func (s *Service) AutoSend(ctx context.Context, req AutoSendRequest) (result *models.SendResult, err error) {
	defer func() { s.recorder.RecordSubmission(err) }()

	destination := strings.TrimSpace(req.Destination)
	if destination == "" {
		destination = s.destination
	}
	if err := tx.ValidateDestination(destination); err != nil {
		return nil, err
	}
	minReserve := planner.ParseReserve(req.MinReserve, s.planner.MinReserve())

	kp, err := s.deriver.Derive(req.Mnemonic)
	if err != nil {
		return nil, err
	}
	address := kp.Address()

	balance, err := s.oracle.FetchBalance(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("fetch balance: %w", err)
	}

	plan := s.planner.PlanWithReserve(balance, minReserve)
	if !plan.Feasible {
		s.logger.Info("transfer not possible",
			"address", address,
			"balance", balance.StringFixed(planner.AmountPrecision),
			"min_reserve", minReserve.String(),
		)
		return nil, models.NewError(models.KindInsufficientBalance,
			"balance must exceed %s", minReserve.Add(plan.Fee).String(),
		).WithBalance(address, balance)
	}

	sent, err := s.sender.Send(ctx, tx.SendRequest{
		Signer:      kp,
		Destination: destination,
		Amount:      plan.Amount,
	})
	if err != nil {
		return nil, fmt.Errorf("send payment: %w", err)
	}

	s.logger.Info("payment sent",
		"address", address,
		"destination", destination,
		"amount", sent.Amount.StringFixed(planner.AmountPrecision),
		"tx_hash", sent.TxHash,
	)

	return &models.SendResult{
		Success:          true,
		PublicKey:        address,
		SentAmount:       sent.Amount,
		Destination:      destination,
		RemainingBalance: minReserve,
		TransactionHash:  sent.TxHash,
	}, nil
}
