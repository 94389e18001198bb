package tx

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olehkaliuzhnyi/piwallet/internal/planner"
	"github.com/olehkaliuzhnyi/piwallet/internal/storage"
	"github.com/olehkaliuzhnyi/piwallet/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stellar/go-stellar-sdk/strkey"
	"github.com/stellar/go-stellar-sdk/txnbuild"
	"github.com/stellar/go-stellar-sdk/xdr"
)

// MaxMemoTextBytes is the network limit on MEMO_TEXT.
const MaxMemoTextBytes = 28

// AccountLoader reads live account state, sequence number included.
type AccountLoader interface {
	LoadAccount(ctx context.Context, address string) (*models.Account, error)
}

// Submitter posts a signed envelope to the network.
type Submitter interface {
	SubmitTransaction(ctx context.Context, envelope string) (*models.Receipt, error)
}

// Signer signs transaction hashes. wallet.Keypair implements it.
type Signer interface {
	Address() string
	SignDecorated(payload []byte) (xdr.DecoratedSignature, error)
	Verify(payload, sig []byte) error
}

// BuilderConfig holds configurable parameters for the transaction builder.
type BuilderConfig struct {
	Network           models.Network
	NetworkPassphrase string
	BaseFee           int64 // stroops per operation
	Memo              string
	Timeout           time.Duration
}

// Builder assembles, signs and submits single-payment transactions. It never
// retries a submission: a failed send must be re-planned from a fresh balance.
type Builder struct {
	loader    AccountLoader
	submitter Submitter
	journal   storage.Journal
	logger    *slog.Logger
	cfg       BuilderConfig
	now       func() time.Time
}

// NewBuilder creates a new transaction builder with the given config and collaborators.
func NewBuilder(cfg BuilderConfig, loader AccountLoader, submitter Submitter, journal storage.Journal) *Builder {
	if cfg.BaseFee <= 0 {
		cfg.BaseFee = txnbuild.MinBaseFee
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Network == "" {
		cfg.Network = models.NetworkPi
	}
	return &Builder{
		loader:    loader,
		submitter: submitter,
		journal:   journal,
		logger:    slog.Default().With("component", "tx_builder", "network", string(cfg.Network)),
		cfg:       cfg,
		now:       time.Now,
	}
}

// SendRequest represents a request to send a native payment.
type SendRequest struct {
	Signer      Signer
	Destination string
	Amount      decimal.Decimal
}

// ValidateDestination checks that address is an ed25519 account strkey.
func ValidateDestination(address string) error {
	if !strkey.IsValidEd25519PublicKey(address) {
		return models.NewError(models.KindInvalidDestination, "destination %q is not a valid account address", address)
	}
	return nil
}

// Send loads the source account, builds and signs one payment against its
// current sequence number, and submits it exactly once.
func (b *Builder) Send(ctx context.Context, req SendRequest) (*models.Transaction, error) {
	if err := ValidateDestination(req.Destination); err != nil {
		return nil, err
	}
	from := req.Signer.Address()
	amount := planner.Truncate(req.Amount)
	if !amount.IsPositive() {
		return nil, models.NewError(models.KindInsufficientBalance, "amount %s rounds to zero", req.Amount)
	}

	// Fresh read: the sequence number is single use.
	account, err := b.loader.LoadAccount(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	built, tx, err := b.Build(account, req.Destination, amount)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	if tx.From != from {
		return nil, models.NewError(models.KindMalformedOracleResponse, "loaded account %s does not match signer %s", tx.From, from)
	}

	signed, err := b.sign(built, tx, req.Signer)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}

	b.logger.Info("built transaction",
		"from", signed.From,
		"to", signed.To,
		"amount", signed.Amount.StringFixed(planner.AmountPrecision),
		"sequence", signed.Sequence,
		"tx_hash", signed.TxHash,
	)

	receipt, err := b.submit(ctx, signed)
	if err != nil {
		return nil, err
	}
	sent := *signed
	sent.TxHash = receipt.Hash
	return &sent, nil
}

// Build assembles the unsigned payment transaction for account.
func (b *Builder) Build(account *models.Account, destination string, amount decimal.Decimal) (*txnbuild.Transaction, *models.Transaction, error) {
	if len(b.cfg.Memo) > MaxMemoTextBytes {
		return nil, nil, fmt.Errorf("memo is %d bytes, limit %d", len(b.cfg.Memo), MaxMemoTextBytes)
	}

	if !strkey.IsValidEd25519PublicKey(account.ID) {
		return nil, nil, models.NewError(models.KindMalformedOracleResponse, "account id %q is not a valid address", account.ID)
	}
	source := txnbuild.NewSimpleAccount(account.ID, account.Sequence)
	maxTime := b.now().Add(b.cfg.Timeout).Unix()

	var memo txnbuild.Memo
	if b.cfg.Memo != "" {
		memo = txnbuild.MemoText(b.cfg.Memo)
	}

	built, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &source,
		IncrementSequenceNum: true,
		Operations: []txnbuild.Operation{
			&txnbuild.Payment{
				Destination: destination,
				Amount:      planner.FormatAmount(amount),
				Asset:       txnbuild.NativeAsset{},
			},
		},
		BaseFee:       b.cfg.BaseFee,
		Memo:          memo,
		Preconditions: txnbuild.Preconditions{TimeBounds: txnbuild.NewTimebounds(0, maxTime)},
	})
	if err != nil {
		return nil, nil, &models.Error{Kind: models.KindMalformedOracleResponse, Message: "account state cannot form a transaction", Err: err}
	}

	return built, &models.Transaction{
		Network:  b.cfg.Network,
		From:     account.ID,
		To:       destination,
		Amount:   planner.Truncate(amount),
		Fee:      b.cfg.BaseFee,
		Sequence: built.SequenceNumber(),
		Memo:     b.cfg.Memo,
		MaxTime:  maxTime,
	}, nil
}

func (b *Builder) sign(built *txnbuild.Transaction, tx *models.Transaction, signer Signer) (*models.Transaction, error) {
	hash, err := built.Hash(b.cfg.NetworkPassphrase)
	if err != nil {
		return nil, &models.Error{Kind: models.KindDerivation, Message: "hash transaction", Err: err}
	}
	sig, err := signer.SignDecorated(hash[:])
	if err != nil {
		return nil, &models.Error{Kind: models.KindDerivation, Message: "sign transaction", Err: err}
	}
	if err := signer.Verify(hash[:], sig.Signature); err != nil {
		return nil, &models.Error{Kind: models.KindDerivation, Message: "signature does not verify against the source key", Err: err}
	}
	built, err = built.AddSignatureDecorated(sig)
	if err != nil {
		return nil, &models.Error{Kind: models.KindDerivation, Message: "attach signature", Err: err}
	}
	envelope, err := built.Base64()
	if err != nil {
		return nil, &models.Error{Kind: models.KindDerivation, Message: "encode envelope", Err: err}
	}

	tx.TxHash = hex.EncodeToString(hash[:])
	tx.Signed = true
	tx.Envelope = envelope
	return tx, nil
}

// submit posts the signed envelope once. Nothing here retries.
func (b *Builder) submit(ctx context.Context, tx *models.Transaction) (*models.Receipt, error) {
	if b.now().Unix() > tx.MaxTime {
		return nil, models.NewError(models.KindSubmissionExpired, "validity window closed before submission")
	}
	rec, err := b.journal.Get(tx.TxHash)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	if rec != nil && rec.Receipt != nil {
		b.logger.Info("transaction already accepted",
			"tx_hash", tx.TxHash,
			"ledger", rec.Receipt.Ledger,
		)
		return rec.Receipt, nil
	}
	if err := b.journal.Reserve(tx); err != nil {
		return nil, err
	}

	receipt, err := b.submitter.SubmitTransaction(ctx, tx.Envelope)
	if err != nil {
		var perr *models.Error
		if errors.As(err, &perr) && perr.ResultCodes != nil {
			b.logger.Warn("transaction rejected",
				"tx_hash", tx.TxHash,
				"result_codes", perr.ResultCodes.String(),
			)
		} else {
			b.logger.Warn("transaction submission failed", "tx_hash", tx.TxHash, "error", err)
		}
		return nil, err
	}

	if receipt.Hash != tx.TxHash {
		b.logger.Warn("network hash differs from local hash",
			"local", tx.TxHash,
			"network", receipt.Hash,
		)
	}
	if err := b.journal.Complete(tx.TxHash, receipt); err != nil {
		b.logger.Error("journal complete failed", "tx_hash", tx.TxHash, "error", err)
	}

	b.logger.Info("transaction submitted",
		"tx_hash", receipt.Hash,
		"ledger", receipt.Ledger,
	)
	return receipt, nil
}
