package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrorKind classifies failures of the balance check and transfer flow.
type ErrorKind string

// Failure kinds. Every failure is terminal for the request that produced it.
const (
	KindInvalidMnemonic         ErrorKind = "invalid_mnemonic"
	KindInvalidDestination      ErrorKind = "invalid_destination"
	KindOracleUnavailable       ErrorKind = "oracle_unavailable"
	KindMalformedOracleResponse ErrorKind = "malformed_oracle_response"
	KindInsufficientBalance     ErrorKind = "insufficient_balance"
	KindSubmissionRejected      ErrorKind = "submission_rejected"
	KindSubmissionExpired       ErrorKind = "submission_expired"
	KindDuplicateSubmission     ErrorKind = "duplicate_submission"
	KindDerivation              ErrorKind = "derivation_error"
)

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrInvalidMnemonic         = &Error{Kind: KindInvalidMnemonic}
	ErrInvalidDestination      = &Error{Kind: KindInvalidDestination}
	ErrOracleUnavailable       = &Error{Kind: KindOracleUnavailable}
	ErrMalformedOracleResponse = &Error{Kind: KindMalformedOracleResponse}
	ErrInsufficientBalance     = &Error{Kind: KindInsufficientBalance}
	ErrSubmissionRejected      = &Error{Kind: KindSubmissionRejected}
	ErrSubmissionExpired       = &Error{Kind: KindSubmissionExpired}
	ErrDuplicateSubmission     = &Error{Kind: KindDuplicateSubmission}
	ErrDerivation              = &Error{Kind: KindDerivation}
)

// ResultCodes are the decoded transaction and operation result codes
// of a rejected submission.
type ResultCodes struct {
	Transaction string   `json:"transaction"`
	Operations  []string `json:"operations,omitempty"`
}

// Has reports whether code appears at transaction or operation level.
func (rc *ResultCodes) Has(code string) bool {
	if rc == nil {
		return false
	}
	if rc.Transaction == code {
		return true
	}
	for _, op := range rc.Operations {
		if op == code {
			return true
		}
	}
	return false
}

func (rc *ResultCodes) String() string {
	if rc == nil {
		return ""
	}
	if len(rc.Operations) == 0 {
		return rc.Transaction
	}
	return fmt.Sprintf("%s [%s]", rc.Transaction, strings.Join(rc.Operations, ", "))
}

// Error is a typed failure. Message must never carry key material or the
// mnemonic; PublicKey and Balance are attached where they help diagnosis.
type Error struct {
	Kind        ErrorKind
	Message     string
	Status      int
	ResultCodes *ResultCodes
	PublicKey   string
	Balance     *decimal.Decimal
	Err         error
}

// NewError returns an Error of the given kind.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.ResultCodes != nil {
		msg += ": " + e.ResultCodes.String()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// WithBalance attaches the observed account state.
func (e *Error) WithBalance(publicKey string, balance decimal.Decimal) *Error {
	e.PublicKey = publicKey
	e.Balance = &balance
	return e
}
