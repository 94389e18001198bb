package models

import "github.com/shopspring/decimal"

// Network represents a ledger network sharing the Stellar protocol.
type Network string

// Supported ledger networks.
const (
	NetworkPi      Network = "PI"
	NetworkStellar Network = "XLM"
)

// DerivedAddress holds a generated address with its derivation path
type DerivedAddress struct {
	Network        Network `json:"network"`
	Address        string  `json:"address"`
	DerivationPath string  `json:"derivation_path"`
	PublicKey      string  `json:"public_key"`
}

// Account is the live on-chain state of a source account.
type Account struct {
	ID       string          `json:"id"`
	Sequence int64           `json:"sequence"`
	Balance  decimal.Decimal `json:"balance"`
}

// TransferPlan is the outcome of the reserve-respecting transfer decision.
// Infeasible plans always carry a zero Amount.
type TransferPlan struct {
	Feasible   bool            `json:"feasible"`
	Amount     decimal.Decimal `json:"amount"`
	Balance    decimal.Decimal `json:"balance"`
	MinReserve decimal.Decimal `json:"min_reserve"`
	Fee        decimal.Decimal `json:"fee"`
}

// Transaction represents a single-payment transaction through its lifecycle.
type Transaction struct {
	Network  Network         `json:"network"`
	From     string          `json:"from"`
	To       string          `json:"to"`
	Amount   decimal.Decimal `json:"amount"`
	Fee      int64           `json:"fee"`
	Sequence int64           `json:"sequence"`
	Memo     string          `json:"memo,omitempty"`
	MaxTime  int64           `json:"max_time"`
	Signed   bool            `json:"signed"`
	TxHash   string          `json:"tx_hash,omitempty"`
	Envelope string          `json:"-"`
}

// Receipt is what the network returns for an accepted transaction.
type Receipt struct {
	Hash   string `json:"hash"`
	Ledger int32  `json:"ledger,omitempty"`
}

// BalanceReport is the result of the read-only balance check.
type BalanceReport struct {
	PublicKey       string          `json:"publicKey"`
	Balance         decimal.Decimal `json:"balance"`
	CanSend         bool            `json:"canSend"`
	AvailableToSend decimal.Decimal `json:"availableToSend"`
	MinBalance      decimal.Decimal `json:"minBalance"`
	TxFee           decimal.Decimal `json:"txFee"`
}

// SendResult is the result of a successful automatic transfer.
type SendResult struct {
	Success          bool            `json:"success"`
	PublicKey        string          `json:"publicKey"`
	SentAmount       decimal.Decimal `json:"sentAmount"`
	Destination      string          `json:"destination"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
	TransactionHash  string          `json:"transactionHash"`
}
