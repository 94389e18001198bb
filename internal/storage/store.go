package storage

import "github.com/olehkaliuzhnyi/piwallet/pkg/models"

// Record is a journaled transaction and, once the network accepted it, its
// receipt.
type Record struct {
	Tx      *models.Transaction
	Receipt *models.Receipt
}

// Journal records every signed envelope before it is submitted so the same
// envelope can never go out twice.
type Journal interface {
	// Reserve stores tx under its hash. It fails with
	// models.ErrDuplicateSubmission if the hash is already present.
	Reserve(tx *models.Transaction) error
	// Get returns the record for hash, or nil if not found.
	Get(hash string) (*Record, error)
	// Complete attaches the network receipt to a reserved transaction.
	Complete(hash string, receipt *models.Receipt) error
}
