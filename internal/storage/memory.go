package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/olehkaliuzhnyi/piwallet/pkg/models"
)

// MemoryJournal is an in-memory Journal. Entries whose validity window has
// closed are dropped on the next Reserve; the network refuses those
// envelopes anyway.
type MemoryJournal struct {
	mu      sync.RWMutex
	entries map[string]*Record
	now     func() time.Time
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{
		entries: make(map[string]*Record),
		now:     time.Now,
	}
}

func (j *MemoryJournal) Reserve(tx *models.Transaction) error {
	if tx == nil || tx.TxHash == "" {
		return fmt.Errorf("journal: transaction has no hash")
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pruneLocked()
	if _, ok := j.entries[tx.TxHash]; ok {
		return models.NewError(models.KindDuplicateSubmission, "transaction %s already submitted", tx.TxHash)
	}
	j.entries[tx.TxHash] = &Record{Tx: tx}
	return nil
}

func (j *MemoryJournal) Get(hash string) (*Record, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if r, ok := j.entries[hash]; ok {
		rec := *r
		return &rec, nil
	}
	return nil, nil
}

func (j *MemoryJournal) Complete(hash string, receipt *models.Receipt) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	r, ok := j.entries[hash]
	if !ok {
		return fmt.Errorf("journal: unknown transaction %s", hash)
	}
	r.Receipt = receipt
	return nil
}

// pruneLocked drops entries past their MaxTime. A zero MaxTime never expires.
func (j *MemoryJournal) pruneLocked() {
	now := j.now().Unix()
	for hash, r := range j.entries {
		if r.Tx.MaxTime != 0 && r.Tx.MaxTime < now {
			delete(j.entries, hash)
		}
	}
}
