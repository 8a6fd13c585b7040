package usecase

import (
	"sync"

	"BDRScan/internal/domain/models"
)

// History is the bounded in-memory log of completed analyses. When the
// cap is reached the oldest entry is dropped.
type History struct {
	mu      sync.Mutex
	entries []models.HistoryEntry
	max     int
}

// NewHistory creates a history log holding at most max entries.
func NewHistory(max int) *History {
	if max <= 0 {
		max = 100
	}
	return &History{max: max}
}

// Add appends one entry, evicting the oldest when full.
func (h *History) Add(e models.HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, e)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
}

// List returns a copy of the entries, oldest first.
func (h *History) List() []models.HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]models.HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Clear removes all entries.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}

// Len returns the current entry count.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
