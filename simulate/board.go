package simulate

import (
	"sync"
	"time"
)

// Record is the output of one completed stage.
type Record struct {
	RunID          string      `json:"runId"`
	Stage          string      `json:"stage"`
	User           *User       `json:"user,omitempty"`
	Validation     *Validation `json:"validation,omitempty"`
	RegionPolicy   string      `json:"regionPolicy,omitempty"`
	WelcomeMessage string      `json:"welcomeMessage,omitempty"`
	FailedAt       string      `json:"failedAt,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}

// Publisher receives stage records as they are produced.
type Publisher interface {
	// Reset is called when a new run starts.
	Reset()
	Publish(r Record)
}

// Board keeps the latest record of every stage.
type Board struct {
	mu      sync.RWMutex
	records map[string]Record
}

var _ Publisher = (*Board)(nil)

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{records: make(map[string]Record)}
}

// Reset drops every record.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = make(map[string]Record)
}

// Publish stores r as the latest record of its stage.
func (b *Board) Publish(r Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records[r.Stage] = r
}

// Get returns the record published for stage.
func (b *Board) Get(stage string) (Record, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	r, ok := b.records[stage]
	return r, ok
}

// Records returns a copy of all records keyed by stage.
func (b *Board) Records() map[string]Record {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]Record, len(b.records))
	for k, v := range b.records {
		out[k] = v
	}
	return out
}
