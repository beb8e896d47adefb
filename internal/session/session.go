// Package session holds the working state of a purchasing session: the
// analysed period, policy inputs, filters, edited quantities and receiving
// inputs. The state is a plain value that is loaded and saved explicitly.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/andresuchdata/purchasing-admin/backend-go/internal/landedcost"
	"github.com/andresuchdata/purchasing-admin/backend-go/internal/reorder"
)

const dateLayout = "2006-01-02"

var (
	ErrNotFound  = errors.New("session not found")
	ErrInvalidID = errors.New("invalid session id")
)

// Filters narrow the suggestion list.
type Filters struct {
	Supplier   string `json:"supplier,omitempty"`
	Collection string `json:"collection,omitempty"`
	Urgency    string `json:"urgency,omitempty"`
	SortBy     string `json:"sort_by,omitempty"`
	SortDir    string `json:"sort_dir,omitempty"`
}

// Receiving holds the inputs of an open receiving dialog.
type Receiving struct {
	OrderID     string            `json:"order_id,omitempty"`
	PriceListID string            `json:"price_list_id,omitempty"`
	Params      landedcost.Params `json:"params"`
	Quantities  map[string]int    `json:"quantities,omitempty"`
}

// State is the serializable session value.
type State struct {
	ID                string         `json:"id"`
	StartDate         string         `json:"start_date"`
	EndDate           string         `json:"end_date"`
	Policy            string         `json:"policy"`
	Params            reorder.Params `json:"params"`
	Filters           Filters        `json:"filters"`
	EditedQuantities  map[string]int `json:"edited_quantities,omitempty"`
	SelectedRows      []string       `json:"selected_rows,omitempty"`
	SelectedPriceList string         `json:"selected_price_list,omitempty"`
	Receiving         *Receiving     `json:"receiving,omitempty"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// New returns a state for id with the default period: the first day of the
// current month up to yesterday.
func New(id string, params reorder.Params, now time.Time) State {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	yesterday := now.AddDate(0, 0, -1)
	if yesterday.Before(first) {
		first = yesterday
	}
	return State{
		ID:        id,
		StartDate: first.Format(dateLayout),
		EndDate:   yesterday.Format(dateLayout),
		Policy:    reorder.PolicyDepletionAware,
		Params:    params,
	}
}

// Period parses the stored date range.
func (s State) Period() (start, end time.Time, err error) {
	start, err = time.Parse(dateLayout, s.StartDate)
	if err != nil {
		return start, end, fmt.Errorf("invalid start date %q: %w", s.StartDate, err)
	}
	end, err = time.Parse(dateLayout, s.EndDate)
	if err != nil {
		return start, end, fmt.Errorf("invalid end date %q: %w", s.EndDate, err)
	}
	return start, end, nil
}

// Validate checks the parts of the state that calculations depend on.
func (s State) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return ErrInvalidID
	}
	if _, _, err := s.Period(); err != nil {
		return err
	}
	if _, err := reorder.PolicyByName(s.Policy); err != nil {
		return err
	}
	return s.Params.Validate()
}

// Quantity returns the edited quantity for a row, or fallback.
func (s State) Quantity(rowID string, fallback int) int {
	if v, ok := s.EditedQuantities[rowID]; ok {
		return v
	}
	return fallback
}

// Marshal encodes the state for a Store.
func Marshal(s State) ([]byte, error) {
	return json.Marshal(s)
}

// Unmarshal decodes a stored state.
func Unmarshal(data []byte) (State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("failed to decode session: %w", err)
	}
	return s, nil
}

// Store persists session states by id.
type Store interface {
	Load(ctx context.Context, id string) (State, error)
	Save(ctx context.Context, s State) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in process. It is used when no cache is
// configured and in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]byte)}
}

func (m *MemoryStore) Load(_ context.Context, id string) (State, error) {
	m.mu.RLock()
	data, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return State{}, ErrNotFound
	}
	return Unmarshal(data)
}

func (m *MemoryStore) Save(_ context.Context, s State) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.sessions[s.ID] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}
