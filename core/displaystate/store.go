package displaystate

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/leafdash/core/model"
	"github.com/kilianp07/leafdash/core/presentation"
)

// State is the latest display of one vehicle.
type State struct {
	VehicleID string                      `json:"vehicle_id"`
	Seq       uint64                      `json:"seq"`
	Origin    model.Origin                `json:"origin"`
	Display   presentation.DisplayMapping `json:"display"`
	Snapshot  json.RawMessage             `json:"snapshot,omitempty"`
	UpdatedAt time.Time                   `json:"updated_at"`
}

// Store keeps the latest State per vehicle. Set never replaces a state with
// one carrying a lower sequence number, except when Seq is zero.
type Store interface {
	Set(ctx context.Context, st State) error
	Get(ctx context.Context, vehicleID string) (State, bool, error)
	List(ctx context.Context) ([]State, error)
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]State{}}
}

func (s *MemoryStore) Set(_ context.Context, st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.data[st.VehicleID]; ok && st.Seq != 0 && st.Seq < prev.Seq {
		return nil
	}
	s.data[st.VehicleID] = st
	return nil
}

func (s *MemoryStore) Get(_ context.Context, vehicleID string) (State, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.data[vehicleID]
	return st, ok, nil
}

func (s *MemoryStore) List(_ context.Context) ([]State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]State, 0, len(s.data))
	for _, st := range s.data {
		res = append(res, st)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].VehicleID < res[j].VehicleID })
	return res, nil
}
