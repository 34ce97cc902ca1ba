// Package memstore is an in-memory record store for demos and tests, no
// LivingApps account required.
package memstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/diwise/course-console/pkg/livingapps/errors"
	"github.com/diwise/course-console/pkg/livingapps/types"
	"github.com/google/uuid"
)

const timestampLayout string = "2006-01-02 15:04:05"

type app struct {
	order   []string
	records map[string]types.Record
}

type Store struct {
	mu   sync.RWMutex
	apps map[string]*app
	now  func() time.Time
}

func New() *Store {
	return &Store{
		apps: map[string]*app{},
		now:  time.Now,
	}
}

func (s *Store) ListRecords(_ context.Context, appID string) ([]types.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.apps[appID]
	if !ok {
		return []types.Record{}, nil
	}

	records := make([]types.Record, 0, len(a.order))
	for _, id := range a.order {
		r := a.records[id]
		r.Fields = r.Fields.Clone()
		records = append(records, r)
	}

	return records, nil
}

func (s *Store) CreateRecord(_ context.Context, appID string, fields types.Fields) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.apps[appID]
	if !ok {
		a = &app{records: map[string]types.Record{}}
		s.apps[appID] = a
	}

	now := s.now().Format(timestampLayout)

	r := types.Record{
		ID:        newRecordID(),
		Fields:    types.Fields{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	merge(r.Fields, fields)

	a.records[r.ID] = r
	a.order = append(a.order, r.ID)

	r.Fields = r.Fields.Clone()
	return r, nil
}

func (s *Store) UpdateRecord(_ context.Context, appID, recordID string, fields types.Fields) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.find(appID, recordID)
	if err != nil {
		return types.Record{}, err
	}

	r.Fields = r.Fields.Clone()
	merge(r.Fields, fields)
	r.UpdatedAt = s.now().Format(timestampLayout)

	s.apps[appID].records[recordID] = r

	r.Fields = r.Fields.Clone()
	return r, nil
}

func (s *Store) DeleteRecord(_ context.Context, appID, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.find(appID, recordID); err != nil {
		return err
	}

	a := s.apps[appID]
	delete(a.records, recordID)

	for idx, id := range a.order {
		if id == recordID {
			a.order = append(a.order[:idx], a.order[idx+1:]...)
			break
		}
	}

	return nil
}

func (s *Store) find(appID, recordID string) (types.Record, error) {
	a, ok := s.apps[appID]
	if !ok {
		return types.Record{}, errors.NewNotFoundError(fmt.Sprintf("no app with id %s", appID))
	}

	r, ok := a.records[recordID]
	if !ok {
		return types.Record{}, errors.NewNotFoundError(fmt.Sprintf("no record with id %s in app %s", recordID, appID))
	}

	return r, nil
}

// merge applies a partial update, nil values and absent references remove a field
func merge(dst, src types.Fields) {
	for name, value := range src {
		if value == nil {
			delete(dst, name)
			continue
		}
		if ref, ok := value.(types.Reference); ok && ref.IsAbsent() {
			delete(dst, name)
			continue
		}
		dst[name] = value
	}
}

func newRecordID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}
