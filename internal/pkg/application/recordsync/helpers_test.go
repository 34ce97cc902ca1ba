package recordsync

import (
	"context"
	"sync"
	"testing"

	"github.com/diwise/course-console/internal/pkg/infrastructure/memstore"
	"github.com/diwise/course-console/pkg/livingapps/types"
	"github.com/matryer/is"
)

func testRegistry(is *is.I) *Registry {
	r, err := NewRegistry(
		EntityType{
			Name: "dozenten", AppID: "app-dozenten", DisplayField: "name",
			Fields: []FieldSpec{
				{Name: "name", Kind: Text, Required: true},
				{Name: "email", Kind: Text},
			},
		},
		EntityType{
			Name: "raeume", AppID: "app-raeume", DisplayField: "raumname",
			Fields: []FieldSpec{
				{Name: "raumname", Kind: Text, Required: true},
				{Name: "gebaeude", Kind: Text},
				{Name: "kapazitaet", Kind: Number},
			},
		},
		EntityType{
			Name: "kurse", AppID: "app-kurse", DisplayField: "titel",
			Fields: []FieldSpec{
				{Name: "titel", Kind: Text, Required: true},
				{Name: "beschreibung", Kind: Text},
				{Name: "startdatum", Kind: Date},
				{Name: "max_teilnehmer", Kind: Number},
				{Name: "dozent", Kind: Ref, Target: "dozenten"},
				{Name: "raum", Kind: Ref, Target: "raeume", OptionDetail: "gebaeude"},
			},
		},
		EntityType{
			Name: "teilnehmer", AppID: "app-teilnehmer", DisplayField: "name",
			Fields: []FieldSpec{
				{Name: "name", Kind: Text, Required: true},
			},
		},
		EntityType{
			Name: "anmeldungen", AppID: "app-anmeldungen", DisplayField: "teilnehmer",
			Fields: []FieldSpec{
				{Name: "teilnehmer", Kind: Ref, Target: "teilnehmer", Required: true},
				{Name: "kurs", Kind: Ref, Target: "kurse", Required: true},
				{Name: "anmeldedatum", Kind: Date},
				{Name: "bezahlt", Kind: Bool},
			},
			Defaults: func() Form { return Form{"bezahlt": "false"} },
		},
	)
	is.NoErr(err)
	return r
}

// flakyStore fails selected operations on top of an in-memory store
type flakyStore struct {
	*memstore.Store

	mu        sync.Mutex
	listErr   map[string]error
	mutateErr error
}

func newFlakyStore() *flakyStore {
	return &flakyStore{
		Store:   memstore.New(),
		listErr: map[string]error{},
	}
}

func (f *flakyStore) failList(appID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr[appID] = err
}

func (f *flakyStore) failMutations(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutateErr = err
}

func (f *flakyStore) ListRecords(ctx context.Context, appID string) ([]types.Record, error) {
	f.mu.Lock()
	err := f.listErr[appID]
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return f.Store.ListRecords(ctx, appID)
}

func (f *flakyStore) CreateRecord(ctx context.Context, appID string, fields types.Fields) (types.Record, error) {
	if err := f.mutationError(); err != nil {
		return types.Record{}, err
	}
	return f.Store.CreateRecord(ctx, appID, fields)
}

func (f *flakyStore) UpdateRecord(ctx context.Context, appID, recordID string, fields types.Fields) (types.Record, error) {
	if err := f.mutationError(); err != nil {
		return types.Record{}, err
	}
	return f.Store.UpdateRecord(ctx, appID, recordID, fields)
}

func (f *flakyStore) mutationError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mutateErr
}

func setupTabTest(t *testing.T, entity string) (*is.I, context.Context, *flakyStore, *Tab) {
	is := is.New(t)
	ctx := context.Background()

	store := newFlakyStore()
	registry := testRegistry(is)

	et, ok := registry.Get(entity)
	is.True(ok)

	tab := NewTab(et, NewLoader(store, registry), NewCoordinator(store))

	return is, ctx, store, tab
}
