package recordsync

import (
	"context"
	"fmt"
	"time"

	"github.com/diwise/course-console/pkg/livingapps/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("course-console/recordsync")

type RecordLister interface {
	ListRecords(ctx context.Context, appID string) ([]types.Record, error)
}

type LoadError struct {
	Entity string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %s", e.Entity, e.Err.Error())
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

type Loader struct {
	lister   RecordLister
	registry *Registry
	now      func() time.Time
}

func NewLoader(lister RecordLister, registry *Registry) *Loader {
	return &Loader{
		lister:   lister,
		registry: registry,
		now:      time.Now,
	}
}

// Load fetches an entity type and every entity type it references
// concurrently. A snapshot is only returned if all fetches succeed.
func (l *Loader) Load(ctx context.Context, entity string) (Snapshot, error) {
	var err error

	et, ok := l.registry.Get(entity)
	if !ok {
		return Snapshot{}, &LoadError{Entity: entity, Err: ErrUnknownEntity}
	}

	cycleID := uuid.NewString()

	ctx, span := tracer.Start(ctx, "load-collections",
		trace.WithAttributes(attribute.String("entity", entity)),
		trace.WithAttributes(attribute.String("cycle-id", cycleID)),
	)
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	log := logging.GetFromContext(ctx).With("entity", entity, "cycle_id", cycleID)

	targets := append([]EntityType{et}, l.registry.Auxiliary(entity)...)
	results := make([][]types.Record, len(targets))

	var g errgroup.Group

	for idx, target := range targets {
		g.Go(func() error {
			records, err := l.lister.ListRecords(ctx, target.AppID)
			if err != nil {
				return fmt.Errorf("list %s: %w", target.Name, err)
			}
			results[idx] = records
			return nil
		})
	}

	if err = g.Wait(); err != nil {
		log.Error("load cycle failed, keeping previous state", "err", err.Error())
		return Snapshot{}, &LoadError{Entity: entity, Err: err}
	}

	snapshot := Snapshot{
		Entity:    entity,
		Primary:   NewCollection(results[0]),
		Auxiliary: make(map[string]Collection, len(targets)-1),
		LoadedAt:  l.now(),
	}

	for idx, target := range targets[1:] {
		snapshot.Auxiliary[target.Name] = NewCollection(results[idx+1])
	}

	log.Debug("load cycle completed", "count", snapshot.Primary.Len())

	return snapshot, nil
}
