package recordsync

import (
	"context"

	"github.com/diwise/course-console/pkg/livingapps/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
)

type RecordMutator interface {
	CreateRecord(ctx context.Context, appID string, fields types.Fields) (types.Record, error)
	UpdateRecord(ctx context.Context, appID, recordID string, fields types.Fields) (types.Record, error)
	DeleteRecord(ctx context.Context, appID, recordID string) error
}

type RecordStore interface {
	RecordLister
	RecordMutator
}

// Coordinator sends mutations to the record store. It never retries and never
// touches local state, callers reload after a successful mutation.
type Coordinator struct {
	mutator RecordMutator
}

func NewCoordinator(mutator RecordMutator) *Coordinator {
	return &Coordinator{mutator: mutator}
}

func (c *Coordinator) Create(ctx context.Context, et EntityType, fields types.Fields) (types.Record, error) {
	record, err := c.mutator.CreateRecord(ctx, et.AppID, fields)
	if err != nil {
		return types.Record{}, c.failed(ctx, OpCreate, et, "", err)
	}

	logging.GetFromContext(ctx).Info("record created", "entity", et.Name, "record_id", record.ID)

	return record, nil
}

func (c *Coordinator) Update(ctx context.Context, et EntityType, recordID string, fields types.Fields) (types.Record, error) {
	record, err := c.mutator.UpdateRecord(ctx, et.AppID, recordID, fields)
	if err != nil {
		return types.Record{}, c.failed(ctx, OpUpdate, et, recordID, err)
	}

	logging.GetFromContext(ctx).Info("record updated", "entity", et.Name, "record_id", recordID)

	return record, nil
}

func (c *Coordinator) Delete(ctx context.Context, et EntityType, recordID string) error {
	err := c.mutator.DeleteRecord(ctx, et.AppID, recordID)
	if err != nil {
		return c.failed(ctx, OpDelete, et, recordID, err)
	}

	logging.GetFromContext(ctx).Info("record deleted", "entity", et.Name, "record_id", recordID)

	return nil
}

func (c *Coordinator) failed(ctx context.Context, op Operation, et EntityType, recordID string, err error) error {
	logging.GetFromContext(ctx).Error("mutation failed", "op", string(op), "entity", et.Name, "record_id", recordID, "err", err.Error())

	return &MutationError{
		Op:       op,
		Entity:   et.Name,
		RecordID: recordID,
		Err:      err,
	}
}
