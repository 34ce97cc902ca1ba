package memstore

import (
	"context"
	"errors"
	"testing"

	laerrors "github.com/diwise/course-console/pkg/livingapps/errors"
	"github.com/diwise/course-console/pkg/livingapps/types"
	"github.com/matryer/is"
)

func TestCreateAndListKeepsInsertionOrder(t *testing.T) {
	is, ctx, s := setupStoreTest(t)

	first, err := s.CreateRecord(ctx, "raeume", types.Fields{"raumname": "A1"})
	is.NoErr(err)
	second, err := s.CreateRecord(ctx, "raeume", types.Fields{"raumname": "B2"})
	is.NoErr(err)

	records, err := s.ListRecords(ctx, "raeume")
	is.NoErr(err)

	is.Equal(len(records), 2)
	is.Equal(records[0].ID, first.ID)
	is.Equal(records[1].ID, second.ID)
	is.Equal(len(first.ID), 24)
	is.True(first.ID != second.ID)
}

func TestListUnknownAppReturnsEmptyCollection(t *testing.T) {
	is, ctx, s := setupStoreTest(t)

	records, err := s.ListRecords(ctx, "nope")
	is.NoErr(err)
	is.Equal(len(records), 0)
}

func TestUpdateMergesAndClearsFields(t *testing.T) {
	is, ctx, s := setupStoreTest(t)

	r, _ := s.CreateRecord(ctx, "kurse", types.Fields{
		"titel": "Mathe",
		"raum":  types.NewReference("raeume", "r1"),
		"preis": 10.0,
	})

	updated, err := s.UpdateRecord(ctx, "kurse", r.ID, types.Fields{
		"preis": 12.5,
		"raum":  types.Reference{},
	})
	is.NoErr(err)

	is.Equal(updated.Fields["titel"], "Mathe")
	is.Equal(updated.Fields["preis"], 12.5)
	_, hasRoom := updated.Fields["raum"]
	is.True(!hasRoom) // should have removed the cleared reference
}

func TestListReturnsCopies(t *testing.T) {
	is, ctx, s := setupStoreTest(t)

	s.CreateRecord(ctx, "raeume", types.Fields{"raumname": "A1"})

	records, _ := s.ListRecords(ctx, "raeume")
	records[0].Fields["raumname"] = "changed"

	records, _ = s.ListRecords(ctx, "raeume")
	is.Equal(records[0].Fields["raumname"], "A1")
}

func TestDeleteUnknownRecordFails(t *testing.T) {
	is, ctx, s := setupStoreTest(t)

	r, _ := s.CreateRecord(ctx, "raeume", types.Fields{"raumname": "A1"})

	is.NoErr(s.DeleteRecord(ctx, "raeume", r.ID))

	err := s.DeleteRecord(ctx, "raeume", r.ID)
	is.True(errors.Is(err, laerrors.ErrNotFound)) // second delete should fail

	records, _ := s.ListRecords(ctx, "raeume")
	is.Equal(len(records), 0)
}

func setupStoreTest(t *testing.T) (*is.I, context.Context, *Store) {
	return is.New(t), context.Background(), New()
}
