package client

import (
	"context"
	"errors"
	"net/http"
	"testing"

	laerrors "github.com/diwise/course-console/pkg/livingapps/errors"
	"github.com/diwise/course-console/pkg/livingapps/types"
	testutils "github.com/diwise/service-chassis/pkg/test/http"
	"github.com/diwise/service-chassis/pkg/test/http/expects"
	"github.com/diwise/service-chassis/pkg/test/http/response"

	"github.com/matryer/is"
)

var Expects = testutils.Expects
var Returns = testutils.Returns
var anyInput = expects.AnyInput
var method = expects.RequestMethod
var path = expects.RequestPath
var body = expects.RequestBody

func TestListRecords(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodGet),
			path("/rest/apps/anmeldungen/records"),
		),
		Returns(
			response.ContentType("application/json"),
			response.Code(http.StatusOK),
			response.Body([]byte(anmeldungenJSON)),
		),
	)
	defer s.Close()

	c := NewRecordStoreClient(s.URL())

	records, err := c.ListRecords(context.Background(), "anmeldungen")
	is.NoErr(err)

	is.Equal(len(records), 2)
	is.Equal(records[0].ID, "a2") // should keep the order of the response
	is.Equal(records[1].ID, "a1")

	is.Equal(records[0].Fields.Reference("teilnehmer"), types.NewReference("teilnehmer", "t1"))
	is.Equal(records[0].Fields.Reference("kurs"), types.NewReference("kurse", "k1"))
	is.Equal(records[0].Fields["bezahlt"], true)
	is.Equal(records[0].CreatedAt, "2024-05-01 10:00:00")
}

func TestListRecordsKeepsTextThatContainsReferenceURL(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(is, anyInput()),
		Returns(
			response.ContentType("application/json"),
			response.Code(http.StatusOK),
			response.Body([]byte(kurseJSON)),
		),
	)
	defer s.Close()

	records, err := NewRecordStoreClient(s.URL()).ListRecords(context.Background(), "kurse")
	is.NoErr(err)

	is.Equal(len(records), 1)
	is.Equal(records[0].Fields.String("beschreibung"), "Unterlagen: https://files.example.org/rest/apps/skript/records/kapitel1")
	is.Equal(records[0].Fields.String("skript"), "https://files.example.org/rest/apps/skript/records/kapitel1") // text fields keep the full url
}

func TestListRecordsOfEmptyApp(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(is, anyInput()),
		Returns(
			response.ContentType("application/json"),
			response.Code(http.StatusOK),
			response.Body([]byte("{}")),
		),
	)
	defer s.Close()

	records, err := NewRecordStoreClient(s.URL()).ListRecords(context.Background(), "raeume")
	is.NoErr(err)
	is.Equal(len(records), 0)
}

func TestListRecordsHandlesMalformedResponse(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(is, anyInput()),
		Returns(
			response.ContentType("application/json"),
			response.Code(http.StatusOK),
			response.Body([]byte("[]")),
		),
	)
	defer s.Close()

	_, err := NewRecordStoreClient(s.URL()).ListRecords(context.Background(), "raeume")
	is.True(errors.Is(err, laerrors.ErrBadResponse))
}

func TestListRecordsHandlesServerError(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(is, anyInput()),
		Returns(
			response.ContentType("application/json"),
			response.Code(http.StatusInternalServerError),
			response.Body([]byte(`{"message":"database unavailable"}`)),
		),
	)
	defer s.Close()

	_, err := NewRecordStoreClient(s.URL()).ListRecords(context.Background(), "kurse")

	is.True(errors.Is(err, laerrors.ErrInternal))
	is.Equal(err.Error(), "[code: 500] record store failed with \"database unavailable\"")
}

func TestCreateRecord(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodPost),
			path("/rest/apps/anmeldungen/records"),
			body(`{"fields":{"anmeldedatum":"2024-05-01","bezahlt":true,"kurs":"https://my.living-apps.de/rest/apps/kurse/records/k1"}}`),
		),
		Returns(
			response.ContentType("application/json"),
			response.Code(http.StatusOK),
			response.Body([]byte(`{"id":"a3"}`)),
		),
	)
	defer s.Close()

	c := NewRecordStoreClient(s.URL(), ReferenceBaseURL("https://my.living-apps.de"))

	record, err := c.CreateRecord(context.Background(), "anmeldungen", types.Fields{
		"kurs":         types.NewReference("kurse", "k1"),
		"anmeldedatum": "2024-05-01",
		"bezahlt":      true,
	})

	is.NoErr(err)
	is.Equal(record.ID, "a3")
	is.Equal(record.Fields["kurs"], types.NewReference("kurse", "k1")) // should fall back to the sent fields
}

func TestCreateRecordEncodesAbsentReferenceAsNull(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodPost),
			body(`{"fields":{"raum":null,"titel":"Mathe"}}`),
		),
		Returns(
			response.ContentType("application/json"),
			response.Code(http.StatusCreated),
			response.Body([]byte(`{"id":"k9"}`)),
		),
	)
	defer s.Close()

	_, err := NewRecordStoreClient(s.URL()).CreateRecord(context.Background(), "kurse", types.Fields{
		"titel": "Mathe",
		"raum":  types.Reference{},
	})

	is.NoErr(err)
}

func TestCreateRecordHandlesBadRequest(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(is, anyInput()),
		Returns(
			response.ContentType("application/json"),
			response.Code(http.StatusBadRequest),
			response.Body([]byte(`{"error":"unknown field"}`)),
		),
	)
	defer s.Close()

	_, err := NewRecordStoreClient(s.URL()).CreateRecord(context.Background(), "kurse", types.Fields{"nope": "x"})

	is.True(errors.Is(err, laerrors.ErrBadRequest))
	is.Equal(err.Error(), "unknown field")
}

func TestUpdateRecord(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodPatch),
			path("/rest/apps/raeume/records/r1"),
			body(`{"fields":{"kapazitaet":30}}`),
		),
		Returns(
			response.Code(http.StatusOK),
		),
	)
	defer s.Close()

	record, err := NewRecordStoreClient(s.URL()).UpdateRecord(context.Background(), "raeume", "r1", types.Fields{"kapazitaet": 30.0})

	is.NoErr(err)
	is.Equal(record.ID, "r1")
	is.Equal(record.Fields["kapazitaet"], 30.0)
}

func TestUpdateRecordHandlesMalformedResponse(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(is, method(http.MethodPatch)),
		Returns(
			response.ContentType("application/json"),
			response.Code(http.StatusOK),
			response.Body([]byte("[]")),
		),
	)
	defer s.Close()

	_, err := NewRecordStoreClient(s.URL()).UpdateRecord(context.Background(), "raeume", "r1", types.Fields{"kapazitaet": 30.0})
	is.True(errors.Is(err, laerrors.ErrBadResponse))
}

func TestDeleteRecord(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(
			is,
			method(http.MethodDelete),
			path("/rest/apps/raeume/records/r1"),
		),
		Returns(
			response.Code(http.StatusNoContent),
		),
	)
	defer s.Close()

	err := NewRecordStoreClient(s.URL()).DeleteRecord(context.Background(), "raeume", "r1")
	is.NoErr(err)
}

func TestDeleteUnknownRecord(t *testing.T) {
	is := is.New(t)

	s := testutils.NewMockServiceThat(
		Expects(is, anyInput()),
		Returns(
			response.ContentType("text/plain"),
			response.Code(http.StatusNotFound),
			response.Body([]byte("no such record")),
		),
	)
	defer s.Close()

	err := NewRecordStoreClient(s.URL()).DeleteRecord(context.Background(), "raeume", "gone")

	is.True(errors.Is(err, laerrors.ErrNotFound))
	is.Equal(err.Error(), "no such record")
}

const anmeldungenJSON string = `{
	"a2": {
		"fields": {
			"teilnehmer": "https://my.living-apps.de/rest/apps/teilnehmer/records/t1",
			"kurs": "https://my.living-apps.de/rest/apps/kurse/records/k1",
			"anmeldedatum": "2024-05-01",
			"bezahlt": true
		},
		"createdat": "2024-05-01 10:00:00",
		"updatedat": "2024-05-01 10:00:00"
	},
	"a1": {
		"fields": {
			"teilnehmer": "https://my.living-apps.de/rest/apps/teilnehmer/records/t2",
			"kurs": "https://my.living-apps.de/rest/apps/kurse/records/k1",
			"anmeldedatum": "2024-04-12",
			"bezahlt": false
		}
	}
}`

const kurseJSON string = `{
	"k1": {
		"fields": {
			"titel": "Mathe für Einsteiger",
			"beschreibung": "Unterlagen: https://files.example.org/rest/apps/skript/records/kapitel1",
			"skript": "https://files.example.org/rest/apps/skript/records/kapitel1"
		}
	}
}`
