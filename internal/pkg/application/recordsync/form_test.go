package recordsync

import (
	"errors"
	"testing"

	"github.com/diwise/course-console/pkg/livingapps/types"
	"github.com/matryer/is"
)

func TestEditFormIsFilledWithReferenceIDs(t *testing.T) {
	is := is.New(t)
	kurse, _ := testRegistry(is).Get("kurse")

	record := types.Record{ID: "k1", Fields: types.Fields{
		"titel":          "Mathe",
		"max_teilnehmer": 20.0,
		"dozent":         types.NewReference("app-dozenten", "d1"),
		"raum":           types.NewReference("app-raeume", "r1"),
	}}

	form := kurse.FormFromRecord(record)

	is.Equal(form["dozent"], "d1")
	is.Equal(form["raum"], "r1")
	is.Equal(form["max_teilnehmer"], "20")
	is.Equal(form["beschreibung"], "")
}

func TestUnchangedEditFormReproducesFields(t *testing.T) {
	is := is.New(t)
	registry := testRegistry(is)

	for _, tc := range []struct {
		entity string
		fields types.Fields
	}{
		{"kurse", types.Fields{
			"titel":          "Mathe",
			"startdatum":     "2024-09-01",
			"max_teilnehmer": 12.0,
			"dozent":         types.NewReference("app-dozenten", "d1"),
			"raum":           types.NewReference("app-raeume", "r1"),
		}},
		{"anmeldungen", types.Fields{
			"teilnehmer":   types.NewReference("app-teilnehmer", "t1"),
			"kurs":         types.NewReference("app-kurse", "k1"),
			"anmeldedatum": "2024-05-01",
			"bezahlt":      false,
		}},
		{"raeume", types.Fields{
			"raumname":   "A1",
			"kapazitaet": 24.5,
		}},
	} {
		et, _ := registry.Get(tc.entity)

		payload, err := et.Payload(et.FormFromRecord(types.Record{ID: "x", Fields: tc.fields}))
		is.NoErr(err)
		is.Equal(payload, tc.fields) // resubmitting an unchanged form should reproduce the fields
	}
}

func TestPayloadRejectsInvalidValues(t *testing.T) {
	is := is.New(t)
	registry := testRegistry(is)
	kurse, _ := registry.Get("kurse")

	_, err := kurse.Payload(Form{"titel": "Mathe", "max_teilnehmer": "zwanzig"})
	is.True(errors.Is(err, ErrInvalidForm))

	_, err = kurse.Payload(Form{"titel": "Mathe", "startdatum": "31.12.2024"})
	is.True(errors.Is(err, ErrInvalidForm))

	_, err = kurse.Payload(Form{"titel": "  "})
	is.True(errors.Is(err, ErrInvalidForm)) // titel is required
}

func TestNewFormAppliesDefaults(t *testing.T) {
	is := is.New(t)
	anmeldungen, _ := testRegistry(is).Get("anmeldungen")

	form := anmeldungen.NewForm()

	is.Equal(form["bezahlt"], "false")
	is.Equal(form["kurs"], "")
	is.Equal(len(form), 4)
}

func TestClearRemovedFields(t *testing.T) {
	is := is.New(t)
	kurse, _ := testRegistry(is).Get("kurse")

	original := types.Record{ID: "k1", Fields: types.Fields{
		"titel":        "Mathe",
		"beschreibung": "Algebra",
		"raum":         types.NewReference("app-raeume", "r1"),
	}}

	form := kurse.FormFromRecord(original)
	form["beschreibung"] = ""
	form["raum"] = ""

	payload, err := kurse.Payload(form)
	is.NoErr(err)

	payload = kurse.clearRemoved(payload, original)

	is.Equal(payload["titel"], "Mathe")
	is.Equal(payload["beschreibung"], nil)
	is.Equal(payload["raum"], types.Reference{})
}

func TestEditFormKeepsTextThatLooksLikeReference(t *testing.T) {
	is := is.New(t)
	kurse, _ := testRegistry(is).Get("kurse")

	beschreibung := "Unterlagen: https://files.example.org/rest/apps/skript/records/kapitel1"

	record := types.Record{ID: "k1", Fields: types.Fields{
		"titel":        "Mathe",
		"beschreibung": beschreibung,
		"dozent":       "https://my.living-apps.de/rest/apps/app-dozenten/records/d1",
	}}

	form := kurse.FormFromRecord(record)
	is.Equal(form["beschreibung"], beschreibung)
	is.Equal(form["dozent"], "d1")

	payload, err := kurse.Payload(form)
	is.NoErr(err)
	is.Equal(payload["beschreibung"], beschreibung) // an unchanged form should send the text back unchanged
	is.Equal(payload["dozent"], types.NewReference("app-dozenten", "d1"))

	card := Snapshot{}.Card(kurse, record)
	is.Equal(card.Attributes[0].Value, beschreibung)
}
