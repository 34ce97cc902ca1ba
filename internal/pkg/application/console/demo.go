package console

import (
	"context"
	"fmt"

	rs "github.com/diwise/course-console/internal/pkg/application/recordsync"
	"github.com/diwise/course-console/pkg/livingapps/types"
)

// SeedDemoData creates a small set of related records, used when running
// against the in-memory store
func SeedDemoData(ctx context.Context, registry *rs.Registry, store rs.RecordMutator) error {
	appID := func(name string) string {
		et, _ := registry.Get(name)
		return et.AppID
	}

	create := func(entity string, fields types.Fields) (types.Record, error) {
		r, err := store.CreateRecord(ctx, appID(entity), fields)
		if err != nil {
			return r, fmt.Errorf("failed to seed %s: %w", entity, err)
		}
		return r, nil
	}

	dozent, err := create(Dozenten, types.Fields{"name": "Dr. Maria Weber", "email": "weber@example.org", "fachgebiet": "Mathematik"})
	if err != nil {
		return err
	}

	raum, err := create(Raeume, types.Fields{"raumname": "A 1.04", "gebaeude": "Hauptgebäude", "kapazitaet": 24.0})
	if err != nil {
		return err
	}

	kurs, err := create(Kurse, types.Fields{
		"titel":          "Mathe für Einsteiger",
		"beschreibung":   "Grundlagen der Algebra",
		"startdatum":     "2026-11-02",
		"enddatum":       "2026-12-14",
		"max_teilnehmer": 20.0,
		"preis":          149.0,
		"dozent":         types.NewReference(appID(Dozenten), dozent.ID),
		"raum":           types.NewReference(appID(Raeume), raum.ID),
	})
	if err != nil {
		return err
	}

	for _, person := range [][2]string{{"Anna Schmidt", "anna.schmidt@example.org"}, {"Jonas Becker", "jonas.becker@example.org"}} {
		name := person[0]
		tn, err := create(Teilnehmer, types.Fields{"name": name, "email": person[1]})
		if err != nil {
			return err
		}

		_, err = create(Anmeldungen, types.Fields{
			"teilnehmer":   types.NewReference(appID(Teilnehmer), tn.ID),
			"kurs":         types.NewReference(appID(Kurse), kurs.ID),
			"anmeldedatum": "2026-10-01",
			"bezahlt":      name == "Anna Schmidt",
		})
		if err != nil {
			return err
		}
	}

	return nil
}
