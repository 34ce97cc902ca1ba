package console

import (
	"fmt"
	"time"

	rs "github.com/diwise/course-console/internal/pkg/application/recordsync"
)

const (
	Kurse       string = "kurse"
	Anmeldungen string = "anmeldungen"
	Dozenten    string = "dozenten"
	Teilnehmer  string = "teilnehmer"
	Raeume      string = "raeume"
)

// EntityNames in the order the tabs are shown
var EntityNames = []string{Kurse, Anmeldungen, Dozenten, Teilnehmer, Raeume}

var today = func() string {
	return time.Now().Format("2006-01-02")
}

func entityTypes() []rs.EntityType {
	return []rs.EntityType{
		{
			Name:         Kurse,
			Label:        "Kurse",
			DisplayField: "titel",
			Fields: []rs.FieldSpec{
				{Name: "titel", Label: "Titel", Kind: rs.Text, Required: true},
				{Name: "beschreibung", Label: "Beschreibung", Kind: rs.Text},
				{Name: "startdatum", Label: "Startdatum", Kind: rs.Date, Required: true},
				{Name: "enddatum", Label: "Enddatum", Kind: rs.Date, Required: true},
				{Name: "max_teilnehmer", Label: "Max. Teilnehmer", Kind: rs.Number, Required: true},
				{Name: "preis", Label: "Preis", Kind: rs.Number, Required: true},
				{Name: "dozent", Label: "Dozent", Kind: rs.Ref, Target: Dozenten, Display: "name"},
				{Name: "raum", Label: "Raum", Kind: rs.Ref, Target: Raeume, Display: "raumname", OptionDetail: "gebaeude"},
			},
		},
		{
			Name:         Anmeldungen,
			Label:        "Anmeldungen",
			DisplayField: "teilnehmer",
			Fields: []rs.FieldSpec{
				{Name: "teilnehmer", Label: "Teilnehmer", Kind: rs.Ref, Target: Teilnehmer, Display: "name", Required: true},
				{Name: "kurs", Label: "Kurs", Kind: rs.Ref, Target: Kurse, Display: "titel", Required: true},
				{Name: "anmeldedatum", Label: "Anmeldedatum", Kind: rs.Date, Required: true},
				{Name: "bezahlt", Label: "Bezahlt", Kind: rs.Bool},
			},
			Defaults: func() rs.Form {
				return rs.Form{"anmeldedatum": today(), "bezahlt": "false"}
			},
		},
		{
			Name:         Dozenten,
			Label:        "Dozenten",
			DisplayField: "name",
			Fields: []rs.FieldSpec{
				{Name: "name", Label: "Name", Kind: rs.Text, Required: true},
				{Name: "email", Label: "E-Mail", Kind: rs.Text, Required: true},
				{Name: "telefon", Label: "Telefon", Kind: rs.Text},
				{Name: "fachgebiet", Label: "Fachgebiet", Kind: rs.Text},
			},
		},
		{
			Name:         Teilnehmer,
			Label:        "Teilnehmer",
			DisplayField: "name",
			Fields: []rs.FieldSpec{
				{Name: "name", Label: "Name", Kind: rs.Text, Required: true},
				{Name: "email", Label: "E-Mail", Kind: rs.Text, Required: true},
				{Name: "telefon", Label: "Telefon", Kind: rs.Text},
				{Name: "geburtsdatum", Label: "Geburtsdatum", Kind: rs.Date},
			},
		},
		{
			Name:         Raeume,
			Label:        "Räume",
			DisplayField: "raumname",
			Fields: []rs.FieldSpec{
				{Name: "raumname", Label: "Raumname", Kind: rs.Text, Required: true},
				{Name: "gebaeude", Label: "Gebäude", Kind: rs.Text, Required: true},
				{Name: "kapazitaet", Label: "Kapazität", Kind: rs.Number, Required: true},
			},
		},
	}
}

// NewRegistry binds the course entity types to the app ids of the configuration
func NewRegistry(cfg *Config) (*rs.Registry, error) {
	ets := entityTypes()

	for idx := range ets {
		appID, ok := cfg.AppID(ets[idx].Name)
		if !ok {
			return nil, fmt.Errorf("no app id configured for %s", ets[idx].Name)
		}
		ets[idx].AppID = appID
	}

	return rs.NewRegistry(ets...)
}
