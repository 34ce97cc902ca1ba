package recordsync

import (
	"github.com/diwise/course-console/pkg/livingapps/types"
)

type Attribute struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Value string `json:"value"`
}

type Card struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Attributes []Attribute `json:"attributes"`
}

// Card builds the grid card of a record. References are resolved against the
// snapshot; other empty values are left out.
func (s Snapshot) Card(et EntityType, record types.Record) Card {
	card := Card{
		ID:         record.ID,
		Attributes: []Attribute{},
	}

	for _, f := range et.Fields {
		value := s.displayValue(f, record)

		if f.Name == et.DisplayField {
			card.Title = value
			continue
		}

		if value == "" {
			continue
		}

		card.Attributes = append(card.Attributes, Attribute{Name: f.Name, Label: f.Label, Value: value})
	}

	return card
}

func (s Snapshot) Cards(et EntityType) []Card {
	cards := make([]Card, 0, s.Primary.Len())
	for _, r := range s.Primary.records {
		cards = append(cards, s.Card(et, r))
	}
	return cards
}

func (s Snapshot) displayValue(f FieldSpec, record types.Record) string {
	switch f.Kind {
	case Ref:
		return s.Resolve(f, record)
	case Bool:
		b, ok := record.Fields.Bool(f.Name)
		if !ok {
			return ""
		}
		if b {
			return "ja"
		}
		return "nein"
	default:
		return record.Fields.String(f.Name)
	}
}
