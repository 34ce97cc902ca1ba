package recordsync

import (
	"time"

	"github.com/diwise/course-console/pkg/livingapps/types"
)

// NotAvailable is displayed in place of references that can not be resolved
const NotAvailable string = "N/A"

// Collection holds the records of one entity type in fetch order
type Collection struct {
	records []types.Record
	index   map[string]int
}

// NewCollection keeps the first occurrence of every record id
func NewCollection(records []types.Record) Collection {
	c := Collection{
		records: make([]types.Record, 0, len(records)),
		index:   make(map[string]int, len(records)),
	}

	for _, r := range records {
		if _, exists := c.index[r.ID]; exists {
			continue
		}
		c.index[r.ID] = len(c.records)
		c.records = append(c.records, r)
	}

	return c
}

func (c Collection) Len() int {
	return len(c.records)
}

func (c Collection) Records() []types.Record {
	return append([]types.Record{}, c.records...)
}

func (c Collection) Find(recordID string) (types.Record, bool) {
	idx, ok := c.index[recordID]
	if !ok {
		return types.Record{}, false
	}
	return c.records[idx], true
}

// Resolve returns the display field of the referenced record, or NotAvailable
// if the reference is absent or points at a record that is not loaded
func (c Collection) Resolve(ref types.Reference, displayField string) string {
	if ref.IsAbsent() {
		return NotAvailable
	}

	r, ok := c.Find(ref.RecordID)
	if !ok {
		return NotAvailable
	}

	value := r.Fields.String(displayField)
	if value == "" {
		return NotAvailable
	}

	return value
}

// Snapshot is the result of one successful load cycle
type Snapshot struct {
	Entity    string
	Primary   Collection
	Auxiliary map[string]Collection
	LoadedAt  time.Time
}

func (s Snapshot) Related(entity string) Collection {
	if entity == s.Entity {
		return s.Primary
	}
	return s.Auxiliary[entity]
}

// Resolve turns the value of a reference field into its display string
func (s Snapshot) Resolve(field FieldSpec, record types.Record) string {
	return s.Related(field.Target).Resolve(record.Fields.Reference(field.Name), field.Display)
}

type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Options lists the records that a reference field can point at
func (s Snapshot) Options(field FieldSpec) []Option {
	related := s.Related(field.Target)
	options := make([]Option, 0, related.Len())

	for _, r := range related.records {
		label := r.Fields.String(field.Display)
		if field.OptionDetail != "" {
			label = label + " (" + r.Fields.String(field.OptionDetail) + ")"
		}
		options = append(options, Option{ID: r.ID, Label: label})
	}

	return options
}
