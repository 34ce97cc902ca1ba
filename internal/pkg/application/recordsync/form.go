package recordsync

import (
	"strconv"
	"strings"
	"time"

	"github.com/diwise/course-console/pkg/livingapps/types"
)

// Form holds the raw values of an edit or create dialog, keyed by field name.
// Reference fields hold the id of the referenced record.
type Form map[string]string

func (f Form) Clone() Form {
	c := make(Form, len(f))
	for k, v := range f {
		c[k] = v
	}
	return c
}

var dateLayouts = []string{"2006-01-02", "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02 15:04:05", time.RFC3339}

func (et EntityType) NewForm() Form {
	form := Form{}
	for _, f := range et.Fields {
		form[f.Name] = ""
	}

	if et.Defaults != nil {
		for k, v := range et.Defaults() {
			form[k] = v
		}
	}

	return form
}

// FormFromRecord pre-fills an edit form. References are filled with the ids
// of the referenced records, not with their display values.
func (et EntityType) FormFromRecord(record types.Record) Form {
	form := Form{}

	for _, f := range et.Fields {
		switch f.Kind {
		case Ref:
			form[f.Name] = record.Fields.Reference(f.Name).RecordID
		default:
			form[f.Name] = record.Fields.String(f.Name)
		}
	}

	return form
}

// Payload converts a form into the fields sent to the record store. Empty
// values are left out so that an unchanged form reproduces the fields it was
// filled from.
func (et EntityType) Payload(form Form) (types.Fields, error) {
	fields := types.Fields{}

	for _, f := range et.Fields {
		value := strings.TrimSpace(form[f.Name])

		if value == "" {
			if f.Required {
				return nil, newFormError(f.Name, "value is required")
			}
			continue
		}

		switch f.Kind {
		case Text:
			fields[f.Name] = form[f.Name]
		case Date:
			if !isDate(value) {
				return nil, newFormError(f.Name, "%q is not a date", value)
			}
			fields[f.Name] = value
		case Number:
			n, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, newFormError(f.Name, "%q is not a number", value)
			}
			fields[f.Name] = n
		case Bool:
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, newFormError(f.Name, "%q is not a boolean", value)
			}
			fields[f.Name] = b
		case Ref:
			fields[f.Name] = types.NewReference(f.TargetAppID, value)
		}
	}

	return fields, nil
}

// clearRemoved sets fields that were emptied in the form to nil so that an
// update clears them in the record store
func (et EntityType) clearRemoved(fields types.Fields, original types.Record) types.Fields {
	for _, f := range et.Fields {
		if _, kept := fields[f.Name]; kept {
			continue
		}
		if v, existed := original.Fields[f.Name]; existed && v != nil {
			if f.Kind == Ref {
				fields[f.Name] = types.Reference{}
			} else {
				fields[f.Name] = nil
			}
		}
	}
	return fields
}

func isDate(value string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}
