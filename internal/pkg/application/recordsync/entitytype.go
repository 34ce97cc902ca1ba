package recordsync

import (
	"fmt"
)

type FieldKind int

const (
	Text FieldKind = iota
	Date
	Number
	Bool
	Ref
)

type FieldSpec struct {
	Name     string
	Label    string
	Kind     FieldKind
	Required bool

	// Target names the referenced entity type and Display the field of the
	// target record to show in place of the reference. Only used by Ref fields.
	Target      string
	TargetAppID string
	Display     string
	// OptionDetail is appended in parentheses to the option labels of a Ref field
	OptionDetail string
}

type EntityType struct {
	Name         string
	Label        string
	AppID        string
	DisplayField string
	Fields       []FieldSpec

	// Defaults returns the form of a new record
	Defaults func() Form
}

func (et EntityType) Field(name string) (FieldSpec, bool) {
	for _, f := range et.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// References returns the distinct entity types referenced by this type, in field order
func (et EntityType) References() []string {
	refs := []string{}
	seen := map[string]bool{}

	for _, f := range et.Fields {
		if f.Kind != Ref || seen[f.Target] {
			continue
		}
		seen[f.Target] = true
		refs = append(refs, f.Target)
	}

	return refs
}

type Registry struct {
	types map[string]EntityType
	order []string
}

// NewRegistry validates that every reference target is known and binds the
// target app ids to the reference fields
func NewRegistry(entityTypes ...EntityType) (*Registry, error) {
	r := &Registry{
		types: make(map[string]EntityType, len(entityTypes)),
	}

	for _, et := range entityTypes {
		if et.Name == "" || et.AppID == "" {
			return nil, fmt.Errorf("entity type %q must have both a name and an app id", et.Name)
		}
		if _, exists := r.types[et.Name]; exists {
			return nil, fmt.Errorf("entity type %q registered twice", et.Name)
		}
		r.types[et.Name] = et
		r.order = append(r.order, et.Name)
	}

	for _, name := range r.order {
		et := r.types[name]
		fields := make([]FieldSpec, len(et.Fields))

		for idx, f := range et.Fields {
			if f.Kind == Ref {
				target, ok := r.types[f.Target]
				if !ok {
					return nil, fmt.Errorf("field %s.%s references unknown entity type %q", et.Name, f.Name, f.Target)
				}
				if f.Display == "" {
					f.Display = target.DisplayField
				}
				f.TargetAppID = target.AppID
			}
			fields[idx] = f
		}

		et.Fields = fields
		r.types[name] = et
	}

	return r, nil
}

func (r *Registry) Get(name string) (EntityType, bool) {
	et, ok := r.types[name]
	return et, ok
}

// Names returns the registered entity type names in registration order
func (r *Registry) Names() []string {
	return append([]string{}, r.order...)
}

func (r *Registry) Auxiliary(name string) []EntityType {
	et, ok := r.types[name]
	if !ok {
		return nil
	}

	aux := []EntityType{}
	for _, target := range et.References() {
		aux = append(aux, r.types[target])
	}

	return aux
}
