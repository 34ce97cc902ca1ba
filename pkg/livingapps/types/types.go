package types

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Fields maps a field name to a string, float64, bool or Reference value
type Fields map[string]any

// Record is a single record stored in a record store app
type Record struct {
	ID        string
	Fields    Fields
	CreatedAt string
	UpdatedAt string
}

// Reference points at a record in another app. The zero value is an absent reference.
type Reference struct {
	AppID    string
	RecordID string
}

func NewReference(appID, recordID string) Reference {
	return Reference{AppID: appID, RecordID: recordID}
}

func (r Reference) IsAbsent() bool {
	return r.RecordID == ""
}

const referencePath string = "/rest/apps/"

// BuildReferenceURL encodes a reference the way the record store expects
// reference fields to be written
func BuildReferenceURL(baseURL, appID, recordID string) string {
	return fmt.Sprintf("%s%s%s/records/%s", strings.TrimSuffix(baseURL, "/"), referencePath, appID, recordID)
}

// ExtractRecordID returns the final path segment of a reference url
func ExtractRecordID(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	return value[strings.LastIndex(value, "/")+1:]
}

// ParseReferenceURL decodes a reference url, regardless of the host it points
// at. The whole value must be an http(s) url ending in /rest/apps/{app}/records/{id}.
func ParseReferenceURL(value string) (Reference, bool) {
	u, err := url.Parse(strings.TrimSpace(value))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Reference{}, false
	}

	if u.RawQuery != "" || u.Fragment != "" {
		return Reference{}, false
	}

	idx := strings.LastIndex(u.Path, referencePath)
	if idx < 0 {
		return Reference{}, false
	}

	segments := strings.Split(u.Path[idx+len(referencePath):], "/")
	if len(segments) != 3 || segments[1] != "records" || segments[0] == "" || segments[2] == "" {
		return Reference{}, false
	}

	return NewReference(segments[0], segments[2]), true
}

func (f Fields) String(name string) string {
	switch v := f[name].(type) {
	case string:
		return v
	case nil:
		return ""
	case Reference:
		return v.RecordID
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Reference returns the reference stored in a field, accepting both typed
// references and raw reference urls
func (f Fields) Reference(name string) Reference {
	switch v := f[name].(type) {
	case Reference:
		return v
	case string:
		if ref, ok := ParseReferenceURL(v); ok {
			return ref
		}
		return Reference{RecordID: ExtractRecordID(v)}
	}

	return Reference{}
}

func (f Fields) Number(name string) (float64, bool) {
	v, ok := f[name].(float64)
	return v, ok
}

func (f Fields) Bool(name string) (bool, bool) {
	v, ok := f[name].(bool)
	return v, ok
}

func (f Fields) Clone() Fields {
	c := make(Fields, len(f))
	for k, v := range f {
		c[k] = v
	}
	return c
}
