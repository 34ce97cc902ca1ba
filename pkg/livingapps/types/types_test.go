package types

import (
	"testing"

	"github.com/matryer/is"
)

func TestExtractRecordIDFromBuiltReference(t *testing.T) {
	is := is.New(t)

	for _, id := range []string{"t1", "6783a1b2c3d4e5f60718293a", "k-1"} {
		for _, app := range []string{"kurse", "dozenten", "teilnehmer", "raeume", "anmeldungen"} {
			url := BuildReferenceURL("https://my.living-apps.de", app, id)
			is.Equal(ExtractRecordID(url), id) // should extract the id that was encoded
		}
	}
}

func TestBuildReferenceURLTrimsTrailingSlash(t *testing.T) {
	is := is.New(t)

	url := BuildReferenceURL("https://my.living-apps.de/", "app", "id")
	is.Equal(url, "https://my.living-apps.de/rest/apps/app/records/id")
}

func TestExtractRecordIDFromEmptyValue(t *testing.T) {
	is := is.New(t)
	is.Equal(ExtractRecordID(""), "")
	is.Equal(ExtractRecordID("  "), "")
}

func TestParseReferenceURL(t *testing.T) {
	is := is.New(t)

	ref, ok := ParseReferenceURL("https://example.org/rest/apps/app1/records/r1")
	is.True(ok)
	is.Equal(ref, NewReference("app1", "r1"))

	_, ok = ParseReferenceURL("https://example.org/rest/apps/app1/records/")
	is.True(!ok) // should not accept a reference without record id

	_, ok = ParseReferenceURL("just a title")
	is.True(!ok) // should not accept plain text

	_, ok = ParseReferenceURL("Unterlagen: https://example.org/rest/apps/app1/records/r1")
	is.True(!ok) // should not accept text around a url

	_, ok = ParseReferenceURL("/rest/apps/app1/records/r1")
	is.True(!ok) // should require an absolute url
}

func TestFieldsReferenceAcceptsRawURL(t *testing.T) {
	is := is.New(t)

	f := Fields{
		"typed": NewReference("a", "1"),
		"raw":   "https://my.living-apps.de/rest/apps/b/records/2",
		"text":  "no-slashes",
	}

	is.Equal(f.Reference("typed"), NewReference("a", "1"))
	is.Equal(f.Reference("raw"), NewReference("b", "2"))
	is.Equal(f.Reference("text").RecordID, "no-slashes")
	is.True(f.Reference("missing").IsAbsent())
}

func TestFieldsString(t *testing.T) {
	is := is.New(t)

	f := Fields{"n": 12.5, "b": true, "r": NewReference("a", "1"), "s": "x"}

	is.Equal(f.String("n"), "12.5")
	is.Equal(f.String("b"), "true")
	is.Equal(f.String("r"), "1")
	is.Equal(f.String("s"), "x")
	is.Equal(f.String("missing"), "")
}
