package modeldb

import (
	"bytes"
	"testing"

	"github.com/rzbill/modeldb/pkg/model"
)

func TestKeyLayout(t *testing.T) {
	k := model.Key{Type: "Adult", ID: model.ValueOf("BRYS")}
	if got, want := keyObject(k), []byte("m/Adult/o/\x02BRYS\x00"); !bytes.Equal(got, want) {
		t.Fatalf("object key %q want %q", got, want)
	}
	idx := model.Index{Name: "birth", Value: model.ValueOf(1986)}
	got := keyIndex(k, idx)
	prefix := keyIndexPrefix("Adult", "birth", model.ValueOf(1986))
	if !bytes.HasPrefix(got, prefix) {
		t.Fatalf("index key %q lacks prefix %q", got, prefix)
	}
	if !bytes.Equal(got[len(prefix):], []byte(k.ID)) {
		t.Fatalf("index key must end with the id")
	}
}

func TestIndexPrefixDoesNotMatchLongerValue(t *testing.T) {
	short := keyIndexPrefix("T", "name", model.ValueOf("ab"))
	long := keyIndex(model.Key{Type: "T", ID: model.ValueOf("x")}, model.Index{Name: "name", Value: model.ValueOf("abc")})
	if bytes.HasPrefix(long, short) {
		t.Fatalf("%q should not match prefix %q", long, short)
	}
}

func TestIndexPrefixDoesNotMatchLongerTuple(t *testing.T) {
	id := model.ValueOf("BRYS")
	last := keyIndexPrefix("Adult", "name", model.ValueOf("BRYS"))
	full := keyIndex(model.Key{Type: "Adult", ID: id}, model.Index{Name: "name", Value: model.ValueOf("BRYS", "Salomon")})
	if bytes.HasPrefix(full, last) {
		t.Fatalf("%q should not match prefix %q", full, last)
	}
	exact := keyIndexPrefix("Adult", "name", model.ValueOf("BRYS", "Salomon"))
	if !bytes.HasPrefix(full, exact) || !bytes.Equal(full[len(exact):], []byte(id)) {
		t.Fatalf("%q should be prefix %q followed by the id", full, exact)
	}
}

func TestIndexesOrderWithValues(t *testing.T) {
	a := keyIndexPrefix("T", "age", model.ValueOf(-5))
	b := keyIndexPrefix("T", "age", model.ValueOf(3))
	c := keyIndexPrefix("T", "age", model.ValueOf(40))
	if !(bytes.Compare(a, b) < 0 && bytes.Compare(b, c) < 0) {
		t.Fatalf("index keys out of order")
	}
}

func TestValidateIndexes(t *testing.T) {
	if err := validateIndexes([]model.Index{{Name: "ok"}}); err != nil {
		t.Fatalf("valid: %v", err)
	}
	for _, name := range []string{"", "a\x00b"} {
		if err := validateIndexes([]model.Index{{Name: name}}); err == nil {
			t.Fatalf("%q should be rejected", name)
		}
	}
}
