package modeldb

import (
	"fmt"
	"strings"

	"github.com/rzbill/modeldb/pkg/model"
)

// Keyspace helpers for store keys.
//
// Layout (byte-wise, lexicographically sortable):
// - m/{type}/o/{id}                       record
// - m/{type}/i/{index}\x00{value}\x00{id} empty, one per index entry
//
// Values and ids are model.Value encodings. Every encoded part starts with a
// tag byte above 0x00, so the 0x00 after {value} ends the value and an index
// prefix scan only matches entries whose value is exactly equal.

var (
	modelPrefix = []byte("m/")
	objectSeg   = []byte("/o/")
	indexSeg    = []byte("/i/")
)

func keyTypePrefix(typeName string, seg []byte) []byte {
	k := make([]byte, 0, len(modelPrefix)+len(typeName)+len(seg))
	k = append(k, modelPrefix...)
	k = append(k, typeName...)
	return append(k, seg...)
}

// keyObject builds the record key of a model.
func keyObject(k model.Key) []byte {
	out := keyTypePrefix(k.Type, objectSeg)
	return append(out, k.ID...)
}

// keyIndexPrefix builds the prefix shared by every entry of one index value.
func keyIndexPrefix(typeName, index string, value model.Value) []byte {
	k := keyTypePrefix(typeName, indexSeg)
	k = append(k, index...)
	k = append(k, 0x00)
	k = append(k, value...)
	return append(k, 0x00)
}

// keyIndex builds the index entry key of one model.
func keyIndex(k model.Key, idx model.Index) []byte {
	return append(keyIndexPrefix(k.Type, idx.Name, idx.Value), k.ID...)
}

func validateIndexes(indexes []model.Index) error {
	for _, idx := range indexes {
		if idx.Name == "" || strings.IndexByte(idx.Name, 0x00) >= 0 {
			return fmt.Errorf("%w: index name %q", ErrInvalidKey, idx.Name)
		}
	}
	return nil
}
