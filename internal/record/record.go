// Package record frames the value stored for a model.
//
// Layout: uvarint headerLen | header | payload | crc32c(header|payload)
//
// The header lists the index entries the model contributed when it was
// written, so a later overwrite or delete knows which index keys to remove
// even if the extractor has changed since. Header layout:
// uvarint count, then per entry uvarint nameLen | name | uvarint valueLen | value.
package record

import (
	"encoding/binary"
	"errors"
	"hash/crc32"

	"github.com/rzbill/modeldb/pkg/model"
)

// ErrCorrupt is returned when a stored value fails to decode or checksum.
var ErrCorrupt = errors.New("record: corrupt value")

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Record is a decoded stored value.
type Record struct {
	Indexes []model.Index
	Payload []byte
}

// Encode frames indexes and payload.
func Encode(indexes []model.Index, payload []byte) []byte {
	header := encodeHeader(indexes)
	out := make([]byte, 0, binary.MaxVarintLen64+len(header)+len(payload)+4)
	out = binary.AppendUvarint(out, uint64(len(header)))
	out = append(out, header...)
	out = append(out, payload...)

	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	return binary.BigEndian.AppendUint32(out, crc)
}

// Decode parses and verifies b. The returned slices do not alias b.
func Decode(b []byte) (Record, error) {
	if len(b) < 1+4 {
		return Record{}, ErrCorrupt
	}
	hlen, n := binary.Uvarint(b)
	if n <= 0 || len(b)-n < 4 || uint64(len(b)-n-4) < hlen {
		return Record{}, ErrCorrupt
	}
	header := b[n : n+int(hlen)]
	payload := b[n+int(hlen) : len(b)-4]
	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	if crc != binary.BigEndian.Uint32(b[len(b)-4:]) {
		return Record{}, ErrCorrupt
	}
	indexes, err := decodeHeader(header)
	if err != nil {
		return Record{}, err
	}
	return Record{Indexes: indexes, Payload: append([]byte(nil), payload...)}, nil
}

func encodeHeader(indexes []model.Index) []byte {
	var h []byte
	h = binary.AppendUvarint(h, uint64(len(indexes)))
	for _, idx := range indexes {
		h = binary.AppendUvarint(h, uint64(len(idx.Name)))
		h = append(h, idx.Name...)
		h = binary.AppendUvarint(h, uint64(len(idx.Value)))
		h = append(h, idx.Value...)
	}
	return h
}

func decodeHeader(h []byte) ([]model.Index, error) {
	count, n := binary.Uvarint(h)
	if n <= 0 {
		return nil, ErrCorrupt
	}
	h = h[n:]
	var out []model.Index
	for i := uint64(0); i < count; i++ {
		name, rest, ok := readChunk(h)
		if !ok {
			return nil, ErrCorrupt
		}
		value, rest, ok := readChunk(rest)
		if !ok {
			return nil, ErrCorrupt
		}
		out = append(out, model.Index{Name: string(name), Value: model.Value(value)})
		h = rest
	}
	if len(h) != 0 {
		return nil, ErrCorrupt
	}
	return out, nil
}

func readChunk(b []byte) ([]byte, []byte, bool) {
	l, n := binary.Uvarint(b)
	if n <= 0 || uint64(len(b)-n) < l {
		return nil, nil, false
	}
	return b[n : n+int(l)], b[n+int(l):], true
}
