package model

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Value is an order-preserving encoding of one or more key parts. Values
// compare bytewise in the same order as their decoded parts, and the encoding
// of each part is self-delimiting so values can be concatenated inside store
// keys without ambiguity.
//
// Part layout:
//   - 0x02 {bytes, 0x00 escaped as 0x00 0xFF} 0x00   string / []byte
//   - 0x15 {8 bytes BE, sign bit flipped}            signed integers
//   - 0x16 {8 bytes BE}                              unsigned integers
//   - 0x26 / 0x27                                    false / true
type Value string

const (
	tagString byte = 0x02
	tagInt    byte = 0x15
	tagUint   byte = 0x16
	tagFalse  byte = 0x26
	tagTrue   byte = 0x27
)

var errMalformedValue = errors.New("model: malformed value")

// ValueOf encodes parts into a Value. Supported part types are string,
// []byte, bool and every built-in integer type. It panics on anything else,
// since extractors are expected to be written against known field types.
func ValueOf(parts ...any) Value {
	var b []byte
	for _, p := range parts {
		b = appendPart(b, p)
	}
	return Value(b)
}

func appendPart(b []byte, p any) []byte {
	switch v := p.(type) {
	case string:
		return appendEscaped(b, []byte(v))
	case []byte:
		return appendEscaped(b, v)
	case bool:
		if v {
			return append(b, tagTrue)
		}
		return append(b, tagFalse)
	case int:
		return appendInt(b, int64(v))
	case int8:
		return appendInt(b, int64(v))
	case int16:
		return appendInt(b, int64(v))
	case int32:
		return appendInt(b, int64(v))
	case int64:
		return appendInt(b, v)
	case uint:
		return appendUint(b, uint64(v))
	case uint8:
		return appendUint(b, uint64(v))
	case uint16:
		return appendUint(b, uint64(v))
	case uint32:
		return appendUint(b, uint64(v))
	case uint64:
		return appendUint(b, v)
	case Value:
		return append(b, v...)
	default:
		panic(fmt.Sprintf("model: unsupported key part type %T", p))
	}
}

func appendEscaped(b, v []byte) []byte {
	b = append(b, tagString)
	for _, c := range v {
		if c == 0x00 {
			b = append(b, 0x00, 0xFF)
			continue
		}
		b = append(b, c)
	}
	return append(b, 0x00)
}

func appendInt(b []byte, v int64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v)^(1<<63))
	b = append(b, tagInt)
	return append(b, buf[:]...)
}

func appendUint(b []byte, v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	b = append(b, tagUint)
	return append(b, buf[:]...)
}

// Parts decodes the value back into its parts. Strings and byte slices both
// decode as string.
func (v Value) Parts() ([]any, error) {
	var out []any
	b := []byte(v)
	for len(b) > 0 {
		switch b[0] {
		case tagString:
			s, rest, err := readEscaped(b[1:])
			if err != nil {
				return nil, err
			}
			out = append(out, s)
			b = rest
		case tagInt, tagUint:
			if len(b) < 9 {
				return nil, errMalformedValue
			}
			u := binary.BigEndian.Uint64(b[1:9])
			if b[0] == tagInt {
				out = append(out, int64(u^(1<<63)))
			} else {
				out = append(out, u)
			}
			b = b[9:]
		case tagFalse, tagTrue:
			out = append(out, b[0] == tagTrue)
			b = b[1:]
		default:
			return nil, errMalformedValue
		}
	}
	return out, nil
}

func readEscaped(b []byte) (string, []byte, error) {
	var sb strings.Builder
	for i := 0; i < len(b); i++ {
		if b[i] != 0x00 {
			sb.WriteByte(b[i])
			continue
		}
		if i+1 < len(b) && b[i+1] == 0xFF {
			sb.WriteByte(0x00)
			i++
			continue
		}
		return sb.String(), b[i+1:], nil
	}
	return "", nil, errMalformedValue
}

// String renders the decoded parts separated by commas. Malformed values
// render as quoted raw bytes.
func (v Value) String() string {
	parts, err := v.Parts()
	if err != nil {
		return strconv.Quote(string(v))
	}
	ss := make([]string, len(parts))
	for i, p := range parts {
		ss[i] = fmt.Sprint(p)
	}
	return strings.Join(ss, ",")
}
