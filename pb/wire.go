// Package pb is the opaque, versioned binary codec boundary spec.md §1
// assigns to "an external schema library". meshcore hand-writes the message
// shapes the session needs (mirroring the real Meshtastic protobuf schema's
// field numbers and oneof layout) and encodes/decodes them with the wire
// primitives from google.golang.org/protobuf/encoding/protowire, rather than
// vendoring a full generated client none of the retrieved examples carry.
package pb

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrMalformed wraps any short-read or bad-tag condition encountered while
// walking a message's wire bytes.
type ErrMalformed struct {
	Context string
}

func (e *ErrMalformed) Error() string {
	return fmt.Sprintf("pb: malformed %s", e.Context)
}

func malformed(ctx string) error { return &ErrMalformed{Context: ctx} }

// fieldVisitor is called once per top-level field encountered by walkFields.
// It returns the number of bytes of raw (still wiretype-tagged) value bytes
// it consumed; walkFields advances by that amount.
type fieldVisitor func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

// walkFields iterates every (tag, value) pair in data, in wire order,
// calling visit for each. Unknown field numbers are simply handed to visit,
// which is expected to skip them with protowire.ConsumeFieldValue.
func walkFields(data []byte, ctx string, visit fieldVisitor) error {
	b := data
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return malformed(ctx + ": tag")
		}
		b = b[n:]
		consumed, err := visit(num, typ, b)
		if err != nil {
			return err
		}
		if consumed < 0 || consumed > len(b) {
			return malformed(ctx + ": field value")
		}
		b = b[consumed:]
	}
	return nil
}

func skipField(typ protowire.Type, b []byte) (int, error) {
	n := protowire.ConsumeFieldValue(0, typ, b)
	if n < 0 {
		return 0, malformed("unknown field")
	}
	return n, nil
}

func appendVarintField(dst []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return dst
	}
	dst = protowire.AppendTag(dst, num, protowire.VarintType)
	return protowire.AppendVarint(dst, v)
}

func appendBoolField(dst []byte, num protowire.Number, v bool) []byte {
	if !v {
		return dst
	}
	dst = protowire.AppendTag(dst, num, protowire.VarintType)
	return protowire.AppendVarint(dst, 1)
}

func appendBytesField(dst []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return dst
	}
	dst = protowire.AppendTag(dst, num, protowire.BytesType)
	return protowire.AppendBytes(dst, v)
}

func appendStringField(dst []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return dst
	}
	return appendBytesField(dst, num, []byte(v))
}

func appendFixed32Field(dst []byte, num protowire.Number, v uint32) []byte {
	if v == 0 {
		return dst
	}
	dst = protowire.AppendTag(dst, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(dst, v)
}

func consumeVarint(typ protowire.Type, b []byte) (uint64, int, error) {
	if typ != protowire.VarintType {
		n, err := skipField(typ, b)
		return 0, n, err
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, malformed("varint")
	}
	return v, n, nil
}

func consumeBytes(typ protowire.Type, b []byte) ([]byte, int, error) {
	if typ != protowire.BytesType {
		n, err := skipField(typ, b)
		return nil, n, err
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, malformed("bytes")
	}
	return v, n, nil
}

func appendFloat32Field(dst []byte, num protowire.Number, v float32) []byte {
	if v == 0 {
		return dst
	}
	return appendFixed32Field(dst, num, math.Float32bits(v))
}

func float32frombits(bits uint32) float32 {
	return math.Float32frombits(bits)
}

func consumeFixed32(typ protowire.Type, b []byte) (uint32, int, error) {
	if typ != protowire.Fixed32Type {
		n, err := skipField(typ, b)
		return 0, n, err
	}
	v, n := protowire.ConsumeFixed32(b)
	if n < 0 {
		return 0, 0, malformed("fixed32")
	}
	return v, n, nil
}
