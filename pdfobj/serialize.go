package pdfobj

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
)

// Marshal renders an object in its in-line form (no obj/endobj wrapper).
func Marshal(o Object) []byte {
	switch v := o.(type) {
	case Name:
		return []byte("/" + v.Value())
	case Number:
		if v.IsInteger() {
			return []byte(strconv.FormatInt(v.Int(), 10))
		}
		// 'f' keeps the decimal form; PDF readers do not accept exponents.
		return []byte(strconv.FormatFloat(v.Float(), 'f', -1, 64))
	case Bool:
		if v.Value() {
			return []byte("true")
		}
		return []byte("false")
	case Null:
		return []byte("null")
	case String:
		return escapeLiteralString(v.Value())
	case *Array:
		var b bytes.Buffer
		b.WriteByte('[')
		for i, it := range v.Items {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.Write(Marshal(it))
		}
		b.WriteByte(']')
		return b.Bytes()
	case *Dict:
		var b bytes.Buffer
		b.WriteString("<<")
		keys := make([]string, 0, len(v.KV))
		for k := range v.KV {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString("/" + k + " ")
			b.Write(Marshal(v.KV[k]))
		}
		b.WriteString(">>")
		return b.Bytes()
	case *Stream:
		var b bytes.Buffer
		b.Write(Marshal(v.Dict))
		b.WriteString("stream\n")
		b.Write(v.Data)
		b.WriteString("\nendstream")
		return b.Bytes()
	case RefObj:
		return []byte(fmt.Sprintf("%d %d R", v.Ref().Num, v.Ref().Gen))
	default:
		return []byte("null")
	}
}

// MarshalIndirect renders a full indirect object body for the given
// object number. The returned bytes start with the literal "<num> 0 obj".
func MarshalIndirect(ref Ref, o Object) []byte {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("%d %d obj\n", ref.Num, ref.Gen))
	buf.Write(Marshal(o))
	buf.WriteString("\nendobj\n")
	return buf.Bytes()
}

func escapeLiteralString(raw []byte) []byte {
	var b bytes.Buffer
	b.WriteByte('(')
	for _, ch := range raw {
		switch ch {
		case '\\', '(', ')':
			b.WriteByte('\\')
			b.WriteByte(ch)
		case '\n':
			b.WriteString("\\n")
		case '\r':
			b.WriteString("\\r")
		case '\t':
			b.WriteString("\\t")
		default:
			if ch < 0x20 || ch >= 0x80 {
				fmt.Fprintf(&b, "\\%03o", ch)
			} else {
				b.WriteByte(ch)
			}
		}
	}
	b.WriteByte(')')
	return b.Bytes()
}
