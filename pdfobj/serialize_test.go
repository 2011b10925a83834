package pdfobj

import (
	"bytes"
	"testing"
)

func TestMarshalDictSortedKeys(t *testing.T) {
	d := NewDict()
	d.Set("Width", Int(100))
	d.Set("Height", Int(200))
	d.Set("Type", NameOf("XObject"))
	got := string(Marshal(d))
	want := "<</Height 200/Type /XObject/Width 100>>"
	if got != want {
		t.Fatalf("dict serialization mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestMarshalNumberNoExponent(t *testing.T) {
	got := string(Marshal(Float(0.0000012)))
	if bytes.ContainsAny([]byte(got), "eE") {
		t.Fatalf("real number must not use exponent notation, got %q", got)
	}
	if string(Marshal(Int(841))) != "841" {
		t.Fatalf("integer serialization broken")
	}
}

func TestNewStreamSetsLength(t *testing.T) {
	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}
	s := NewStream(NewDict(), payload)
	lenObj, ok := s.Dict.Get("Length")
	if !ok {
		t.Fatalf("stream dict missing Length")
	}
	if n := lenObj.(Number); n.Int() != int64(len(payload)) {
		t.Fatalf("Length = %d, want %d", n.Int(), len(payload))
	}
	out := Marshal(s)
	if !bytes.Contains(out, []byte("stream\n")) || !bytes.Contains(out, []byte("\nendstream")) {
		t.Fatalf("stream framing missing: %q", out)
	}
	if !bytes.Contains(out, payload) {
		t.Fatalf("payload not embedded verbatim")
	}
}

func TestMarshalIndirectHeader(t *testing.T) {
	body := MarshalIndirect(Ref{Num: 7}, NameOf("Test"))
	if !bytes.HasPrefix(body, []byte("7 0 obj\n")) {
		t.Fatalf("indirect object must start with object header, got %q", body)
	}
	if !bytes.HasSuffix(body, []byte("endobj\n")) {
		t.Fatalf("indirect object must end with endobj, got %q", body)
	}
}

func TestEscapeLiteralString(t *testing.T) {
	got := string(Marshal(Str([]byte("a(b)\\c\n"))))
	want := `(a\(b\)\\c\n)`
	if got != want {
		t.Fatalf("string escaping mismatch: got %q want %q", got, want)
	}
}
