// Package pdfobj holds the minimal raw PDF object model used by the writer.
package pdfobj

import "fmt"

// Ref uniquely identifies an indirect PDF object. Generation is always 0
// for documents produced here.
type Ref struct {
	Num int
	Gen int
}

func (r Ref) String() string { return fmt.Sprintf("%d %d R", r.Num, r.Gen) }

// Object is the base interface for all raw PDF objects.
type Object interface {
	Type() string
}

// Name object
type Name struct{ Val string }

func (n Name) Type() string  { return "name" }
func (n Name) Value() string { return n.Val }

// Number object
type Number struct {
	I     int64
	F     float64
	IsInt bool
}

func (n Number) Type() string { return "number" }
func (n Number) Int() int64   { return n.I }
func (n Number) Float() float64 {
	if n.IsInt {
		return float64(n.I)
	}
	return n.F
}
func (n Number) IsInteger() bool { return n.IsInt }

// Boolean object
type Bool struct{ V bool }

func (b Bool) Type() string { return "boolean" }
func (b Bool) Value() bool  { return b.V }

// Null object
type Null struct{}

func (n Null) Type() string { return "null" }

// String object (literal only)
type String struct{ Bytes []byte }

func (s String) Type() string  { return "string" }
func (s String) Value() []byte { return s.Bytes }

// Array object
type Array struct{ Items []Object }

func (a *Array) Type() string { return "array" }
func (a *Array) Len() int     { return len(a.Items) }
func (a *Array) Append(o Object) {
	a.Items = append(a.Items, o)
}
func (a *Array) Get(i int) (Object, bool) {
	if i < 0 || i >= len(a.Items) {
		return nil, false
	}
	return a.Items[i], true
}

// Dict object. Keys are serialized in sorted order so output is
// deterministic for a given dictionary.
type Dict struct{ KV map[string]Object }

func (d *Dict) Type() string { return "dict" }
func (d *Dict) Set(key string, value Object) {
	if d.KV == nil {
		d.KV = make(map[string]Object)
	}
	d.KV[key] = value
}
func (d *Dict) Get(key string) (Object, bool) { o, ok := d.KV[key]; return o, ok }
func (d *Dict) Len() int                      { return len(d.KV) }

// Stream object: a dictionary plus raw payload bytes. The dictionary's
// Length entry is maintained by the constructor, never by hand.
type Stream struct {
	Dict *Dict
	Data []byte
}

func (s *Stream) Type() string  { return "stream" }
func (s *Stream) Length() int64 { return int64(len(s.Data)) }

// RefObj is an indirect reference appearing inside another object.
type RefObj struct{ R Ref }

func (r RefObj) Type() string { return "ref" }
func (r RefObj) Ref() Ref     { return r.R }

// Helpers
func NameOf(v string) Name            { return Name{Val: v} }
func Int(i int64) Number              { return Number{I: i, IsInt: true} }
func Float(f float64) Number          { return Number{F: f, IsInt: false} }
func Str(b []byte) String             { return String{Bytes: b} }
func NewArray(items ...Object) *Array { return &Array{Items: items} }
func NewDict() *Dict                  { return &Dict{KV: make(map[string]Object)} }
func ToRef(num int) RefObj            { return RefObj{R: Ref{Num: num, Gen: 0}} }

// NewStream wraps data in a stream object and sets the Length entry from
// the actual payload size.
func NewStream(dict *Dict, data []byte) *Stream {
	if dict == nil {
		dict = NewDict()
	}
	dict.Set("Length", Int(int64(len(data))))
	return &Stream{Dict: dict, Data: data}
}
