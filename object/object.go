// Package object implements the raw PDF object model: an arena of
// indirect objects addressed by stable references, with typed accessors
// for dictionaries, arrays and streams. Indirect references are kept as
// explicit Reference values rather than resolved pointers so that shared
// and cyclic object graphs stay finite.
package object

import (
	"fmt"
	"sort"
)

// Ref uniquely identifies an indirect PDF object.
type Ref struct {
	Num int
	Gen int
}

func (r Ref) String() string { return fmt.Sprintf("%d %d R", r.Num, r.Gen) }

// IsZero reports whether the reference is the null reference.
func (r Ref) IsZero() bool { return r.Num == 0 && r.Gen == 0 }

// Kind discriminates the object variants.
type Kind int

const (
	KindNull Kind = iota
	KindBoolean
	KindInteger
	KindReal
	KindString
	KindName
	KindArray
	KindDict
	KindStream
	KindReference
)

// Object is the base interface for all raw PDF objects.
type Object interface {
	Kind() Kind
}

// Null is the PDF null object.
type Null struct{}

func (Null) Kind() Kind { return KindNull }

// Boolean is a PDF boolean.
type Boolean bool

func (Boolean) Kind() Kind { return KindBoolean }

// Integer is a PDF integer.
type Integer int64

func (Integer) Kind() Kind { return KindInteger }

// Real is a PDF real number.
type Real float64

func (Real) Kind() Kind { return KindReal }

// String is a PDF string (literal or hex; the distinction is not kept).
type String []byte

func (String) Kind() Kind { return KindString }

// Name is a PDF name without the leading slash.
type Name string

func (Name) Kind() Kind { return KindName }

// Reference is an indirect object reference appearing inside another object.
type Reference struct {
	To Ref
}

func (Reference) Kind() Kind { return KindReference }

// Array is a PDF array.
type Array struct {
	Items []Object
}

func (*Array) Kind() Kind { return KindArray }

// NewArray builds an array from the given items.
func NewArray(items ...Object) *Array { return &Array{Items: items} }

// Len returns the number of items.
func (a *Array) Len() int { return len(a.Items) }

// At returns the item at index i.
func (a *Array) At(i int) (Object, bool) {
	if i < 0 || i >= len(a.Items) {
		return nil, false
	}
	return a.Items[i], true
}

// Append adds items to the end of the array.
func (a *Array) Append(items ...Object) { a.Items = append(a.Items, items...) }

// Dict is a PDF dictionary. Keys are stored without the leading slash.
type Dict struct {
	kv map[string]Object
}

func (*Dict) Kind() Kind { return KindDict }

// NewDict returns an empty dictionary.
func NewDict() *Dict { return &Dict{kv: make(map[string]Object)} }

// Get returns the direct value stored under key.
func (d *Dict) Get(key string) (Object, bool) {
	if d == nil || d.kv == nil {
		return nil, false
	}
	v, ok := d.kv[key]
	return v, ok
}

// Set stores value under key.
func (d *Dict) Set(key string, value Object) {
	if d.kv == nil {
		d.kv = make(map[string]Object)
	}
	d.kv[key] = value
}

// Delete removes key from the dictionary.
func (d *Dict) Delete(key string) {
	if d != nil && d.kv != nil {
		delete(d.kv, key)
	}
}

// Has reports whether key is present.
func (d *Dict) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.kv)
}

// Keys returns the keys in sorted order for deterministic serialization.
func (d *Dict) Keys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, 0, len(d.kv))
	for k := range d.kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Int returns the direct integer value under key.
func (d *Dict) Int(key string) (int64, bool) {
	v, ok := d.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case Integer:
		return int64(n), true
	case Real:
		return int64(n), true
	}
	return 0, false
}

// Name returns the direct name value under key.
func (d *Dict) Name(key string) (string, bool) {
	v, ok := d.Get(key)
	if !ok {
		return "", false
	}
	n, ok := v.(Name)
	return string(n), ok
}

// Clone returns a shallow copy of the dictionary.
func (d *Dict) Clone() *Dict {
	out := NewDict()
	if d != nil {
		for k, v := range d.kv {
			out.kv[k] = v
		}
	}
	return out
}

// Stream is a raw PDF stream: a dictionary plus an encoded payload.
type Stream struct {
	Dict *Dict
	Data []byte
}

func (*Stream) Kind() Kind { return KindStream }

// NewStream builds a stream and keeps its Length entry in sync.
func NewStream(dict *Dict, data []byte) *Stream {
	if dict == nil {
		dict = NewDict()
	}
	dict.Set("Length", Integer(len(data)))
	return &Stream{Dict: dict, Data: data}
}

// SetData replaces the payload and updates the Length entry.
func (s *Stream) SetData(data []byte) {
	s.Data = data
	if s.Dict == nil {
		s.Dict = NewDict()
	}
	s.Dict.Set("Length", Integer(len(data)))
}
