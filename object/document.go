package object

// maxResolveDepth bounds reference chains so that malformed documents with
// reference loops cannot recurse forever.
const maxResolveDepth = 32

// Document is the arena holding every indirect object of one PDF file.
type Document struct {
	Objects map[Ref]Object
	Trailer *Dict
	Version string

	maxNum int
}

// NewDocument returns an empty document with an empty trailer.
func NewDocument() *Document {
	return &Document{
		Objects: make(map[Ref]Object),
		Trailer: NewDict(),
		Version: "1.7",
	}
}

// Get returns the object stored under ref.
func (d *Document) Get(ref Ref) (Object, bool) {
	obj, ok := d.Objects[ref]
	return obj, ok
}

// Put stores obj under ref, growing the object number watermark as needed.
func (d *Document) Put(ref Ref, obj Object) {
	if d.Objects == nil {
		d.Objects = make(map[Ref]Object)
	}
	d.Objects[ref] = obj
	if ref.Num > d.maxNum {
		d.maxNum = ref.Num
	}
}

// Add stores obj under a freshly allocated object number.
func (d *Document) Add(obj Object) Ref {
	d.maxNum++
	ref := Ref{Num: d.maxNum}
	d.Put(ref, obj)
	return ref
}

// MaxNum returns the highest allocated object number.
func (d *Document) MaxNum() int { return d.maxNum }

// Resolve follows reference chains until a direct object is reached.
// Dangling references resolve to Null.
func (d *Document) Resolve(obj Object) Object {
	for depth := 0; depth < maxResolveDepth; depth++ {
		ref, ok := obj.(Reference)
		if !ok {
			return obj
		}
		target, ok := d.Objects[ref.To]
		if !ok {
			return Null{}
		}
		obj = target
	}
	return Null{}
}

// Dict resolves obj and asserts it is a dictionary.
func (d *Document) Dict(obj Object) (*Dict, bool) {
	v, ok := d.Resolve(obj).(*Dict)
	return v, ok && v != nil
}

// Array resolves obj and asserts it is an array.
func (d *Document) Array(obj Object) (*Array, bool) {
	v, ok := d.Resolve(obj).(*Array)
	return v, ok && v != nil
}

// Stream resolves obj and asserts it is a stream.
func (d *Document) Stream(obj Object) (*Stream, bool) {
	v, ok := d.Resolve(obj).(*Stream)
	return v, ok && v != nil
}

// Int resolves obj to an integer value.
func (d *Document) Int(obj Object) (int64, bool) {
	switch v := d.Resolve(obj).(type) {
	case Integer:
		return int64(v), true
	case Real:
		return int64(v), true
	}
	return 0, false
}

// Float resolves obj to a float value.
func (d *Document) Float(obj Object) (float64, bool) {
	switch v := d.Resolve(obj).(type) {
	case Integer:
		return float64(v), true
	case Real:
		return float64(v), true
	}
	return 0, false
}

// Name resolves obj to a name value.
func (d *Document) Name(obj Object) (string, bool) {
	v, ok := d.Resolve(obj).(Name)
	return string(v), ok
}

// DictGet resolves the value stored under key in dict.
func (d *Document) DictGet(dict *Dict, key string) (Object, bool) {
	v, ok := dict.Get(key)
	if !ok {
		return nil, false
	}
	return d.Resolve(v), true
}

// DictInt resolves the value stored under key in dict to an integer.
func (d *Document) DictInt(dict *Dict, key string) (int64, bool) {
	v, ok := dict.Get(key)
	if !ok {
		return 0, false
	}
	return d.Int(v)
}

// Sweep removes every object not reachable from the trailer and returns the
// number of objects dropped. Reachability follows dictionary values, array
// items and stream dictionaries.
func (d *Document) Sweep() int {
	reachable := make(map[Ref]bool)
	if d.Trailer != nil {
		d.mark(d.Trailer, reachable)
	}
	removed := 0
	for ref := range d.Objects {
		if !reachable[ref] {
			delete(d.Objects, ref)
			removed++
		}
	}
	return removed
}

func (d *Document) mark(obj Object, reachable map[Ref]bool) {
	switch v := obj.(type) {
	case Reference:
		if reachable[v.To] {
			return
		}
		reachable[v.To] = true
		if target, ok := d.Objects[v.To]; ok {
			d.mark(target, reachable)
		}
	case *Array:
		for _, item := range v.Items {
			d.mark(item, reachable)
		}
	case *Dict:
		for _, k := range v.Keys() {
			item, _ := v.Get(k)
			d.mark(item, reachable)
		}
	case *Stream:
		if v.Dict != nil {
			d.mark(v.Dict, reachable)
		}
	}
}
