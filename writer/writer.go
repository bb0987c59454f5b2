// Package writer serializes an object.Document back to PDF bytes. It
// supports classic cross-reference tables as well as compacted output where
// non-stream objects are packed into object streams indexed by a
// cross-reference stream.
package writer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"

	"pdfsqueeze/filters"
	"pdfsqueeze/object"
)

// Config controls output shape.
type Config struct {
	// CompressStreams flate-encodes streams that carry no filter yet.
	CompressStreams bool
	// ObjectStreams packs non-stream objects into /ObjStm containers and
	// emits a cross-reference stream instead of a classic table.
	ObjectStreams bool
}

var headerComment = []byte{'%', 0xE2, 0xE3, 0xCF, 0xD3, '\n'}

// Write serializes doc to w.
func Write(doc *object.Document, w io.Writer, cfg Config) error {
	if doc.Trailer == nil || !doc.Trailer.Has("Root") {
		return errors.New("writer: document has no Root")
	}
	var buf bytes.Buffer
	version := doc.Version
	if version == "" {
		version = "1.7"
	}
	if cfg.ObjectStreams {
		version = bumpVersion(version)
	}
	fmt.Fprintf(&buf, "%%PDF-%s\n", version)
	buf.Write(headerComment)

	var err error
	if cfg.ObjectStreams {
		err = writeCompacted(&buf, doc, cfg)
	} else {
		err = writeClassic(&buf, doc, cfg)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// bumpVersion lifts pre-1.5 versions to 1.5, the first with object stream
// support.
func bumpVersion(v string) string {
	switch v {
	case "1.0", "1.1", "1.2", "1.3", "1.4":
		return "1.5"
	}
	return v
}

func sortedRefs(doc *object.Document) []object.Ref {
	refs := make([]object.Ref, 0, len(doc.Objects))
	for ref := range doc.Objects {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Num != refs[j].Num {
			return refs[i].Num < refs[j].Num
		}
		return refs[i].Gen < refs[j].Gen
	})
	return refs
}

// prepareStream returns the stream to serialize, flate-encoding unfiltered
// payloads when compression is on. The input document is never mutated.
func prepareStream(st *object.Stream, cfg Config) *object.Stream {
	if !cfg.CompressStreams || st.Dict.Has("Filter") || len(st.Data) == 0 {
		return st
	}
	encoded, err := filters.FlateEncode(st.Data, 0)
	if err != nil || len(encoded) >= len(st.Data) {
		return st
	}
	dict := st.Dict.Clone()
	dict.Set("Filter", object.Name("FlateDecode"))
	out := &object.Stream{Dict: dict}
	out.SetData(encoded)
	return out
}

func writeClassic(buf *bytes.Buffer, doc *object.Document, cfg Config) error {
	refs := sortedRefs(doc)
	offsets := make(map[int]int64, len(refs))
	gens := make(map[int]int, len(refs))
	for _, ref := range refs {
		obj := doc.Objects[ref]
		if st, ok := obj.(*object.Stream); ok {
			obj = prepareStream(st, cfg)
		}
		offsets[ref.Num] = int64(buf.Len())
		gens[ref.Num] = ref.Gen
		fmt.Fprintf(buf, "%d %d obj\n", ref.Num, ref.Gen)
		serializeObject(buf, obj)
		buf.WriteString("\nendobj\n")
	}

	maxNum := 0
	for num := range offsets {
		if num > maxNum {
			maxNum = num
		}
	}
	xrefOffset := int64(buf.Len())
	fmt.Fprintf(buf, "xref\n0 %d\n", maxNum+1)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num <= maxNum; num++ {
		if off, ok := offsets[num]; ok {
			fmt.Fprintf(buf, "%010d %05d n \n", off, gens[num])
		} else {
			buf.WriteString("0000000000 65535 f \n")
		}
	}

	trailer := doc.Trailer.Clone()
	trailer.Set("Size", object.Integer(maxNum+1))
	buf.WriteString("trailer\n")
	serializeDict(buf, trailer)
	fmt.Fprintf(buf, "\nstartxref\n%d\n%%%%EOF\n", xrefOffset)
	return nil
}

// maxObjStreamMembers bounds container size so a single corrupt container
// cannot take out an unreasonable share of the file.
const maxObjStreamMembers = 100

type xrefRow struct {
	typ int
	f2  int64
	f3  int64
}

func writeCompacted(buf *bytes.Buffer, doc *object.Document, cfg Config) error {
	refs := sortedRefs(doc)
	rows := make(map[int]xrefRow)

	// Streams and nonzero-generation objects stay as file objects; the
	// rest is packed into object stream containers.
	var members []object.Ref
	for _, ref := range refs {
		obj := doc.Objects[ref]
		st, isStream := obj.(*object.Stream)
		if !isStream && ref.Gen == 0 {
			members = append(members, ref)
			continue
		}
		if isStream {
			obj = prepareStream(st, cfg)
		}
		rows[ref.Num] = xrefRow{typ: 1, f2: int64(buf.Len()), f3: int64(ref.Gen)}
		fmt.Fprintf(buf, "%d %d obj\n", ref.Num, ref.Gen)
		serializeObject(buf, obj)
		buf.WriteString("\nendobj\n")
	}

	nextNum := doc.MaxNum() + 1
	for start := 0; start < len(members); start += maxObjStreamMembers {
		end := start + maxObjStreamMembers
		if end > len(members) {
			end = len(members)
		}
		chunk := members[start:end]
		containerNum := nextNum
		nextNum++

		var header, body bytes.Buffer
		for idx, ref := range chunk {
			fmt.Fprintf(&header, "%d %d ", ref.Num, body.Len())
			serializeObject(&body, doc.Objects[ref])
			body.WriteByte('\n')
			rows[ref.Num] = xrefRow{typ: 2, f2: int64(containerNum), f3: int64(idx)}
		}

		payload := append(header.Bytes(), body.Bytes()...)
		dict := object.NewDict()
		dict.Set("Type", object.Name("ObjStm"))
		dict.Set("N", object.Integer(len(chunk)))
		dict.Set("First", object.Integer(header.Len()))
		if encoded, err := filters.FlateEncode(payload, 0); err == nil {
			dict.Set("Filter", object.Name("FlateDecode"))
			payload = encoded
		}
		st := &object.Stream{Dict: dict}
		st.SetData(payload)

		rows[containerNum] = xrefRow{typ: 1, f2: int64(buf.Len())}
		fmt.Fprintf(buf, "%d 0 obj\n", containerNum)
		serializeObject(buf, st)
		buf.WriteString("\nendobj\n")
	}

	xrefNum := nextNum
	xrefOffset := int64(buf.Len())
	rows[xrefNum] = xrefRow{typ: 1, f2: xrefOffset}
	size := xrefNum + 1

	// W [1 4 2]: type byte, 4-byte offset or container number, 2-byte
	// generation or member index.
	var data bytes.Buffer
	for num := 0; num < size; num++ {
		row, ok := rows[num]
		if !ok {
			row = xrefRow{typ: 0, f3: 65535}
		}
		data.WriteByte(byte(row.typ))
		data.Write([]byte{byte(row.f2 >> 24), byte(row.f2 >> 16), byte(row.f2 >> 8), byte(row.f2)})
		data.Write([]byte{byte(row.f3 >> 8), byte(row.f3)})
	}

	dict := doc.Trailer.Clone()
	dict.Set("Type", object.Name("XRef"))
	dict.Set("Size", object.Integer(size))
	wArr := object.NewArray()
	wArr.Append(object.Integer(1))
	wArr.Append(object.Integer(4))
	wArr.Append(object.Integer(2))
	dict.Set("W", wArr)
	idxArr := object.NewArray()
	idxArr.Append(object.Integer(0))
	idxArr.Append(object.Integer(size))
	dict.Set("Index", idxArr)

	payload := data.Bytes()
	if encoded, err := filters.FlateEncode(payload, 0); err == nil {
		dict.Set("Filter", object.Name("FlateDecode"))
		payload = encoded
	}
	st := &object.Stream{Dict: dict}
	st.SetData(payload)

	fmt.Fprintf(buf, "%d 0 obj\n", xrefNum)
	serializeObject(buf, st)
	buf.WriteString("\nendobj\n")
	fmt.Fprintf(buf, "startxref\n%d\n%%%%EOF\n", xrefOffset)
	return nil
}
