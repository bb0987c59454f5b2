package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"pdfsqueeze/filters"
	"pdfsqueeze/object"
	"pdfsqueeze/scanner"
)

type entryKind int

const (
	entryFree entryKind = iota
	entryInFile
	entryInObjStream
)

type xrefEntry struct {
	kind      entryKind
	offset    int64
	gen       int
	streamNum int
	streamIdx int
}

// xrefTable accumulates entries across the /Prev chain. The entry seen
// first (most recent incremental update) wins.
type xrefTable struct {
	entries map[int]xrefEntry
	trailer *object.Dict
}

func newXRefTable() *xrefTable {
	return &xrefTable{entries: make(map[int]xrefEntry), trailer: object.NewDict()}
}

func (t *xrefTable) add(num int, e xrefEntry) {
	if _, seen := t.entries[num]; !seen {
		t.entries[num] = e
	}
}

func (t *xrefTable) mergeTrailer(d *object.Dict) {
	for _, k := range d.Keys() {
		if !t.trailer.Has(k) {
			v, _ := d.Get(k)
			t.trailer.Set(k, v)
		}
	}
}

const tailWindow = 2048

// findStartXRef locates the byte offset announced by the final startxref
// keyword.
func findStartXRef(r io.ReaderAt, size int64) (int64, error) {
	n := int64(tailWindow)
	if n > size {
		n = size
	}
	buf := make([]byte, n)
	if _, err := r.ReadAt(buf, size-n); err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}
	idx := bytes.LastIndex(buf, []byte("startxref"))
	if idx < 0 {
		return 0, errors.New("parser: startxref not found")
	}
	rest := buf[idx+len("startxref"):]
	fields := bytes.Fields(rest)
	if len(fields) == 0 {
		return 0, errors.New("parser: startxref offset missing")
	}
	off, err := strconv.ParseInt(string(fields[0]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parser: parse startxref: %w", err)
	}
	return off, nil
}

// resolveXRef walks the xref chain starting at the announced offset,
// reading classic tables and cross-reference streams.
func (p *DocumentParser) resolveXRef(ctx context.Context, r io.ReaderAt, size int64) (*xrefTable, error) {
	start, err := findStartXRef(r, size)
	if err != nil {
		return nil, err
	}
	table := newXRefTable()
	seen := make(map[int64]bool)
	queue := []int64{start}
	for len(queue) > 0 {
		off := queue[0]
		queue = queue[1:]
		if off <= 0 || off >= size || seen[off] {
			continue
		}
		seen[off] = true
		next, err := p.readXRefSection(ctx, r, off, table)
		if err != nil {
			return nil, err
		}
		queue = append(queue, next...)
	}
	if len(table.entries) == 0 {
		return nil, errors.New("parser: empty xref")
	}
	return table, nil
}

// readXRefSection parses one xref section and returns follow-up offsets
// (/Prev and, for hybrid files, /XRefStm).
func (p *DocumentParser) readXRefSection(ctx context.Context, r io.ReaderAt, off int64, table *xrefTable) ([]int64, error) {
	s := scanner.New(r, p.scannerConfig())
	if err := s.Seek(off); err != nil {
		return nil, err
	}
	tr := newTokenReader(s)
	tok, err := tr.next()
	if err != nil {
		return nil, fmt.Errorf("parser: xref section at %d: %w", off, err)
	}
	if tok.Type == scanner.TokenKeyword && tok.Str == "xref" {
		return p.readClassicSection(tr, table)
	}
	if tok.Type == scanner.TokenNumber && tok.IsInt {
		tr.unread(tok)
		return p.readXRefStream(ctx, r, tr, table)
	}
	return nil, fmt.Errorf("parser: no xref data at offset %d", off)
}

func (p *DocumentParser) readClassicSection(tr *tokenReader, table *xrefTable) ([]int64, error) {
	for {
		tok, err := tr.next()
		if err != nil {
			return nil, err
		}
		if tok.Type == scanner.TokenKeyword && tok.Str == "trailer" {
			break
		}
		if tok.Type != scanner.TokenNumber || !tok.IsInt {
			return nil, errors.New("parser: malformed xref subsection header")
		}
		start := int(tok.Int)
		countTok, err := tr.next()
		if err != nil {
			return nil, err
		}
		if countTok.Type != scanner.TokenNumber || !countTok.IsInt {
			return nil, errors.New("parser: malformed xref subsection count")
		}
		count := int(countTok.Int)
		for i := 0; i < count; i++ {
			offTok, err := tr.next()
			if err != nil {
				return nil, err
			}
			genTok, err := tr.next()
			if err != nil {
				return nil, err
			}
			typeTok, err := tr.next()
			if err != nil {
				return nil, err
			}
			if offTok.Type != scanner.TokenNumber || genTok.Type != scanner.TokenNumber {
				return nil, errors.New("parser: malformed xref entry")
			}
			if typeTok.Type != scanner.TokenKeyword {
				return nil, errors.New("parser: malformed xref entry type")
			}
			if typeTok.Str != "n" {
				continue
			}
			table.add(start+i, xrefEntry{kind: entryInFile, offset: offTok.Int, gen: int(genTok.Int)})
		}
	}
	trailerObj, err := parseObject(tr)
	if err != nil {
		return nil, fmt.Errorf("parser: trailer: %w", err)
	}
	trailer, ok := trailerObj.(*object.Dict)
	if !ok {
		return nil, errors.New("parser: trailer is not a dictionary")
	}
	table.mergeTrailer(trailer)
	var next []int64
	if v, ok := trailer.Int("XRefStm"); ok {
		next = append(next, v)
	}
	if v, ok := trailer.Int("Prev"); ok {
		next = append(next, v)
	}
	return next, nil
}

func (p *DocumentParser) readXRefStream(ctx context.Context, r io.ReaderAt, tr *tokenReader, table *xrefTable) ([]int64, error) {
	_, obj, err := p.scanIndirect(tr, nil)
	if err != nil {
		return nil, fmt.Errorf("parser: xref stream: %w", err)
	}
	st, ok := obj.(*object.Stream)
	if !ok {
		return nil, errors.New("parser: xref offset does not point at a stream")
	}
	dict := st.Dict
	if typ, _ := dict.Name("Type"); typ != "XRef" {
		return nil, errors.New("parser: xref stream has wrong Type")
	}

	tmp := object.NewDocument()
	names, params := filters.ForStream(tmp, dict)
	data := st.Data
	if len(names) > 0 {
		data, err = p.pipeline.Decode(ctx, data, names, params)
		if err != nil {
			return nil, fmt.Errorf("parser: decode xref stream: %w", err)
		}
	}

	wArr, ok := dict.Get("W")
	warr, isArr := wArr.(*object.Array)
	if !ok || !isArr || warr.Len() < 3 {
		return nil, errors.New("parser: xref stream missing W")
	}
	w := make([]int, 3)
	for i := 0; i < 3; i++ {
		v, _ := warr.At(i)
		n, ok := v.(object.Integer)
		if !ok {
			return nil, errors.New("parser: xref stream W not integral")
		}
		w[i] = int(n)
	}
	size, _ := dict.Int("Size")
	var index []int
	if idxObj, ok := dict.Get("Index"); ok {
		arr, ok := idxObj.(*object.Array)
		if !ok {
			return nil, errors.New("parser: xref stream Index malformed")
		}
		for _, it := range arr.Items {
			n, ok := it.(object.Integer)
			if !ok {
				return nil, errors.New("parser: xref stream Index malformed")
			}
			index = append(index, int(n))
		}
	} else {
		index = []int{0, int(size)}
	}

	rowLen := w[0] + w[1] + w[2]
	if rowLen <= 0 {
		return nil, errors.New("parser: xref stream empty W")
	}
	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		start, count := index[i], index[i+1]
		for j := 0; j < count; j++ {
			if pos+rowLen > len(data) {
				return nil, errors.New("parser: xref stream truncated")
			}
			typ := int64(1) // default entry type when W[0] == 0
			if w[0] > 0 {
				typ = readBE(data[pos : pos+w[0]])
			}
			f2 := readBE(data[pos+w[0] : pos+w[0]+w[1]])
			f3 := readBE(data[pos+w[0]+w[1] : pos+rowLen])
			pos += rowLen
			num := start + j
			switch typ {
			case 0:
				// free entry
			case 1:
				table.add(num, xrefEntry{kind: entryInFile, offset: f2, gen: int(f3)})
			case 2:
				table.add(num, xrefEntry{kind: entryInObjStream, streamNum: int(f2), streamIdx: int(f3)})
			}
		}
	}
	table.mergeTrailer(dict)
	if v, ok := dict.Int("Prev"); ok {
		return []int64{v}, nil
	}
	return nil, nil
}

func readBE(b []byte) int64 {
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}

var objHeaderRe = regexp.MustCompile(`(?m)^[ \t]*(\d+)[ \t]+(\d+)[ \t]+obj\b`)

// repairXRef rebuilds an object index by scanning the whole file for
// "N G obj" headers. Later definitions shadow earlier ones, matching the
// incremental-update reading order.
func repairXRef(r io.ReaderAt, size int64) (*xrefTable, error) {
	data := make([]byte, size)
	if _, err := r.ReadAt(data, 0); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	table := newXRefTable()
	for _, m := range objHeaderRe.FindAllSubmatchIndex(data, -1) {
		num, err1 := strconv.Atoi(string(data[m[2]:m[3]]))
		gen, err2 := strconv.Atoi(string(data[m[4]:m[5]]))
		if err1 != nil || err2 != nil {
			continue
		}
		// Overwrite deliberately: the last header in file order wins.
		table.entries[num] = xrefEntry{kind: entryInFile, offset: int64(m[0]), gen: gen}
	}
	if len(table.entries) == 0 {
		return nil, errors.New("parser: no objects found during xref repair")
	}
	if idx := bytes.LastIndex(data, []byte("trailer")); idx >= 0 {
		s := scanner.New(bytes.NewReader(data), scanner.Config{})
		if err := s.Seek(int64(idx + len("trailer"))); err == nil {
			if obj, err := parseObject(newTokenReader(s)); err == nil {
				if d, ok := obj.(*object.Dict); ok {
					table.mergeTrailer(d)
				}
			}
		}
	}
	return table, nil
}
