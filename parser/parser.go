// Package parser loads PDF files into the object arena. It resolves the
// cross-reference chain (classic tables and cross-reference streams),
// materializes every referenced object including object-stream members, and
// falls back to a full-file scan when the xref data is unusable.
package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"pdfsqueeze/filters"
	"pdfsqueeze/object"
	"pdfsqueeze/scanner"
)

// ErrEncrypted is returned for documents whose trailer carries /Encrypt.
var ErrEncrypted = errors.New("parser: document is encrypted")

// Config bounds parsing of untrusted input.
type Config struct {
	MaxStringLength int64
	MaxStreamLength int64
	MaxObjects      int
}

// DefaultConfig returns limits suitable for documents up to a few hundred
// megabytes.
func DefaultConfig() Config {
	return Config{
		MaxStringLength: 16 << 20,
		MaxStreamLength: 512 << 20,
		MaxObjects:      1 << 20,
	}
}

// DocumentParser turns raw PDF bytes into an object.Document.
type DocumentParser struct {
	cfg      Config
	pipeline *filters.Pipeline
}

// New returns a parser with the given limits and the default filter
// pipeline for xref and object streams.
func New(cfg Config) *DocumentParser {
	return &DocumentParser{cfg: cfg, pipeline: filters.Default()}
}

func (p *DocumentParser) scannerConfig() scanner.Config {
	return scanner.Config{
		MaxStringLength: p.cfg.MaxStringLength,
		MaxStreamLength: p.cfg.MaxStreamLength,
	}
}

// Parse reads a complete document from r.
func Parse(ctx context.Context, r io.ReaderAt, size int64) (*object.Document, error) {
	return New(DefaultConfig()).Parse(ctx, r, size)
}

// ParseBytes reads a complete document from an in-memory file.
func ParseBytes(ctx context.Context, data []byte) (*object.Document, error) {
	return Parse(ctx, bytes.NewReader(data), int64(len(data)))
}

// Parse reads a complete document from r.
func (p *DocumentParser) Parse(ctx context.Context, r io.ReaderAt, size int64) (*object.Document, error) {
	if size <= 0 {
		return nil, errors.New("parser: empty input")
	}
	doc := object.NewDocument()
	doc.Version = readVersion(r)

	table, err := p.resolveXRef(ctx, r, size)
	if err != nil {
		table, err = repairXRef(r, size)
		if err != nil {
			return nil, err
		}
	}
	if p.cfg.MaxObjects > 0 && len(table.entries) > p.cfg.MaxObjects {
		return nil, errors.New("parser: object count exceeds limit")
	}
	if table.trailer.Has("Encrypt") {
		return nil, ErrEncrypted
	}

	if err := p.loadObjects(ctx, r, table, doc); err != nil {
		return nil, err
	}

	doc.Trailer = trimTrailer(table.trailer)
	if !doc.Trailer.Has("Root") {
		return nil, errors.New("parser: trailer has no Root")
	}
	return doc, nil
}

// readVersion extracts the header version, defaulting to 1.7 when the
// comment is missing or mangled.
func readVersion(r io.ReaderAt) string {
	buf := make([]byte, 1024)
	n, _ := r.ReadAt(buf, 0)
	buf = buf[:n]
	idx := bytes.Index(buf, []byte("%PDF-"))
	if idx < 0 {
		return "1.7"
	}
	rest := buf[idx+5:]
	end := 0
	for end < len(rest) && (rest[end] == '.' || (rest[end] >= '0' && rest[end] <= '9')) {
		end++
	}
	if end == 0 {
		return "1.7"
	}
	return string(rest[:end])
}

// xref bookkeeping keys that must not leak into the rebuilt trailer.
var xrefOnlyKeys = []string{"Prev", "XRefStm", "Type", "W", "Index", "Filter", "DecodeParms", "Length", "Size"}

func trimTrailer(t *object.Dict) *object.Dict {
	out := t.Clone()
	for _, k := range xrefOnlyKeys {
		out.Delete(k)
	}
	return out
}

func (p *DocumentParser) loadObjects(ctx context.Context, r io.ReaderAt, table *xrefTable, doc *object.Document) error {
	// Length values may be indirect, so resolution may require loading an
	// object out of order. Such objects are parsed with no resolver of
	// their own; a Length that is itself a stream would be circular.
	var resolve lengthResolver
	resolve = func(ref object.Ref) (int64, bool) {
		if obj, ok := doc.Get(ref); ok {
			if n, ok := obj.(object.Integer); ok {
				return int64(n), true
			}
			return 0, false
		}
		entry, ok := table.entries[ref.Num]
		if !ok || entry.kind != entryInFile {
			return 0, false
		}
		got, obj, err := p.loadAt(r, entry.offset, nil)
		if err != nil || got.Num != ref.Num {
			return 0, false
		}
		doc.Put(got, obj)
		n, ok := obj.(object.Integer)
		return int64(n), ok
	}

	nums := make([]int, 0, len(table.entries))
	for num := range table.entries {
		nums = append(nums, num)
	}
	sort.Ints(nums)

	var containers []int
	for _, num := range nums {
		entry := table.entries[num]
		switch entry.kind {
		case entryInFile:
			ref := object.Ref{Num: num, Gen: entry.gen}
			if _, loaded := doc.Get(ref); loaded {
				continue
			}
			got, obj, err := p.loadAt(r, entry.offset, resolve)
			if err != nil {
				// Broken individual objects become Null rather than
				// failing the whole document.
				doc.Put(ref, object.Null{})
				continue
			}
			doc.Put(got, obj)
		case entryInObjStream:
			containers = append(containers, num)
		}
	}

	for _, num := range containers {
		entry := table.entries[num]
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.loadFromObjStream(ctx, doc, num, entry); err != nil {
			doc.Put(object.Ref{Num: num}, object.Null{})
		}
	}
	return nil
}

func (p *DocumentParser) loadAt(r io.ReaderAt, offset int64, resolve lengthResolver) (object.Ref, object.Object, error) {
	s := scanner.New(r, p.scannerConfig())
	if err := s.Seek(offset); err != nil {
		return object.Ref{}, nil, err
	}
	return p.scanIndirect(newTokenReader(s), resolve)
}

// loadFromObjStream materializes one compressed object out of its /ObjStm
// container. The container itself was loaded during the in-file pass.
func (p *DocumentParser) loadFromObjStream(ctx context.Context, doc *object.Document, num int, entry xrefEntry) error {
	container, ok := doc.Get(object.Ref{Num: entry.streamNum})
	if !ok {
		return fmt.Errorf("parser: object stream %d not loaded", entry.streamNum)
	}
	st, ok := container.(*object.Stream)
	if !ok {
		return fmt.Errorf("parser: object %d is not an object stream", entry.streamNum)
	}
	data := st.Data
	names, params := filters.ForStream(doc, st.Dict)
	if len(names) > 0 {
		var err error
		data, err = p.pipeline.Decode(ctx, data, names, params)
		if err != nil {
			return fmt.Errorf("parser: decode object stream %d: %w", entry.streamNum, err)
		}
	}
	count, _ := st.Dict.Int("N")
	first, _ := st.Dict.Int("First")
	if first < 0 || first > int64(len(data)) {
		return fmt.Errorf("parser: object stream %d has invalid First", entry.streamNum)
	}

	s := scanner.New(bytes.NewReader(data), p.scannerConfig())
	tr := newTokenReader(s)
	nums := make([]int, 0, count)
	offsets := make([]int64, 0, count)
	for i := int64(0); i < count; i++ {
		numTok, err := tr.next()
		if err != nil {
			return err
		}
		offTok, err := tr.next()
		if err != nil {
			return err
		}
		if numTok.Type != scanner.TokenNumber || offTok.Type != scanner.TokenNumber {
			return fmt.Errorf("parser: object stream %d has malformed header", entry.streamNum)
		}
		nums = append(nums, int(numTok.Int))
		offsets = append(offsets, offTok.Int)
	}
	// Trust the header pairs over the xref index when they disagree.
	memberOffset := int64(-1)
	for i, n := range nums {
		if n == num {
			memberOffset = offsets[i]
			break
		}
	}
	if memberOffset < 0 {
		if entry.streamIdx < 0 || entry.streamIdx >= len(offsets) {
			return fmt.Errorf("parser: object %d not present in stream %d", num, entry.streamNum)
		}
		memberOffset = offsets[entry.streamIdx]
	}

	ms := scanner.New(bytes.NewReader(data), p.scannerConfig())
	if err := ms.Seek(first + memberOffset); err != nil {
		return err
	}
	obj, err := parseObject(newTokenReader(ms))
	if err != nil {
		return fmt.Errorf("parser: object %d in stream %d: %w", num, entry.streamNum, err)
	}
	doc.Put(object.Ref{Num: num}, obj)
	return nil
}
