package parser

import (
	"errors"
	"fmt"
	"io"

	"pdfsqueeze/object"
	"pdfsqueeze/scanner"
)

// tokenReader wraps a scanner with single-token pushback, which the object
// parser needs to distinguish "<< ... >> stream" from "<< ... >> endobj".
type tokenReader struct {
	s      *scanner.Scanner
	buf    scanner.Token
	buffed bool
}

func newTokenReader(s *scanner.Scanner) *tokenReader {
	return &tokenReader{s: s}
}

func (tr *tokenReader) next() (scanner.Token, error) {
	if tr.buffed {
		tr.buffed = false
		return tr.buf, nil
	}
	return tr.s.Next()
}

func (tr *tokenReader) unread(tok scanner.Token) {
	tr.buf = tok
	tr.buffed = true
}

// parseObject parses one direct object from the token stream. Stream
// payloads are handled by scanIndirect, not here.
func parseObject(tr *tokenReader) (object.Object, error) {
	tok, err := tr.next()
	if err != nil {
		return nil, err
	}
	return parseFromToken(tr, tok)
}

func parseFromToken(tr *tokenReader, tok scanner.Token) (object.Object, error) {
	switch tok.Type {
	case scanner.TokenNull:
		return object.Null{}, nil
	case scanner.TokenBoolean:
		return object.Boolean(tok.Bool), nil
	case scanner.TokenNumber:
		if tok.IsInt {
			return object.Integer(tok.Int), nil
		}
		return object.Real(tok.Float), nil
	case scanner.TokenString:
		return object.String(tok.Bytes), nil
	case scanner.TokenName:
		return object.Name(tok.Str), nil
	case scanner.TokenRef:
		return object.Reference{To: object.Ref{Num: int(tok.Int), Gen: tok.Gen}}, nil
	case scanner.TokenArrayOpen:
		return parseArray(tr)
	case scanner.TokenDictOpen:
		return parseDict(tr)
	default:
		return nil, fmt.Errorf("parser: unexpected token %q at offset %d", tok.Str, tok.Pos)
	}
}

func parseArray(tr *tokenReader) (*object.Array, error) {
	arr := object.NewArray()
	for {
		tok, err := tr.next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.New("parser: unterminated array")
			}
			return nil, err
		}
		if tok.Type == scanner.TokenKeyword && tok.Str == "]" {
			return arr, nil
		}
		item, err := parseFromToken(tr, tok)
		if err != nil {
			return nil, err
		}
		arr.Append(item)
	}
}

func parseDict(tr *tokenReader) (*object.Dict, error) {
	dict := object.NewDict()
	for {
		tok, err := tr.next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.New("parser: unterminated dictionary")
			}
			return nil, err
		}
		if tok.Type == scanner.TokenKeyword && tok.Str == ">>" {
			return dict, nil
		}
		if tok.Type != scanner.TokenName {
			return nil, fmt.Errorf("parser: dictionary key is not a name at offset %d", tok.Pos)
		}
		value, err := parseObject(tr)
		if err != nil {
			return nil, err
		}
		dict.Set(tok.Str, value)
	}
}

// lengthResolver resolves an indirect /Length value while an object is
// still being scanned.
type lengthResolver func(ref object.Ref) (int64, bool)

// scanIndirect parses one "N G obj ... endobj" definition. When the body is
// a stream dictionary, the declared Length is resolved (through resolve for
// indirect values) and handed to the scanner before the payload is read.
func (p *DocumentParser) scanIndirect(tr *tokenReader, resolve lengthResolver) (object.Ref, object.Object, error) {
	numTok, err := tr.next()
	if err != nil {
		return object.Ref{}, nil, err
	}
	genTok, err := tr.next()
	if err != nil {
		return object.Ref{}, nil, err
	}
	objTok, err := tr.next()
	if err != nil {
		return object.Ref{}, nil, err
	}
	if numTok.Type != scanner.TokenNumber || !numTok.IsInt ||
		genTok.Type != scanner.TokenNumber || !genTok.IsInt ||
		objTok.Type != scanner.TokenKeyword || objTok.Str != "obj" {
		return object.Ref{}, nil, fmt.Errorf("parser: malformed object header at offset %d", numTok.Pos)
	}
	ref := object.Ref{Num: int(numTok.Int), Gen: int(genTok.Int)}

	body, err := parseObject(tr)
	if err != nil {
		return object.Ref{}, nil, fmt.Errorf("parser: object %s: %w", ref, err)
	}
	dict, isDict := body.(*object.Dict)
	if !isDict {
		return ref, body, nil
	}

	length := int64(-1)
	if lv, ok := dict.Get("Length"); ok {
		switch v := lv.(type) {
		case object.Integer:
			length = int64(v)
		case object.Reference:
			if resolve != nil {
				if n, ok := resolve(v.To); ok {
					length = n
				}
			}
		}
	}
	tr.s.SetNextStreamLength(length)
	tok, err := tr.next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ref, dict, nil
		}
		return object.Ref{}, nil, err
	}
	if tok.Type != scanner.TokenStream {
		tr.unread(tok)
		return ref, dict, nil
	}
	st := &object.Stream{Dict: dict}
	st.SetData(tok.Bytes)
	return ref, st, nil
}
