package scanner

import (
	"bytes"
	"testing"
)

func scan(t *testing.T, src string) []Token {
	t.Helper()
	s := New(bytes.NewReader([]byte(src)), Config{})
	var out []Token
	for {
		tok, err := s.Next()
		if err != nil {
			return out
		}
		out = append(out, tok)
	}
}

func TestNames(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"/Name", "Name"},
		{"/A#20B", "A B"},
		{"/Lime#20Green", "Lime Green"},
		{"/F#23", "F#"},
		{"/", ""},
	}
	for _, tt := range tests {
		toks := scan(t, tt.src)
		if len(toks) != 1 || toks[0].Type != TokenName || toks[0].Str != tt.want {
			t.Errorf("scan(%q) = %+v, want name %q", tt.src, toks, tt.want)
		}
	}
}

func TestLiteralStrings(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"(plain)", "plain"},
		{"(a(nested)b)", "a(nested)b"},
		{`(esc\(\))`, "esc()"},
		{`(\n\t)`, "\n\t"},
		{`(\101\102)`, "AB"},
		{`(\400)`, "\x00"}, // octal overflow wraps in a byte
	}
	for _, tt := range tests {
		toks := scan(t, tt.src)
		if len(toks) != 1 || toks[0].Type != TokenString || string(toks[0].Bytes) != tt.want {
			t.Errorf("scan(%q) = %+v, want string %q", tt.src, toks, tt.want)
		}
	}
}

func TestHexStrings(t *testing.T) {
	toks := scan(t, "<48 65 6C6C 6F>")
	if len(toks) != 1 || string(toks[0].Bytes) != "Hello" {
		t.Fatalf("hex string = %+v", toks)
	}
	toks = scan(t, "<4865 6C6C 6F2>") // odd digit padded with 0
	if string(toks[0].Bytes) != "Hello " {
		t.Fatalf("odd hex string = %q", toks[0].Bytes)
	}
}

func TestNumberVersusReference(t *testing.T) {
	toks := scan(t, "12 0 R 34 -1.5 5 0 RG")
	types := []TokenType{TokenRef, TokenNumber, TokenNumber, TokenNumber, TokenNumber, TokenKeyword}
	if len(toks) != len(types) {
		t.Fatalf("got %d tokens %+v, want %d", len(toks), toks, len(types))
	}
	for i, typ := range types {
		if toks[i].Type != typ {
			t.Fatalf("token %d = %+v, want type %d", i, toks[i], typ)
		}
	}
	if toks[0].Int != 12 || toks[0].Gen != 0 {
		t.Fatalf("reference = %+v, want 12 0 R", toks[0])
	}
	if toks[2].Float != -1.5 || toks[2].IsInt {
		t.Fatalf("real = %+v, want -1.5", toks[2])
	}
}

func TestDictAndArrayDelimiters(t *testing.T) {
	toks := scan(t, "<< /K [1 2] >>")
	types := []TokenType{TokenDictOpen, TokenName, TokenArrayOpen, TokenNumber, TokenNumber, TokenKeyword, TokenKeyword}
	if len(toks) != len(types) {
		t.Fatalf("got %+v", toks)
	}
	for i, typ := range types {
		if toks[i].Type != typ {
			t.Fatalf("token %d = %+v, want type %d", i, toks[i], typ)
		}
	}
}

func TestCommentsAreSkipped(t *testing.T) {
	toks := scan(t, "% header comment\n42")
	if len(toks) != 1 || toks[0].Int != 42 {
		t.Fatalf("got %+v", toks)
	}
}

func TestStreamWithLengthHint(t *testing.T) {
	src := "stream\r\npayload bytes\nendstream 7"
	s := New(bytes.NewReader([]byte(src)), Config{})
	s.SetNextStreamLength(13)
	tok, err := s.Next()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Type != TokenStream || string(tok.Bytes) != "payload bytes" {
		t.Fatalf("stream token = %+v", tok)
	}
	next, err := s.Next()
	if err != nil || next.Type != TokenNumber || next.Int != 7 {
		t.Fatalf("token after stream = %+v, %v", next, err)
	}
}

func TestStreamWithoutLengthHint(t *testing.T) {
	src := "stream\nraw data here\nendstream"
	s := New(bytes.NewReader([]byte(src)), Config{})
	tok, err := s.Next()
	if err != nil {
		t.Fatal(err)
	}
	if string(tok.Bytes) != "raw data here" {
		t.Fatalf("payload = %q", tok.Bytes)
	}
}

func TestSeek(t *testing.T) {
	s := New(bytes.NewReader([]byte("111 222 333")), Config{})
	if err := s.Seek(4); err != nil {
		t.Fatal(err)
	}
	tok, err := s.Next()
	if err != nil || tok.Int != 222 {
		t.Fatalf("token after seek = %+v, %v", tok, err)
	}
}
