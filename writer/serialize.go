package writer

import (
	"bytes"
	"fmt"
	"strconv"

	"pdfsqueeze/object"
)

// serializeObject appends the PDF syntax for one direct object. Dictionary
// keys are emitted in sorted order so that output is deterministic.
func serializeObject(buf *bytes.Buffer, obj object.Object) {
	switch v := obj.(type) {
	case nil, object.Null:
		buf.WriteString("null")
	case object.Boolean:
		buf.WriteString(strconv.FormatBool(bool(v)))
	case object.Integer:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case object.Real:
		buf.WriteString(formatReal(float64(v)))
	case object.String:
		serializeString(buf, []byte(v))
	case object.Name:
		serializeName(buf, string(v))
	case object.Reference:
		fmt.Fprintf(buf, "%d %d R", v.To.Num, v.To.Gen)
	case *object.Array:
		buf.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				buf.WriteByte(' ')
			}
			serializeObject(buf, item)
		}
		buf.WriteByte(']')
	case *object.Dict:
		serializeDict(buf, v)
	case *object.Stream:
		serializeDict(buf, v.Dict)
		buf.WriteString("\nstream\n")
		buf.Write(v.Data)
		buf.WriteString("\nendstream")
	default:
		buf.WriteString("null")
	}
}

func serializeDict(buf *bytes.Buffer, d *object.Dict) {
	buf.WriteString("<<")
	for i, k := range d.Keys() {
		if i > 0 {
			buf.WriteByte(' ')
		}
		serializeName(buf, k)
		buf.WriteByte(' ')
		v, _ := d.Get(k)
		serializeObject(buf, v)
	}
	buf.WriteString(">>")
}

// formatReal trims trailing zeros; PDF readers accept but waste space on
// the full float formatting.
func formatReal(f float64) string {
	s := strconv.FormatFloat(f, 'f', 6, 64)
	s = trimTrailing(s, '0')
	s = trimTrailing(s, '.')
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

func trimTrailing(s string, c byte) string {
	for len(s) > 0 && s[len(s)-1] == c {
		s = s[:len(s)-1]
	}
	return s
}

func serializeString(buf *bytes.Buffer, data []byte) {
	buf.WriteByte('(')
	for _, c := range data {
		switch c {
		case '(', ')', '\\':
			buf.WriteByte('\\')
			buf.WriteByte(c)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if c < 0x20 || c >= 0x7F {
				fmt.Fprintf(buf, `\%03o`, c)
			} else {
				buf.WriteByte(c)
			}
		}
	}
	buf.WriteByte(')')
}

func serializeName(buf *bytes.Buffer, name string) {
	buf.WriteByte('/')
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c <= 0x20 || c >= 0x7F || isNameDelimiter(c) || c == '#' {
			fmt.Fprintf(buf, "#%02X", c)
			continue
		}
		buf.WriteByte(c)
	}
}

func isNameDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}
