package jsontext

import (
	"strconv"
	"unicode/utf16"
	"unicode/utf8"
	"unsafe"

	"github.com/rawbytedev/tokdoc/blob"
	"github.com/rawbytedev/tokdoc/de"
)

type state uint8

const (
	expValue state = iota
	expElemOrEnd
	expCommaOrEnd
	expKeyOrEnd
	expKey
	expEOF
)

// Tokenizer pulls decode tokens out of a JSON document. The input
// buffer must stay alive and unshared for the tokenizer's lifetime:
// marked binary runs are decoded in place inside it, and with
// UnsafeStrings enabled string tokens alias it too.
type Tokenizer struct {
	buf   []byte
	i     int
	state state
	stack []byte // open containers, '[' or '{'
	opt   Options
}

func NewTokenizer(data []byte, opt Options) *Tokenizer {
	return &Tokenizer{buf: data, opt: opt}
}

func (t *Tokenizer) fail(msg string) (de.Token, error) {
	return de.Token{}, de.Fail(t.opt.Diagnostics, t.i, msg)
}

func (t *Tokenizer) ws() {
	for t.i < len(t.buf) {
		switch t.buf[t.i] {
		case ' ', '\t', '\n', '\r':
			t.i++
		default:
			return
		}
	}
}

func (t *Tokenizer) afterValue() {
	if len(t.stack) == 0 {
		t.state = expEOF
	} else {
		t.state = expCommaOrEnd
	}
}

func (t *Tokenizer) pop(closer byte) (de.Token, error) {
	n := len(t.stack) - 1
	if n < 0 || t.stack[n] != closer {
		return t.fail("unexpected closing bracket")
	}
	t.stack = t.stack[:n]
	t.i++
	t.afterValue()
	return de.Token{Kind: de.TokenEnd}, nil
}

// Next implements de.Tokenizer.
func (t *Tokenizer) Next() (de.Token, error) {
	for {
		t.ws()
		if t.i >= len(t.buf) {
			return t.fail("unexpected end of input")
		}
		c := t.buf[t.i]

		switch t.state {
		case expEOF:
			return t.fail("token past end of document")

		case expCommaOrEnd:
			switch c {
			case ',':
				t.i++
				if t.stack[len(t.stack)-1] == '{' {
					t.state = expKey
				} else {
					t.state = expValue
				}
				continue
			case ']':
				return t.pop('[')
			case '}':
				return t.pop('{')
			}
			return t.fail("expected ',' or closing bracket")

		case expKeyOrEnd:
			if c == '}' {
				return t.pop('{')
			}
			fallthrough
		case expKey:
			if c != '"' {
				return t.fail("expected object key")
			}
			k, _, _, err := t.scanString(false)
			if err != nil {
				return de.Token{}, err
			}
			t.ws()
			if t.i >= len(t.buf) || t.buf[t.i] != ':' {
				return t.fail("expected ':' after object key")
			}
			t.i++
			t.state = expValue
			return de.Token{Kind: de.TokenKey, Str: k}, nil

		case expElemOrEnd:
			if c == ']' {
				return t.pop('[')
			}
			fallthrough
		default: // expValue
			return t.value(c)
		}
	}
}

func (t *Tokenizer) value(c byte) (de.Token, error) {
	switch c {
	case '{':
		t.i++
		t.stack = append(t.stack, '{')
		t.state = expKeyOrEnd
		return de.Token{Kind: de.TokenBeginMap}, nil
	case '[':
		t.i++
		t.stack = append(t.stack, '[')
		t.state = expElemOrEnd
		return de.Token{Kind: de.TokenBeginSeq}, nil
	case '"':
		s, b, align, err := t.scanString(true)
		if err != nil {
			return de.Token{}, err
		}
		t.afterValue()
		if align != 0 {
			return de.Token{Kind: de.TokenBytes, Bytes: b, Align: align}, nil
		}
		return de.Token{Kind: de.TokenString, Str: s}, nil
	case 't':
		if err := t.literal("true"); err != nil {
			return de.Token{}, err
		}
		return de.Token{Kind: de.TokenBool, Bool: true}, nil
	case 'f':
		if err := t.literal("false"); err != nil {
			return de.Token{}, err
		}
		return de.Token{Kind: de.TokenBool}, nil
	case 'n':
		if err := t.literal("null"); err != nil {
			return de.Token{}, err
		}
		return de.Token{Kind: de.TokenNull}, nil
	}
	if c == '-' || (c >= '0' && c <= '9') {
		return t.number()
	}
	return t.fail("invalid value")
}

func (t *Tokenizer) literal(lit string) error {
	if len(t.buf)-t.i < len(lit) || string(t.buf[t.i:t.i+len(lit)]) != lit {
		return de.Fail(t.opt.Diagnostics, t.i, "invalid literal")
	}
	t.i += len(lit)
	t.afterValue()
	return nil
}

// digits consumes a digit run at the cursor and reports whether it saw
// at least one.
func (t *Tokenizer) digits() bool {
	start := t.i
	for t.i < len(t.buf) && t.buf[t.i] >= '0' && t.buf[t.i] <= '9' {
		t.i++
	}
	return t.i > start
}

// number scans the literal at the cursor against the standard grammar
// (no leading zeros, no bare sign) and classifies it: any fraction or
// exponent makes it a float, a leading '-' makes it signed, everything
// else rides the unsigned channel.
func (t *Tokenizer) number() (de.Token, error) {
	start := t.i
	isFloat := false
	if t.buf[t.i] == '-' {
		t.i++
	}
	switch {
	case t.i < len(t.buf) && t.buf[t.i] == '0':
		t.i++
	case t.digits():
	default:
		return de.Token{}, de.Fail(t.opt.Diagnostics, start, "invalid number")
	}
	if t.i < len(t.buf) && t.buf[t.i] == '.' {
		isFloat = true
		t.i++
		if !t.digits() {
			return de.Token{}, de.Fail(t.opt.Diagnostics, start, "invalid number")
		}
	}
	if t.i < len(t.buf) && (t.buf[t.i] == 'e' || t.buf[t.i] == 'E') {
		isFloat = true
		t.i++
		if t.i < len(t.buf) && (t.buf[t.i] == '+' || t.buf[t.i] == '-') {
			t.i++
		}
		if !t.digits() {
			return de.Token{}, de.Fail(t.opt.Diagnostics, start, "invalid number")
		}
	}
	lit := string(t.buf[start:t.i])
	t.afterValue()
	if isFloat {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return de.Token{}, de.Fail(t.opt.Diagnostics, start, "invalid number")
		}
		return de.Token{Kind: de.TokenFloat64, Float: f}, nil
	}
	if lit[0] == '-' {
		n, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			return de.Token{}, de.Fail(t.opt.Diagnostics, start, "invalid number")
		}
		return de.Token{Kind: de.TokenInt, Int: n}, nil
	}
	n, err := strconv.ParseUint(lit, 10, 64)
	if err != nil {
		return de.Token{}, de.Fail(t.opt.Diagnostics, start, "invalid number")
	}
	return de.Token{Kind: de.TokenUint, Uint: n}, nil
}

// scanString consumes the string literal at the cursor (opening quote
// included). With marked set, a literal sentinel as the first byte of
// an escape-free string marks an embedded binary run, decoded in
// place; then b and align are set and s is empty. Object keys scan
// with marked off, so a key is always plain text and the input buffer
// is never rewritten under it. Otherwise align is 0 and s holds the
// text, aliasing the input buffer when UnsafeStrings is on and no
// escape needed rewriting.
func (t *Tokenizer) scanString(marked bool) (s string, b []byte, align int, err error) {
	t.i++ // opening quote
	start := t.i
	hasEscape := false
	for {
		if t.i >= len(t.buf) {
			return "", nil, 0, de.Fail(t.opt.Diagnostics, t.i, "unterminated string")
		}
		c := t.buf[t.i]
		if c == '"' {
			break
		}
		if c < 0x20 {
			return "", nil, 0, de.Fail(t.opt.Diagnostics, t.i, "raw control character in string")
		}
		if c == '\\' {
			hasEscape = true
			t.i += 2
			continue
		}
		t.i++
	}
	end := t.i
	t.i++ // closing quote

	if marked && !hasEscape && end > start && t.buf[start] == blob.Sentinel {
		p, a, ok := blob.DecodeMarked(t.buf, start, end)
		if !ok {
			return "", nil, 0, de.Fail(t.opt.Diagnostics, start, "malformed binary run")
		}
		return "", p, a, nil
	}
	if !hasEscape {
		if t.opt.UnsafeStrings {
			return unsafeString(t.buf[start:end]), nil, 0, nil
		}
		return string(t.buf[start:end]), nil, 0, nil
	}
	out, err := unescape(t.buf[start:end], t.opt.Diagnostics, start)
	if err != nil {
		return "", nil, 0, err
	}
	return unsafeString(out), nil, 0, nil
}

func unsafeString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}

func unescape(raw []byte, diag bool, pos int) ([]byte, error) {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); {
		c := raw[i]
		if c != '\\' {
			out = append(out, c)
			i++
			continue
		}
		i++
		if i >= len(raw) {
			return nil, de.Fail(diag, pos+i, "truncated escape")
		}
		switch raw[i] {
		case '"':
			out = append(out, '"')
		case '\\':
			out = append(out, '\\')
		case '/':
			out = append(out, '/')
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'u':
			r, n, ok := hexRune(raw[i+1:])
			if !ok {
				return nil, de.Fail(diag, pos+i, "invalid \\u escape")
			}
			i += n
			out = utf8.AppendRune(out, r)
		default:
			return nil, de.Fail(diag, pos+i, "invalid escape")
		}
		i++
	}
	return out, nil
}

// hexRune decodes the 4 hex digits after \u, pairing surrogates when a
// second \uXXXX follows. n is the count of bytes consumed past 'u'.
func hexRune(raw []byte) (r rune, n int, ok bool) {
	u1, ok := hex4(raw)
	if !ok {
		return 0, 0, false
	}
	r = rune(u1)
	n = 4
	if utf16.IsSurrogate(r) {
		if len(raw) < 10 || raw[4] != '\\' || raw[5] != 'u' {
			return utf8.RuneError, 4, true
		}
		u2, ok2 := hex4(raw[6:])
		if !ok2 {
			return 0, 0, false
		}
		if d := utf16.DecodeRune(r, rune(u2)); d != utf8.RuneError {
			return d, 10, true
		}
		return utf8.RuneError, 4, true
	}
	return r, 4, true
}

func hex4(raw []byte) (uint16, bool) {
	if len(raw) < 4 {
		return 0, false
	}
	var v uint16
	for k := 0; k < 4; k++ {
		c := raw[k]
		switch {
		case c >= '0' && c <= '9':
			v = v<<4 | uint16(c-'0')
		case c >= 'a' && c <= 'f':
			v = v<<4 | uint16(c-'a'+10)
		case c >= 'A' && c <= 'F':
			v = v<<4 | uint16(c-'A'+10)
		default:
			return 0, false
		}
	}
	return v, true
}

// Trailing reports an error when non-whitespace input remains after
// the root value.
func (t *Tokenizer) Trailing() error {
	t.ws()
	if t.i < len(t.buf) {
		return de.Fail(t.opt.Diagnostics, t.i, "trailing data after document")
	}
	return nil
}
