package toml

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// EncodeOption configures an Encoder's optional behavior.
type EncodeOption func(*encodeOptions)

type encodeOptions struct {
	noneSubstitute *Value
}

// WithNoneSubstitute supplies the value written in place of a KindInvalid
// "no value" placeholder. Without it, encoding a KindInvalid value is an
// EncodeError (spec.md §6 "Encoder options", SPEC_FULL point 7).
func WithNoneSubstitute(v Value) EncodeOption {
	return func(o *encodeOptions) { o.noneSubstitute = &v }
}

// Encoder walks a Value tree and emits canonical TOML text (spec.md §4.3).
//
// Grounded on qtoml's TOMLEncoder (encoder.py): the section-walk order
// (scalars, then subtables, then table-arrays, each group blank-line
// separated) and the scalar/section classification rule are carried over
// exactly; the Go shape follows the teacher's small-struct-plus-methods
// style.
type Encoder struct {
	opts encodeOptions
	log  *logrus.Logger
}

// NewEncoder returns an Encoder configured by opts.
func NewEncoder(opts ...EncodeOption) *Encoder {
	var o encodeOptions
	for _, fn := range opts {
		fn(&o)
	}
	return &Encoder{opts: o}
}

// SetLogger attaches a structured trace logger; nil disables logging.
func (e *Encoder) SetLogger(l *logrus.Logger) {
	e.log = l
}

func (e *Encoder) trace(msg string, fields logrus.Fields) {
	if e.log == nil {
		return
	}
	e.log.WithFields(fields).Debug(msg)
}

// Encode renders t as canonical TOML text.
func Encode(t *Table, opts ...EncodeOption) (string, error) {
	return NewEncoder(opts...).Encode(t)
}

// EncodeTo renders t as canonical TOML text directly to w.
func EncodeTo(w io.Writer, t *Table, opts ...EncodeOption) error {
	s, err := Encode(t, opts...)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, s)
	return err
}

// Encode renders t using e's options.
func (e *Encoder) Encode(t *Table) (string, error) {
	return e.dumpTableBody(nil, t, false)
}

type valueClass int

const (
	classScalar valueClass = iota
	classSubtable
	classTablearray
)

// classify decides whether v is written as a `key = value` line, a nested
// [table] section, or a nested [[table-array]] section (spec.md §4.3
// "Classification"; SPEC_FULL point 7 for the KindInvalid/None case).
func classify(v Value) valueClass {
	switch v.Kind {
	case KindTable:
		return classSubtable
	case KindArray:
		if len(v.Arr) == 0 {
			return classScalar
		}
		for _, elem := range v.Arr {
			if elem.Kind != KindTable {
				return classScalar
			}
		}
		return classTablearray
	default:
		return classScalar
	}
}

// dumpTableBody renders t's contents and returns them, building its own
// section bottom-up the way qtoml's dump_sections does (encoder.py:186):
// each level's own text decides its own blank-line separators, rather than
// writing through a single shared cursor.
//
// The header line, `[a.b.c]` or `[[a.b.c]]`, is only written when it carries
// information: path is non-empty AND (t has at least one scalar-like field,
// OR asTableArray, OR t is empty). An intermediate table reached only by
// dotted descent (e.g. `a` in `[a.b]` when `a` itself sets no plain key) gets
// no header of its own — qtoml's `any(is_scalar(i) ...) or tarray or len==0`
// (encoder.py:189).
func (e *Encoder) dumpTableBody(path []string, t *Table, asTableArray bool) (string, error) {
	var scalarKeys, subtableKeys, tablearrayKeys []string
	t.Range(func(k string, v Value) bool {
		switch classify(v) {
		case classScalar:
			scalarKeys = append(scalarKeys, k)
		case classSubtable:
			subtableKeys = append(subtableKeys, k)
		case classTablearray:
			tablearrayKeys = append(tablearrayKeys, k)
		}
		return true
	})

	var b strings.Builder
	if len(path) > 0 && (len(scalarKeys) > 0 || asTableArray || t.Len() == 0) {
		if asTableArray {
			fmt.Fprintf(&b, "[[%s]]\n", dumpKeyPath(path))
		} else {
			fmt.Fprintf(&b, "[%s]\n", dumpKeyPath(path))
		}
	}

	for _, k := range scalarKeys {
		v := t.MustGet(k)
		vs, err := e.dumpValue(v)
		if err != nil {
			return "", &EncodeError{Msg: err.Error(), Path: dumpKeyPath(append(append([]string{}, path...), k))}
		}
		fmt.Fprintf(&b, "%s = %s\n", dumpKey(k), vs)
	}

	for _, k := range subtableKeys {
		childPath := append(append([]string{}, path...), k)
		child, err := e.dumpTableBody(childPath, t.MustGet(k).Tbl, false)
		if err != nil {
			return "", err
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(child)
	}

	for _, k := range tablearrayKeys {
		childPath := append(append([]string{}, path...), k)
		for _, elem := range t.MustGet(k).Arr {
			child, err := e.dumpTableBody(childPath, elem.Tbl, true)
			if err != nil {
				return "", err
			}
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(child)
		}
		b.WriteByte('\n')
	}

	e.trace("table body", logrus.Fields{"key": dumpKeyPath(path), "kind": "table"})
	return b.String(), nil
}

// dumpValue emits v in value position: a scalar literal, an inline array, or
// an inline table — never a section header, since sections can only appear
// as direct table fields (spec.md §4.3 "Inline forms").
func (e *Encoder) dumpValue(v Value) (string, error) {
	switch v.Kind {
	case KindString:
		return dumpStringValue(v.Str), nil
	case KindInteger:
		return strconv.FormatInt(v.Int, 10), nil
	case KindFloat:
		return dumpFloat(v.Flt), nil
	case KindBool:
		if v.Bln {
			return "true", nil
		}
		return "false", nil
	case KindDate, KindTime, KindLocalDatetime, KindDatetime:
		return dumpDatetimeValue(v), nil
	case KindArray:
		return e.dumpArrayValue(v.Arr)
	case KindTable:
		return e.dumpInlineTable(v.Tbl)
	default: // KindInvalid: the "None" placeholder
		if e.opts.noneSubstitute != nil {
			return e.dumpValue(*e.opts.noneSubstitute)
		}
		return "", newEncodeError("", "cannot encode a value with no type (no none-substitute configured)")
	}
}

func (e *Encoder) dumpArrayValue(elems []Value) (string, error) {
	parts := make([]string, len(elems))
	for i, el := range elems {
		s, err := e.dumpValue(el)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return "[" + strings.Join(parts, ", ") + "]", nil
}

func (e *Encoder) dumpInlineTable(t *Table) (string, error) {
	if t.Len() == 0 {
		return "{}", nil
	}
	parts := make([]string, 0, t.Len())
	var outerErr error
	t.Range(func(k string, v Value) bool {
		s, err := e.dumpValue(v)
		if err != nil {
			outerErr = &EncodeError{Msg: err.Error(), Path: k}
			return false
		}
		parts = append(parts, dumpKey(k)+" = "+s)
		return true
	})
	if outerErr != nil {
		return "", outerErr
	}
	return "{ " + strings.Join(parts, ", ") + " }", nil
}

// --- keys and scalars (spec.md §4.3 "Key emission", "String emission",
// "Numeric emission", "Datetime emission") ---

func dumpKeyPath(path []string) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = dumpKey(p)
	}
	return strings.Join(parts, ".")
}

func dumpKey(k string) string {
	if isBareKeySafe(k) {
		return k
	}
	return "\"" + escapeBasic(k) + "\""
}

func isBareKeySafe(k string) bool {
	if k == "" {
		return false
	}
	for i := 0; i < len(k); i++ {
		if !isKeyChar(k[i]) {
			return false
		}
	}
	return true
}

// dumpStringValue prefers a literal ('...') string, falling back to a basic
// ("...") string with escapes when the content can't be represented
// literally (it contains a single quote or a control character other than
// tab).
func dumpStringValue(s string) string {
	if canUseLiteral(s) {
		return "'" + s + "'"
	}
	return "\"" + escapeBasic(s) + "\""
}

func canUseLiteral(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\'' {
			return false
		}
		if c < 0x20 && c != '\t' {
			return false
		}
		if c == 0x7F {
			return false
		}
	}
	return true
}

func escapeBasic(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if c < 0x20 || c == 0x7F {
				fmt.Fprintf(&b, `\u%04X`, c)
			} else {
				b.WriteByte(c)
			}
		}
	}
	return b.String()
}

// dumpFloat formats f per TOML's float grammar: "inf"/"-inf"/"nan" for the
// specials, otherwise a decimal point or exponent is always present, and any
// exponent is normalized to a signed, non-zero-padded form (SPEC_FULL's
// "leading-zero exponent fix").
func dumpFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		mantissa, exp := s[:i], s[i+1:]
		sign := "+"
		if len(exp) > 0 && (exp[0] == '+' || exp[0] == '-') {
			sign = string(exp[0])
			exp = exp[1:]
		}
		exp = strings.TrimLeft(exp, "0")
		if exp == "" {
			exp = "0"
		}
		if !strings.Contains(mantissa, ".") {
			mantissa += ".0"
		}
		return mantissa + "e" + sign + exp
	}
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// dumpDatetimeValue formats a Value of kind Date/Time/LocalDatetime/Datetime
// per spec.md §4.3 "Datetime emission" (SPEC_FULL point 5 for the fraction).
func dumpDatetimeValue(v Value) string {
	dt := v.Time
	date := ""
	if dt.HasDate {
		date = dt.T.Format("2006-01-02")
	}
	clock := ""
	if dt.HasTime {
		clock = dt.T.Format("15:04:05") + formatFraction(dt.T.Nanosecond())
	}
	switch v.Kind {
	case KindDate:
		return date
	case KindTime:
		return clock
	case KindLocalDatetime:
		return date + "T" + clock
	case KindDatetime:
		return date + "T" + clock + formatOffset(dt)
	}
	return ""
}

func formatFraction(nsec int) string {
	if nsec == 0 {
		return ""
	}
	usec := nsec / 1000
	s := fmt.Sprintf("%06d", usec)
	s = strings.TrimRight(s, "0")
	for len(s) < 3 {
		s += "0"
	}
	return "." + s
}

func formatOffset(dt DateTimeValue) string {
	_, offset := dt.T.Zone()
	if offset == 0 {
		return "Z"
	}
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	hh := offset / 3600
	mm := (offset % 3600) / 60
	return fmt.Sprintf("%s%02d:%02d", sign, hh, mm)
}
