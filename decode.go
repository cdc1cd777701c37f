package toml

import (
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const maxNestingDepth = 512

// Decoder drives a Scanner to build a value tree, enforcing the semantic
// TOML rules spec.md §4.2 describes: key uniqueness, table redefinition,
// homogeneous arrays, datetime/number syntax, and escape semantics.
//
// Grounded on qtoml's ParseState-driven recursive descent (decoder.py) for
// the algorithm, and on sqlparser's Scanner-driven parser (parser.go) for
// the Go shape: no separate token stream, the scanner is consulted directly.
type Decoder struct {
	s     *Scanner
	log   *logrus.Logger
	depth int
}

// NewDecoder returns a Decoder ready to parse src.
func NewDecoder(src string) *Decoder {
	return &Decoder{s: NewScanner(src)}
}

// SetLogger attaches a structured trace logger. Nil (the default) disables
// all logging; the decoder never logs at a level above Debug.
func (d *Decoder) SetLogger(l *logrus.Logger) {
	d.log = l
}

func (d *Decoder) trace(msg string, fields logrus.Fields) {
	if d.log == nil {
		return
	}
	d.log.WithFields(fields).Debug(msg)
}

// Decode parses src as TOML and returns the root Table.
func Decode(src string) (*Table, error) {
	return NewDecoder(src).Decode()
}

// DecodeReader reads r fully, then decodes it as TOML.
func DecodeReader(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(string(data))
}

// Decode runs the decoder's top-level loop (spec.md §4.2 "Top-level loop").
func (d *Decoder) Decode() (*Table, error) {
	root := NewTable()
	cur := root
	first := true

	for !d.s.AtEnd() {
		n := d.skipThrowaway()
		if d.s.AtEnd() {
			break
		}
		if !first && n == 0 {
			return nil, newDecodeError(d.s.Pos(), "Didn't find expected newline")
		}
		first = false

		if d.s.AtLiteral("[") {
			kl, tarray, err := d.parseTableHeader()
			if err != nil {
				return nil, err
			}
			target, err := d.procKL(root, kl, tarray, true)
			if err != nil {
				return nil, err
			}
			if !tarray && target.origin == originExplicit {
				return nil, newDecodeError(d.s.Pos(), "duplicated table %q", strings.Join(kl, "."))
			}
			target.origin = originExplicit
			cur = target
			d.trace("table header", logrus.Fields{"key": strings.Join(kl, "."), "tarray": tarray})
		} else {
			kl, v, err := d.parsePair()
			if err != nil {
				return nil, err
			}
			if v.Kind == KindArray {
				v.arrOrigin = originInlineArray
			}
			target, err := d.procKL(cur, kl[:len(kl)-1], false, false)
			if err != nil {
				return nil, err
			}
			k := kl[len(kl)-1]
			if target.Has(k) {
				return nil, newDecodeError(d.s.Pos(), "key %q is repeated", k)
			}
			target.Set(k, v)
			d.trace("key value", logrus.Fields{"key": k, "kind": v.Kind.String()})
		}
	}
	return root, nil
}

// skipThrowaway consumes whitespace (including newlines) and #-comments,
// returning the number of newlines consumed (spec.md GLOSSARY "Throwaway").
func (d *Decoder) skipThrowaway() int {
	newlines := 0
	for {
		ws := d.s.AdvanceWhile(isThrowawayByte)
		newlines += strings.Count(ws, "\n")
		if d.s.AtLiteral("#") {
			c := d.s.AdvanceUntil("\n")
			newlines += strings.Count(c, "\n")
			continue
		}
		break
	}
	return newlines
}

func isThrowawayByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

func isSpaceTab(b byte) bool {
	return b == ' ' || b == '\t'
}

const keyChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

func isKeyChar(b byte) bool {
	return strings.IndexByte(keyChars, b) >= 0
}

// parseKey parses one bare-key or quoted-key segment (spec.md §4.2 "Key
// parsing"). Multi-line strings are rejected as keys.
func (d *Decoder) parseKey() (string, error) {
	if d.s.AtLiteral(`"`) || d.s.AtLiteral(`'`) {
		return d.parseDispatchString(false)
	}
	peek := d.s.Peek(1)
	if len(peek) == 0 || !isKeyChar(peek[0]) {
		return "", newDecodeError(d.s.Pos(), "%q cannot begin a key", peek)
	}
	return d.s.AdvanceWhile(isKeyChar), nil
}

// parseKeyList parses a dotted key: one or more key segments separated by
// '.' with optional surrounding horizontal whitespace.
func (d *Decoder) parseKeyList() ([]string, error) {
	var kl []string
	for {
		k, err := d.parseKey()
		if err != nil {
			return nil, err
		}
		kl = append(kl, k)
		d.s.AdvanceWhile(isSpaceTab)
		if d.s.AtLiteral(".") {
			d.s.Advance(1)
			d.s.AdvanceWhile(isSpaceTab)
			continue
		}
		break
	}
	return kl, nil
}

// parsePair parses a `key = value` statement.
func (d *Decoder) parsePair() ([]string, Value, error) {
	kl, err := d.parseKeyList()
	if err != nil {
		return nil, Value{}, err
	}
	d.s.AdvanceWhile(isSpaceTab)
	if !d.s.AtLiteral("=") {
		return nil, Value{}, newDecodeError(d.s.Pos(), "no '=' following key %q", strings.Join(kl, "."))
	}
	d.s.Advance(1)
	d.s.AdvanceWhile(isSpaceTab)
	v, err := d.parseValue()
	if err != nil {
		return nil, Value{}, err
	}
	return kl, v, nil
}

// parseTableHeader parses `[path]` or `[[path]]`, already positioned at '['.
func (d *Decoder) parseTableHeader() ([]string, bool, error) {
	d.s.Advance(1) // '['
	tarray := false
	if d.s.AtLiteral("[") {
		d.s.Advance(1)
		tarray = true
	}
	d.s.AdvanceWhile(isSpaceTab)
	kl, err := d.parseKeyList()
	if err != nil {
		return nil, false, err
	}
	if !d.s.AtLiteral("]") {
		return nil, false, newDecodeError(d.s.Pos(), "bad character %q in table header", d.s.Peek(1))
	}
	d.s.Advance(1)
	if tarray {
		if !d.s.AtLiteral("]") {
			return nil, false, newDecodeError(d.s.Pos(), "didn't close table-array header properly")
		}
		d.s.Advance(1)
	}
	return kl, tarray, nil
}

// --- dotted-key insertion (spec.md §4.2 "Dotted-key insertion (proc_kl)") ---

// procKL walks kl[:len(kl)-1] as pure table descent (creating empty tables
// as needed), then handles the terminal segment per tarray: false requests
// a table (creating or reusing one), true appends a new table to a
// table-array (creating the array if needed). checkInlineArrays enables the
// "appended to statically defined array" check, which per spec.md §9's Open
// Question only applies when called from table-header processing.
func (d *Decoder) procKL(root *Table, kl []string, tarray bool, checkInlineArrays bool) (*Table, error) {
	cur := root
	if len(kl) == 0 {
		return cur, nil
	}
	for _, seg := range kl[:len(kl)-1] {
		next, err := d.descend(cur, seg, checkInlineArrays)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	fk := kl[len(kl)-1]
	if tarray {
		return d.appendTableArray(cur, fk, checkInlineArrays)
	}
	return d.getOrCreateTable(cur, fk, checkInlineArrays)
}

func (d *Decoder) descend(cur *Table, seg string, checkInlineArrays bool) (*Table, error) {
	existing, ok := cur.Get(seg)
	if !ok {
		nt := NewTable()
		cur.Set(seg, TableValue(nt))
		return nt, nil
	}
	switch existing.Kind {
	case KindTable:
		if existing.Tbl.origin == originInlineSealed {
			return nil, newDecodeError(d.s.Pos(), "cannot extend sealed inline table %q", seg)
		}
		return existing.Tbl, nil
	case KindArray:
		if checkInlineArrays && existing.arrOrigin == originInlineArray {
			return nil, newDecodeError(d.s.Pos(), "appended to statically defined array %q", seg)
		}
		if len(existing.Arr) == 0 || existing.Arr[len(existing.Arr)-1].Kind != KindTable {
			return nil, newDecodeError(d.s.Pos(), "repeated key %q", seg)
		}
		last := existing.Arr[len(existing.Arr)-1].Tbl
		if last.origin == originInlineSealed {
			return nil, newDecodeError(d.s.Pos(), "cannot extend sealed inline table %q", seg)
		}
		return last, nil
	default:
		return nil, newDecodeError(d.s.Pos(), "repeated key %q", seg)
	}
}

func (d *Decoder) getOrCreateTable(cur *Table, fk string, checkInlineArrays bool) (*Table, error) {
	existing, ok := cur.Get(fk)
	if !ok {
		nt := NewTable()
		cur.Set(fk, TableValue(nt))
		return nt, nil
	}
	if existing.Kind != KindTable {
		return nil, newDecodeError(d.s.Pos(), "repeated key %q", fk)
	}
	if existing.Tbl.origin == originInlineSealed {
		return nil, newDecodeError(d.s.Pos(), "cannot extend sealed inline table %q", fk)
	}
	return existing.Tbl, nil
}

func (d *Decoder) appendTableArray(cur *Table, fk string, checkInlineArrays bool) (*Table, error) {
	nt := NewTable()
	existing, ok := cur.Get(fk)
	if !ok {
		cur.Set(fk, Value{Kind: KindArray, Arr: []Value{TableValue(nt)}})
		return nt, nil
	}
	if existing.Kind != KindArray {
		return nil, newDecodeError(d.s.Pos(), "repeated key %q", fk)
	}
	if checkInlineArrays && existing.arrOrigin == originInlineArray {
		return nil, newDecodeError(d.s.Pos(), "appended to statically defined array %q", fk)
	}
	arr := append(existing.Arr, TableValue(nt))
	cur.Set(fk, Value{Kind: KindArray, Arr: arr, arrOrigin: existing.arrOrigin})
	return nt, nil
}

// --- value dispatch (spec.md §4.2 "Value parsing") ---

func (d *Decoder) parseValue() (Value, error) {
	d.depth++
	defer func() { d.depth-- }()
	if d.depth > maxNestingDepth {
		return Value{}, newDecodeError(d.s.Pos(), "maximum nesting depth exceeded")
	}

	switch {
	case d.s.AtLiteral(`"`) || d.s.AtLiteral(`'`):
		sv, err := d.parseDispatchString(true)
		if err != nil {
			return Value{}, err
		}
		return String(sv), nil
	case d.s.AtLiteral("["):
		return d.parseArray()
	case d.s.AtLiteral("{"):
		return d.parseInlineTable()
	case d.s.AtLiteral("true"):
		d.s.Advance(4)
		return Bool(true), nil
	case d.s.AtLiteral("false"):
		d.s.Advance(5)
		return Bool(false), nil
	}

	if m, ok := d.s.PeekPattern(hexIntRe); ok && d.terminatesAt(len(m)) {
		return d.finishInt(m)
	}
	if m, ok := d.s.PeekPattern(numberRe); ok && d.terminatesAt(len(m)) {
		if strings.ContainsAny(m, ".eE") || strings.Contains(m, "inf") || strings.Contains(m, "nan") {
			return d.finishFloat(m)
		}
		return d.finishInt(m)
	}
	if d.s.AtPattern(dateRe) || d.s.AtPattern(timeRe) {
		return d.parseDatetime()
	}
	return Value{}, newDecodeError(d.s.Pos(), "can't parse value starting with %q", d.s.Peek(10))
}

// terminatesAt reports whether the byte right after a matchLen-byte token is
// a valid end-of-token per spec.md §4.2: whitespace, ',', ']', '}', or EOF.
func (d *Decoder) terminatesAt(matchLen int) bool {
	after := d.s.Peek(matchLen + 1)
	if len(after) <= matchLen {
		return true
	}
	switch after[matchLen] {
	case ' ', '\t', '\r', '\n', ',', ']', '}':
		return true
	}
	return false
}

var (
	hexIntRe = regexp.MustCompile(`^0[xob][0-9a-fA-F_]+`)
	// numberRe is qtoml's float_re with its trailing (?=...) lookahead
	// dropped (RE2 has no lookahead support); terminatesAt replaces it.
	// Without the lookahead, Go's leftmost-first matching takes the first
	// alternative that fits, so each digit group lists its multi-digit form
	// before the single-digit one.
	numberRe = regexp.MustCompile(`^[+-]?(inf|nan|(([1-9][0-9_]*[0-9]|[0-9])(\.([0-9][0-9_]*[0-9]|[0-9]))?([eE][+-]?([0-9][0-9_]*[0-9]|[0-9]))?))`)

	dateRe     = regexp.MustCompile(`^(?P<year>[0-9]{4})-(?P<month>[0-9]{2})-(?P<day>[0-9]{2})`)
	timeRe     = regexp.MustCompile(`^(?P<hr>[0-9]{2}):(?P<min>[0-9]{2}):(?P<sec>[0-9]{2})(\.(?P<msec>[0-9]{3,}))?`)
	datetimeRe = regexp.MustCompile(`^(?P<year>[0-9]{4})-(?P<month>[0-9]{2})-(?P<day>[0-9]{2})[T ](?P<hr>[0-9]{2}):(?P<min>[0-9]{2}):(?P<sec>[0-9]{2})(\.(?P<msec>[0-9]{3,}))?(?P<tz>Z|[+-][0-9]{2}:[0-9]{2})?`)
)

func (d *Decoder) finishInt(m string) (Value, error) {
	pos := d.s.Pos()
	d.s.Advance(len(m))
	if strings.Contains(m, "__") || strings.HasSuffix(m, "_") {
		return Value{}, newDecodeError(pos, "invalid underscores in int %q", m)
	}
	if len(m) > 2 && m[0] == '0' && (m[1] == 'x' || m[1] == 'o' || m[1] == 'b') && m[2] == '_' {
		return Value{}, newDecodeError(pos, "underscore cannot follow base prefix in int %q", m)
	}
	clean := strings.ReplaceAll(m, "_", "")
	base := 10
	digits := clean
	switch {
	case strings.HasPrefix(clean, "0x"):
		base, digits = 16, clean[2:]
	case strings.HasPrefix(clean, "0o"):
		base, digits = 8, clean[2:]
	case strings.HasPrefix(clean, "0b"):
		base, digits = 2, clean[2:]
	}
	if digits == "" {
		return Value{}, newDecodeError(pos, "invalid base %d integer %q", base, m)
	}
	iv, err := strconv.ParseInt(digits, base, 64)
	if err != nil {
		return Value{}, newDecodeError(pos, "invalid base %d integer %q", base, m)
	}
	return Int(iv), nil
}

func (d *Decoder) finishFloat(m string) (Value, error) {
	pos := d.s.Pos()
	d.s.Advance(len(m))
	if strings.Contains(m, "__") {
		return Value{}, newDecodeError(pos, "double underscore in number %q", m)
	}
	clean := strings.ReplaceAll(m, "_", "")
	fv, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return Value{}, newDecodeError(pos, "invalid float literal %q", m)
	}
	return Float(fv), nil
}

// --- datetimes (spec.md §4.2 "Datetimes") ---

func (d *Decoder) parseDatetime() (Value, error) {
	pos := d.s.Pos()
	if m, ok := d.s.PeekPattern(datetimeRe); ok {
		g := namedGroups(datetimeRe, m)
		d.s.Advance(len(m))
		t, err := buildTime(pos, g, true, true)
		if err != nil {
			return Value{}, err
		}
		if g["tz"] != "" {
			return Value{Kind: KindDatetime, Time: t}, nil
		}
		return Value{Kind: KindLocalDatetime, Time: t}, nil
	}
	if m, ok := d.s.PeekPattern(timeRe); ok {
		g := namedGroups(timeRe, m)
		d.s.Advance(len(m))
		t, err := buildTime(pos, g, false, true)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindTime, Time: t}, nil
	}
	if m, ok := d.s.PeekPattern(dateRe); ok {
		g := namedGroups(dateRe, m)
		d.s.Advance(len(m))
		t, err := buildTime(pos, g, true, false)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindDate, Time: t}, nil
	}
	return Value{}, newDecodeError(pos, "failed to parse datetime")
}

func namedGroups(re *regexp.Regexp, m string) map[string]string {
	sub := re.FindStringSubmatch(m)
	names := re.SubexpNames()
	g := make(map[string]string, len(names))
	for i, name := range names {
		if name == "" || i >= len(sub) {
			continue
		}
		g[name] = sub[i]
	}
	return g
}

// daysInMonth reports how many days month has in year, so buildTime can
// reject calendar dates like 2020-02-30 instead of letting time.Date
// silently normalize them into a different day.
func daysInMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if isLeapYear(year) {
			return 29
		}
		return 28
	default:
		return 31
	}
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func atoiOr0(s string) int {
	if s == "" {
		return 0
	}
	v, _ := strconv.Atoi(s)
	return v
}

func buildTime(pos Pos, g map[string]string, hasDate, hasTime bool) (DateTimeValue, error) {
	year, month, day := atoiOr0(g["year"]), atoiOr0(g["month"]), atoiOr0(g["day"])
	hour, min, sec := atoiOr0(g["hr"]), atoiOr0(g["min"]), atoiOr0(g["sec"])

	if hasDate {
		if month < 1 || month > 12 {
			return DateTimeValue{}, newDecodeError(pos, "date %04d-%02d-%02d out of range", year, month, day)
		}
		if day < 1 || day > daysInMonth(year, month) {
			return DateTimeValue{}, newDecodeError(pos, "date %04d-%02d-%02d out of range", year, month, day)
		}
	}
	if hasTime && (hour > 23 || min > 59 || sec > 59) {
		return DateTimeValue{}, newDecodeError(pos, "time %02d:%02d:%02d out of range", hour, min, sec)
	}

	msecStr := g["msec"]
	if len(msecStr) > 6 {
		msecStr = msecStr[:6]
	}
	usec := 0
	if msecStr != "" {
		usec = atoiOr0(msecStr)
		for i := len(msecStr); i < 6; i++ {
			usec *= 10
		}
	}
	nsec := usec * 1000

	loc := time.UTC
	hasOffset := false
	if tz, ok := g["tz"]; ok && tz != "" {
		hasOffset = true
		if tz == "Z" {
			loc = time.UTC
		} else {
			sign := 1
			if tz[0] == '-' {
				sign = -1
			}
			hh := atoiOr0(tz[1:3])
			mm := atoiOr0(tz[4:6])
			offset := sign * (hh*3600 + mm*60)
			loc = time.FixedZone(tz, offset)
		}
	} else if !hasTime {
		loc = time.UTC
	} else {
		loc = time.Local
	}

	if !hasDate {
		year, month, day = 0, 1, 1
	}
	if !hasTime {
		hour, min, sec, nsec = 0, 0, 0, 0
	}
	t := time.Date(year, time.Month(month), day, hour, min, sec, nsec, loc)
	return DateTimeValue{T: t, HasDate: hasDate, HasTime: hasTime, HasOffset: hasOffset}, nil
}

// --- strings (spec.md §4.2 "Strings") ---

func (d *Decoder) parseDispatchString(multilineAllowed bool) (string, error) {
	switch {
	case d.s.AtLiteral(`"""`):
		if !multilineAllowed {
			return "", newDecodeError(d.s.Pos(), "multiline string not allowed here")
		}
		return d.parseString(`"""`, true, true, true)
	case d.s.AtLiteral(`"`):
		return d.parseString(`"`, true, false, false)
	case d.s.AtLiteral(`'''`):
		if !multilineAllowed {
			return "", newDecodeError(d.s.Pos(), "multiline string not allowed here")
		}
		return d.parseString(`'''`, false, true, false)
	case d.s.AtLiteral(`'`):
		return d.parseString(`'`, false, false, false)
	}
	return "", newDecodeError(d.s.Pos(), "expected a string")
}

// parseString implements spec.md §4.2's string grammar: scan to the closing
// delimiter, then retroactively decide — via backslash parity — whether the
// candidate close is itself escaped (the "Delimiter subtlety").
func (d *Decoder) parseString(delim string, allowEscapes, allowNewlines, whitespaceEscape bool) (string, error) {
	if !d.s.AtLiteral(delim) {
		return "", newDecodeError(d.s.Pos(), "string doesn't begin with delimiter %q", delim)
	}
	d.s.Advance(len(delim))

	var sv strings.Builder
	for {
		chunk := d.s.AdvanceUntil(delim)
		sv.WriteString(chunk)
		cur := sv.String()
		if d.s.AtEnd() && !strings.HasSuffix(cur, delim) {
			return "", newDecodeError(d.s.Pos(), "end of file inside string")
		}
		if !allowEscapes {
			break
		}
		body := cur
		if strings.HasSuffix(body, delim) {
			body = body[:len(body)-len(delim)]
		}
		nbs := 0
		for i := len(body) - 1; i >= 0 && body[i] == '\\'; i-- {
			nbs++
		}
		if nbs%2 == 0 {
			break // even backslash count: the delimiter is not escaped
		}
		// odd count: the candidate delimiter is escaped; back off and keep
		// scanning (catches "\"""" ending a triple-quoted string).
		nRemove := len(delim) - 1
		if nRemove > 0 {
			d.s.Backtrack(nRemove)
			cur = cur[:len(cur)-nRemove]
			sv.Reset()
			sv.WriteString(cur)
		}
		if d.s.AtEnd() {
			return "", newDecodeError(d.s.Pos(), "end of file after escaped delimiter")
		}
	}

	raw := sv.String()
	raw = raw[:len(raw)-len(delim)]

	if strings.Contains(raw, "\n") && !allowNewlines {
		return "", newDecodeError(d.s.Pos(), "newline in single-line string")
	}
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if (c < 0x09 || (c >= 0x0B && c < 0x20) || c == 0x7F) {
			return "", newDecodeError(d.s.Pos(), "unescaped control character in string")
		}
	}
	if allowNewlines && strings.HasPrefix(raw, "\n") {
		raw = raw[1:]
	}
	if !allowEscapes {
		return raw, nil
	}
	return d.processEscapes(raw, whitespaceEscape)
}

// processEscapes performs escape substitution in one left-to-right pass: a
// substitution's output is never re-scanned for further escapes (spec.md
// SPEC_FULL.md point 2).
func (d *Decoder) processEscapes(raw string, whitespaceEscape bool) (string, error) {
	var out strings.Builder
	pos := 0
	for {
		idx := strings.IndexByte(raw[pos:], '\\')
		if idx == -1 {
			out.WriteString(raw[pos:])
			break
		}
		bsIdx := pos + idx
		out.WriteString(raw[pos:bsIdx])
		if bsIdx+1 >= len(raw) {
			return "", newDecodeError(d.s.Pos(), "escape sequence not terminated")
		}
		ev := raw[bsIdx+1]
		var subst string
		escapeEnd := bsIdx + 2
		switch ev {
		case 'b':
			subst = "\b"
		case 't':
			subst = "\t"
		case 'n':
			subst = "\n"
		case 'f':
			subst = "\f"
		case 'r':
			subst = "\r"
		case '"':
			subst = "\""
		case '\\':
			subst = "\\"
		case 'u', 'U':
			n := 4
			if ev == 'U' {
				n = 8
			}
			if bsIdx+2+n > len(raw) {
				return "", newDecodeError(d.s.Pos(), "hexval cutoff in \\%c escape", ev)
			}
			hex := raw[bsIdx+2 : bsIdx+2+n]
			iv, err := strconv.ParseUint(hex, 16, 32)
			if err != nil {
				return "", newDecodeError(d.s.Pos(), "bad hex escape '\\%c%s'", ev, hex)
			}
			if iv >= 0xD800 && iv <= 0xDFFF {
				return "", newDecodeError(d.s.Pos(), "non-scalar unicode escape '\\%c%s'", ev, hex)
			}
			subst = string(rune(iv))
			escapeEnd = bsIdx + 2 + n
		default:
			if whitespaceEscape && (ev == ' ' || ev == '\t' || ev == '\n') {
				k := bsIdx + 1
				for k < len(raw) && (raw[k] == ' ' || raw[k] == '\t') {
					k++
				}
				if k < len(raw) && raw[k] == '\n' {
					k++
					for k < len(raw) && (raw[k] == ' ' || raw[k] == '\t' || raw[k] == '\n') {
						k++
					}
					subst = ""
					escapeEnd = k
					break
				}
			}
			return "", newDecodeError(d.s.Pos(), "'\\%c' is not a valid escape", ev)
		}
		out.WriteString(subst)
		pos = escapeEnd
	}
	return out.String(), nil
}

// --- arrays and inline tables (spec.md §4.2 "Arrays" / "Inline tables") ---

func (d *Decoder) parseArray() (Value, error) {
	d.s.Advance(1) // '['
	d.skipThrowaway()
	var elems []Value
	for {
		if d.s.AtLiteral("]") {
			d.s.Advance(1)
			break
		}
		v, err := d.parseValue()
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, v)
		d.skipThrowaway()
		if d.s.AtLiteral(",") {
			d.s.Advance(1)
			d.skipThrowaway()
			continue
		}
		if d.s.AtLiteral("]") {
			d.s.Advance(1)
			break
		}
		return Value{}, newDecodeError(d.s.Pos(), "bad next character %q in array", d.s.Peek(1))
	}
	if len(elems) > 1 {
		k0 := elems[0].Kind
		for _, e := range elems[1:] {
			if e.Kind != k0 {
				return Value{}, newDecodeError(d.s.Pos(), "array of mixed type")
			}
		}
	}
	return Array(elems...), nil
}

func (d *Decoder) parseInlineTable() (Value, error) {
	d.s.Advance(1) // '{'
	tbl := NewTable()
	d.s.AdvanceWhile(isSpaceTab)
	for {
		if d.s.AtLiteral("}") {
			d.s.Advance(1)
			break
		}
		kl, err := d.parseKeyList()
		if err != nil {
			return Value{}, err
		}
		d.s.AdvanceWhile(isSpaceTab)
		if !d.s.AtLiteral("=") {
			return Value{}, newDecodeError(d.s.Pos(), "no '=' after key %q in inline table", strings.Join(kl, "."))
		}
		d.s.Advance(1)
		d.s.AdvanceWhile(isSpaceTab)
		v, err := d.parseValue()
		if err != nil {
			return Value{}, err
		}
		d.s.AdvanceWhile(isSpaceTab)
		target, err := d.procKL(tbl, kl[:len(kl)-1], false, false)
		if err != nil {
			return Value{}, err
		}
		k := kl[len(kl)-1]
		if target.Has(k) {
			return Value{}, newDecodeError(d.s.Pos(), "duplicated key %q in inline table", k)
		}
		target.Set(k, v)
		if d.s.AtLiteral(",") {
			d.s.Advance(1)
			d.s.AdvanceWhile(isSpaceTab)
			continue
		}
		if d.s.AtLiteral("}") {
			d.s.Advance(1)
			break
		}
		return Value{}, newDecodeError(d.s.Pos(), "bad next character %q in inline table", d.s.Peek(1))
	}
	tbl.origin = originInlineSealed
	return TableValue(tbl), nil
}
