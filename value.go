package toml

import "time"

// Kind identifies the runtime tag of a Value, playing the role that
// isinstance(v, ...) dispatch plays in the Python original.
type Kind int

const (
	KindInvalid Kind = iota
	KindString
	KindInteger
	KindFloat
	KindBool
	KindDatetime
	KindLocalDatetime
	KindDate
	KindTime
	KindArray
	KindTable
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindDatetime:
		return "datetime"
	case KindLocalDatetime:
		return "local-datetime"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	case KindArray:
		return "array"
	case KindTable:
		return "table"
	default:
		return "invalid"
	}
}

// origin records how a container was introduced during decoding. It is
// invisible to callers that only construct values by hand (the zero value,
// originNone, behaves exactly like a freshly-built container) and is only
// consulted by the decoder to enforce redefinition/extension rules — see
// spec.md §9 "Identity-based tracking".
type origin int

const (
	originNone origin = iota
	// originExplicit marks a Table that was bound by a [table] or
	// [[table-array]] header, used to detect duplicate headers.
	originExplicit
	// originInlineArray marks a Value of kind Array that was bound directly
	// by a top-level `key = [...]` pair, used to reject later [[key]]
	// table-array extension of it.
	originInlineArray
	// originInlineSealed marks a Table built from `{ ... }` syntax, which
	// may never be extended by a later header or dotted key.
	originInlineSealed
)

// Value is the tagged union exchanged between the decoder, the encoder, and
// callers. Exactly one of the typed fields is meaningful, selected by Kind.
type Value struct {
	Kind Kind

	Str    string
	Int    int64
	Flt    float64
	Bln    bool
	Time   DateTimeValue
	Arr    []Value
	Tbl    *Table

	arrOrigin origin
}

// DateTimeValue holds the union of Datetime/LocalDatetime/Date/Time: a plain
// time.Time plus flags recording which calendar/clock components and offset
// were actually present in the source, since e.g. a bare Date has no
// time-of-day and a Time has no calendar date.
type DateTimeValue struct {
	T           time.Time
	HasDate     bool
	HasTime     bool
	HasOffset   bool
}

// String builds a Value of kind String.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Int builds a Value of kind Integer.
func Int(i int64) Value { return Value{Kind: KindInteger, Int: i} }

// Float builds a Value of kind Float.
func Float(f float64) Value { return Value{Kind: KindFloat, Flt: f} }

// Bool builds a Value of kind Bool.
func Bool(b bool) Value { return Value{Kind: KindBool, Bln: b} }

// Array builds a Value of kind Array from the given elements.
func Array(elems ...Value) Value { return Value{Kind: KindArray, Arr: elems} }

// TableValue wraps an existing Table as a Value of kind Table.
func TableValue(t *Table) Value { return Value{Kind: KindTable, Tbl: t} }

// entry is one key/value pair in a Table, kept in insertion order.
type entry struct {
	key   string
	value Value
}

// Table is an ordered string-keyed mapping. Iteration order equals insertion
// order — this is load-bearing for encoder output stability (spec.md §3).
// The zero value is an empty, usable table.
type Table struct {
	entries []entry
	index   map[string]int

	origin origin // set by the decoder; ignored everywhere else
}

// NewTable returns an empty, usable Table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

func (t *Table) ensureIndex() {
	if t.index == nil {
		t.index = make(map[string]int, len(t.entries))
		for i, e := range t.entries {
			t.index[e.key] = i
		}
	}
}

// Has reports whether key is present directly in t.
func (t *Table) Has(key string) bool {
	t.ensureIndex()
	_, ok := t.index[key]
	return ok
}

// Get returns the value stored at key and whether it was present.
func (t *Table) Get(key string) (Value, bool) {
	t.ensureIndex()
	i, ok := t.index[key]
	if !ok {
		return Value{}, false
	}
	return t.entries[i].value, true
}

// MustGet returns the value at key, or the zero Value if absent.
func (t *Table) MustGet(key string) Value {
	v, _ := t.Get(key)
	return v
}

// Set inserts or overwrites key with value. Insertion order is preserved:
// an overwrite of an existing key keeps its original position.
func (t *Table) Set(key string, value Value) {
	t.ensureIndex()
	if i, ok := t.index[key]; ok {
		t.entries[i].value = value
		return
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, entry{key: key, value: value})
}

// Keys returns the keys of t in insertion order.
func (t *Table) Keys() []string {
	keys := make([]string, len(t.entries))
	for i, e := range t.entries {
		keys[i] = e.key
	}
	return keys
}

// Len returns the number of direct entries in t.
func (t *Table) Len() int { return len(t.entries) }

// Range calls fn for every entry in insertion order, stopping early if fn
// returns false.
func (t *Table) Range(fn func(key string, value Value) bool) {
	for _, e := range t.entries {
		if !fn(e.key, e.value) {
			return
		}
	}
}
