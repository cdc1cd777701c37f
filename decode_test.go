package toml

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeScalars(t *testing.T) {
	src := `
str = "hello"
lit = 'raw\nstring'
n = 42
neg = -17
hexn = 0xFF
octn = 0o17
binn = 0b1010
under = 1_000_000
f = 3.14
fexp = 5e+22
finf = inf
fnan = nan
flag = true
`
	root, err := Decode(src)
	require.NoError(t, err)

	assert.Equal(t, "hello", root.MustGet("str").Str)
	assert.Equal(t, `raw\nstring`, root.MustGet("lit").Str)
	assert.Equal(t, int64(42), root.MustGet("n").Int)
	assert.Equal(t, int64(-17), root.MustGet("neg").Int)
	assert.Equal(t, int64(255), root.MustGet("hexn").Int)
	assert.Equal(t, int64(15), root.MustGet("octn").Int)
	assert.Equal(t, int64(10), root.MustGet("binn").Int)
	assert.Equal(t, int64(1000000), root.MustGet("under").Int)
	assert.Equal(t, 3.14, root.MustGet("f").Flt)
	assert.Equal(t, 5e22, root.MustGet("fexp").Flt)
	assert.True(t, root.MustGet("finf").Flt > 0)
	assert.True(t, root.MustGet("fnan").Flt != root.MustGet("fnan").Flt) // NaN != NaN
	assert.True(t, root.MustGet("flag").Bln)
}

func TestDecodeBasicStringEscapes(t *testing.T) {
	root, err := Decode(`s = "a\tb\nc\"d\\eé"`)
	require.NoError(t, err)
	assert.Equal(t, "a\tb\nc\"d\\eé", root.MustGet("s").Str)
}

func TestDecodeMultilineBasicStringLineContinuation(t *testing.T) {
	src := "s = \"\"\"line one \\\n   line two\"\"\"\n"
	root, err := Decode(src)
	require.NoError(t, err)
	assert.Equal(t, "line one line two", root.MustGet("s").Str)
}

func TestDecodeMultilineStringLeadingNewlineStripped(t *testing.T) {
	src := "s = \"\"\"\nhello\"\"\"\n"
	root, err := Decode(src)
	require.NoError(t, err)
	assert.Equal(t, "hello", root.MustGet("s").Str)
}

func TestDecodeTripleQuoteDelimiterSubtlety(t *testing.T) {
	// the string's content ends with an escaped quote right before the
	// closing delimiter: """...\"""" must not treat the escaped quote
	// as part of the terminator.
	src := `s = """she said \""""`
	root, err := Decode(src)
	require.NoError(t, err)
	assert.Equal(t, `she said "`, root.MustGet("s").Str)
}

func TestDecodeIntegerUnderscoreRules(t *testing.T) {
	_, err := Decode("a = 1__0")
	assert.Error(t, err, "adjacent underscores")

	_, err = Decode("a = 10_")
	assert.Error(t, err, "trailing underscore")

	_, err = Decode("a = 0x_FF")
	assert.Error(t, err, "underscore right after base prefix")
	_, err = Decode("a = 0o_7")
	assert.Error(t, err, "underscore right after base prefix")
	_, err = Decode("a = 0b_1")
	assert.Error(t, err, "underscore right after base prefix")

	root, err := Decode("a = 0xF_F")
	require.NoError(t, err)
	assert.Equal(t, int64(255), root.MustGet("a").Int)
}

func TestDecodeArrayHomogeneity(t *testing.T) {
	root, err := Decode(`a = [1, 2, 3]`)
	require.NoError(t, err)
	assert.Equal(t, []Value{Int(1), Int(2), Int(3)}, root.MustGet("a").Arr)

	_, err = Decode(`bad = [1, "two"]`)
	assert.Error(t, err)
}

func TestDecodeArrayOfInlineTables(t *testing.T) {
	root, err := Decode(`a = [{x = 1}, {x = 2}]`)
	require.NoError(t, err)
	arr := root.MustGet("a").Arr
	require.Len(t, arr, 2)
	assert.Equal(t, int64(1), arr[0].Tbl.MustGet("x").Int)
	assert.Equal(t, int64(2), arr[1].Tbl.MustGet("x").Int)
}

func TestDecodeInlineTable(t *testing.T) {
	root, err := Decode(`point = { x = 1, y = 2 }`)
	require.NoError(t, err)
	pt := root.MustGet("point").Tbl
	assert.Equal(t, int64(1), pt.MustGet("x").Int)
	assert.Equal(t, int64(2), pt.MustGet("y").Int)
}

func TestDecodeInlineTableSealedAgainstExtension(t *testing.T) {
	_, err := Decode("point = { x = 1 }\n[point.y]\n")
	assert.Error(t, err)
}

func TestDecodeDottedKeys(t *testing.T) {
	root, err := Decode("a.b.c = 1\na.b.d = 2\n")
	require.NoError(t, err)
	b := root.MustGet("a").Tbl.MustGet("b").Tbl
	assert.Equal(t, int64(1), b.MustGet("c").Int)
	assert.Equal(t, int64(2), b.MustGet("d").Int)
}

func TestDecodeTableHeaders(t *testing.T) {
	src := `
[a]
x = 1

[a.b]
y = 2
`
	root, err := Decode(src)
	require.NoError(t, err)
	a := root.MustGet("a").Tbl
	assert.Equal(t, int64(1), a.MustGet("x").Int)
	assert.Equal(t, int64(2), a.MustGet("b").Tbl.MustGet("y").Int)
}

func TestDecodeDuplicateTableHeaderRejected(t *testing.T) {
	_, err := Decode("[a]\nx = 1\n[a]\ny = 2\n")
	assert.Error(t, err)
}

func TestDecodeSubtableThenParentHeaderAllowed(t *testing.T) {
	// a [a] header after [a.b] is fine: [a.b] only created "a" implicitly.
	root, err := Decode("[a.b]\nx = 1\n[a]\ny = 2\n")
	require.NoError(t, err)
	assert.Equal(t, int64(2), root.MustGet("a").Tbl.MustGet("y").Int)
}

func TestDecodeTableArrays(t *testing.T) {
	src := `
[[fruit]]
name = "apple"

[[fruit]]
name = "banana"
`
	root, err := Decode(src)
	require.NoError(t, err)
	arr := root.MustGet("fruit").Arr
	require.Len(t, arr, 2)
	assert.Equal(t, "apple", arr[0].Tbl.MustGet("name").Str)
	assert.Equal(t, "banana", arr[1].Tbl.MustGet("name").Str)
}

func TestDecodeTableArrayWithNestedSubtable(t *testing.T) {
	src := `
[[fruit]]
name = "apple"
[fruit.taste]
sweet = true
`
	root, err := Decode(src)
	require.NoError(t, err)
	arr := root.MustGet("fruit").Arr
	require.Len(t, arr, 1)
	assert.True(t, arr[0].Tbl.MustGet("taste").Tbl.MustGet("sweet").Bln)
}

func TestDecodeInlineArrayCannotBeExtendedByTableArrayHeader(t *testing.T) {
	_, err := Decode("fruit = [1, 2]\n[[fruit]]\nname = \"apple\"\n")
	assert.Error(t, err)
}

func TestDecodeRepeatedKeyRejected(t *testing.T) {
	_, err := Decode("a = 1\na = 2\n")
	assert.Error(t, err)
}

func TestDecodeDatetimeVariants(t *testing.T) {
	src := `
odt = 1979-05-27T07:32:00Z
odt2 = 1979-05-27T00:32:00-07:00
ldt = 1979-05-27T07:32:00
ld = 1979-05-27
lt = 07:32:00.999999
`
	root, err := Decode(src)
	require.NoError(t, err)

	odt := root.MustGet("odt")
	assert.Equal(t, KindDatetime, odt.Kind)
	assert.True(t, odt.Time.HasOffset)
	assert.Equal(t, 1979, odt.Time.T.Year())

	ldt := root.MustGet("ldt")
	assert.Equal(t, KindLocalDatetime, ldt.Kind)
	assert.False(t, ldt.Time.HasOffset)

	ld := root.MustGet("ld")
	assert.Equal(t, KindDate, ld.Kind)
	assert.Equal(t, time.Month(5), ld.Time.T.Month())

	lt := root.MustGet("lt")
	assert.Equal(t, KindTime, lt.Kind)
	assert.Equal(t, 7, lt.Time.T.Hour())
	assert.Equal(t, 999999000, lt.Time.T.Nanosecond())
}

func TestDecodeInvalidCalendarDateRejected(t *testing.T) {
	// time.Date would silently normalize these into 2020-03-01 / 2020-05-01;
	// the decoder must reject them instead.
	_, err := Decode("d = 2020-02-30\n")
	assert.Error(t, err, "february has at most 29 days")

	_, err = Decode("d = 2020-04-31\n")
	assert.Error(t, err, "april has 30 days")

	_, err = Decode("d = 2021-02-29\n")
	assert.Error(t, err, "2021 is not a leap year")

	root, err := Decode("d = 2020-02-29\n")
	require.NoError(t, err, "2020 is a leap year")
	assert.Equal(t, time.Month(2), root.MustGet("d").Time.T.Month())
}

func TestDecodeSecond60Rejected(t *testing.T) {
	_, err := Decode("t = 07:32:60\n")
	assert.Error(t, err)
}

func TestDecodeComments(t *testing.T) {
	src := "# leading comment\na = 1 # trailing comment\n# another\nb = 2\n"
	root, err := Decode(src)
	require.NoError(t, err)
	assert.Equal(t, int64(1), root.MustGet("a").Int)
	assert.Equal(t, int64(2), root.MustGet("b").Int)
}

func TestDecodeMissingNewlineBetweenStatementsRejected(t *testing.T) {
	_, err := Decode("a = 1 b = 2")
	assert.Error(t, err)
}

func TestDecodeUnterminatedStringRejected(t *testing.T) {
	_, err := Decode(`s = "unterminated`)
	assert.Error(t, err)
}

func TestDecodeErrorReportsPosition(t *testing.T) {
	_, err := Decode("a = 1\nb = \n")
	require.Error(t, err)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 2, de.Pos.Line)
}
