package toml

import "github.com/alecthomas/repr"

// Debug renders v as a readable, deeply-expanded Go-syntax-like string for
// use in test failure output and ad-hoc inspection.
//
// Grounded on the teacher's use of repr.String(...) in sqltest/querydump.go
// and the repr.Println(doc) calls left commented in sqlparser/parser_test.go
// for exactly this purpose: turning a parsed tree into something a human can
// diff at a glance.
func Debug(v Value) string {
	return repr.String(v, repr.Indent("  "))
}

// DebugTable renders t the same way Debug renders a Value.
func DebugTable(t *Table) string {
	return repr.String(t, repr.Indent("  "))
}
