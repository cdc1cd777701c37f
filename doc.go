// Package toml implements a decoder and encoder for the 0.5-era TOML
// configuration format: tables, table arrays, inline tables, dotted keys,
// basic and literal strings (including their multi-line forms), integers in
// four bases, floats (with inf/nan), and the four datetime variants.
//
// Decode parses TOML source into a Table tree; Encode walks a Table tree
// back into canonical TOML text. The two are not required to round-trip a
// document byte-for-byte — comments and formatting are not preserved, only
// the data.
package toml
