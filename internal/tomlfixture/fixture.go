// Package tomlfixture loads golden round-trip test cases described in YAML:
// a TOML snippet alongside the plain-Go shape it should decode to. This
// repurposes the teacher's embedded-YAML-docstring feature (sqlparser's
// Create.DocstringYamldoc / ParseYamlInDocstring, which pulled a YAML
// document out of `--!`-prefixed comment lines) from "YAML describing a SQL
// fixture" to "YAML describing a TOML fixture".
package tomlfixture

import (
	"gopkg.in/yaml.v3"

	toml "github.com/gocfg/toml"
)

// Case is one fixture: TOML source plus the decoded shape it must produce.
type Case struct {
	Name string                 `yaml:"name"`
	TOML string                 `yaml:"toml"`
	Want map[string]interface{} `yaml:"want"`
}

// LoadCases parses a YAML document holding a list of Case entries.
func LoadCases(doc string) ([]Case, error) {
	var cases []Case
	if err := yaml.Unmarshal([]byte(doc), &cases); err != nil {
		return nil, err
	}
	return cases, nil
}

// ToGeneric flattens a decoded Table into plain map[string]interface{} /
// []interface{} / scalar values, so it can be compared directly against a
// Case's Want field with reflect.DeepEqual or testify's assert.Equal.
func ToGeneric(t *toml.Table) map[string]interface{} {
	out := make(map[string]interface{}, t.Len())
	t.Range(func(k string, v toml.Value) bool {
		out[k] = genericValue(v)
		return true
	})
	return out
}

func genericValue(v toml.Value) interface{} {
	switch v.Kind {
	case toml.KindString:
		return v.Str
	case toml.KindInteger:
		// yaml.v3 decodes small integers into interface{} as int, not int64;
		// match that so Want fixtures compare equal without per-case casts.
		return int(v.Int)
	case toml.KindFloat:
		return v.Flt
	case toml.KindBool:
		return v.Bln
	case toml.KindArray:
		out := make([]interface{}, len(v.Arr))
		for i, e := range v.Arr {
			out[i] = genericValue(e)
		}
		return out
	case toml.KindTable:
		return ToGeneric(v.Tbl)
	default:
		return nil
	}
}
