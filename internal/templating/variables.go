// Package templating extracts, resolves and substitutes {{placeholder}}
// variables in agreement template content.
package templating

import (
	"regexp"
	"strings"
	"time"

	"github.com/nordbooks/billing-api/internal/domain"
)

// placeholderPattern matches {{name}} markers. Names are word characters
// plus dots and dashes; surrounding whitespace inside the braces is allowed
// and trimmed. Unbalanced braces are ignored as literal text.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([\w.\-]+)\s*\}\}`)

// ExtractVariables returns the distinct placeholder names in content, in
// order of first appearance.
func ExtractVariables(content string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(content, -1)
	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		name := m[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// Substitution records how a single placeholder was resolved: the value that
// was filled in, where it came from and when. Generated documents keep the
// list as an audit trail.
type Substitution struct {
	Name       string
	Value      string
	DataSource domain.DataSource
	Timestamp  time.Time
}

// Resolution is the outcome of resolving a template's placeholders.
// Substitutions holds every placeholder that received a value; Missing names
// the defined variables that had no value at any precedence level.
type Resolution struct {
	Substitutions []Substitution
	Missing       []string

	markers map[string]string
}

// Values returns the resolved placeholder values, keyed by name. Variables
// listed in Missing are absent, so validation sees them as empty.
func (r *Resolution) Values() map[string]string {
	values := make(map[string]string, len(r.Substitutions))
	for _, sub := range r.Substitutions {
		values[sub.Name] = sub.Value
	}
	return values
}

// RenderValues returns the resolved values plus a bracketed display-name
// marker like "[Client Name]" for each missing defined variable, so a
// rendered document shows what was left unfilled instead of dropping text.
func (r *Resolution) RenderValues() map[string]string {
	values := r.Values()
	for name, marker := range r.markers {
		values[name] = marker
	}
	return values
}

// Resolve produces the final value for every placeholder in content.
// Precedence per variable, highest first:
//
//  1. caller-supplied override
//  2. value resolved from the source document (quote, client, company)
//  3. the variable definition's default value
//
// Defined variables with no value at any level are reported in Missing.
// Placeholders with no matching definition and no value are skipped
// entirely, so Substitute leaves them as literal {{name}} text.
func Resolve(content string, defs []domain.VariableDefinition, sourceValues map[string]SourceValue, overrides map[string]string, now time.Time) *Resolution {
	defByName := make(map[string]domain.VariableDefinition, len(defs))
	for _, def := range defs {
		defByName[def.Name] = def
	}

	res := &Resolution{markers: make(map[string]string)}
	record := func(name, value string, source domain.DataSource) {
		res.Substitutions = append(res.Substitutions, Substitution{
			Name:       name,
			Value:      value,
			DataSource: source,
			Timestamp:  now,
		})
	}

	for _, name := range ExtractVariables(content) {
		if v, ok := overrides[name]; ok && v != "" {
			record(name, v, domain.DataSourceUserInput)
			continue
		}
		if sv, ok := sourceValues[name]; ok && sv.Value != "" {
			record(name, sv.Value, sv.Source)
			continue
		}
		def, hasDef := defByName[name]
		if !hasDef {
			continue
		}
		if def.DefaultValue != "" {
			record(name, def.DefaultValue, domain.DataSourceDefaultValue)
			continue
		}
		display := def.DisplayName
		if display == "" {
			display = name
		}
		res.markers[name] = "[" + display + "]"
		res.Missing = append(res.Missing, name)
	}
	return res
}

// Substitute replaces every placeholder in content with its value from
// values. Placeholders absent from the map are left untouched.
func Substitute(content string, values map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(content, func(marker string) string {
		name := strings.TrimSpace(marker[2 : len(marker)-2])
		if v, ok := values[name]; ok {
			return v
		}
		return marker
	})
}
