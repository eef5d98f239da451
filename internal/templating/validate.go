package templating

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/nordbooks/billing-api/internal/domain"
)

// dateLayouts are the accepted input formats for date variables
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// ValidateValue checks a resolved value against its variable definition.
// Empty values are only rejected for required variables; type rules apply
// to any non-empty value.
func ValidateValue(def domain.VariableDefinition, value string) error {
	if value == "" {
		if def.Required {
			return fmt.Errorf("variable %q is required", def.Name)
		}
		return nil
	}

	switch def.Type {
	case domain.VariableTypeNumber:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("variable %q must be a number, got %q", def.Name, value)
		}
		if def.MinValue != nil && n < *def.MinValue {
			return fmt.Errorf("variable %q must be >= %v", def.Name, *def.MinValue)
		}
		if def.MaxValue != nil && n > *def.MaxValue {
			return fmt.Errorf("variable %q must be <= %v", def.Name, *def.MaxValue)
		}
	case domain.VariableTypeDate:
		if !parsesAsDate(value) {
			return fmt.Errorf("variable %q must be a date (YYYY-MM-DD), got %q", def.Name, value)
		}
	case domain.VariableTypeEnum:
		for _, opt := range def.Options {
			if value == opt {
				return nil
			}
		}
		return fmt.Errorf("variable %q must be one of %v, got %q", def.Name, []string(def.Options), value)
	case domain.VariableTypeText:
		if def.Pattern != "" {
			re, err := regexp.Compile(def.Pattern)
			if err != nil {
				return fmt.Errorf("variable %q has an invalid pattern: %w", def.Name, err)
			}
			if !re.MatchString(value) {
				return fmt.Errorf("variable %q does not match pattern %q", def.Name, def.Pattern)
			}
		}
	}
	return nil
}

// ValidateAll validates every defined variable against its resolved value.
// It returns all failures so callers can report them together.
func ValidateAll(defs []domain.VariableDefinition, values map[string]string) []error {
	var errs []error
	for _, def := range defs {
		if err := ValidateValue(def, values[def.Name]); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func parsesAsDate(value string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}
