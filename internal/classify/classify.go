package classify

import (
	"github.com/salchaD-27/cargo-tidy-lints/internal/finding"
	"github.com/salchaD-27/cargo-tidy-lints/internal/lint"
	"github.com/salchaD-27/cargo-tidy-lints/internal/manifest"
)

// Verdict is the outcome of matching one lint against one scope.
type Verdict struct {
	// Present: the lint id or its group is configured.
	Present bool
	// DeprecatedConflict: a deprecated lint is configured by id.
	DeprecatedConflict bool
	// Duplicate: the id and its group are configured as separate keys.
	Duplicate bool
}

// Classify evaluates item against the resolved configuration of scope.
// A nil or undeclared scope has an empty mapping.
func Classify(item lint.Item, scope *manifest.Scope) Verdict {
	s := scope.Resolve()

	hasID := s.Has(item.ID)
	hasGroup := item.Group != "" && s.Has(item.Group)

	return Verdict{
		Present:            hasID || hasGroup,
		DeprecatedConflict: hasID && item.IsDeprecated(),
		Duplicate:          hasID && hasGroup && item.ID != item.Group,
	}
}

// Categories returns the reports an item belongs to, in report order.
func Categories(item lint.Item, v Verdict) []finding.Category {
	var cats []finding.Category
	if item.IsAllow() && !v.Present {
		cats = append(cats, finding.Allow)
	}
	if !item.IsAllow() && v.Present {
		cats = append(cats, finding.Unnecessary)
	}
	if v.Duplicate {
		cats = append(cats, finding.Duplicate)
	}
	if v.DeprecatedConflict {
		cats = append(cats, finding.Deprecated)
	}
	return cats
}
