package catalog

import (
	"strings"

	"golang.org/x/mod/semver"

	"github.com/salchaD-27/cargo-tidy-lints/internal/lint"
)

// FilterSince keeps the lints introduced at or after the given Clippy
// version. Lints whose version is not a release number ("pre 1.29.0",
// "nightly") are dropped once a filter is set.
func FilterSince(items []lint.Item, version string) []lint.Item {
	if version == "" {
		return items
	}
	since := canonical(version)

	var kept []lint.Item
	for _, item := range items {
		v := canonical(item.Version)
		if !semver.IsValid(v) {
			continue
		}
		if semver.Compare(v, since) >= 0 {
			kept = append(kept, item)
		}
	}
	return kept
}

// ValidVersion reports whether version can be used with FilterSince.
func ValidVersion(version string) bool {
	return semver.IsValid(canonical(version))
}

func canonical(version string) string {
	version = strings.TrimSpace(version)
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	return version
}
