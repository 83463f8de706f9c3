package lint

// Level is the default severity a lint ships with.
type Level string

const (
	Allow Level = "allow"
	Warn  Level = "warn"
	Deny  Level = "deny"
	None  Level = "none"
)

// DeprecatedGroup is the group Clippy files retired lints under.
const DeprecatedGroup = "deprecated"

type IDSpan struct {
	Path string `json:"path"`
	Line int64  `json:"line"`
}

type Applicability struct {
	IsMultiPartSuggestion bool   `json:"is_multi_part_suggestion"`
	Applicability         string `json:"applicability"`
}

// Item is one entry of the lint catalog. Fields missing from the
// catalog decode to their zero values.
type Item struct {
	ID            string        `json:"id"`
	IDSpan        IDSpan        `json:"id_span"`
	Group         string        `json:"group"`
	Level         Level         `json:"level"`
	Docs          string        `json:"docs"`
	Version       string        `json:"version"`
	Applicability Applicability `json:"applicability"`
}

func (i Item) IsAllow() bool { return i.Level == Allow }

func (i Item) IsDeprecated() bool { return i.Group == DeprecatedGroup }
