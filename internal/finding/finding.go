package finding

type Category string

const (
	Allow       Category = "allow"
	Unnecessary Category = "unnecessary"
	Duplicate   Category = "duplicate"
	Deprecated  Category = "deprecated"
)

// Categories lists every category in report order.
var Categories = []Category{Allow, Unnecessary, Duplicate, Deprecated}

type Scope string

const (
	Workspace Scope = "workspace"
	Crate     Scope = "crate"
)

// Finding records one lint written to one category report.
type Finding struct {
	Scope    Scope    `json:"scope" yaml:"scope"`
	Category Category `json:"category" yaml:"category"`
	Lint     string   `json:"lint" yaml:"lint"`
	Group    string   `json:"group" yaml:"group"`
	Level    string   `json:"level" yaml:"level"`
	File     string   `json:"file" yaml:"file"`
}

// Count tallies findings per scope and category.
func Count(findings []Finding) map[Scope]map[Category]int {
	counts := map[Scope]map[Category]int{}
	for _, f := range findings {
		if counts[f.Scope] == nil {
			counts[f.Scope] = map[Category]int{}
		}
		counts[f.Scope][f.Category]++
	}
	return counts
}
