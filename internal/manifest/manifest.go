package manifest

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
)

// DefaultTool is the lint tool table classified against.
const DefaultTool = "clippy"

type Kind string

const (
	Workspace Kind = "workspace"
	Member    Kind = "member"
)

// Scope is the lint configuration declared at one level of a Cargo
// project: [workspace.lints.<tool>] or [lints.<tool>].
type Scope struct {
	Kind Kind
	// File is the manifest the scope was read from.
	File string
	// Declared reports whether the manifest has a lints table at all.
	Declared bool
	// InheritsWorkspace is set by `lints.workspace = true` on a member.
	InheritsWorkspace bool
	// Levels maps a lint id or group name to its configured level.
	Levels map[string]string

	workspace *Scope
}

// Resolve returns the scope whose mapping applies: the workspace scope for
// an inheriting member, the scope itself otherwise.
func (s *Scope) Resolve() *Scope {
	if s == nil {
		return nil
	}
	if s.Kind == Member && s.InheritsWorkspace {
		return s.workspace
	}
	return s
}

// Has reports whether key is configured in this scope's own mapping.
func (s *Scope) Has(key string) bool {
	if s == nil {
		return false
	}
	_, ok := s.Levels[key]
	return ok
}

// Level returns the configured level for key.
func (s *Scope) Level(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	lvl, ok := s.Levels[key]
	return lvl, ok
}

// Keys returns the configured keys in sorted order.
func (s *Scope) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.Levels))
	for k := range s.Levels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Workspace returns the workspace scope a member is linked to.
func (s *Scope) Workspace() *Scope {
	if s == nil {
		return nil
	}
	return s.workspace
}

// NewWorkspace builds a declared workspace scope from a level mapping.
func NewWorkspace(levels map[string]string) *Scope {
	return &Scope{Kind: Workspace, Declared: true, Levels: levels}
}

// NewMember builds a declared member scope linked to ws.
func NewMember(levels map[string]string, inherits bool, ws *Scope) *Scope {
	return &Scope{Kind: Member, Declared: true, InheritsWorkspace: inherits, Levels: levels, workspace: ws}
}

type Manifests struct {
	Workspace *Scope
	Member    *Scope
}

type rawManifest struct {
	Workspace *rawWorkspace  `toml:"workspace"`
	Lints     map[string]any `toml:"lints"`
}

type rawWorkspace struct {
	Lints map[string]any `toml:"lints"`
}

// Load reads the workspace and member manifests. They may be the same
// file when the tool runs from the workspace root.
func Load(workspacePath, memberPath, tool string) (*Manifests, error) {
	if tool == "" {
		tool = DefaultTool
	}

	ws, err := decodeFile(workspacePath)
	if err != nil {
		return nil, err
	}
	member := ws
	if memberPath != workspacePath {
		if member, err = decodeFile(memberPath); err != nil {
			return nil, err
		}
	}

	wsScope, err := workspaceScope(workspacePath, ws, tool)
	if err != nil {
		return nil, err
	}
	mScope, err := memberScope(memberPath, member, tool)
	if err != nil {
		return nil, err
	}
	mScope.workspace = wsScope

	return &Manifests{Workspace: wsScope, Member: mScope}, nil
}

func decodeFile(path string) (*rawManifest, error) {
	var raw rawManifest
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	return &raw, nil
}

func workspaceScope(path string, raw *rawManifest, tool string) (*Scope, error) {
	s := &Scope{Kind: Workspace, File: path, Levels: map[string]string{}}
	if raw.Workspace == nil || raw.Workspace.Lints == nil {
		return s, nil
	}
	s.Declared = true

	levels, err := toolLevels(raw.Workspace.Lints, tool)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: workspace.lints.%s: %w", path, tool, err)
	}
	s.Levels = levels
	return s, nil
}

func memberScope(path string, raw *rawManifest, tool string) (*Scope, error) {
	s := &Scope{Kind: Member, File: path, Levels: map[string]string{}}
	if raw.Lints == nil {
		return s, nil
	}
	s.Declared = true

	if v, ok := raw.Lints["workspace"]; ok {
		inherit, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("manifest %s: lints.workspace must be a boolean", path)
		}
		s.InheritsWorkspace = inherit
	}

	if s.InheritsWorkspace {
		for key := range raw.Lints {
			if key != "workspace" {
				return nil, fmt.Errorf("manifest %s: lints.%s cannot be combined with lints.workspace = true", path, key)
			}
		}
		return s, nil
	}

	levels, err := toolLevels(raw.Lints, tool)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: lints.%s: %w", path, tool, err)
	}
	s.Levels = levels
	return s, nil
}

func toolLevels(lints map[string]any, tool string) (map[string]string, error) {
	levels := map[string]string{}
	v, ok := lints[tool]
	if !ok {
		return levels, nil
	}
	table, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a table, got %T", v)
	}

	for key, entry := range table {
		lvl, err := parseLevel(entry)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		levels[key] = lvl
	}
	return levels, nil
}

// parseLevel accepts `"warn"` and `{ level = "warn", priority = -1 }`.
func parseLevel(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case map[string]any:
		lvl, ok := t["level"].(string)
		if !ok {
			return "", fmt.Errorf("lint table has no string level")
		}
		return lvl, nil
	default:
		return "", fmt.Errorf("invalid lint level %v", v)
	}
}
