package tidy

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salchaD-27/cargo-tidy-lints/internal/cargo"
	"github.com/salchaD-27/cargo-tidy-lints/internal/finding"
	"github.com/salchaD-27/cargo-tidy-lints/internal/lint"
	"github.com/salchaD-27/cargo-tidy-lints/internal/manifest"
	"github.com/salchaD-27/cargo-tidy-lints/internal/report"
)

func reports(t *testing.T, dir string, scope finding.Scope) map[finding.Category]string {
	t.Helper()
	out := map[finding.Category]string{}
	for _, cat := range finding.Categories {
		data, err := os.ReadFile(report.Path(dir, scope, cat))
		require.NoError(t, err)
		out[cat] = string(data)
	}
	return out
}

func countLines(s string) int {
	return strings.Count(s, "\n")
}

func run(t *testing.T, items []lint.Item, m *manifest.Manifests) (cargo.Paths, []finding.Finding) {
	t.Helper()
	root := t.TempDir()
	paths := cargo.Paths{
		WorkspaceOutput: filepath.Join(root, "target"),
		MemberOutput:    filepath.Join(root, "member", "target"),
	}
	require.NoError(t, os.MkdirAll(paths.WorkspaceOutput, 0o755))
	require.NoError(t, os.MkdirAll(paths.MemberOutput, 0o755))

	logger, _ := test.NewNullLogger()
	found, err := Run(context.Background(), Options{
		Items:  items,
		Jobs:   ScopeJobs(paths, m),
		Logger: logger,
	})
	require.NoError(t, err)
	return paths, found
}

func TestRunAllowLintWithEmptyManifests(t *testing.T) {
	items := []lint.Item{{ID: "foo", Group: "bar", Level: lint.Allow}}
	ws := manifest.NewWorkspace(map[string]string{})
	m := &manifest.Manifests{Workspace: ws, Member: manifest.NewMember(map[string]string{}, false, ws)}

	paths, found := run(t, items, m)

	for _, dir := range []struct {
		path  string
		scope finding.Scope
	}{{paths.WorkspaceOutput, finding.Workspace}, {paths.MemberOutput, finding.Crate}} {
		got := reports(t, dir.path, dir.scope)
		assert.Equal(t, 1, countLines(got[finding.Allow]))
		assert.True(t, strings.HasPrefix(got[finding.Allow], `foo = "allow"`))
		assert.NotContains(t, got[finding.Unnecessary], "foo")
		assert.NotContains(t, got[finding.Duplicate], "foo")
		assert.NotContains(t, got[finding.Deprecated], "foo")
	}

	require.Len(t, found, 2)
	assert.Equal(t, finding.Workspace, found[0].Scope)
	assert.Equal(t, finding.Crate, found[1].Scope)
}

func TestRunUnnecessaryAndDuplicate(t *testing.T) {
	items := []lint.Item{{ID: "foo", Group: "bar", Level: lint.Deny}}
	ws := manifest.NewWorkspace(map[string]string{"foo": "warn", "bar": "warn"})
	m := &manifest.Manifests{Workspace: ws, Member: manifest.NewMember(nil, true, ws)}

	paths, _ := run(t, items, m)

	for _, dir := range []struct {
		path  string
		scope finding.Scope
	}{{paths.WorkspaceOutput, finding.Workspace}, {paths.MemberOutput, finding.Crate}} {
		got := reports(t, dir.path, dir.scope)
		assert.Contains(t, got[finding.Unnecessary], "foo")
		assert.Contains(t, got[finding.Duplicate], "foo")
		assert.Empty(t, got[finding.Allow])
		assert.Empty(t, got[finding.Deprecated])
	}
}

func TestRunIndependentMember(t *testing.T) {
	items := []lint.Item{
		{ID: "unwrap_used", Group: "restriction", Level: lint.Allow},
		{ID: "should_assert_eq", Group: lint.DeprecatedGroup, Level: lint.None},
	}
	ws := manifest.NewWorkspace(map[string]string{"unwrap_used": "deny"})
	member := manifest.NewMember(map[string]string{"should_assert_eq": "allow"}, false, ws)

	paths, _ := run(t, items, &manifest.Manifests{Workspace: ws, Member: member})

	wsReports := reports(t, paths.WorkspaceOutput, finding.Workspace)
	assert.Empty(t, wsReports[finding.Allow])
	assert.Empty(t, wsReports[finding.Deprecated])

	crateReports := reports(t, paths.MemberOutput, finding.Crate)
	assert.Contains(t, crateReports[finding.Allow], "unwrap_used")
	assert.Contains(t, crateReports[finding.Deprecated], "should_assert_eq")
	assert.Contains(t, crateReports[finding.Unnecessary], "should_assert_eq")
}

func TestRunLogsScopeDetails(t *testing.T) {
	root := t.TempDir()
	ws := manifest.NewWorkspace(map[string]string{"pedantic": "warn", "foo": "deny"})
	ws.File = filepath.Join(root, "Cargo.toml")
	member := manifest.NewMember(nil, true, ws)

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	_, err := Run(context.Background(), Options{
		Items:  []lint.Item{{ID: "foo", Group: "pedantic", Level: lint.Warn}},
		Jobs:   []Job{{Scope: finding.Crate, Manifest: member, OutputDir: root}},
		Logger: logger,
	})
	require.NoError(t, err)

	var scoped, unnecessary *logrus.Entry
	for _, e := range hook.AllEntries() {
		switch e.Message {
		case "classifying against scope":
			scoped = e
		case "lint configured although enabled by default":
			unnecessary = e
		}
	}

	require.NotNil(t, scoped)
	assert.Equal(t, true, scoped.Data["declared"])
	assert.Equal(t, []string{"foo", "pedantic"}, scoped.Data["keys"])
	assert.Equal(t, ws.File, scoped.Data["inherits"])

	require.NotNil(t, unnecessary)
	assert.Equal(t, "foo", unnecessary.Data["lint"])
	assert.Equal(t, "deny", unnecessary.Data["configured"])
	assert.Equal(t, lint.Warn, unnecessary.Data["default"])
}

func TestConfiguredLevel(t *testing.T) {
	s := manifest.NewWorkspace(map[string]string{"pedantic": "warn", "foo": "deny"})

	assert.Equal(t, "deny", configuredLevel(s, lint.Item{ID: "foo", Group: "pedantic"}))
	assert.Equal(t, "warn", configuredLevel(s, lint.Item{ID: "bar", Group: "pedantic"}))
	assert.Empty(t, configuredLevel(nil, lint.Item{ID: "foo"}))
}

func TestRunFailsWhenOutputUnwritable(t *testing.T) {
	root := t.TempDir()
	ws := manifest.NewWorkspace(map[string]string{})
	logger, _ := test.NewNullLogger()

	_, err := Run(context.Background(), Options{
		Items: []lint.Item{{ID: "foo", Level: lint.Allow}},
		Jobs: []Job{
			{Scope: finding.Workspace, Manifest: ws, OutputDir: root},
			{Scope: finding.Crate, Manifest: ws, OutputDir: filepath.Join(root, "missing")},
		},
		Logger: logger,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crate reports")
}

func TestRunCancelled(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, Options{
		Items: []lint.Item{{ID: "foo", Level: lint.Allow}},
		Jobs:  []Job{{Scope: finding.Workspace, OutputDir: root}},
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestScopeJobs(t *testing.T) {
	ws := manifest.NewWorkspace(nil)
	member := manifest.NewMember(nil, true, ws)
	jobs := ScopeJobs(cargo.Paths{WorkspaceOutput: "a", MemberOutput: "b"},
		&manifest.Manifests{Workspace: ws, Member: member})

	require.Len(t, jobs, 2)
	assert.Equal(t, Job{Scope: finding.Workspace, Manifest: ws, OutputDir: "a"}, jobs[0])
	assert.Equal(t, Job{Scope: finding.Crate, Manifest: member, OutputDir: "b"}, jobs[1])
}
