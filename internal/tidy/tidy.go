package tidy

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/salchaD-27/cargo-tidy-lints/internal/cargo"
	"github.com/salchaD-27/cargo-tidy-lints/internal/classify"
	"github.com/salchaD-27/cargo-tidy-lints/internal/finding"
	"github.com/salchaD-27/cargo-tidy-lints/internal/lint"
	"github.com/salchaD-27/cargo-tidy-lints/internal/manifest"
	"github.com/salchaD-27/cargo-tidy-lints/internal/report"
)

// Job classifies the catalog against one scope and writes its reports.
type Job struct {
	Scope     finding.Scope
	Manifest  *manifest.Scope
	OutputDir string
}

// ScopeJobs pairs each manifest scope with its output directory.
func ScopeJobs(paths cargo.Paths, m *manifest.Manifests) []Job {
	return []Job{
		{Scope: finding.Workspace, Manifest: m.Workspace, OutputDir: paths.WorkspaceOutput},
		{Scope: finding.Crate, Manifest: m.Member, OutputDir: paths.MemberOutput},
	}
}

type Options struct {
	Items    []lint.Item
	Jobs     []Job
	WithDocs bool
	Logger   logrus.FieldLogger
}

// Run executes every job concurrently and waits for all of them. The first
// failure cancels the others and is returned; findings keep job order.
func Run(ctx context.Context, opts Options) ([]finding.Finding, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	results := make([][]finding.Finding, len(opts.Jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, job := range opts.Jobs {
		g.Go(func() error {
			found, err := runJob(gctx, job, opts.Items, opts.WithDocs, log.WithField("scope", job.Scope))
			if err != nil {
				return fmt.Errorf("%s reports: %w", job.Scope, err)
			}
			results[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []finding.Finding
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

func runJob(ctx context.Context, job Job, items []lint.Item, withDocs bool, log logrus.FieldLogger) (_ []finding.Finding, err error) {
	w, err := report.Create(job.OutputDir, job.Scope, withDocs)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	resolved := job.Manifest.Resolve()
	scopeLog := log.WithFields(logrus.Fields{
		"declared": resolved != nil && resolved.Declared,
		"keys":     resolved.Keys(),
	})
	if ws := job.Manifest.Workspace(); job.Manifest != nil && job.Manifest.InheritsWorkspace && ws != nil {
		scopeLog = scopeLog.WithField("inherits", ws.File)
	}
	scopeLog.Debug("classifying against scope")

	var found []finding.Finding
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		verdict := classify.Classify(item, job.Manifest)
		for _, cat := range classify.Categories(item, verdict) {
			f, err := w.Write(cat, item)
			if err != nil {
				return nil, err
			}
			if cat == finding.Unnecessary {
				log.WithFields(logrus.Fields{
					"lint":       item.ID,
					"default":    item.Level,
					"configured": configuredLevel(resolved, item),
				}).Debug("lint configured although enabled by default")
			}
			found = append(found, f)
		}
	}

	log.WithField("findings", len(found)).Info("reports written")
	return found, nil
}

// configuredLevel is the level set for item by id, falling back to its group.
func configuredLevel(s *manifest.Scope, item lint.Item) string {
	if lvl, ok := s.Level(item.ID); ok {
		return lvl
	}
	lvl, _ := s.Level(item.Group)
	return lvl
}
