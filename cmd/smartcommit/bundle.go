package main

import (
	"context"
	"path/filepath"

	"smartcommit/internal/apply"
	"smartcommit/internal/ask"
	"smartcommit/internal/gitx"
	"smartcommit/internal/logging"
	"smartcommit/internal/model"
	"smartcommit/internal/planner"
	"smartcommit/internal/scan"
	"smartcommit/internal/scope"
	"smartcommit/internal/secrets"
	"smartcommit/internal/store"
	"smartcommit/internal/types"
)

// bundle is the capability set every command operates on, built once per
// invocation and passed explicitly.
type bundle struct {
	resolver *scope.Resolver
	scanner  *scan.Scanner
	detector *secrets.Detector
	client   model.Client // nil when no model is configured
	store    *store.Store
	root     *gitx.Runner // runner at the workspace root
}

func newBundle() (*bundle, error) {
	resolver := scope.NewResolver(workspace)
	scanner := scan.NewScanner(resolver, func(dir string) scan.Repo {
		return gitx.NewRunner(dir)
	}, logging.For(logger, logging.CategoryScan))

	detector := secrets.NewDetector(logging.For(logger, logging.CategorySecrets))
	if err := detector.LoadUserPatterns(filepath.Join(workspace, cfg.Secrets.PatternsFile)); err != nil {
		return nil, err
	}

	client, err := model.New(cfg)
	if err != nil {
		return nil, err
	}

	return &bundle{
		resolver: resolver,
		scanner:  scanner,
		detector: detector,
		client:   client,
		store:    store.NewStore(workspace, logging.For(logger, logging.CategoryStore)),
		root:     gitx.NewRunner(workspace),
	}, nil
}

func (b *bundle) generator(ctx context.Context) (*planner.Generator, error) {
	branch, err := b.root.CurrentBranch(ctx)
	if err != nil {
		branch = ""
	}
	return planner.NewGenerator(planner.Deps{
		Scanner: b.scanner,
		Secrets: b.detector,
		Model:   b.client,
		Subjects: func(ctx context.Context) ([]string, error) {
			return b.root.RecentSubjects(ctx, 10)
		},
		Branch:    branch,
		Workspace: workspace,
		Attempts:  cfg.Model.MaxAttempts,
		Log:       logger,
	}), nil
}

func (b *bundle) applier() *apply.Applier {
	return apply.NewApplier(b.resolver, func(dir string) apply.Repo {
		return gitx.NewRunner(dir)
	}, logger)
}

func (b *bundle) confirmer(autoConfirm bool) types.Confirmer {
	if autoConfirm {
		return ask.AutoConfirm(true)
	}
	return ask.NewInteractor()
}
