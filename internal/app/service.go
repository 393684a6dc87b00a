package app

import (
	"context"

	assert "github.com/ZanzyTHEbar/assert-lib"

	"assetdep/internal/core"
	"assetdep/internal/ports"
	"assetdep/internal/types"
)

// Service wires the resolver cores to their collaborators and exposes the
// entry points the build pipeline drives. All entry points expect
// serialized delivery; see the index's concurrency note.
type Service struct {
	Store       ports.DependencyStore
	ScanFolders ports.ScanFolders
	Notifier    ports.Notifier

	Index     *core.ResolutionIndex
	Immediate core.ImmediateResolver
	Matcher   core.DeferredMatcher
	Bridge    *core.Bridge

	cfg types.Config
}

func NewService(cfg types.Config, store ports.DependencyStore, scanFolders ports.ScanFolders, notifier ports.Notifier) *Service {
	normalizer := core.NewNormalizer(scanFolders, cfg.ProjectName, cfg.Platforms)
	index := core.NewResolutionIndex()
	bridge := core.NewBridge(store, index, normalizer, notifier)
	return &Service{
		Store:       store,
		ScanFolders: scanFolders,
		Notifier:    notifier,
		Index:       index,
		Immediate:   core.NewImmediateResolver(store, normalizer),
		Matcher:     core.NewDeferredMatcher(store, index, normalizer, bridge),
		Bridge:      bridge,
		cfg:         cfg,
	}
}

// Start loads persisted unresolved rows into the index.
func (s *Service) Start(ctx context.Context) error {
	assert.NotEmpty(ctx, s.cfg.ProjectName, "project_name must be configured")
	return s.Bridge.LoadPending(ctx)
}

// ResolveCompiled runs immediate resolution for a freshly-compiled
// product and persists whatever stayed pending. Immediately-resolved
// dependencies are returned to the pipeline, which stores them with the
// rest of the job's output.
func (s *Service) ResolveCompiled(ctx context.Context, declarations []types.PathDeclaration, platform string, consumerProductID int64) (core.ImmediateResult, error) {
	result := s.Immediate.Resolve(ctx, declarations, platform, consumerProductID)
	err := s.Bridge.SaveUnresolved(ctx, result.Pending, consumerProductID, platform)
	return result, err
}

func (s *Service) OnProductFinished(ctx context.Context, source types.SourceEntry, product types.ProductEntry) error {
	return s.Matcher.OnProductFinished(ctx, source, product)
}

func (s *Service) OnRetry(ctx context.Context, source types.SourceEntry) error {
	return s.Matcher.OnRetry(ctx, source)
}

func (s *Service) RemoveUnresolvedProductDependencies(ctx context.Context, rows []types.DependencyRow) error {
	return s.Bridge.RemoveUnresolvedProductDependencies(ctx, rows)
}

// ReprocessConsumer clears every pending row owned by a consumer product,
// called before its job is rerun.
func (s *Service) ReprocessConsumer(ctx context.Context, consumerProductID int64) error {
	rows, err := s.Store.GetUnresolvedDependencies(ctx)
	if err != nil {
		return err
	}
	var owned []types.DependencyRow
	for _, row := range rows {
		if row.ConsumerProductID == consumerProductID {
			owned = append(owned, row)
		}
	}
	return s.Bridge.RemoveUnresolvedProductDependencies(ctx, owned)
}

// PendingReferences snapshots the index for diagnostics.
func (s *Service) PendingReferences() []*types.PendingReference {
	return s.Index.All()
}
