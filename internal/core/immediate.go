package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"assetdep/internal/ports"
	"assetdep/internal/shared"
	"assetdep/internal/types"
)

// rasterSourceExtensions are formats pipelines routinely declare as
// product paths when they mean the authored image. Such declarations are
// reclassified as source dependencies before any lookup is attempted.
var rasterSourceExtensions = map[string]struct{}{
	".tif": {}, ".tiff": {}, ".bmp": {}, ".gif": {},
	".jpg": {}, ".jpeg": {}, ".tga": {}, ".png": {},
}

// ImmediateResolver attempts synchronous resolution of a freshly-compiled
// product's declared dependencies against already-known assets. It issues
// read queries only; all persistent mutation belongs to the Bridge.
type ImmediateResolver struct {
	Store      ports.DependencyStore
	Normalizer Normalizer
}

func NewImmediateResolver(store ports.DependencyStore, normalizer Normalizer) ImmediateResolver {
	return ImmediateResolver{Store: store, Normalizer: normalizer}
}

type ImmediateResult struct {
	Resolved  []types.ResolvedDependency
	Pending   []types.PathDeclaration
	Conflicts []types.DeclarationConflict
}

type dependeeKey struct {
	guid     uuid.UUID
	subID    int32
	platform string
}

func (r ImmediateResolver) Resolve(ctx context.Context, declarations []types.PathDeclaration, platform string, consumerProductID int64) ImmediateResult {
	result := ImmediateResult{}

	conflicted := r.markMirrorConflicts(ctx, declarations, &result)

	excludedDependees := map[dependeeKey]struct{}{}
	var resolved []resolvedCandidate

	for _, declaration := range declarations {
		if _, skip := conflicted[mirrorKey(declaration)]; skip {
			result.Pending = append(result.Pending, declaration)
			continue
		}
		declaration = reclassifyRasterSource(declaration)

		normalized, err := r.Normalizer.Normalize(declaration.Path, declaration.Type)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).
				Int64("consumer_product_id", consumerProductID).
				Str("path", declaration.Path).
				Msg("dropping malformed dependency declaration")
			continue
		}

		matches, err := r.queryMatches(ctx, normalized, platform)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).
				Str("path", normalized.Key).
				Msg("dependency lookup failed; deferring")
			result.Pending = append(result.Pending, declaration)
			continue
		}

		if normalized.Polarity == types.PolarityExclude {
			// An explicit exclusion always wins once matched, and the
			// declaration itself lives on for future products.
			for _, match := range matches {
				excludedDependees[match] = struct{}{}
			}
			result.Pending = append(result.Pending, declaration)
			continue
		}

		for _, match := range matches {
			resolved = append(resolved, resolvedCandidate{dependee: match})
		}
		switch {
		case normalized.Mode == types.MatchModeWildcard:
			// Wildcards stay live for products that do not exist yet.
			result.Pending = append(result.Pending, declaration)
		case len(matches) == 0:
			result.Pending = append(result.Pending, declaration)
		}
	}

	for _, candidate := range resolved {
		if _, excluded := excludedDependees[candidate.dependee]; excluded {
			continue
		}
		result.Resolved = append(result.Resolved, types.ResolvedDependency{
			ConsumerProductID:  consumerProductID,
			DependeeSourceGuid: candidate.dependee.guid,
			DependeeSubID:      candidate.dependee.subID,
			Platform:           candidate.dependee.platform,
		})
	}

	log.Ctx(ctx).Debug().
		Int64("consumer_product_id", consumerProductID).
		Int("resolved", len(result.Resolved)).
		Int("pending", len(result.Pending)).
		Int("conflicts", len(result.Conflicts)).
		Msg("immediate resolution completed")
	return result
}

type resolvedCandidate struct {
	dependee dependeeKey
}

// markMirrorConflicts finds paths declared both included and excluded with
// the same type inside one declaration set. Both sides are left pending
// untouched and no lookup is ever attempted for them.
func (r ImmediateResolver) markMirrorConflicts(ctx context.Context, declarations []types.PathDeclaration, result *ImmediateResult) map[string]struct{} {
	include := map[string]struct{}{}
	exclude := map[string]struct{}{}
	for _, declaration := range declarations {
		key := mirrorKey(declaration)
		if strings.HasPrefix(strings.TrimSpace(declaration.Path), ExclusionMarker) {
			exclude[key] = struct{}{}
		} else {
			include[key] = struct{}{}
		}
	}
	conflicted := map[string]struct{}{}
	for key := range include {
		if _, ok := exclude[key]; !ok {
			continue
		}
		conflicted[key] = struct{}{}
		parts := strings.SplitN(key, "|", 2)
		result.Conflicts = append(result.Conflicts, types.DeclarationConflict{
			Path: parts[1],
			Type: types.DependencyType(parts[0]),
		})
		log.Ctx(ctx).Error().
			Str("path", parts[1]).
			Str("type", parts[0]).
			Msg("dependency declared both included and excluded in the same set")
	}
	return conflicted
}

func (r ImmediateResolver) queryMatches(ctx context.Context, normalized types.NormalizedKey, platform string) ([]dependeeKey, error) {
	if normalized.Mode == types.MatchModeWildcard {
		return r.queryWildcard(ctx, normalized, platform)
	}
	if normalized.Type == types.DependencyTypeSource {
		return r.querySourceExact(ctx, normalized, platform)
	}
	return r.queryProductExact(ctx, normalized)
}

func (r ImmediateResolver) queryProductExact(ctx context.Context, normalized types.NormalizedKey) ([]dependeeKey, error) {
	products, err := r.Store.FindProductsByExactName(ctx, normalized.Key)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, nil
	}
	if len(products) > 1 {
		// Sibling platform outputs may not have finished compiling yet, so
		// multiple hits are indeterminate: first match wins.
		log.Ctx(ctx).Debug().
			Str("path", normalized.Key).
			Int("hits", len(products)).
			Msg("multiple products match exact name; taking first")
	}
	first := products[0]
	return []dependeeKey{{guid: first.SourceGuid, subID: first.SubID, platform: first.Platform}}, nil
}

func (r ImmediateResolver) querySourceExact(ctx context.Context, normalized types.NormalizedKey, platform string) ([]dependeeKey, error) {
	sources, err := r.lookupSources(ctx, normalized)
	if err != nil {
		return nil, err
	}
	var matches []dependeeKey
	for _, source := range sources {
		products, err := r.Store.ListProductsBySource(ctx, source.Guid, platform)
		if err != nil {
			return nil, err
		}
		for _, product := range products {
			matches = append(matches, dependeeKey{guid: product.SourceGuid, subID: product.SubID, platform: product.Platform})
		}
	}
	return matches, nil
}

// lookupSources tries the scan-folder-prefixed key first, then falls back
// to the plain key across all scan folders.
func (r ImmediateResolver) lookupSources(ctx context.Context, normalized types.NormalizedKey) ([]types.SourceEntry, error) {
	if normalized.ScanFolderKey != "" {
		scanFolderID, relative, ok := SplitScanFolderKey(normalized.ScanFolderKey)
		if ok {
			sources, err := r.Store.FindSourcesByExactName(ctx, relative, scanFolderID)
			if err != nil {
				return nil, err
			}
			if len(sources) > 0 {
				return sources, nil
			}
		}
	}
	return r.Store.FindSourcesByExactName(ctx, normalized.Key, 0)
}

func (r ImmediateResolver) queryWildcard(ctx context.Context, normalized types.NormalizedKey, platform string) ([]dependeeKey, error) {
	if normalized.Type == types.DependencyTypeProduct {
		products, err := r.Store.FindProductsLikeName(ctx, normalized.Key)
		if err != nil {
			return nil, err
		}
		var matches []dependeeKey
		for _, product := range products {
			matches = append(matches, dependeeKey{guid: product.SourceGuid, subID: product.SubID, platform: product.Platform})
		}
		return matches, nil
	}
	sources, err := r.Store.FindSourcesLikeName(ctx, normalized.Key)
	if err != nil {
		return nil, err
	}
	var matches []dependeeKey
	for _, source := range sources {
		products, err := r.Store.ListProductsBySource(ctx, source.Guid, platform)
		if err != nil {
			return nil, err
		}
		for _, product := range products {
			matches = append(matches, dependeeKey{guid: product.SourceGuid, subID: product.SubID, platform: product.Platform})
		}
	}
	return matches, nil
}

func reclassifyRasterSource(declaration types.PathDeclaration) types.PathDeclaration {
	if declaration.Type != types.DependencyTypeProduct {
		return declaration
	}
	if _, ok := rasterSourceExtensions[shared.Extension(declaration.Path)]; ok {
		declaration.Type = types.DependencyTypeSource
	}
	return declaration
}

func mirrorKey(declaration types.PathDeclaration) string {
	declaration = reclassifyRasterSource(declaration)
	path := strings.TrimSpace(declaration.Path)
	path = strings.TrimPrefix(path, ExclusionMarker)
	return fmt.Sprintf("%s|%s", declaration.Type, shared.SanitizePath(path))
}
