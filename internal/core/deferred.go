package core

import (
	"context"

	"github.com/rs/zerolog/log"

	"assetdep/internal/policies"
	"assetdep/internal/ports"
	"assetdep/internal/shared"
	"assetdep/internal/types"
)

// DeferredMatcher reacts to pipeline events, scanning the index for
// pending references satisfied by a newly-finished product or source.
type DeferredMatcher struct {
	Store      ports.DependencyStore
	Index      *ResolutionIndex
	Normalizer Normalizer
	Bridge     *Bridge
}

func NewDeferredMatcher(store ports.DependencyStore, index *ResolutionIndex, normalizer Normalizer, bridge *Bridge) DeferredMatcher {
	return DeferredMatcher{
		Store:      store,
		Index:      index,
		Normalizer: normalizer,
		Bridge:     bridge,
	}
}

// OnProductFinished matches every stored pattern against a product that
// just finished compiling: product partitions against the product's
// platform-stripped key, source partitions against the owning source's
// own name. Survivors of conflict validation are committed against the
// new product.
func (m DeferredMatcher) OnProductFinished(ctx context.Context, source types.SourceEntry, product types.ProductEntry) error {
	productKey := m.Normalizer.ProductKey(product.Name)
	sourceKey := shared.SanitizePath(source.Name)

	var matched, excluded []*types.PendingReference
	matched = m.collectWildcard(types.DependencyTypeProduct, types.PolarityInclude, productKey, matched)
	excluded = m.collectWildcard(types.DependencyTypeProduct, types.PolarityExclude, productKey, excluded)
	matched = m.collectWildcard(types.DependencyTypeSource, types.PolarityInclude, sourceKey, matched)
	excluded = m.collectWildcard(types.DependencyTypeSource, types.PolarityExclude, sourceKey, excluded)

	matched = append(matched, m.exactProductRefs(types.PolarityInclude, productKey)...)
	excluded = append(excluded, m.exactProductRefs(types.PolarityExclude, productKey)...)
	matched = append(matched, m.exactSourceRefs(types.PolarityInclude, source, sourceKey)...)
	excluded = append(excluded, m.exactSourceRefs(types.PolarityExclude, source, sourceKey)...)

	clean, conflicts := policies.ValidateMatches(ctx, dedupRefs(matched), dedupRefs(excluded))
	log.Ctx(ctx).Debug().
		Str("product", productKey).
		Int("matched", len(clean)).
		Int("conflicts", len(conflicts)).
		Msg("deferred match on product finish")
	if len(clean) == 0 {
		return nil
	}
	return m.Bridge.CommitResolved(ctx, clean, []types.ProductEntry{product})
}

// OnRetry re-attempts exact pending references keyed by a source's own
// name and by each of its already-compiled products' names. Every hit
// resolves against all products the source has produced so far for the
// reference's recorded platform; references whose platform has produced
// nothing yet stay pending.
func (m DeferredMatcher) OnRetry(ctx context.Context, source types.SourceEntry) error {
	products, err := m.Store.ListProductsBySource(ctx, source.Guid, "")
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).
			Str("source", source.Name).
			Msg("product listing failed; retry deferred")
		return err
	}

	sourceKey := shared.SanitizePath(source.Name)
	var matched, excluded []*types.PendingReference
	matched = append(matched, m.exactSourceRefs(types.PolarityInclude, source, sourceKey)...)
	excluded = append(excluded, m.exactSourceRefs(types.PolarityExclude, source, sourceKey)...)
	for _, product := range products {
		productKey := m.Normalizer.ProductKey(product.Name)
		matched = append(matched, m.exactProductRefs(types.PolarityInclude, productKey)...)
		excluded = append(excluded, m.exactProductRefs(types.PolarityExclude, productKey)...)
	}

	clean, _ := policies.ValidateMatches(ctx, dedupRefs(matched), dedupRefs(excluded))
	if len(clean) == 0 {
		return nil
	}
	return m.Bridge.CommitResolved(ctx, clean, products)
}

func (m DeferredMatcher) collectWildcard(depType types.DependencyType, polarity types.Polarity, key string, into []*types.PendingReference) []*types.PendingReference {
	m.Index.EachWildcard(depType, polarity, func(pattern string, refs []*types.PendingReference) bool {
		if LikeMatch(pattern, key) {
			into = append(into, refs...)
		}
		return true
	})
	return into
}

func (m DeferredMatcher) exactProductRefs(polarity types.Polarity, key string) []*types.PendingReference {
	partition := types.Partition{Type: types.DependencyTypeProduct, Mode: types.MatchModeExact, Polarity: polarity}
	return m.Index.Lookup(partition, key)
}

// exactSourceRefs tries both source exact key forms: the
// scan-folder-prefixed one first, then the plain relative name.
func (m DeferredMatcher) exactSourceRefs(polarity types.Polarity, source types.SourceEntry, sourceKey string) []*types.PendingReference {
	partition := types.Partition{Type: types.DependencyTypeSource, Mode: types.MatchModeExact, Polarity: polarity}
	var out []*types.PendingReference
	out = append(out, m.Index.Lookup(partition, ScanFolderKey(source.ScanFolderID, sourceKey))...)
	out = append(out, m.Index.Lookup(partition, sourceKey)...)
	return out
}

func dedupRefs(refs []*types.PendingReference) []*types.PendingReference {
	seen := make(map[*types.PendingReference]struct{}, len(refs))
	out := refs[:0]
	for _, ref := range refs {
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	return out
}
