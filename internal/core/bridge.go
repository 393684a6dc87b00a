package core

import (
	"context"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"assetdep/internal/ports"
	"assetdep/internal/types"
)

// Bridge moves pending references between the in-memory index and the
// persistence layer. Every write path leaves the index untouched on a
// store failure, so the next triggering event retries the same work:
// resolution is at-least-once and row reuse keeps it idempotent.
type Bridge struct {
	Store      ports.DependencyStore
	Index      *ResolutionIndex
	Normalizer Normalizer
	Notifier   ports.Notifier
}

func NewBridge(store ports.DependencyStore, index *ResolutionIndex, normalizer Normalizer, notifier ports.Notifier) *Bridge {
	return &Bridge{
		Store:      store,
		Index:      index,
		Normalizer: normalizer,
		Notifier:   notifier,
	}
}

// LoadPending rebuilds the index from persisted unresolved rows at
// startup. Rows whose stored path no longer normalizes are logged and
// skipped, never retried.
func (b *Bridge) LoadPending(ctx context.Context) error {
	rows, err := b.Store.GetUnresolvedDependencies(ctx)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to load unresolved dependencies").
			WithCause(err)
	}
	loaded := 0
	for _, row := range rows {
		if row.UnresolvedPath == "" {
			continue
		}
		normalized, err := b.Normalizer.Normalize(row.UnresolvedPath, row.Type)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).
				Int64("row_id", row.RowID).
				Str("path", row.UnresolvedPath).
				Msg("skipping unresolved row with malformed path")
			continue
		}
		ref := &types.PendingReference{
			ConsumerProductID: row.ConsumerProductID,
			Platform:          row.Platform,
			RowID:             row.RowID,
			Key:               normalized.IndexKey(),
			Type:              normalized.Type,
			Mode:              normalized.Mode,
			Polarity:          normalized.Polarity,
			Status:            types.ReferenceStatusPending,
		}
		if b.Index.Insert(ref) {
			loaded++
		}
	}
	log.Ctx(ctx).Info().Int("pending", loaded).Msg("pending dependency index loaded")
	return nil
}

// SaveUnresolved writes one placeholder row per still-pending declaration
// and mirrors the row ids back into the index. An identical
// (consumer, path) pair from a prior run of the same job is replaced, not
// duplicated.
func (b *Bridge) SaveUnresolved(ctx context.Context, declarations []types.PathDeclaration, consumerProductID int64, platform string) error {
	type write struct {
		ref *types.PendingReference
		old *types.PendingReference
	}
	var rows []types.DependencyRow
	var writes []write
	for _, declaration := range declarations {
		normalized, err := b.Normalizer.Normalize(declaration.Path, declaration.Type)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).
				Str("path", declaration.Path).
				Msg("not persisting malformed dependency declaration")
			continue
		}
		ref := &types.PendingReference{
			ConsumerProductID: consumerProductID,
			Platform:          platform,
			Key:               normalized.IndexKey(),
			Type:              normalized.Type,
			Mode:              normalized.Mode,
			Polarity:          normalized.Polarity,
			Status:            types.ReferenceStatusPending,
		}
		old := b.Index.Find(ref.Partition(), ref.Key, consumerProductID, platform)
		var rowID int64
		if old != nil {
			rowID = old.RowID
		}
		// The stored path keeps the exclusion marker so polarity survives
		// a reload.
		storedPath := normalized.Key
		if normalized.Polarity == types.PolarityExclude {
			storedPath = ExclusionMarker + storedPath
		}
		rows = append(rows, types.DependencyRow{
			RowID:             rowID,
			ConsumerProductID: consumerProductID,
			Platform:          platform,
			UnresolvedPath:    storedPath,
			Type:              normalized.Type,
		})
		writes = append(writes, write{ref: ref, old: old})
	}
	if len(rows) == 0 {
		return nil
	}

	ids, err := b.Store.UpsertDependencyRows(ctx, rows)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).
			Int64("consumer_product_id", consumerProductID).
			Msg("failed to persist unresolved dependencies; will retry on next event")
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to persist unresolved dependencies").
			WithCause(err)
	}
	for i, w := range writes {
		w.ref.RowID = ids[i]
		if w.old != nil {
			b.Index.Remove(w.old)
		}
		b.Index.Insert(w.ref)
	}
	log.Ctx(ctx).Debug().
		Int64("consumer_product_id", consumerProductID).
		Int("saved", len(writes)).
		Msg("unresolved dependencies persisted")
	return nil
}

// CommitResolved writes dependee identifiers into pending rows for every
// reference whose platform one of the dependee products matches. The
// first resolution of an exact reference updates its placeholder row in
// place; each additional sibling product gets a newly allocated row.
// Wildcard matches always allocate fresh rows, leaving the placeholder
// row holding the pattern for reload. One notification is broadcast per
// committed row. Exact include references are removed from the index
// once committed; wildcard and excluded references stay live for future
// products.
func (b *Bridge) CommitResolved(ctx context.Context, refs []*types.PendingReference, dependees []types.ProductEntry) error {
	type commit struct {
		ref *types.PendingReference
		row types.DependencyRow
	}
	var commits []commit
	var dropped []*types.PendingReference

refs:
	for _, ref := range refs {
		// Wildcard references keep their placeholder row so the pattern
		// survives an index reload; only exact references spend theirs on
		// the first match.
		usedOriginal := ref.Claimed || ref.Mode == types.MatchModeWildcard
		for _, dependee := range dependees {
			if dependee.Platform != ref.Platform {
				continue
			}
			if dependee.JobID != 0 {
				if _, err := b.Store.GetJobPlatform(ctx, dependee.JobID); err != nil {
					if errbuilder.CodeOf(err) == errbuilder.CodeNotFound {
						log.Ctx(ctx).Warn().
							Int64("job_id", dependee.JobID).
							Str("path", ref.Key).
							Msg("dependee job no longer exists; dropping reference")
						dropped = append(dropped, ref)
						continue refs
					}
					log.Ctx(ctx).Warn().Err(err).
						Int64("job_id", dependee.JobID).
						Msg("job platform lookup failed; deferring commit")
					continue
				}
			}
			var rowID int64
			if !usedOriginal {
				rowID = ref.RowID
				usedOriginal = true
			}
			commits = append(commits, commit{
				ref: ref,
				row: types.DependencyRow{
					RowID:              rowID,
					ConsumerProductID:  ref.ConsumerProductID,
					DependeeSourceGuid: dependee.SourceGuid,
					DependeeSubID:      dependee.SubID,
					Platform:           ref.Platform,
					Type:               ref.Type,
				},
			})
		}
	}

	if len(commits) > 0 {
		rows := make([]types.DependencyRow, len(commits))
		for i, c := range commits {
			rows[i] = c.row
		}
		if _, err := b.Store.UpsertDependencyRows(ctx, rows); err != nil {
			log.Ctx(ctx).Error().Err(err).
				Int("rows", len(rows)).
				Msg("failed to commit resolved dependencies; will retry on next event")
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to commit resolved dependencies").
				WithCause(err)
		}
		committed := map[*types.PendingReference]int{}
		for _, c := range commits {
			c.ref.Claimed = true
			committed[c.ref]++
			if b.Notifier != nil {
				b.Notifier.DependencyResolved(types.ResolvedDependency{
					ConsumerProductID:  c.row.ConsumerProductID,
					DependeeSourceGuid: c.row.DependeeSourceGuid,
					DependeeSubID:      c.row.DependeeSubID,
					Platform:           c.row.Platform,
				})
			}
		}
		for ref := range committed {
			if ref.Mode == types.MatchModeExact && ref.Polarity == types.PolarityInclude {
				b.Index.Remove(ref)
			}
		}
		log.Ctx(ctx).Debug().Int("committed", len(commits)).Msg("resolved dependencies committed")
	}

	for _, ref := range dropped {
		b.Index.Remove(ref)
		if ref.RowID != 0 && !ref.Claimed {
			if err := b.Store.DeleteDependencyRows(ctx, []int64{ref.RowID}); err != nil {
				log.Ctx(ctx).Warn().Err(err).
					Int64("row_id", ref.RowID).
					Msg("failed to delete row for dropped reference")
			}
		}
	}
	return nil
}

// RemoveUnresolvedProductDependencies clears the given pending rows from
// the store and the index, called before a job is reprocessed.
func (b *Bridge) RemoveUnresolvedProductDependencies(ctx context.Context, rows []types.DependencyRow) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.RowID
	}
	if err := b.Store.DeleteDependencyRows(ctx, ids); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Int("rows", len(rows)).
			Msg("failed to remove unresolved dependency rows")
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to remove unresolved dependency rows").
			WithCause(err)
	}
	removed := b.Index.RemoveRows(rows)
	log.Ctx(ctx).Debug().Int("removed", removed).Msg("unresolved dependencies cleared for reprocess")
	return nil
}
