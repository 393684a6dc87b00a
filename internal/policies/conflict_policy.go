package policies

import (
	"context"

	"github.com/rs/zerolog/log"

	"assetdep/internal/types"
)

// ValidateMatches splits matched references into those safe to resolve and
// those mirrored by an excluded reference with the same consumer and
// platform. Conflicted references keep their index entries and are retried
// on every subsequent matching event; they stay broken until the declaring
// asset is edited to drop the contradiction.
func ValidateMatches(ctx context.Context, matched, excluded []*types.PendingReference) (clean, conflicts []*types.PendingReference) {
	type owner struct {
		consumer int64
		platform string
	}
	excludedBy := make(map[owner]*types.PendingReference, len(excluded))
	for _, ref := range excluded {
		excludedBy[owner{ref.ConsumerProductID, ref.Platform}] = ref
	}

	for _, ref := range matched {
		mirror, ok := excludedBy[owner{ref.ConsumerProductID, ref.Platform}]
		if !ok {
			ref.Status = types.ReferenceStatusPending
			clean = append(clean, ref)
			continue
		}
		ref.Status = types.ReferenceStatusConflicted
		conflicts = append(conflicts, ref)
		log.Ctx(ctx).Error().
			Int64("consumer_product_id", ref.ConsumerProductID).
			Str("platform", ref.Platform).
			Str("path", ref.Key).
			Str("excluded_by", mirror.Key).
			Msg("dependency declaration conflicts with an exclusion; left pending")
	}
	return clean, conflicts
}
