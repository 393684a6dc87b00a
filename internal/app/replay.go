package app

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"assetdep/internal/adapters"
	"assetdep/internal/types"
)

type ReplaySummary struct {
	Events            int
	ImmediateResolved []types.ResolvedDependency
	Conflicts         []types.DeclarationConflict
	PendingAfter      int
}

// Replay drives a recorded journal of pipeline events through the
// resolver, seeding the store with each asset the journal produces before
// handing the event to the matcher, the way a live pipeline writes its
// job output before asking for resolution.
func (s *Service) Replay(ctx context.Context, journal adapters.JournalFile, seeder adapters.AssetSeeder) (ReplaySummary, error) {
	summary := ReplaySummary{}
	for i, event := range journal.Events {
		if err := s.replayEvent(ctx, event, seeder, &summary); err != nil {
			return summary, errbuilder.New().
				WithCode(errbuilder.CodeOf(err)).
				WithMsg(fmt.Sprintf("journal event %d (%s) failed", i, event.Kind)).
				WithCause(err)
		}
		summary.Events++
	}
	summary.PendingAfter = s.Index.Len()
	log.Ctx(ctx).Info().
		Int("events", summary.Events).
		Int("pending", summary.PendingAfter).
		Msg("journal replay completed")
	return summary, nil
}

func (s *Service) replayEvent(ctx context.Context, event types.JournalEvent, seeder adapters.AssetSeeder, summary *ReplaySummary) error {
	switch event.Kind {
	case types.JournalEventCompiled:
		result, err := s.ResolveCompiled(ctx, event.Declarations, event.Platform, event.ConsumerProductID)
		if err != nil {
			return err
		}
		summary.ImmediateResolved = append(summary.ImmediateResolved, result.Resolved...)
		summary.Conflicts = append(summary.Conflicts, result.Conflicts...)
		return nil
	case types.JournalEventProductFinished:
		if err := seeder.SeedSource(ctx, event.Source()); err != nil {
			return err
		}
		if err := seeder.SeedProduct(ctx, event.Product()); err != nil {
			return err
		}
		return s.OnProductFinished(ctx, event.Source(), event.Product())
	case types.JournalEventSourceRetry:
		if err := seeder.SeedSource(ctx, event.Source()); err != nil {
			return err
		}
		return s.OnRetry(ctx, event.Source())
	case types.JournalEventReprocess:
		return s.ReprocessConsumer(ctx, event.ConsumerProductID)
	default:
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unknown journal event kind: %s", event.Kind))
	}
}
