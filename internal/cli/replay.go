package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"assetdep/internal/adapters"
	"assetdep/internal/app"
	"assetdep/internal/core"
	"assetdep/internal/events"
	"assetdep/internal/ports"
	"assetdep/internal/types"
)

type replayOptions struct {
	Journal string
}

func newReplayCommand() *cobra.Command {
	opts := replayOptions{}
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a recorded journal of build events through the resolver",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReplay(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Journal, "journal", "journal.yaml", "Build event journal file")
	return cmd
}

func runReplay(cmd *cobra.Command, opts replayOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	journal, err := adapters.LoadJournal(opts.Journal)
	if err != nil {
		return err
	}
	store, seeder, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}

	bus := events.NewBus()
	var committed []types.ResolvedDependency
	bus.Subscribe(func(resolved types.ResolvedDependency) {
		committed = append(committed, resolved)
	})

	service := app.NewService(cfg, store, adapters.NewScanFolderAdapter(cfg.ScanFolders), bus)
	if err := service.Start(cmd.Context()); err != nil {
		return err
	}
	summary, err := service.Replay(cmd.Context(), journal, seeder)
	if err != nil {
		return err
	}

	fmt.Printf("events replayed: %d\n", summary.Events)
	fmt.Printf("resolved at compile time: %d\n", len(summary.ImmediateResolved))
	fmt.Printf("resolved by deferred matching: %d\n", len(committed))
	for _, resolved := range committed {
		fmt.Printf("- consumer %d -> %s:%d (%s)\n",
			resolved.ConsumerProductID, resolved.DependeeSourceGuid, resolved.DependeeSubID, resolved.Platform)
	}
	if len(summary.Conflicts) > 0 {
		fmt.Println("contradictory declarations:")
		for _, conflict := range summary.Conflicts {
			fmt.Printf("- %s (%s)\n", conflict.Path, conflict.Type)
		}
	}
	fmt.Printf("still pending: %d\n", summary.PendingAfter)
	return nil
}

func openStore(cmd *cobra.Command, cfg types.Config) (ports.DependencyStore, adapters.AssetSeeder, error) {
	normalizer := core.NewNormalizer(adapters.NewScanFolderAdapter(cfg.ScanFolders), cfg.ProjectName, cfg.Platforms)
	if cfg.DatabaseDSN == "" {
		store := adapters.NewMemoryStore(normalizer)
		return store, store, nil
	}
	store, err := adapters.OpenPostgresStore(cmd.Context(), cfg.DatabaseDSN, normalizer)
	if err != nil {
		return nil, nil, err
	}
	if err := store.EnsureSchema(cmd.Context()); err != nil {
		return nil, nil, err
	}
	return store, store, nil
}
