package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"assetdep/internal/adapters"
	"assetdep/internal/app"
	"assetdep/internal/events"
	"assetdep/internal/types"
)

func newInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show pending path dependencies grouped by partition",
		RunE:  runInspect,
	}
	return cmd
}

func runInspect(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, _, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}

	service := app.NewService(cfg, store, adapters.NewScanFolderAdapter(cfg.ScanFolders), events.NewBus())
	if err := service.Start(cmd.Context()); err != nil {
		return err
	}

	pending := service.PendingReferences()
	fmt.Printf("pending references: %d\n", len(pending))
	for _, ref := range pending {
		marker := ""
		if ref.Status == types.ReferenceStatusConflicted {
			marker = " [conflicted]"
		}
		fmt.Printf("- %s %s/%s %q consumer=%d platform=%s row=%d%s\n",
			ref.Type, ref.Mode, ref.Polarity, ref.Key,
			ref.ConsumerProductID, ref.Platform, ref.RowID, marker)
	}
	return nil
}
