package adapters

import (
	"context"
	"fmt"
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"assetdep/internal/types"
)

// AssetSeeder records pipeline-produced assets so lookups can find them.
// Both store adapters implement it.
type AssetSeeder interface {
	SeedSource(ctx context.Context, source types.SourceEntry) error
	SeedProduct(ctx context.Context, product types.ProductEntry) error
	SeedJob(ctx context.Context, jobID int64, platform string) error
}

// JournalFile is a yaml recording of build pipeline events, replayed
// through the resolver in place of a live pipeline.
type JournalFile struct {
	Events []types.JournalEvent `yaml:"events"`
}

func LoadJournal(path string) (JournalFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return JournalFile{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("journal file not found").
			WithCause(err)
	}
	var journal JournalFile
	if err := yaml.Unmarshal(data, &journal); err != nil {
		return JournalFile{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid journal format").
			WithCause(err)
	}
	for i, event := range journal.Events {
		if event.SourceGuid == "" {
			continue
		}
		if _, err := uuid.Parse(event.SourceGuid); err != nil {
			return JournalFile{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("journal event %d has an invalid source guid", i)).
				WithCause(err)
		}
	}
	return journal, nil
}
