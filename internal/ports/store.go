package ports

import (
	"context"

	"github.com/google/uuid"

	"assetdep/internal/types"
)

// DependencyStore is the relational persistence collaborator. Like-name
// lookups take a normalized key containing '*' wildcards; implementations
// translate to their own pattern syntax.
type DependencyStore interface {
	GetUnresolvedDependencies(ctx context.Context) ([]types.DependencyRow, error)
	UpsertDependencyRows(ctx context.Context, rows []types.DependencyRow) ([]int64, error)
	DeleteDependencyRows(ctx context.Context, rowIDs []int64) error

	FindProductsByExactName(ctx context.Context, name string) ([]types.ProductEntry, error)
	FindProductsLikeName(ctx context.Context, pattern string) ([]types.ProductEntry, error)
	FindSourcesByExactName(ctx context.Context, name string, scanFolderID int64) ([]types.SourceEntry, error)
	FindSourcesLikeName(ctx context.Context, pattern string) ([]types.SourceEntry, error)
	ListProductsBySource(ctx context.Context, sourceGuid uuid.UUID, platform string) ([]types.ProductEntry, error)
	GetJobPlatform(ctx context.Context, jobID int64) (string, error)
}
