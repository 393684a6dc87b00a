package adapters

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"assetdep/internal/core"
	"assetdep/internal/types"
)

var saveGuid = uuid.MustParse("9a3c1d2e-0000-4b6f-8e21-000000000042")

func testMemoryStore() *MemoryStore {
	normalizer := core.NewNormalizer(
		NewScanFolderAdapter([]types.ScanFolderConfig{{ID: 7, Prefix: "editor"}}),
		"game",
		[]string{"pc", "ios"},
	)
	return NewMemoryStore(normalizer)
}

func TestMemoryStoreUpsertAllocatesRowIDs(t *testing.T) {
	store := testMemoryStore()
	ctx := t.Context()

	ids, err := store.UpsertDependencyRows(ctx, []types.DependencyRow{
		{ConsumerProductID: 1, UnresolvedPath: "a.cgf", Platform: "pc", Type: types.DependencyTypeProduct},
		{ConsumerProductID: 1, UnresolvedPath: "b.cgf", Platform: "pc", Type: types.DependencyTypeProduct},
	})
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, ids)

	// A nonzero row id updates in place.
	ids, err = store.UpsertDependencyRows(ctx, []types.DependencyRow{
		{RowID: 1, ConsumerProductID: 1, DependeeSourceGuid: saveGuid, Platform: "pc", Type: types.DependencyTypeProduct},
	})
	require.NoError(t, err)
	require.Equal(t, []int64{1}, ids)

	rows := store.Rows()
	require.Len(t, rows, 2)
	require.Equal(t, saveGuid, rows[0].DependeeSourceGuid)
	require.Empty(t, rows[0].UnresolvedPath)

	unresolved, err := store.GetUnresolvedDependencies(ctx)
	require.NoError(t, err)
	require.Len(t, unresolved, 1)
	require.Equal(t, int64(2), unresolved[0].RowID)
}

func TestMemoryStoreProductLookupUsesProductKey(t *testing.T) {
	store := testMemoryStore()
	ctx := t.Context()

	require.NoError(t, store.SeedProduct(ctx, types.ProductEntry{
		ProductID: 1, SourceGuid: saveGuid, Name: "pc/game/Textures/Rock.dds", Platform: "pc",
	}))

	// Callers query by the platform-stripped key.
	products, err := store.FindProductsByExactName(ctx, "textures/rock.dds")
	require.NoError(t, err)
	require.Len(t, products, 1)

	products, err = store.FindProductsLikeName(ctx, "textures/*.dds")
	require.NoError(t, err)
	require.Len(t, products, 1)

	products, err = store.FindProductsByExactName(ctx, "pc/game/textures/rock.dds")
	require.NoError(t, err)
	require.Empty(t, products)
}

func TestMemoryStoreSourceLookupScopedByScanFolder(t *testing.T) {
	store := testMemoryStore()
	ctx := t.Context()

	require.NoError(t, store.SeedSource(ctx, types.SourceEntry{Guid: saveGuid, Name: "Icons/Save.bmp", ScanFolderID: 7}))

	sources, err := store.FindSourcesByExactName(ctx, "icons/save.bmp", 7)
	require.NoError(t, err)
	require.Len(t, sources, 1)

	sources, err = store.FindSourcesByExactName(ctx, "icons/save.bmp", 8)
	require.NoError(t, err)
	require.Empty(t, sources)

	// Scan folder zero searches everywhere.
	sources, err = store.FindSourcesByExactName(ctx, "icons/save.bmp", 0)
	require.NoError(t, err)
	require.Len(t, sources, 1)
}

func TestMemoryStoreSeedProductRegistersJob(t *testing.T) {
	store := testMemoryStore()
	ctx := t.Context()

	require.NoError(t, store.SeedProduct(ctx, types.ProductEntry{
		ProductID: 1, SourceGuid: saveGuid, Name: "a.dds", Platform: "ios", JobID: 11,
	}))

	platform, err := store.GetJobPlatform(ctx, 11)
	require.NoError(t, err)
	require.Equal(t, "ios", platform)

	_, err = store.GetJobPlatform(ctx, 999)
	require.Error(t, err)
}

func TestMemoryStoreWriteErrIsOneShot(t *testing.T) {
	store := testMemoryStore()
	ctx := t.Context()

	boom := errors.New("disk on fire")
	store.WriteErr = boom

	_, err := store.UpsertDependencyRows(ctx, []types.DependencyRow{{ConsumerProductID: 1, UnresolvedPath: "a"}})
	require.ErrorIs(t, err, boom)

	_, err = store.UpsertDependencyRows(ctx, []types.DependencyRow{{ConsumerProductID: 1, UnresolvedPath: "a"}})
	require.NoError(t, err)
}
