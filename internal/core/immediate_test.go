package core

import (
	"context"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"assetdep/internal/types"
)

type fakeStore struct {
	sources  []types.SourceEntry
	products []types.ProductEntry
	jobs     map[int64]string
	queries  int
}

func (f *fakeStore) GetUnresolvedDependencies(context.Context) ([]types.DependencyRow, error) {
	return nil, nil
}

func (f *fakeStore) UpsertDependencyRows(_ context.Context, rows []types.DependencyRow) ([]int64, error) {
	ids := make([]int64, len(rows))
	for i := range rows {
		ids[i] = int64(i + 1)
	}
	return ids, nil
}

func (f *fakeStore) DeleteDependencyRows(context.Context, []int64) error { return nil }

func (f *fakeStore) FindProductsByExactName(_ context.Context, name string) ([]types.ProductEntry, error) {
	f.queries++
	var out []types.ProductEntry
	for _, product := range f.products {
		if product.Name == name {
			out = append(out, product)
		}
	}
	return out, nil
}

func (f *fakeStore) FindProductsLikeName(_ context.Context, pattern string) ([]types.ProductEntry, error) {
	f.queries++
	var out []types.ProductEntry
	for _, product := range f.products {
		if LikeMatch(pattern, product.Name) {
			out = append(out, product)
		}
	}
	return out, nil
}

func (f *fakeStore) FindSourcesByExactName(_ context.Context, name string, scanFolderID int64) ([]types.SourceEntry, error) {
	f.queries++
	var out []types.SourceEntry
	for _, source := range f.sources {
		if source.Name != name {
			continue
		}
		if scanFolderID != 0 && source.ScanFolderID != scanFolderID {
			continue
		}
		out = append(out, source)
	}
	return out, nil
}

func (f *fakeStore) FindSourcesLikeName(_ context.Context, pattern string) ([]types.SourceEntry, error) {
	f.queries++
	var out []types.SourceEntry
	for _, source := range f.sources {
		if LikeMatch(pattern, source.Name) {
			out = append(out, source)
		}
	}
	return out, nil
}

func (f *fakeStore) ListProductsBySource(_ context.Context, sourceGuid uuid.UUID, platform string) ([]types.ProductEntry, error) {
	var out []types.ProductEntry
	for _, product := range f.products {
		if product.SourceGuid != sourceGuid {
			continue
		}
		if platform != "" && product.Platform != platform {
			continue
		}
		out = append(out, product)
	}
	return out, nil
}

func (f *fakeStore) GetJobPlatform(_ context.Context, jobID int64) (string, error) {
	platform, ok := f.jobs[jobID]
	if !ok {
		return "", errbuilder.New().WithCode(errbuilder.CodeNotFound).WithMsg("job not found")
	}
	return platform, nil
}

var (
	heroGuid = uuid.MustParse("4f5b9a3e-1111-4c57-9d34-000000000001")
	rockGuid = uuid.MustParse("4f5b9a3e-1111-4c57-9d34-000000000002")
)

func TestImmediateResolveMirrorConflictSkipsLookups(t *testing.T) {
	store := &fakeStore{}
	resolver := NewImmediateResolver(store, testNormalizer())

	declarations := []types.PathDeclaration{
		{Path: "foo/bar.tif", Type: types.DependencyTypeProduct},
		{Path: "!foo/bar.tif", Type: types.DependencyTypeProduct},
	}
	result := resolver.Resolve(t.Context(), declarations, "pc", 1)

	require.Empty(t, result.Resolved)
	require.Len(t, result.Pending, 2)
	require.Len(t, result.Conflicts, 1)
	require.Equal(t, 0, store.queries, "conflicted pair must never reach the store")
}

func TestImmediateResolveReclassifiesRasterProducts(t *testing.T) {
	store := &fakeStore{
		sources: []types.SourceEntry{{Guid: rockGuid, Name: "textures/rock.tif", ScanFolderID: 1}},
		products: []types.ProductEntry{
			{ProductID: 5, SourceGuid: rockGuid, SubID: 0, Name: "textures/rock.dds", Platform: "pc", JobID: 9},
		},
	}
	resolver := NewImmediateResolver(store, testNormalizer())

	result := resolver.Resolve(t.Context(), []types.PathDeclaration{
		{Path: "Textures/Rock.TIF", Type: types.DependencyTypeProduct},
	}, "pc", 1)

	require.Len(t, result.Resolved, 1)
	require.Equal(t, rockGuid, result.Resolved[0].DependeeSourceGuid)
	require.Empty(t, result.Pending)

	// The pending copy of an unmatched raster path keeps the corrected class.
	miss := resolver.Resolve(t.Context(), []types.PathDeclaration{
		{Path: "textures/missing.png", Type: types.DependencyTypeProduct},
	}, "pc", 1)
	require.Len(t, miss.Pending, 1)
	if diff := cmp.Diff(types.DependencyTypeSource, miss.Pending[0].Type); diff != "" {
		t.Fatalf("unexpected pending type (-want +got):\n%s", diff)
	}
}

func TestImmediateResolveExactProductFirstMatchWins(t *testing.T) {
	store := &fakeStore{
		products: []types.ProductEntry{
			{ProductID: 1, SourceGuid: heroGuid, SubID: 0, Name: "models/hero.cgf", Platform: "pc"},
			{ProductID: 2, SourceGuid: heroGuid, SubID: 1, Name: "models/hero.cgf", Platform: "ios"},
		},
	}
	resolver := NewImmediateResolver(store, testNormalizer())

	result := resolver.Resolve(t.Context(), []types.PathDeclaration{
		{Path: "models/hero.cgf", Type: types.DependencyTypeProduct},
	}, "pc", 7)

	require.Len(t, result.Resolved, 1)
	require.Equal(t, int32(0), result.Resolved[0].DependeeSubID)
	require.Empty(t, result.Pending)
}

func TestImmediateResolveWildcardStaysPending(t *testing.T) {
	store := &fakeStore{
		products: []types.ProductEntry{
			{ProductID: 1, SourceGuid: heroGuid, SubID: 0, Name: "anims/walk.anim", Platform: "pc"},
		},
	}
	resolver := NewImmediateResolver(store, testNormalizer())

	result := resolver.Resolve(t.Context(), []types.PathDeclaration{
		{Path: "*.anim", Type: types.DependencyTypeProduct},
	}, "pc", 7)

	require.Len(t, result.Resolved, 1, "existing matches resolve now")
	require.Len(t, result.Pending, 1, "wildcard stays live for future products")
}

func TestImmediateResolveExclusionWins(t *testing.T) {
	store := &fakeStore{
		products: []types.ProductEntry{
			{ProductID: 1, SourceGuid: heroGuid, SubID: 0, Name: "textures/rock.dds", Platform: "pc"},
			{ProductID: 2, SourceGuid: heroGuid, SubID: 1, Name: "textures/sand.dds", Platform: "pc"},
		},
	}
	resolver := NewImmediateResolver(store, testNormalizer())

	result := resolver.Resolve(t.Context(), []types.PathDeclaration{
		{Path: "textures/*.dds", Type: types.DependencyTypeProduct},
		{Path: "!textures/sand.dds", Type: types.DependencyTypeProduct},
	}, "pc", 7)

	require.Len(t, result.Resolved, 1)
	require.Equal(t, int32(0), result.Resolved[0].DependeeSubID)
	// Both the wildcard and the exclusion stay pending.
	require.Len(t, result.Pending, 2)
}

func TestImmediateResolveSourceExactTriesBothKeyForms(t *testing.T) {
	store := &fakeStore{
		sources: []types.SourceEntry{
			{Guid: rockGuid, Name: "icons/save.bmp", ScanFolderID: 7},
			{Guid: heroGuid, Name: "bootstrap.cfg", ScanFolderID: 3},
		},
		products: []types.ProductEntry{
			{ProductID: 4, SourceGuid: rockGuid, SubID: 0, Name: "icons/save.dds", Platform: "pc"},
			{ProductID: 5, SourceGuid: heroGuid, SubID: 0, Name: "bootstrap.cfg", Platform: "pc"},
		},
	}
	resolver := NewImmediateResolver(store, testNormalizer())

	// "editor" is a configured scan folder, so the scan-folder-scoped
	// lookup finds the source. "bootstrap.cfg" is not under one and falls
	// back to the plain key across all scan folders.
	result := resolver.Resolve(t.Context(), []types.PathDeclaration{
		{Path: "editor/icons/save.bmp", Type: types.DependencyTypeSource},
		{Path: "bootstrap.cfg", Type: types.DependencyTypeSource},
	}, "pc", 7)

	require.Len(t, result.Resolved, 2)
	require.Empty(t, result.Pending)
}
