package adapters

import (
	"context"
	"fmt"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/uuid"

	"assetdep/internal/core"
	"assetdep/internal/ports"
	"assetdep/internal/shared"
	"assetdep/internal/types"
)

// MemoryStore is an in-process dependency store, used by the replay CLI
// without a configured database and by the package tests. Name matching
// uses the same LIKE semantics as the SQL adapter.
type MemoryStore struct {
	normalizer core.Normalizer

	rows      map[int64]types.DependencyRow
	nextRowID int64
	sources   []types.SourceEntry
	products  []types.ProductEntry
	jobs      map[int64]string

	// WriteErr, when set, fails the next mutating call. Tests use it to
	// exercise the bridge's retry semantics.
	WriteErr error
}

func NewMemoryStore(normalizer core.Normalizer) *MemoryStore {
	return &MemoryStore{
		normalizer: normalizer,
		rows:       map[int64]types.DependencyRow{},
		jobs:       map[int64]string{},
	}
}

func (s *MemoryStore) SeedSource(_ context.Context, source types.SourceEntry) error {
	source.Name = shared.SanitizePath(source.Name)
	for i, existing := range s.sources {
		if existing.Guid == source.Guid {
			s.sources[i] = source
			return nil
		}
	}
	s.sources = append(s.sources, source)
	return nil
}

func (s *MemoryStore) SeedProduct(_ context.Context, product types.ProductEntry) error {
	product.Name = shared.SanitizePath(product.Name)
	for i, existing := range s.products {
		if existing.ProductID == product.ProductID {
			s.products[i] = product
			return nil
		}
	}
	s.products = append(s.products, product)
	if product.JobID != 0 {
		s.jobs[product.JobID] = product.Platform
	}
	return nil
}

func (s *MemoryStore) SeedJob(_ context.Context, jobID int64, platform string) error {
	s.jobs[jobID] = platform
	return nil
}

func (s *MemoryStore) GetUnresolvedDependencies(_ context.Context) ([]types.DependencyRow, error) {
	var out []types.DependencyRow
	for _, row := range s.rows {
		if row.UnresolvedPath == "" {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RowID < out[j].RowID })
	return out, nil
}

func (s *MemoryStore) UpsertDependencyRows(_ context.Context, rows []types.DependencyRow) ([]int64, error) {
	if err := s.takeWriteErr(); err != nil {
		return nil, err
	}
	ids := make([]int64, len(rows))
	for i, row := range rows {
		if row.RowID == 0 {
			s.nextRowID++
			row.RowID = s.nextRowID
		} else if row.RowID > s.nextRowID {
			s.nextRowID = row.RowID
		}
		s.rows[row.RowID] = row
		ids[i] = row.RowID
	}
	return ids, nil
}

func (s *MemoryStore) DeleteDependencyRows(_ context.Context, rowIDs []int64) error {
	if err := s.takeWriteErr(); err != nil {
		return err
	}
	for _, id := range rowIDs {
		delete(s.rows, id)
	}
	return nil
}

func (s *MemoryStore) FindProductsByExactName(_ context.Context, name string) ([]types.ProductEntry, error) {
	var out []types.ProductEntry
	for _, product := range s.products {
		if s.normalizer.ProductKey(product.Name) == name {
			out = append(out, product)
		}
	}
	return out, nil
}

func (s *MemoryStore) FindProductsLikeName(_ context.Context, pattern string) ([]types.ProductEntry, error) {
	var out []types.ProductEntry
	for _, product := range s.products {
		if core.LikeMatch(pattern, s.normalizer.ProductKey(product.Name)) {
			out = append(out, product)
		}
	}
	return out, nil
}

func (s *MemoryStore) FindSourcesByExactName(_ context.Context, name string, scanFolderID int64) ([]types.SourceEntry, error) {
	var out []types.SourceEntry
	for _, source := range s.sources {
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

func (s *MemoryStore) FindSourcesLikeName(_ context.Context, pattern string) ([]types.SourceEntry, error) {
	var out []types.SourceEntry
	for _, source := range s.sources {
		if core.LikeMatch(pattern, source.Name) {
			out = append(out, source)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListProductsBySource(_ context.Context, sourceGuid uuid.UUID, platform string) ([]types.ProductEntry, error) {
	var out []types.ProductEntry
	for _, product := range s.products {
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

func (s *MemoryStore) GetJobPlatform(_ context.Context, jobID int64) (string, error) {
	platform, ok := s.jobs[jobID]
	if !ok {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("job not found: %d", jobID))
	}
	return platform, nil
}

// Rows returns a sorted snapshot of every persisted dependency row.
func (s *MemoryStore) Rows() []types.DependencyRow {
	out := make([]types.DependencyRow, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RowID < out[j].RowID })
	return out
}

func (s *MemoryStore) takeWriteErr() error {
	if s.WriteErr == nil {
		return nil
	}
	err := s.WriteErr
	s.WriteErr = nil
	return err
}

var _ ports.DependencyStore = (*MemoryStore)(nil)
