package adapters

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"assetdep/internal/core"
	"assetdep/internal/ports"
	"assetdep/internal/shared"
	"assetdep/internal/types"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS product_dependencies (
	product_dependency_id  BIGSERIAL PRIMARY KEY,
	product_id             BIGINT NOT NULL,
	dependency_source_guid UUID NULL,
	dependency_sub_id      INT NULL,
	platform               TEXT NOT NULL,
	unresolved_path        TEXT NOT NULL DEFAULT '',
	dependency_type        TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS sources (
	source_guid    UUID PRIMARY KEY,
	source_name    TEXT NOT NULL,
	scan_folder_id BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS products (
	product_id  BIGINT PRIMARY KEY,
	source_guid UUID NOT NULL,
	sub_id      INT NOT NULL,
	product_name TEXT NOT NULL,
	asset_key   TEXT NOT NULL,
	platform    TEXT NOT NULL,
	job_id      BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS jobs (
	job_id   BIGINT PRIMARY KEY,
	platform TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_product_dependencies_unresolved
	ON product_dependencies (unresolved_path) WHERE unresolved_path <> '';
CREATE INDEX IF NOT EXISTS idx_products_asset_key ON products (asset_key);
`

// PostgresStore backs the dependency store with Postgres. The asset_key
// column holds the platform/project-stripped product name so exact and
// LIKE lookups compare the same form the in-memory index uses.
type PostgresStore struct {
	DB         *sql.DB
	normalizer core.Normalizer
}

func NewPostgresStore(db *sql.DB, normalizer core.Normalizer) *PostgresStore {
	return &PostgresStore{DB: db, normalizer: normalizer}
}

func OpenPostgresStore(ctx context.Context, dsn string, normalizer core.Normalizer) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to open database").
			WithCause(err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("database unreachable").
			WithCause(err)
	}
	return NewPostgresStore(db, normalizer), nil
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, postgresSchema); err != nil {
		return storeErr("failed to apply schema", err)
	}
	return nil
}

func (s *PostgresStore) SeedSource(ctx context.Context, source types.SourceEntry) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO sources (source_guid, source_name, scan_folder_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (source_guid) DO UPDATE
		SET source_name = EXCLUDED.source_name, scan_folder_id = EXCLUDED.scan_folder_id`,
		source.Guid, shared.SanitizePath(source.Name), source.ScanFolderID)
	if err != nil {
		return storeErr("failed to upsert source", err)
	}
	return nil
}

func (s *PostgresStore) SeedProduct(ctx context.Context, product types.ProductEntry) error {
	name := shared.SanitizePath(product.Name)
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO products (product_id, source_guid, sub_id, product_name, asset_key, platform, job_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (product_id) DO UPDATE
		SET source_guid = EXCLUDED.source_guid, sub_id = EXCLUDED.sub_id,
		    product_name = EXCLUDED.product_name, asset_key = EXCLUDED.asset_key,
		    platform = EXCLUDED.platform, job_id = EXCLUDED.job_id`,
		product.ProductID, product.SourceGuid, product.SubID, name,
		s.normalizer.ProductKey(name), product.Platform, product.JobID)
	if err != nil {
		return storeErr("failed to upsert product", err)
	}
	if product.JobID != 0 {
		return s.SeedJob(ctx, product.JobID, product.Platform)
	}
	return nil
}

func (s *PostgresStore) SeedJob(ctx context.Context, jobID int64, platform string) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO jobs (job_id, platform) VALUES ($1, $2)
		ON CONFLICT (job_id) DO UPDATE SET platform = EXCLUDED.platform`,
		jobID, platform)
	if err != nil {
		return storeErr("failed to upsert job", err)
	}
	return nil
}

func (s *PostgresStore) GetUnresolvedDependencies(ctx context.Context) ([]types.DependencyRow, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT product_dependency_id, product_id, dependency_source_guid, dependency_sub_id,
		       platform, unresolved_path, dependency_type
		FROM product_dependencies
		WHERE unresolved_path <> ''
		ORDER BY product_dependency_id`)
	if err != nil {
		return nil, storeErr("failed to query unresolved dependencies", err)
	}
	defer rows.Close()
	return scanDependencyRows(rows)
}

func (s *PostgresStore) UpsertDependencyRows(ctx context.Context, deps []types.DependencyRow) ([]int64, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]int64, len(deps))
	for i, dep := range deps {
		guid := sql.NullString{}
		if dep.DependeeSourceGuid != uuid.Nil {
			guid = sql.NullString{String: dep.DependeeSourceGuid.String(), Valid: true}
		}
		if dep.RowID == 0 {
			err = tx.QueryRowContext(ctx, `
				INSERT INTO product_dependencies
					(product_id, dependency_source_guid, dependency_sub_id, platform, unresolved_path, dependency_type)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING product_dependency_id`,
				dep.ConsumerProductID, guid, dep.DependeeSubID, dep.Platform, dep.UnresolvedPath, dep.Type,
			).Scan(&ids[i])
		} else {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO product_dependencies
					(product_dependency_id, product_id, dependency_source_guid, dependency_sub_id, platform, unresolved_path, dependency_type)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (product_dependency_id) DO UPDATE
				SET product_id = EXCLUDED.product_id,
				    dependency_source_guid = EXCLUDED.dependency_source_guid,
				    dependency_sub_id = EXCLUDED.dependency_sub_id,
				    platform = EXCLUDED.platform,
				    unresolved_path = EXCLUDED.unresolved_path,
				    dependency_type = EXCLUDED.dependency_type`,
				dep.RowID, dep.ConsumerProductID, guid, dep.DependeeSubID, dep.Platform, dep.UnresolvedPath, dep.Type)
			ids[i] = dep.RowID
		}
		if err != nil {
			return nil, storeErr("failed to upsert dependency row", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, storeErr("failed to commit dependency rows", err)
	}
	return ids, nil
}

func (s *PostgresStore) DeleteDependencyRows(ctx context.Context, rowIDs []int64) error {
	if len(rowIDs) == 0 {
		return nil
	}
	_, err := s.DB.ExecContext(ctx,
		`DELETE FROM product_dependencies WHERE product_dependency_id = ANY($1)`,
		pq.Array(rowIDs))
	if err != nil {
		return storeErr("failed to delete dependency rows", err)
	}
	return nil
}

func (s *PostgresStore) FindProductsByExactName(ctx context.Context, name string) ([]types.ProductEntry, error) {
	return s.queryProducts(ctx, `asset_key = $1`, name)
}

func (s *PostgresStore) FindProductsLikeName(ctx context.Context, pattern string) ([]types.ProductEntry, error) {
	return s.queryProducts(ctx, `asset_key LIKE $1`, toLikePattern(pattern))
}

func (s *PostgresStore) FindSourcesByExactName(ctx context.Context, name string, scanFolderID int64) ([]types.SourceEntry, error) {
	if scanFolderID != 0 {
		return s.querySources(ctx, `source_name = $1 AND scan_folder_id = $2`, name, scanFolderID)
	}
	return s.querySources(ctx, `source_name = $1`, name)
}

func (s *PostgresStore) FindSourcesLikeName(ctx context.Context, pattern string) ([]types.SourceEntry, error) {
	return s.querySources(ctx, `source_name LIKE $1`, toLikePattern(pattern))
}

func (s *PostgresStore) ListProductsBySource(ctx context.Context, sourceGuid uuid.UUID, platform string) ([]types.ProductEntry, error) {
	if platform != "" {
		return s.queryProducts(ctx, `source_guid = $1 AND platform = $2`, sourceGuid, platform)
	}
	return s.queryProducts(ctx, `source_guid = $1`, sourceGuid)
}

func (s *PostgresStore) GetJobPlatform(ctx context.Context, jobID int64) (string, error) {
	var platform string
	err := s.DB.QueryRowContext(ctx, `SELECT platform FROM jobs WHERE job_id = $1`, jobID).Scan(&platform)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("job not found").
			WithCause(err)
	}
	if err != nil {
		return "", storeErr("failed to query job platform", err)
	}
	return platform, nil
}

func (s *PostgresStore) queryProducts(ctx context.Context, where string, args ...any) ([]types.ProductEntry, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT product_id, source_guid, sub_id, product_name, platform, job_id
		FROM products WHERE `+where+` ORDER BY product_id`, args...)
	if err != nil {
		return nil, storeErr("failed to query products", err)
	}
	defer rows.Close()
	var out []types.ProductEntry
	for rows.Next() {
		var product types.ProductEntry
		var guid string
		if err := rows.Scan(&product.ProductID, &guid, &product.SubID, &product.Name, &product.Platform, &product.JobID); err != nil {
			return nil, storeErr("failed to scan product row", err)
		}
		product.SourceGuid, err = uuid.Parse(guid)
		if err != nil {
			return nil, storeErr("invalid source guid in product row", err)
		}
		out = append(out, product)
	}
	return out, rows.Err()
}

func (s *PostgresStore) querySources(ctx context.Context, where string, args ...any) ([]types.SourceEntry, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT source_guid, source_name, scan_folder_id
		FROM sources WHERE `+where+` ORDER BY source_name`, args...)
	if err != nil {
		return nil, storeErr("failed to query sources", err)
	}
	defer rows.Close()
	var out []types.SourceEntry
	for rows.Next() {
		var source types.SourceEntry
		var guid string
		if err := rows.Scan(&guid, &source.Name, &source.ScanFolderID); err != nil {
			return nil, storeErr("failed to scan source row", err)
		}
		source.Guid, err = uuid.Parse(guid)
		if err != nil {
			return nil, storeErr("invalid source guid in source row", err)
		}
		out = append(out, source)
	}
	return out, rows.Err()
}

func scanDependencyRows(rows *sql.Rows) ([]types.DependencyRow, error) {
	var out []types.DependencyRow
	for rows.Next() {
		var row types.DependencyRow
		var guid sql.NullString
		var subID sql.NullInt32
		if err := rows.Scan(&row.RowID, &row.ConsumerProductID, &guid, &subID,
			&row.Platform, &row.UnresolvedPath, &row.Type); err != nil {
			return nil, storeErr("failed to scan dependency row", err)
		}
		if guid.Valid {
			parsed, err := uuid.Parse(guid.String)
			if err != nil {
				return nil, storeErr("invalid dependee guid in dependency row", err)
			}
			row.DependeeSourceGuid = parsed
		}
		if subID.Valid {
			row.DependeeSubID = subID.Int32
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// toLikePattern rewrites a normalized wildcard key into a SQL LIKE
// pattern, escaping LIKE metacharacters in the literal parts.
func toLikePattern(pattern string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(pattern)
	return strings.ReplaceAll(escaped, "*", "%")
}

func storeErr(msg string, cause error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(msg).
		WithCause(cause)
}

var _ ports.DependencyStore = (*PostgresStore)(nil)
