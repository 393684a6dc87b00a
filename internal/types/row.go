package types

import "github.com/google/uuid"

// DependencyRow is the persisted shape of a dependency. UnresolvedPath
// holds the normalized key while the dependency is pending and is cleared
// once the dependee fields are written.
type DependencyRow struct {
	RowID              int64
	ConsumerProductID  int64
	DependeeSourceGuid uuid.UUID
	DependeeSubID      int32
	Platform           string
	UnresolvedPath     string
	Type               DependencyType
}

// SourceEntry is an authored asset known to the build database, named by
// its scan-folder-relative path.
type SourceEntry struct {
	Guid         uuid.UUID
	Name         string
	ScanFolderID int64
}

// ProductEntry is a compiled output of a source, named by its full
// "<platform>/<project>/<relative>" output path.
type ProductEntry struct {
	ProductID  int64
	SourceGuid uuid.UUID
	SubID      int32
	Name       string
	Platform   string
	JobID      int64
}
