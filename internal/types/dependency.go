package types

import "github.com/google/uuid"

// PathDeclaration is a dependency a compiling asset declares by file path.
// The raw path may carry a leading '!' exclusion marker and '*' wildcards.
// Immutable once emitted by the builder.
type PathDeclaration struct {
	Path string         `yaml:"path"`
	Type DependencyType `yaml:"type"`
}

// NormalizedKey is the canonical lookup form of a declared path. Key is
// lower-cased, slash-separated and marker-free. ScanFolderKey is the
// "$<scanFolderId>$<relativePath>" alternate carried only by source exact
// keys, where a bare relative name is ambiguous across scan folders.
type NormalizedKey struct {
	Key           string
	ScanFolderKey string
	Type          DependencyType
	Mode          MatchMode
	Polarity      Polarity
}

// IndexKey is the form a pending reference is filed under: the
// scan-folder-prefixed alternate when one exists, else the plain key.
func (k NormalizedKey) IndexKey() string {
	if k.ScanFolderKey != "" {
		return k.ScanFolderKey
	}
	return k.Key
}

// Partition selects one of the index tables. One composite key instead of
// eight named maps keeps table selection an exhaustive value, not nested
// booleans.
type Partition struct {
	Type     DependencyType
	Mode     MatchMode
	Polarity Polarity
}

// PendingReference records that a consumer product, on one platform, is
// waiting for something matching a normalized key. RowID mirrors the
// placeholder database row; Claimed marks that the row has been spent on a
// first resolution, so further sibling matches must allocate fresh rows.
type PendingReference struct {
	ConsumerProductID int64
	Platform          string
	RowID             int64
	Claimed           bool
	Key               string
	Type              DependencyType
	Mode              MatchMode
	Polarity          Polarity
	Status            ReferenceStatus
}

func (r *PendingReference) Partition() Partition {
	return Partition{Type: r.Type, Mode: r.Mode, Polarity: r.Polarity}
}

// ResolvedDependency is the terminal output: persisted, then broadcast.
type ResolvedDependency struct {
	ConsumerProductID  int64
	DependeeSourceGuid uuid.UUID
	DependeeSubID      int32
	Platform           string
}

// DeclarationConflict reports a path declared both included and excluded
// within the same declaration set.
type DeclarationConflict struct {
	Path string
	Type DependencyType
}
