package ports

// ScanFolders maps an absolute or project-relative path to its
// database-canonical relative path plus the scan folder that owns it.
type ScanFolders interface {
	ToRelativeAndScanFolder(path string) (relative string, scanFolderID int64, err error)
}
