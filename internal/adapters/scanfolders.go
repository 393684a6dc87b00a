package adapters

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"assetdep/internal/ports"
	"assetdep/internal/shared"
	"assetdep/internal/types"
)

// ScanFolderAdapter maps paths to scan-folder-relative form using the
// configured scan folder prefixes. Longest prefix wins, so nested scan
// folders resolve to the most specific root.
type ScanFolderAdapter struct {
	folders []types.ScanFolderConfig
}

func NewScanFolderAdapter(folders []types.ScanFolderConfig) *ScanFolderAdapter {
	sanitized := make([]types.ScanFolderConfig, 0, len(folders))
	for _, folder := range folders {
		folder.Prefix = shared.SanitizePath(folder.Prefix)
		if folder.Prefix == "" {
			continue
		}
		sanitized = append(sanitized, folder)
	}
	sort.Slice(sanitized, func(i, j int) bool {
		return len(sanitized[i].Prefix) > len(sanitized[j].Prefix)
	})
	return &ScanFolderAdapter{folders: sanitized}
}

func (a *ScanFolderAdapter) ToRelativeAndScanFolder(path string) (string, int64, error) {
	sanitized := shared.SanitizePath(path)
	for _, folder := range a.folders {
		if sanitized == folder.Prefix {
			return "", folder.ID, nil
		}
		if strings.HasPrefix(sanitized, folder.Prefix+"/") {
			return sanitized[len(folder.Prefix)+1:], folder.ID, nil
		}
	}
	return "", 0, errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("path not under any scan folder: %s", path))
}

var _ ports.ScanFolders = (*ScanFolderAdapter)(nil)
