package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"assetdep/internal/ports"
	"assetdep/internal/shared"
	"assetdep/internal/types"
)

// ExclusionMarker negates a path declaration: "!textures/*.png" carves an
// exception out of a wildcard's match set.
const ExclusionMarker = "!"

// Normalizer canonicalizes raw dependency paths into lookup keys. Pure:
// the only collaborator is the scan-folder service, used to build the
// disambiguating alternate key for source exact lookups.
type Normalizer struct {
	ScanFolders ports.ScanFolders

	project   string
	platforms map[string]struct{}
}

func NewNormalizer(scanFolders ports.ScanFolders, project string, platforms []string) Normalizer {
	known := make(map[string]struct{}, len(platforms))
	for _, platform := range platforms {
		known[strings.ToLower(platform)] = struct{}{}
	}
	return Normalizer{
		ScanFolders: scanFolders,
		project:     strings.ToLower(project),
		platforms:   known,
	}
}

func (n Normalizer) Normalize(raw string, depType types.DependencyType) (types.NormalizedKey, error) {
	trimmed := strings.TrimSpace(raw)
	polarity := types.PolarityInclude
	if strings.HasPrefix(trimmed, ExclusionMarker) {
		polarity = types.PolarityExclude
		trimmed = trimmed[len(ExclusionMarker):]
	}
	key := shared.SanitizePath(trimmed)
	if key == "" {
		return types.NormalizedKey{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid dependency path: %q", raw))
	}

	mode := types.MatchModeExact
	if strings.Contains(key, "*") {
		mode = types.MatchModeWildcard
	}

	if depType == types.DependencyTypeProduct {
		key = n.ProductKey(key)
	}

	normalized := types.NormalizedKey{
		Key:      key,
		Type:     depType,
		Mode:     mode,
		Polarity: polarity,
	}
	if depType == types.DependencyTypeSource && mode == types.MatchModeExact && n.ScanFolders != nil {
		if relative, scanFolderID, err := n.ScanFolders.ToRelativeAndScanFolder(key); err == nil {
			normalized.ScanFolderKey = ScanFolderKey(scanFolderID, relative)
		}
	}
	return normalized, nil
}

// ProductKey sanitizes a product path and strips the leading
// "<platform>/<project>/" segments, so products of different platforms
// compare on their asset-relative name.
func (n Normalizer) ProductKey(path string) string {
	key := shared.SanitizePath(path)
	parts := strings.SplitN(key, "/", 3)
	if len(parts) != 3 {
		return key
	}
	if _, ok := n.platforms[parts[0]]; !ok {
		return key
	}
	if parts[1] != n.project {
		return key
	}
	return parts[2]
}

// ScanFolderKey builds the "$<scanFolderId>$<relativePath>" alternate form
// of a source exact key. A bare relative source name is ambiguous across
// scan folders; lookups try this form first, then fall back to the plain
// key.
func ScanFolderKey(scanFolderID int64, relative string) string {
	return fmt.Sprintf("$%d$%s", scanFolderID, relative)
}

// SplitScanFolderKey is the inverse of ScanFolderKey. ok is false when the
// key does not carry a scan-folder prefix.
func SplitScanFolderKey(key string) (scanFolderID int64, relative string, ok bool) {
	if !strings.HasPrefix(key, "$") {
		return 0, "", false
	}
	end := strings.IndexByte(key[1:], '$')
	if end < 0 {
		return 0, "", false
	}
	id, err := strconv.ParseInt(key[1:1+end], 10, 64)
	if err != nil {
		return 0, "", false
	}
	return id, key[end+2:], true
}
