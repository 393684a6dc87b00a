package ports

import "assetdep/internal/types"

// Notifier receives one callback per committed dependency row.
type Notifier interface {
	DependencyResolved(resolved types.ResolvedDependency)
}
