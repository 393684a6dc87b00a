package types

type DependencyType string

const (
	DependencyTypeSource  DependencyType = "source_file"
	DependencyTypeProduct DependencyType = "product_file"
)

type MatchMode string

const (
	MatchModeExact    MatchMode = "exact"
	MatchModeWildcard MatchMode = "wildcard"
)

type Polarity string

const (
	PolarityInclude Polarity = "include"
	PolarityExclude Polarity = "exclude"
)

type ReferenceStatus string

const (
	ReferenceStatusPending    ReferenceStatus = "pending"
	ReferenceStatusConflicted ReferenceStatus = "conflicted"
)
