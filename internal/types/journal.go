package types

import "github.com/google/uuid"

type JournalEventKind string

const (
	JournalEventCompiled        JournalEventKind = "asset-compiled"
	JournalEventProductFinished JournalEventKind = "product-finished"
	JournalEventSourceRetry     JournalEventKind = "source-retry"
	JournalEventReprocess       JournalEventKind = "reprocess"
)

// JournalEvent is one pipeline event in a replay journal. Fields are
// populated per kind: Declarations/Platform/ConsumerProductID for
// asset-compiled, Source/Product for product-finished, Source for
// source-retry, ConsumerProductID for reprocess.
//
// SourceGuid travels as a string because yaml.v3 does not decode through
// encoding.TextUnmarshaler; LoadJournal validates it before the event is
// handed to the resolver.
type JournalEvent struct {
	Kind              JournalEventKind  `yaml:"kind"`
	ConsumerProductID int64             `yaml:"consumer_product_id,omitempty"`
	Platform          string            `yaml:"platform,omitempty"`
	Declarations      []PathDeclaration `yaml:"declarations,omitempty"`
	SourceGuid        string            `yaml:"source_guid,omitempty"`
	SourceName        string            `yaml:"source_name,omitempty"`
	ScanFolderID      int64             `yaml:"scan_folder_id,omitempty"`
	ProductID         int64             `yaml:"product_id,omitempty"`
	ProductSubID      int32             `yaml:"product_sub_id,omitempty"`
	ProductName       string            `yaml:"product_name,omitempty"`
	JobID             int64             `yaml:"job_id,omitempty"`
}

func (e JournalEvent) guid() uuid.UUID {
	if e.SourceGuid == "" {
		return uuid.Nil
	}
	guid, err := uuid.Parse(e.SourceGuid)
	if err != nil {
		return uuid.Nil
	}
	return guid
}

func (e JournalEvent) Source() SourceEntry {
	return SourceEntry{Guid: e.guid(), Name: e.SourceName, ScanFolderID: e.ScanFolderID}
}

func (e JournalEvent) Product() ProductEntry {
	return ProductEntry{
		ProductID:  e.ProductID,
		SourceGuid: e.guid(),
		SubID:      e.ProductSubID,
		Name:       e.ProductName,
		Platform:   e.Platform,
		JobID:      e.JobID,
	}
}
