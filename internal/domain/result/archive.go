package result

import "context"

// ExportFile is one encoded download handed to an Archive.
type ExportFile struct {
	Kind ExportKind
	Data []byte
}

// ArchivedExport points at a stored copy of an export.
type ArchivedExport struct {
	Kind ExportKind `json:"kind"`
	Key  string     `json:"key"`
	Size int64      `json:"size"`
	URL  string     `json:"url"`
}

// Archive keeps copies of a result's downloads beyond the result TTL and
// hands out links to them.
type Archive interface {
	Archive(ctx context.Context, resultID string, files []ExportFile) ([]ArchivedExport, error)
}
