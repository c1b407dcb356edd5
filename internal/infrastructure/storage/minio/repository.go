package minio

import (
	"bytes"
	"context"
	"path"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/ClusterMST/internal/domain/result"
	"github.com/turtacn/ClusterMST/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClusterMST/pkg/errors"
)

// TSVContentType is the content type of every archived export.
const TSVContentType = "text/tab-separated-values"

var ErrInvalidRequest = errors.New(errors.ErrCodeBadRequest, "result id and files are required")

// ExportArchive stores a result's downloads under "<result id>/<kind>.tsv"
// and returns presigned links to them.
type ExportArchive struct {
	client *MinIOClient
	logger logging.Logger
}

var _ result.Archive = (*ExportArchive)(nil)

func NewExportArchive(client *MinIOClient, log logging.Logger) *ExportArchive {
	return &ExportArchive{client: client, logger: log}
}

// ObjectKey returns the object name of an export.
func ObjectKey(resultID string, kind result.ExportKind) string {
	return path.Join(resultID, kind.FileName())
}

// Archive uploads files and presigns each one. It stops at the first failure.
func (a *ExportArchive) Archive(ctx context.Context, resultID string, files []result.ExportFile) ([]result.ArchivedExport, error) {
	if resultID == "" || len(files) == 0 {
		return nil, ErrInvalidRequest
	}
	api, err := a.client.GetClient()
	if err != nil {
		return nil, err
	}

	out := make([]result.ArchivedExport, 0, len(files))
	for _, f := range files {
		key := ObjectKey(resultID, f.Kind)
		info, err := api.PutObject(ctx, a.client.Bucket(), key, bytes.NewReader(f.Data), int64(len(f.Data)),
			minio.PutObjectOptions{
				ContentType:  TSVContentType,
				UserMetadata: map[string]string{"result-id": resultID},
			})
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStorageError, "upload failed")
		}
		link, err := a.client.GeneratePresignedGetURL(ctx, key, f.Kind.FileName(), 0)
		if err != nil {
			return nil, err
		}
		out = append(out, result.ArchivedExport{Kind: f.Kind, Key: key, Size: info.Size, URL: link})
	}

	a.logger.Info("Exports archived",
		logging.String("result_id", resultID),
		logging.String("bucket", a.client.Bucket()),
		logging.Int("files", len(out)),
	)
	return out, nil
}
