package minio

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/ClusterMST/internal/config"
	"github.com/turtacn/ClusterMST/internal/domain/result"
	"github.com/turtacn/ClusterMST/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/ClusterMST/pkg/errors"
)

type ArchiveTestSuite struct {
	suite.Suite
	api     *MockMinIOAPI
	client  *MinIOClient
	archive *ExportArchive
	ctx     context.Context
}

func (s *ArchiveTestSuite) SetupTest() {
	s.api = new(MockMinIOAPI)
	s.client = &MinIOClient{
		client: s.api,
		config: config.MinIOConfig{Bucket: "exports", PresignExpiry: 2 * time.Hour},
		logger: logging.NewNopLogger(),
	}
	s.archive = NewExportArchive(s.client, logging.NewNopLogger())
	s.ctx = context.Background()
}

func (s *ArchiveTestSuite) TearDownTest() {
	s.api.AssertExpectations(s.T())
}

func (s *ArchiveTestSuite) TestArchiveUploadsAndPresigns() {
	files := []result.ExportFile{
		{Kind: result.ExportDataset, Data: []byte("a\tb\n1\t2\n")},
		{Kind: result.ExportEdges, Data: []byte("X1\tY1\tX2\tY2\n")},
	}
	for _, f := range files {
		key := "r1/" + f.Kind.FileName()
		s.api.On("PutObject", mock.Anything, "exports", key, mock.Anything, int64(len(f.Data)),
			mock.MatchedBy(func(o minio.PutObjectOptions) bool {
				return o.ContentType == TSVContentType && o.UserMetadata["result-id"] == "r1"
			})).Return(minio.UploadInfo{Bucket: "exports", Key: key, Size: int64(len(f.Data))}, nil)
		u, _ := url.Parse("http://minio/exports/" + key + "?sig=1")
		s.api.On("PresignedGetObject", mock.Anything, "exports", key, 2*time.Hour, mock.Anything).Return(u, nil)
	}

	got, err := s.archive.Archive(s.ctx, "r1", files)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(result.ExportDataset, got[0].Kind)
	s.Equal("r1/dataset.tsv", got[0].Key)
	s.Equal(int64(len(files[0].Data)), got[0].Size)
	s.Equal("http://minio/exports/r1/dataset.tsv?sig=1", got[0].URL)
	s.Equal("r1/edges.tsv", got[1].Key)
}

func (s *ArchiveTestSuite) TestArchiveUploadFailure() {
	s.api.On("PutObject", mock.Anything, "exports", "r1/dataset.tsv", mock.Anything, int64(1), mock.Anything).
		Return(minio.UploadInfo{}, fmt.Errorf("disk full"))

	_, err := s.archive.Archive(s.ctx, "r1", []result.ExportFile{{Kind: result.ExportDataset, Data: []byte("x")}})
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeStorageError))
}

func (s *ArchiveTestSuite) TestArchiveRejectsEmptyRequest() {
	_, err := s.archive.Archive(s.ctx, "", []result.ExportFile{{Kind: result.ExportDataset}})
	s.Equal(ErrInvalidRequest, err)
	_, err = s.archive.Archive(s.ctx, "r1", nil)
	s.Equal(ErrInvalidRequest, err)
}

func (s *ArchiveTestSuite) TestArchiveAfterClose() {
	s.Require().NoError(s.client.Close())
	_, err := s.archive.Archive(s.ctx, "r1", []result.ExportFile{{Kind: result.ExportDataset}})
	s.Equal(ErrMinIOClientClosed, err)
}

func (s *ArchiveTestSuite) TestObjectKey() {
	s.Equal("abc/selection.tsv", ObjectKey("abc", result.ExportSelection))
}

func TestArchiveSuite(t *testing.T) {
	suite.Run(t, new(ArchiveTestSuite))
}
