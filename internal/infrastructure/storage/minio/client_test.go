package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/ClusterMST/internal/config"
	"github.com/turtacn/ClusterMST/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/ClusterMST/pkg/errors"
)

type MockMinIOAPI struct {
	mock.Mock
}

func (m *MockMinIOAPI) ListBuckets(ctx context.Context) ([]minio.BucketInfo, error) {
	args := m.Called(ctx)
	return args.Get(0).([]minio.BucketInfo), args.Error(1)
}

func (m *MockMinIOAPI) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *MockMinIOAPI) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	args := m.Called(ctx, bucketName, opts)
	return args.Error(0)
}

func (m *MockMinIOAPI) SetBucketLifecycle(ctx context.Context, bucketName string, cfg *lifecycle.Configuration) error {
	args := m.Called(ctx, bucketName, cfg)
	return args.Error(0)
}

func (m *MockMinIOAPI) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *MockMinIOAPI) PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error) {
	args := m.Called(ctx, bucketName, objectName, expiry, reqParams)
	u, _ := args.Get(0).(*url.URL)
	return u, args.Error(1)
}

type ClientTestSuite struct {
	suite.Suite
	api *MockMinIOAPI
	cfg config.MinIOConfig
	ctx context.Context
}

func (s *ClientTestSuite) SetupTest() {
	s.api = new(MockMinIOAPI)
	s.cfg = config.MinIOConfig{Bucket: "exports", Region: "eu-west-1", PresignExpiry: time.Hour}
	s.ctx = context.Background()
}

func (s *ClientTestSuite) TearDownTest() {
	s.api.AssertExpectations(s.T())
}

func (s *ClientTestSuite) TestCreatesMissingBucket() {
	s.api.On("BucketExists", mock.Anything, "exports").Return(false, nil)
	s.api.On("MakeBucket", mock.Anything, "exports", minio.MakeBucketOptions{Region: "eu-west-1"}).Return(nil)
	s.api.On("SetBucketLifecycle", mock.Anything, "exports", mock.MatchedBy(func(c *lifecycle.Configuration) bool {
		return len(c.Rules) == 1 && c.Rules[0].Expiration.Days == 2 && c.Rules[0].Status == "Enabled"
	})).Return(nil)

	c, err := newClientWithAPI(s.ctx, s.api, s.cfg, logging.NewNopLogger())
	s.Require().NoError(err)
	s.Equal("exports", c.Bucket())
	s.Equal(time.Hour, c.PresignExpiry())
}

func (s *ClientTestSuite) TestExistingBucketAndLifecycleFailureTolerated() {
	s.api.On("BucketExists", mock.Anything, "exports").Return(true, nil)
	s.api.On("SetBucketLifecycle", mock.Anything, "exports", mock.Anything).Return(fmt.Errorf("not implemented"))

	_, err := newClientWithAPI(s.ctx, s.api, s.cfg, logging.NewNopLogger())
	s.NoError(err)
	s.api.AssertNotCalled(s.T(), "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ClientTestSuite) TestBucketCheckFailure() {
	s.api.On("BucketExists", mock.Anything, "exports").Return(false, fmt.Errorf("denied"))

	_, err := newClientWithAPI(s.ctx, s.api, s.cfg, logging.NewNopLogger())
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeStorageError))
}

func (s *ClientTestSuite) TestHealthCheck() {
	c := &MinIOClient{client: s.api, config: s.cfg, logger: logging.NewNopLogger()}
	s.api.On("ListBuckets", mock.Anything).Return([]minio.BucketInfo{{Name: "exports"}}, nil).Once()
	s.api.On("BucketExists", mock.Anything, "exports").Return(true, nil).Once()
	s.NoError(c.HealthCheck(s.ctx))

	s.api.On("ListBuckets", mock.Anything).Return([]minio.BucketInfo(nil), fmt.Errorf("down")).Once()
	s.True(pkgerrors.IsCode(c.HealthCheck(s.ctx), pkgerrors.ErrCodeServiceUnavailable))
}

func (s *ClientTestSuite) TestPresignedURLSetsFileName() {
	c := &MinIOClient{client: s.api, config: s.cfg, logger: logging.NewNopLogger()}
	u, _ := url.Parse("http://minio:9000/exports/r1/edges.tsv?X-Amz-Signature=abc")
	s.api.On("PresignedGetObject", mock.Anything, "exports", "r1/edges.tsv", time.Hour,
		mock.MatchedBy(func(v url.Values) bool {
			return v.Get("response-content-disposition") == `attachment; filename="edges.tsv"`
		})).Return(u, nil)

	got, err := c.GeneratePresignedGetURL(s.ctx, "r1/edges.tsv", "edges.tsv", 0)
	s.Require().NoError(err)
	s.Equal(u.String(), got)
}

func (s *ClientTestSuite) TestClosedClient() {
	c := &MinIOClient{client: s.api, config: s.cfg, logger: logging.NewNopLogger()}
	s.Require().NoError(c.Close())
	_, err := c.GetClient()
	s.Equal(ErrMinIOClientClosed, err)
	s.Equal(ErrMinIOClientClosed, c.HealthCheck(s.ctx))
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func TestApplyDefaults(t *testing.T) {
	cfg := config.MinIOConfig{}
	applyDefaults(&cfg)
	assert.Equal(t, config.DefaultMinIORegion, cfg.Region)
	assert.Equal(t, config.DefaultMinIOBucket, cfg.Bucket)
	assert.Equal(t, config.DefaultMinIOPresignExpiry, cfg.PresignExpiry)
}

func TestExpiryDays(t *testing.T) {
	require.Equal(t, 2, expiryDays(time.Hour))
	require.Equal(t, 2, expiryDays(24*time.Hour))
	require.Equal(t, 3, expiryDays(25*time.Hour))
}
