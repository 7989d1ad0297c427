package artifact

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolProp-Intelligence/pkg/errors"
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
	return m.Called(ctx, bucketName, opts).Error(0)
}

func (m *MockMinIOAPI) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	return args.Get(0).(minio.ObjectInfo), args.Error(1)
}

func (m *MockMinIOAPI) GetObjectReader(ctx context.Context, bucketName, objectName string) (io.ReadCloser, error) {
	args := m.Called(ctx, bucketName, objectName)
	if rc := args.Get(0); rc != nil {
		return rc.(io.ReadCloser), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMinIOAPI) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *MockMinIOAPI) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	return m.Called(ctx, bucketName, opts).Get(0).(<-chan minio.ObjectInfo)
}

var noSuchKey = minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}

type MinIOSourceTestSuite struct {
	suite.Suite
	api *MockMinIOAPI
	src *MinIOSource
	ctx context.Context
}

func (s *MinIOSourceTestSuite) SetupTest() {
	s.api = new(MockMinIOAPI)
	s.src = NewMinIOSourceWithClient(s.api, "models", "/qm9/v1/", logging.NewNopLogger())
	s.ctx = context.Background()
}

func (s *MinIOSourceTestSuite) TearDownTest() {
	s.api.AssertExpectations(s.T())
}

func (s *MinIOSourceTestSuite) TestOpen_PrefixesObjectName() {
	s.api.On("StatObject", s.ctx, "models", "qm9/v1/scaler_y.json", minio.StatObjectOptions{}).
		Return(minio.ObjectInfo{Key: "qm9/v1/scaler_y.json"}, nil)
	s.api.On("GetObjectReader", s.ctx, "models", "qm9/v1/scaler_y.json").
		Return(io.NopCloser(strings.NewReader("{}")), nil)

	rc, err := s.src.Open(s.ctx, "scaler_y.json")
	s.Require().NoError(err)
	b, _ := io.ReadAll(rc)
	s.Equal("{}", string(b))
}

func (s *MinIOSourceTestSuite) TestOpen_NoSuchKeyIsNotFound() {
	s.api.On("StatObject", s.ctx, "models", "qm9/v1/targets.json", minio.StatObjectOptions{}).
		Return(minio.ObjectInfo{}, noSuchKey)
	s.api.On("StatObject", s.ctx, "models", "qm9/v1/targets.json.zst", minio.StatObjectOptions{}).
		Return(minio.ObjectInfo{}, noSuchKey)

	_, err := s.src.Open(s.ctx, "targets.json")
	s.Require().Error(err)
	s.True(errors.IsCode(err, errors.ErrCodeNotFound))
}

func (s *MinIOSourceTestSuite) TestOpen_CompressedFallback() {
	s.api.On("StatObject", s.ctx, "models", "qm9/v1/model.safetensors", minio.StatObjectOptions{}).
		Return(minio.ObjectInfo{}, noSuchKey)
	s.api.On("StatObject", s.ctx, "models", "qm9/v1/model.safetensors.zst", minio.StatObjectOptions{}).
		Return(minio.ObjectInfo{}, nil)
	s.api.On("GetObjectReader", s.ctx, "models", "qm9/v1/model.safetensors.zst").
		Return(io.NopCloser(strings.NewReader("zst")), nil)

	rc, err := s.src.Open(s.ctx, "model.safetensors")
	s.Require().NoError(err)
	rc.Close()
}

func (s *MinIOSourceTestSuite) TestOpen_OtherErrorsAreStorageErrors() {
	s.api.On("StatObject", s.ctx, "models", "qm9/v1/scaler_x.json", minio.StatObjectOptions{}).
		Return(minio.ObjectInfo{}, minio.ErrorResponse{Code: "AccessDenied"})

	_, err := s.src.Open(s.ctx, "scaler_x.json")
	s.True(errors.IsCode(err, errors.ErrCodeStorageError))
}

func (s *MinIOSourceTestSuite) TestUpload_CreatesBucketOnce() {
	s.api.On("BucketExists", s.ctx, "models").Return(false, nil).Once()
	s.api.On("MakeBucket", s.ctx, "models", minio.MakeBucketOptions{Region: "us-east-1"}).Return(nil).Once()
	s.api.On("PutObject", s.ctx, "models", "qm9/v1/scaler_x.json", mock.Anything, int64(2),
		minio.PutObjectOptions{ContentType: "application/json"}).Return(minio.UploadInfo{Size: 2}, nil).Once()
	s.api.On("PutObject", s.ctx, "models", "qm9/v1/model.safetensors", mock.Anything, int64(3),
		minio.PutObjectOptions{ContentType: "application/octet-stream"}).Return(minio.UploadInfo{Size: 3}, nil).Once()

	s.Require().NoError(s.src.Upload(s.ctx, "scaler_x.json", bytes.NewReader([]byte("{}")), 2))
	s.Require().NoError(s.src.Upload(s.ctx, "model.safetensors", bytes.NewReader([]byte("abc")), 3))
}

func (s *MinIOSourceTestSuite) TestUpload_InvalidName() {
	err := s.src.Upload(s.ctx, "../x", strings.NewReader(""), 0)
	s.True(errors.IsCode(err, errors.ErrCodeValidation))
}

func (s *MinIOSourceTestSuite) TestList() {
	ch := make(chan minio.ObjectInfo, 2)
	ch <- minio.ObjectInfo{Key: "qm9/v1/model.safetensors"}
	ch <- minio.ObjectInfo{Key: "qm9/v1/targets.json"}
	close(ch)
	s.api.On("ListObjects", s.ctx, "models", minio.ListObjectsOptions{Prefix: "qm9/v1/", Recursive: true}).
		Return((<-chan minio.ObjectInfo)(ch))

	names, err := s.src.List(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"model.safetensors", "targets.json"}, names)
}

func (s *MinIOSourceTestSuite) TestHealthCheck() {
	s.api.On("BucketExists", s.ctx, "models").Return(false, nil).Once()
	err := s.src.HealthCheck(s.ctx)
	s.True(errors.IsCode(err, errors.ErrCodeNotFound))

	s.api.On("BucketExists", s.ctx, "models").Return(true, nil).Once()
	s.NoError(s.src.HealthCheck(s.ctx))
}

func TestMinIOSourceTestSuite(t *testing.T) {
	suite.Run(t, new(MinIOSourceTestSuite))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", contentType("scaler_x.json.zst"))
	assert.Equal(t, "application/octet-stream", contentType("model.safetensors"))
}

func TestNoPrefix(t *testing.T) {
	src := NewMinIOSourceWithClient(new(MockMinIOAPI), "b", "", nil)
	require.Equal(t, "model.safetensors", src.objectName("model.safetensors"))
}

//Personal.AI order the ending
