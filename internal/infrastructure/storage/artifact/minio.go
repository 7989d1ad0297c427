package artifact

import (
	"context"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/turtacn/MolProp-Intelligence/internal/config"
	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolProp-Intelligence/pkg/errors"
)

// MinIOAPI is the subset of *minio.Client the artifact source uses.
// GetObjectReader stands in for GetObject so tests need not build a
// *minio.Object.
type MinIOAPI interface {
	ListBuckets(ctx context.Context) ([]minio.BucketInfo, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	GetObjectReader(ctx context.Context, bucketName, objectName string) (io.ReadCloser, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

type clientAdapter struct {
	*minio.Client
}

func (a clientAdapter) GetObjectReader(ctx context.Context, bucketName, objectName string) (io.ReadCloser, error) {
	return a.Client.GetObject(ctx, bucketName, objectName, minio.GetObjectOptions{})
}

// MinIOSource reads artifacts from bucket/prefix.
type MinIOSource struct {
	client MinIOAPI
	bucket string
	prefix string
	region string
	logger logging.Logger
	mu     sync.Mutex
	ready  bool
}

// NewMinIOSource connects to cfg.Endpoint.
func NewMinIOSource(ctx context.Context, cfg config.MinIOConfig, prefix string, log logging.Logger) (*MinIOSource, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to create minio client")
	}
	s := NewMinIOSourceWithClient(clientAdapter{client}, cfg.Bucket, prefix, log)
	s.region = cfg.Region

	// Only connectivity is checked here; Upload creates a missing bucket.
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := s.client.BucketExists(cctx, cfg.Bucket); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "minio is unreachable")
	}
	log.Info("MinIO artifact source connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket),
		logging.String("prefix", prefix),
		logging.Bool("ssl", cfg.UseSSL))
	return s, nil
}

// NewMinIOSourceWithClient wraps an existing client.
func NewMinIOSourceWithClient(client MinIOAPI, bucket, prefix string, log logging.Logger) *MinIOSource {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &MinIOSource{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		region: "us-east-1",
		logger: log,
	}
}

func (s *MinIOSource) objectName(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Open implements Source.
func (s *MinIOSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return openWithFallback(ctx, name, s.open)
}

func (s *MinIOSource) open(ctx context.Context, name string) (io.ReadCloser, error) {
	obj := s.objectName(name)
	if _, err := s.client.StatObject(ctx, s.bucket, obj, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return nil, notFound(name)
		}
		return nil, errors.Wrapf(err, errors.ErrCodeStorageError, "stat object %s", obj)
	}
	rc, err := s.client.GetObjectReader(ctx, s.bucket, obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, notFound(name)
		}
		return nil, errors.Wrapf(err, errors.ErrCodeStorageError, "get object %s", obj)
	}
	return rc, nil
}

// Upload stores one artifact, creating the bucket on first use.
func (s *MinIOSource) Upload(ctx context.Context, name string, r io.Reader, size int64) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}
	obj := s.objectName(name)
	info, err := s.client.PutObject(ctx, s.bucket, obj, r, size, minio.PutObjectOptions{
		ContentType: contentType(name),
	})
	if err != nil {
		return errors.Wrapf(err, errors.ErrCodeStorageError, "put object %s", obj)
	}
	s.logger.Info("artifact uploaded",
		logging.String("bucket", s.bucket),
		logging.String("object", obj),
		logging.Int64("size", info.Size))
	return nil
}

// List returns the artifact names under the prefix.
func (s *MinIOSource) List(ctx context.Context) ([]string, error) {
	opts := minio.ListObjectsOptions{Recursive: true}
	if s.prefix != "" {
		opts.Prefix = s.prefix + "/"
	}
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.ErrCodeStorageError, "list objects")
		}
		names = append(names, strings.TrimPrefix(obj.Key, opts.Prefix))
	}
	return names, nil
}

// HealthCheck verifies that the bucket exists.
func (s *MinIOSource) HealthCheck(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "minio health check failed")
	}
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "artifact bucket does not exist").WithDetail(s.bucket)
	}
	return nil
}

func (s *MinIOSource) ensureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.Wrapf(err, errors.ErrCodeStorageError, "check bucket %s", s.bucket)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return errors.Wrapf(err, errors.ErrCodeStorageError, "create bucket %s", s.bucket)
		}
		s.logger.Info("created bucket", logging.String("bucket", s.bucket))
	}
	s.ready = true
	return nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

func contentType(name string) string {
	switch path.Ext(strings.TrimSuffix(name, CompressedSuffix)) {
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

var _ Source = (*MinIOSource)(nil)

//Personal.AI order the ending
