package s3

import (
	"fleetcare/config"
	"fleetcare/session"
	"io"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

var (
	EvidenceBucket *oss.Bucket

	GetObjectFunc    func(string, *session.Session, ...oss.Option) (io.ReadCloser, error)
	PutObjectFunc    func(string, io.Reader, *session.Session, ...oss.Option) error
	DeleteObjectFunc func(string, *session.Session) error
)

func Bootstrap(c config.OssConfig) error {
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = "dummy"
	}
	bucket, err := BuildBucket(endpoint, c.AccessKey, c.SecretKey, c.Bucket)
	if err != nil {
		return err
	}
	EvidenceBucket = bucket

	GetObjectFunc = GetObject
	PutObjectFunc = PutObject
	DeleteObjectFunc = DeleteObject
	return nil
}

func BuildBucket(endpoint, accesskey, secretKey, bucketName string) (*oss.Bucket, error) {
	// endpoint http://oss-cn-hangzhou.aliyuncs.com
	cli, err := oss.New(endpoint, accesskey, secretKey, oss.HTTPClient(nil))
	if err != nil {
		return nil, err
	}
	return cli.Bucket(bucketName)
}

func startSpan(operation, key string, s *session.Session) opentracing.Span {
	if s == nil || s.Context == nil {
		return nil
	}
	parentSpan := opentracing.SpanFromContext(s.Context)
	if parentSpan == nil {
		return nil
	}
	sp := parentSpan.Tracer().StartSpan(operation, opentracing.ChildOf(parentSpan.Context()))
	sp.SetTag("object-key", key)
	return sp
}

func finishSpan(sp opentracing.Span, err error) {
	if sp != nil {
		ext.Error.Set(sp, err != nil)
		sp.Finish()
	}
}

func GetObject(key string, s *session.Session, opts ...oss.Option) (io.ReadCloser, error) {
	sp := startSpan("get-object", key, s)
	r, err := EvidenceBucket.GetObject(key, opts...)
	finishSpan(sp, err)
	return r, err
}

func PutObject(key string, r io.Reader, s *session.Session, opts ...oss.Option) error {
	sp := startSpan("put-object", key, s)
	err := EvidenceBucket.PutObject(key, r, opts...)
	finishSpan(sp, err)
	return err
}

func DeleteObject(key string, s *session.Session) error {
	sp := startSpan("delete-object", key, s)
	err := EvidenceBucket.DeleteObject(key)
	finishSpan(sp, err)
	return err
}
