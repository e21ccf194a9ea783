package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/gitconddb/gitconddb/internal/iov"
)

// S3Backend is a supplemental remote back-end: objects live under a single
// S3 bucket, with the tag component of an object id mapped to a key
// prefix ("<bucket>/<tag>/<path>"). It has no native notion of commit
// history, so CommitTime falls back to the bucket object's LastModified
// the way FSBackend falls back to MaxTime — except S3 objects do carry a
// real timestamp, so that's what's reported here instead.
type S3Backend struct {
	bucket string
	prefix string
	handle *LazyHandle[*s3.Client]
}

// NewS3Backend returns a back-end rooted at bucket, with object ids
// resolved under the given key prefix (pass "" for no prefix). The client
// is constructed lazily from the default AWS config chain (environment,
// shared config, IAM role).
func NewS3Backend(bucket, prefix string) *S3Backend {
	b := &S3Backend{bucket: bucket, prefix: strings.Trim(prefix, "/")}
	b.handle = NewLazyHandle(func() (*s3.Client, error) {
		cfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			return nil, &initError{root: bucket, err: err}
		}
		return s3.NewFromConfig(cfg), nil
	})
	return b
}

func (s *S3Backend) key(objectID string) string {
	tag, path := SplitObjectID(objectID)
	parts := make([]string, 0, 3)
	if s.prefix != "" {
		parts = append(parts, s.prefix)
	}
	parts = append(parts, tag)
	if path != "" {
		parts = append(parts, path)
	}
	return strings.Join(parts, "/")
}

// Exists reports whether the key (or, for a "directory", any key under
// the key + "/" prefix) exists in the bucket.
func (s *S3Backend) Exists(ctx context.Context, objectID string) bool {
	client, err := s.handle.Get()
	if err != nil {
		return false
	}
	key := s.key(objectID)

	if _, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err == nil {
		return true
	}

	out, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(key + "/"),
		MaxKeys: aws.Int32(1),
	})
	return err == nil && len(out.Contents) > 0
}

// Get resolves objectID to a blob (a single S3 object body) or a
// directory listing (the immediate children under the key prefix,
// derived from a delimited ListObjectsV2 call).
func (s *S3Backend) Get(ctx context.Context, objectID string) (Object, error) {
	client, err := s.handle.Get()
	if err != nil {
		return Object{}, err
	}
	key := s.key(objectID)

	if obj, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err == nil {
		defer obj.Body.Close()
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, obj.Body); err != nil {
			return Object{}, unresolvable(objectID)
		}
		return Object{Blob: buf.String()}, nil
	}

	dirPrefix := key + "/"
	out, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(dirPrefix),
		Delimiter: aws.String("/"),
	})
	if err != nil || (len(out.CommonPrefixes) == 0 && len(out.Contents) == 0) {
		return Object{}, unresolvable(objectID)
	}

	_, path := SplitObjectID(objectID)
	dir := Directory{Root: path}
	for _, cp := range out.CommonPrefixes {
		dir.Dirs = append(dir.Dirs, trimSegment(aws.ToString(cp.Prefix), dirPrefix))
	}
	for _, obj := range out.Contents {
		name := trimSegment(aws.ToString(obj.Key), dirPrefix)
		if name != "" {
			dir.Files = append(dir.Files, name)
		}
	}
	return Object{IsDir: true, Dir: dir}, nil
}

func trimSegment(full, prefix string) string {
	rest := strings.TrimPrefix(full, prefix)
	return strings.TrimSuffix(rest, "/")
}

// CommitTime reports the bucket object's LastModified for "<tag>" treated
// as a zero-path object id, falling back to iov.MaxTime if the tag has no
// direct object (e.g. it only exists as a prefix).
func (s *S3Backend) CommitTime(ctx context.Context, ref string) (iov.TimePoint, error) {
	client, err := s.handle.Get()
	if err != nil {
		return 0, err
	}
	out, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(ref)),
	})
	var notFound *types.NotFound
	if err != nil {
		if errors.As(err, &notFound) {
			return iov.MaxTime, nil
		}
		return 0, unresolvable(ref)
	}
	if out.LastModified == nil {
		return iov.MaxTime, nil
	}
	return iov.TimePoint(out.LastModified.Unix()), nil
}

// Disconnect drops the held client; the next call reconstructs it.
func (s *S3Backend) Disconnect() error {
	s.handle.Reset(nil)
	return nil
}

// Connected reports whether a client is currently held.
func (s *S3Backend) Connected() bool {
	return s.handle.Connected()
}
