// Package s3 implements the storage backend on Amazon S3 (or any
// S3-compatible endpoint) with a local materialization cache.
//
// Objects are cloud-resident: their bytes live in the bucket and are only
// readable locally after Download copies them into the cache directory.
// Raw reads never touch the network; an undownloaded object reads as
// store.ErrNotDownloaded.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skyvault/skyvault/store"
)

// API is the subset of the S3 client the backend consumes. Narrowed so
// tests can substitute an in-memory fake.
type API interface {
	HeadObject(ctx context.Context, params *awss3.HeadObjectInput, optFns ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	CopyObject(ctx context.Context, params *awss3.CopyObjectInput, optFns ...func(*awss3.Options)) (*awss3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *awss3.DeleteObjectInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
}

// Options configures the S3 backend.
type Options struct {
	Bucket   string
	Region   string
	Endpoint string // custom endpoint (LocalStack, MinIO); empty for AWS
	Prefix   string // key prefix all paths are nested under
	CacheDir string // local directory downloaded objects land in

	// Static credentials; when empty the default AWS credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// Backend is a cloud storage backend over S3 with a local cache.
type Backend struct {
	client   API
	bucket   string
	prefix   string
	cacheDir string
	log      *zap.Logger
}

// New creates an S3 backend from options, building a real client. Fails
// when the bucket is missing or the AWS configuration cannot be loaded, so
// callers can fall back to a local backend.
func New(ctx context.Context, opts Options, log *zap.Logger) (*Backend, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required")
	}

	cfgOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" {
		cfgOptions = append(cfgOptions, awsconfig.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, opts.SessionToken),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, cfgOptions...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	s3Options := []func(*awss3.Options){}
	if opts.Endpoint != "" {
		s3Options = append(s3Options, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true // path-style addressing for custom endpoints
		})
	}

	return NewWithClient(awss3.NewFromConfig(cfg, s3Options...), opts, log)
}

// NewWithClient creates an S3 backend over an existing client.
func NewWithClient(client API, opts Options, log *zap.Logger) (*Backend, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required")
	}
	if opts.CacheDir == "" {
		opts.CacheDir = filepath.Join(os.TempDir(), "skyvault-cache", opts.Bucket)
	}
	if err := os.MkdirAll(opts.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("s3: create cache dir: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Backend{
		client:   client,
		bucket:   opts.Bucket,
		prefix:   strings.Trim(opts.Prefix, "/"),
		cacheDir: opts.CacheDir,
		log:      log,
	}, nil
}

// key maps a backend path onto an object key under the configured prefix.
func (b *Backend) key(p string) string {
	p = strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(p)), "/")
	if b.prefix == "" {
		return p
	}
	return path.Join(b.prefix, p)
}

// cachePath is where a path's downloaded bytes live locally.
func (b *Backend) cachePath(p string) string {
	return filepath.Join(b.cacheDir, filepath.FromSlash(b.key(p)))
}

func (b *Backend) headRemote(ctx context.Context, p string) (*awss3.HeadObjectOutput, bool, error) {
	out, err := b.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(p)),
	})
	if err != nil {
		var notFound *s3types.NotFound
		if errors.As(err, &notFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("head %s: %w", b.key(p), err)
	}
	return out, true, nil
}

func (b *Backend) Exists(ctx context.Context, p string) (bool, error) {
	if _, err := os.Stat(b.cachePath(p)); err == nil {
		return true, nil
	}
	_, ok, err := b.headRemote(ctx, p)
	return ok, err
}

func (b *Backend) IsDir(ctx context.Context, p string) (bool, error) {
	if fi, err := os.Stat(b.cachePath(p)); err == nil && fi.IsDir() {
		return true, nil
	}
	out, err := b.client.ListObjectsV2(ctx, &awss3.ListObjectsV2Input{
		Bucket:  aws.String(b.bucket),
		Prefix:  aws.String(b.key(p) + "/"),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, fmt.Errorf("list %s: %w", b.key(p), err)
	}
	return len(out.Contents) > 0, nil
}

// MkdirAll only prepares the local cache directory; S3 has no directories.
func (b *Backend) MkdirAll(_ context.Context, p string) error {
	return os.MkdirAll(b.cachePath(p), 0o755)
}

// ReadBytes serves exclusively from the cache. An object that exists
// remotely but was never downloaded reads as ErrNotDownloaded.
func (b *Backend) ReadBytes(ctx context.Context, p string) ([]byte, error) {
	data, err := os.ReadFile(b.cachePath(p))
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	_, remote, herr := b.headRemote(ctx, p)
	if herr != nil {
		return nil, herr
	}
	if remote {
		return nil, fmt.Errorf("%w: %s", store.ErrNotDownloaded, p)
	}
	return nil, fmt.Errorf("%w: %s", store.ErrNotExist, p)
}

func (b *Backend) ReadText(ctx context.Context, p string) (string, error) {
	data, err := b.ReadBytes(ctx, p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteBytes lands bytes in the cache and uploads them in one call.
func (b *Backend) WriteBytes(ctx context.Context, p string, data []byte) error {
	if err := b.writeCache(p, data); err != nil {
		return err
	}

	input := &awss3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(p)),
		Body:   bytes.NewReader(data),
	}
	if mtype := mimetype.Detect(data); mtype != nil {
		input.ContentType = aws.String(mtype.String())
	}
	if _, err := b.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put %s: %w", b.key(p), err)
	}
	return nil
}

func (b *Backend) WriteText(ctx context.Context, p string, text string) error {
	return b.WriteBytes(ctx, p, []byte(text))
}

func (b *Backend) writeCache(p string, data []byte) error {
	target := b.cachePath(p)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp := target + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace cache entry: %w", err)
	}
	return nil
}

func (b *Backend) Copy(ctx context.Context, from, to string) error {
	_, err := b.client.CopyObject(ctx, &awss3.CopyObjectInput{
		Bucket:     aws.String(b.bucket),
		Key:        aws.String(b.key(to)),
		CopySource: aws.String(b.bucket + "/" + b.key(from)),
	})
	if err != nil {
		return fmt.Errorf("copy %s to %s: %w", b.key(from), b.key(to), err)
	}
	// Mirror the copy locally when the source is materialized.
	if data, rerr := os.ReadFile(b.cachePath(from)); rerr == nil {
		return b.writeCache(to, data)
	}
	return nil
}

func (b *Backend) Move(ctx context.Context, from, to string) error {
	if err := b.Copy(ctx, from, to); err != nil {
		return err
	}
	return b.Remove(ctx, from)
}

func (b *Backend) Remove(ctx context.Context, p string) error {
	if _, err := b.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(p)),
	}); err != nil {
		return fmt.Errorf("delete %s: %w", b.key(p), err)
	}
	if err := os.RemoveAll(b.cachePath(p)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// List merges the remote listing under the path with cached entries, so
// freshly written but not yet listed objects still show up.
func (b *Backend) List(ctx context.Context, p string) ([]string, error) {
	prefix := b.key(p)
	if prefix != "" {
		prefix += "/"
	}

	seen := make(map[string]bool)
	out, err := b.client.ListObjectsV2(ctx, &awss3.ListObjectsV2Input{
		Bucket:    aws.String(b.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	for _, obj := range out.Contents {
		if obj.Key != nil {
			seen[path.Base(*obj.Key)] = true
		}
	}
	for _, cp := range out.CommonPrefixes {
		if cp.Prefix != nil {
			seen[path.Base(strings.TrimSuffix(*cp.Prefix, "/"))] = true
		}
	}

	if entries, err := os.ReadDir(b.cachePath(p)); err == nil {
		for _, e := range entries {
			seen[e.Name()] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ListGlob lists every key under root and keeps the ones whose root-relative
// form matches the doublestar pattern.
func (b *Backend) ListGlob(ctx context.Context, root, pattern string) ([]string, error) {
	prefix := b.key(root)
	if prefix != "" {
		prefix += "/"
	}

	out, err := b.client.ListObjectsV2(ctx, &awss3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}

	var matches []string
	for _, obj := range out.Contents {
		if obj.Key == nil {
			continue
		}
		rel := strings.TrimPrefix(*obj.Key, prefix)
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, rel)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

func (b *Backend) Join(elem ...string) string {
	return path.Join(elem...)
}

func (b *Backend) IsCloudResident(ctx context.Context, p string) (bool, error) {
	_, ok, err := b.headRemote(ctx, p)
	return ok, err
}

func (b *Backend) IsDownloaded(_ context.Context, p string) (bool, error) {
	fi, err := os.Stat(b.cachePath(p))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !fi.IsDir(), nil
}

// Download materializes the object's bytes into the cache. Blocks until the
// transfer completes or ctx is done.
func (b *Backend) Download(ctx context.Context, p string) error {
	out, err := b.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(p)),
	})
	if err != nil {
		return fmt.Errorf("download %s: %w", b.key(p), err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return fmt.Errorf("download %s: read body: %w", b.key(p), err)
	}

	b.log.Debug("materialized cloud object",
		zap.String("key", b.key(p)),
		zap.Int("size", len(data)))
	return b.writeCache(p, data)
}

func (b *Backend) Stat(ctx context.Context, p string) (store.Info, error) {
	if fi, err := os.Stat(b.cachePath(p)); err == nil {
		info := store.Info{
			Size:      fi.Size(),
			ModTime:   fi.ModTime(),
			CreatedAt: fi.ModTime(),
			IsDir:     fi.IsDir(),
		}
		if !fi.IsDir() {
			if mtype, merr := mimetype.DetectFile(b.cachePath(p)); merr == nil {
				info.MIME = mtype.String()
			}
		}
		return info, nil
	}

	head, ok, err := b.headRemote(ctx, p)
	if err != nil {
		return store.Info{}, err
	}
	if !ok {
		return store.Info{}, fmt.Errorf("%w: %s", store.ErrNotExist, p)
	}
	return store.Info{
		Size:      aws.ToInt64(head.ContentLength),
		ModTime:   aws.ToTime(head.LastModified),
		CreatedAt: aws.ToTime(head.LastModified),
		MIME:      aws.ToString(head.ContentType),
	}, nil
}
