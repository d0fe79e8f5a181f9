package prefetch

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"go.uber.org/zap"

	"github.com/example/reelfeed/internal/feed"
)

// S3Warmer warms s3:// sources by downloading the object into a local cache
// directory, so acquiring a player for that position hits disk instead of
// the network. Non-s3 URLs are passed through untouched.
type S3Warmer struct {
	Client   s3iface.S3API
	CacheDir string
	Log      *zap.Logger
}

// NewS3Warmer builds a warmer from the ambient AWS environment
// (AWS_DEFAULT_REGION and credentials from the standard chain).
func NewS3Warmer(cacheDir string, log *zap.Logger) (*S3Warmer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "reelfeed-assets")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset cache dir: %w", err)
	}
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(strings.TrimSpace(os.Getenv("AWS_DEFAULT_REGION"))),
	})
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return &S3Warmer{Client: s3.New(sess), CacheDir: cacheDir, Log: log}, nil
}

// Warm implements Warmer.
func (w *S3Warmer) Warm(ctx context.Context, pos feed.Position, sourceURL string) *Asset {
	a := &Asset{Position: pos, URL: sourceURL}
	go func() {
		path, err := w.download(ctx, sourceURL)
		if err != nil {
			w.Log.Debug("s3 asset warm failed", zap.String("url", sourceURL), zap.Error(err))
		}
		a.complete(path, err)
	}()
	return a
}

func (w *S3Warmer) download(ctx context.Context, sourceURL string) (string, error) {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return "", err
	}
	if u.Scheme != "s3" {
		// Nothing to stage locally; treat as warmed.
		return "", nil
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", fmt.Errorf("malformed s3 url %q", sourceURL)
	}

	localPath := filepath.Join(w.CacheDir, filepath.Base(key))
	if _, err := os.Stat(localPath); err == nil {
		return localPath, nil
	}

	out, err := w.Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", err
	}
	defer out.Body.Close()

	f, err := os.Create(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, out.Body); err != nil {
		os.Remove(localPath)
		return "", err
	}
	w.Log.Debug("s3 asset staged", zap.String("bucket", bucket), zap.String("key", key), zap.String("path", localPath))
	return localPath, nil
}
