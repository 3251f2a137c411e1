package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/gridwalk-cli/gridwalk"
)

// FetchRemote opens rawURL, which must be an http(s):// URL or an s3://
// bucket/key URL, honoring the caller's deadline. The caller owns closing
// the returned ReadCloser.
func FetchRemote(ctx context.Context, rawURL string, timeout time.Duration) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, gridwalk.NewLoadError("remote_url_invalid", err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		// fetchHTTP hands cancel to the returned ReadCloser; it fires on Close,
		// not here, since the body is still being streamed when this returns.
		return fetchHTTP(ctx, cancel, rawURL)
	case "s3":
		defer cancel() // download completes synchronously below; safe to cancel now
		return fetchS3(ctx, u)
	default:
		cancel()
		return nil, gridwalk.NewLoadError("remote_scheme_unsupported", fmt.Sprintf("unsupported URL scheme %q", u.Scheme))
	}
}

// cancelOnClose wraps a ReadCloser so the context timeout set up by
// FetchRemote is always released once the caller is done reading.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func fetchHTTP(ctx context.Context, cancel context.CancelFunc, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		cancel()
		return nil, gridwalk.NewLoadError("remote_request_failed", err.Error())
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		return nil, gridwalk.NewLoadError("remote_fetch_failed", err.Error()).WithCause(err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, gridwalk.NewLoadError("remote_fetch_failed", fmt.Sprintf("unexpected status %s", resp.Status))
	}
	return &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
}

// fetchS3 downloads the object into a uniquely named temp file (the download
// manager needs an io.WriterAt, which an HTTP response body cannot offer) and
// hands the caller a ReadCloser over that file; the file is removed on Close.
func fetchS3(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, gridwalk.NewLoadError("remote_s3_url_invalid", "s3 URL must be s3://bucket/key")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, gridwalk.NewRuntimeError("aws_config_failed", err.Error()).WithCause(err)
	}
	client := s3.NewFromConfig(awsCfg)
	downloader := manager.NewDownloader(client)

	tmp, err := os.CreateTemp("", "gridwalk-"+uuid.NewString()+filepath.Ext(key))
	if err != nil {
		return nil, gridwalk.NewRuntimeError("temp_file_failed", err.Error()).WithCause(err)
	}

	if _, err := downloader.Download(ctx, tmp, &s3.GetObjectInput{Bucket: &bucket, Key: &key}); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, gridwalk.NewLoadError("remote_s3_download_failed", err.Error()).WithCause(err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, gridwalk.NewRuntimeError("temp_file_seek_failed", err.Error()).WithCause(err)
	}
	return &tempFile{File: tmp}, nil
}

type tempFile struct{ *os.File }

func (t *tempFile) Close() error {
	err := t.File.Close()
	os.Remove(t.File.Name())
	return err
}
