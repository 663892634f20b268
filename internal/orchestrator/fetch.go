package orchestrator

import (
    "context"
    "errors"
    "fmt"
    "io"
    "net/http"
    "os"
    "strings"

    "github.com/rs/zerolog/log"

    "github.com/local/pdfclean/internal/storage"
)

// downloadPrefix names temp files holding fetched inputs; CleanupTemps
// removes stale ones.
const downloadPrefix = "pdfclean-dl-"

// S3Downloader fetches s3:// inputs; *storage.S3Client satisfies it.
type S3Downloader interface {
    DownloadToFile(ctx context.Context, bucket, key, pattern string) (string, error)
}

// Fetcher resolves an input reference to a local file.
// Supports:
// - file://path or absolute/relative filesystem paths
// - http(s):// URLs (downloads to temp)
// - s3://bucket/key (downloads to temp via AWS SDK v2)
type Fetcher struct {
    S3     S3Downloader
    Client *http.Client
}

// Resolve returns the local path for ref and a cleanup func that removes any
// temp download. The cleanup func is never nil.
func (f *Fetcher) Resolve(ctx context.Context, ref string) (string, func(), error) {
    noop := func() {}
    var localPath string
    var err error

    switch {
    case strings.HasPrefix(ref, "s3://"):
        localPath, err = f.downloadS3(ctx, ref)
    case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
        localPath, err = f.downloadHTTP(ctx, ref)
    case strings.HasPrefix(ref, "file://"):
        return statLocal(strings.TrimPrefix(ref, "file://"))
    default:
        return statLocal(ref)
    }
    if err != nil {
        return "", noop, err
    }
    log.Debug().Str("input", ref).Str("local", localPath).Msg("fetched remote input")
    return localPath, func() { _ = os.Remove(localPath) }, nil
}

func statLocal(path string) (string, func(), error) {
    noop := func() {}
    info, err := os.Stat(path)
    if errors.Is(err, os.ErrNotExist) {
        return "", noop, ErrInputNotFound
    }
    if err != nil {
        return "", noop, err
    }
    if info.IsDir() {
        return "", noop, fmt.Errorf("%w: %s is a directory", ErrInputNotFound, path)
    }
    return path, noop, nil
}

func (f *Fetcher) downloadHTTP(ctx context.Context, url string) (string, error) {
    client := f.Client
    if client == nil { client = http.DefaultClient }
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
    if err != nil { return "", err }
    resp, err := client.Do(req)
    if err != nil { return "", err }
    defer resp.Body.Close()
    if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
        return "", fmt.Errorf("%w: http %d", ErrInputNotFound, resp.StatusCode)
    }
    if resp.StatusCode != http.StatusOK { return "", fmt.Errorf("http %d", resp.StatusCode) }
    tmp, err := os.CreateTemp("", downloadPrefix+"*.pdf")
    if err != nil { return "", err }
    defer tmp.Close()
    if _, err := io.Copy(tmp, resp.Body); err != nil {
        _ = os.Remove(tmp.Name())
        return "", err
    }
    return tmp.Name(), nil
}

func (f *Fetcher) downloadS3(ctx context.Context, s3url string) (string, error) {
    bucket, key, err := storage.ParseURL(s3url)
    if err != nil { return "", err }
    if f.S3 == nil { return "", fmt.Errorf("s3 input %s: no S3 client configured", s3url) }
    p, err := f.S3.DownloadToFile(ctx, bucket, key, downloadPrefix+"*.pdf")
    if err != nil {
        if strings.Contains(err.Error(), "NoSuchKey") {
            return "", fmt.Errorf("%w: %v", ErrInputNotFound, err)
        }
        return "", err
    }
    return p, nil
}
