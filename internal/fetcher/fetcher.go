// Package fetcher opens tabular exports from local paths, http(s) URLs and
// ftp URLs.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Fetcher downloads a remote resource.
type Fetcher interface {
	// Download returns the resource body. The caller closes it.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile writes the resource to path and returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// Opener routes a location to the right Fetcher by scheme. Anything without
// an http, https or ftp scheme is treated as a local path.
type Opener struct {
	HTTP Fetcher
	FTP  Fetcher
}

// NewOpener returns an Opener backed by an HTTPFetcher and an FTPFetcher.
func NewOpener(httpOpts HTTPOptions, ftpOpts FTPOptions) *Opener {
	return &Opener{
		HTTP: NewHTTPFetcher(httpOpts),
		FTP:  NewFTPFetcher(ftpOpts),
	}
}

// Open returns a reader over the resource at location.
func (o *Opener) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	switch schemeOf(location) {
	case "http", "https":
		return o.HTTP.Download(ctx, location)
	case "ftp":
		return o.FTP.Download(ctx, location)
	default:
		f, err := os.Open(localPath(location))
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open %s", location)
		}
		return f, nil
	}
}

// Local returns a filesystem path holding the resource. Remote resources are
// downloaded into dir; cleanup removes the copy and is a no-op for local paths.
func (o *Opener) Local(ctx context.Context, location, dir string) (path string, cleanup func(), err error) {
	var f Fetcher
	switch schemeOf(location) {
	case "http", "https":
		f = o.HTTP
	case "ftp":
		f = o.FTP
	default:
		return localPath(location), func() {}, nil
	}

	tmp, err := os.CreateTemp(dir, "source-*"+filepath.Ext(remotePath(location)))
	if err != nil {
		return "", nil, eris.Wrap(err, "fetcher: create temp file")
	}
	path = tmp.Name()
	_ = tmp.Close()
	cleanup = func() { _ = os.Remove(path) }

	if _, err := f.DownloadToFile(ctx, location, path); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}

// IsRemote reports whether location would be fetched over the network.
func IsRemote(location string) bool {
	switch schemeOf(location) {
	case "http", "https", "ftp":
		return true
	}
	return false
}

func schemeOf(location string) string {
	i := strings.Index(location, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(location[:i])
}

func localPath(location string) string {
	return strings.TrimPrefix(location, "file://")
}

func remotePath(location string) string {
	u, err := url.Parse(location)
	if err != nil {
		return location
	}
	return u.Path
}

// writeFile copies r into a new file at path.
func writeFile(r io.Reader, path string) (int64, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "create file")
	}
	defer file.Close() //nolint:errcheck

	n, err := io.Copy(file, r)
	if err != nil {
		return n, eris.Wrap(err, "write file")
	}
	return n, nil
}
