package storage

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ObjectKey locates a package inside a bucket: <prefix>/<file name>.
type ObjectKey struct {
	Prefix   string
	FileName string
}

func (k ObjectKey) Key() string {
	return strings.TrimPrefix(path.Join(k.Prefix, k.FileName), "/")
}

// ParseSource splits an s3://<bucket>/<prefix> source.
func ParseSource(source string) (bucket, prefix string, err error) {
	u, err := url.Parse(source)
	if err != nil {
		return "", "", fmt.Errorf("invalid object store source %q: %w", source, err)
	}
	if !strings.EqualFold(u.Scheme, Scheme) {
		return "", "", fmt.Errorf("invalid object store source %q: scheme must be %s", source, Scheme)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("invalid object store source %q: missing bucket", source)
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}
