package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/hupe1980/golsh/blobstore"
	"github.com/hupe1980/golsh/blobstore/minio"
	"github.com/hupe1980/golsh/blobstore/s3"
)

// storeURI is a parsed output location.
type storeURI struct {
	Scheme   string // "file", "s3" or "minio"
	Endpoint string // minio only
	Bucket   string
	Prefix   string
	Path     string // file only
}

func parseStoreURI(raw string) (storeURI, error) {
	if raw == "" {
		return storeURI{Scheme: "file", Path: "."}, nil
	}
	if !strings.Contains(raw, "://") {
		return storeURI{Scheme: "file", Path: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return storeURI{}, fmt.Errorf("invalid store uri %q: %w", raw, err)
	}
	path := strings.Trim(u.Path, "/")

	switch u.Scheme {
	case "file":
		p := u.Host + u.Path
		if p == "" {
			p = "."
		}
		return storeURI{Scheme: "file", Path: p}, nil
	case "s3":
		if u.Host == "" {
			return storeURI{}, fmt.Errorf("invalid store uri %q: missing bucket", raw)
		}
		return storeURI{Scheme: "s3", Bucket: u.Host, Prefix: path}, nil
	case "minio":
		bucket, prefix, _ := strings.Cut(path, "/")
		if u.Host == "" || bucket == "" {
			return storeURI{}, fmt.Errorf("invalid store uri %q: want minio://endpoint/bucket/prefix", raw)
		}
		return storeURI{Scheme: "minio", Endpoint: u.Host, Bucket: bucket, Prefix: prefix}, nil
	default:
		return storeURI{}, fmt.Errorf("unsupported store scheme %q", u.Scheme)
	}
}

// openStore resolves raw into a blob store.
func openStore(ctx context.Context, raw string) (blobstore.BlobStore, error) {
	loc, err := parseStoreURI(raw)
	if err != nil {
		return nil, err
	}

	switch loc.Scheme {
	case "s3":
		return s3.New(ctx, loc.Bucket, s3.WithPrefix(loc.Prefix))
	case "minio":
		return minio.NewFromEnv(loc.Endpoint, loc.Bucket, loc.Prefix)
	default:
		return blobstore.NewLocalStore(loc.Path), nil
	}
}
