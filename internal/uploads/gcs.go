package uploads

import (
	"context"
	stderrors "errors"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSBackend keeps objects in a Cloud Storage bucket under an optional
// prefix.
type GCSBackend struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCSBackend(client *storage.Client, bucket, prefix string) *GCSBackend {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &GCSBackend{client: client, bucket: bucket, prefix: prefix}
}

func (b *GCSBackend) object(name string) *storage.ObjectHandle {
	return b.client.Bucket(b.bucket).Object(b.prefix + name)
}

func (b *GCSBackend) Save(ctx context.Context, name string, r io.Reader, contentType string) (int64, error) {
	w := b.object(name).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType
	n, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	return n, nil
}

func (b *GCSBackend) Open(ctx context.Context, name string) (io.ReadCloser, *ObjectInfo, error) {
	rc, err := b.object(name).NewReader(ctx)
	if err != nil {
		if stderrors.Is(err, storage.ErrObjectNotExist) {
			return nil, nil, ErrNotExist
		}
		return nil, nil, err
	}
	info := &ObjectInfo{
		Name:        name,
		Size:        rc.Attrs.Size,
		ContentType: rc.Attrs.ContentType,
		ModTime:     rc.Attrs.LastModified,
	}
	return rc, info, nil
}

func (b *GCSBackend) Delete(ctx context.Context, name string) error {
	err := b.object(name).Delete(ctx)
	if err != nil && !stderrors.Is(err, storage.ErrObjectNotExist) {
		return err
	}
	return nil
}

func (b *GCSBackend) List(ctx context.Context) ([]ObjectInfo, error) {
	it := b.client.Bucket(b.bucket).Objects(ctx, &storage.Query{Prefix: b.prefix})
	var out []ObjectInfo
	for {
		attrs, err := it.Next()
		if stderrors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		name := strings.TrimPrefix(attrs.Name, b.prefix)
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		out = append(out, ObjectInfo{
			Name:        name,
			Size:        attrs.Size,
			ContentType: attrs.ContentType,
			ModTime:     attrs.Updated,
		})
	}
	sortNewestFirst(out)
	return out, nil
}

func (b *GCSBackend) Close() error {
	return b.client.Close()
}
