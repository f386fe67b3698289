package attachments

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/aymenjlassi/darna-backend/pkg/logger"
	"github.com/aymenjlassi/darna-backend/pkg/metrics"
)

// Blob is a raw document or image captured at submit time and attached after
// the owning row has been committed.
type Blob struct {
	// Field is the column the resulting URL is written back to. Ordered
	// attachments such as property images carry no field.
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

// Uploaded is one stored blob, reported in submission order.
type Uploaded struct {
	Field string
	Name  string
	URL   string
}

type storageClient interface {
	Upload(ctx context.Context, bucket, object, contentType string, data []byte) (string, error)
}

// Uploader pushes blobs to object storage and reports partial failures
// without failing the batch.
type Uploader struct {
	gcs     storageClient
	bucket  string
	timeout time.Duration
	logg    *logger.Logger
	metrics *metrics.WorkflowMetrics
}

// NewUploader builds an uploader writing into the given bucket.
func NewUploader(gcs storageClient, bucket string, timeout time.Duration, logg *logger.Logger, m *metrics.WorkflowMetrics) (*Uploader, error) {
	if gcs == nil {
		return nil, fmt.Errorf("storage client required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket required")
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive")
	}
	return &Uploader{gcs: gcs, bucket: bucket, timeout: timeout, logg: logg, metrics: m}, nil
}

// UploadAll uploads every blob under the prefix and returns the uploads that
// succeeded, in submission order. Failures are aggregated into the returned
// error; a partial result is still usable.
func (u *Uploader) UploadAll(ctx context.Context, kind, prefix string, blobs []Blob) ([]Uploaded, error) {
	if len(blobs) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	start := time.Now()
	uploads := make([]Uploaded, 0, len(blobs))
	var errs error

	for _, blob := range blobs {
		if len(blob.Data) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("blob %q: empty data", blob.Name))
			u.markOutcome(kind, "skipped")
			continue
		}
		object := buildObjectKey(prefix, blob.Field, blob.Name)
		url, err := u.gcs.Upload(ctx, u.bucket, object, blob.ContentType, blob.Data)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("upload %q: %w", object, err))
			u.markOutcome(kind, "failed")
			if u.logg != nil {
				u.logg.Warn(u.logg.WithField(ctx, "object", object), "document upload failed")
			}
			continue
		}
		uploads = append(uploads, Uploaded{Field: blob.Field, Name: blob.Name, URL: url})
		u.markOutcome(kind, "uploaded")
	}

	if u.metrics != nil {
		u.metrics.ObserveAttachDuration(kind, time.Since(start))
	}
	return uploads, errs
}

// FieldURLs projects column-mapped uploads into field -> URL. Uploads without
// a field are left out; the first URL recorded for a field wins.
func FieldURLs(uploads []Uploaded) map[string]string {
	urls := make(map[string]string, len(uploads))
	for _, upload := range uploads {
		if upload.Field == "" {
			continue
		}
		if _, ok := urls[upload.Field]; ok {
			continue
		}
		urls[upload.Field] = upload.URL
	}
	return urls
}

func (u *Uploader) markOutcome(kind, outcome string) {
	if u.metrics != nil {
		u.metrics.IncAttachment(kind, outcome)
	}
}

var unsafeNameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func buildObjectKey(prefix, field, name string) string {
	base := strings.TrimSpace(name)
	if base == "" {
		base = field
	}
	if base == "" {
		base = "blob"
	}
	base = unsafeNameRe.ReplaceAllString(base, "_")
	return path.Join(prefix, field, base)
}
