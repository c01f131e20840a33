package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/schollz/progressbar/v3"
	klog "k8s.io/klog/v2"
)

// Document is a decoded configuration snapshot
type Document map[string]any

// Fetcher reads configuration snapshots from S3
type Fetcher struct {
	client   s3iface.S3API
	progress io.Writer
}

// NewFetcher returns a Fetcher backed by the given S3 client
func NewFetcher(client s3iface.S3API) *Fetcher {
	return &Fetcher{client: client}
}

// WithProgress returns a copy of the fetcher that draws a download progress
// bar on w while the object body is read
func (f *Fetcher) WithProgress(w io.Writer) *Fetcher {
	cp := *f
	cp.progress = w
	return &cp
}

// Fetch reads bucket/key fully into memory and decodes it as a JSON object
func (f *Fetcher) Fetch(ctx context.Context, bucket, key string) (Document, error) {
	klog.V(4).InfoS("Fetching snapshot", "bucket", bucket, "key", key)

	out, err := f.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classifyGetObjectError(err, bucket, key)
	}
	defer out.Body.Close()

	var body io.Reader = out.Body
	if f.progress != nil {
		bar := newDownloadBar(aws.Int64Value(out.ContentLength), f.progress)
		defer bar.Finish()
		body = io.TeeReader(out.Body, bar)
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, &Error{
			Category:   ErrRetrievalFailed,
			Bucket:     bucket,
			Key:        key,
			Message:    "failed to read object body",
			Underlying: err,
		}
	}
	klog.V(4).InfoS("Fetched snapshot", "bucket", bucket, "key", key, "bytes", len(raw))

	doc, err := DecodeDocument(raw)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			e.Bucket, e.Key = bucket, key
		}
		return nil, err
	}
	return doc, nil
}

// DecodeDocument parses raw as UTF-8 JSON whose top-level value is an object
func DecodeDocument(raw []byte) (Document, error) {
	if !utf8.Valid(raw) {
		return nil, &Error{Category: ErrParseFailed, Message: "object is not valid UTF-8"}
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, &Error{Category: ErrParseFailed, Message: "object is not valid JSON", Underlying: err}
	}

	m, ok := v.(map[string]any)
	if !ok {
		return nil, &Error{
			Category: ErrParseFailed,
			Message:  fmt.Sprintf("expected a JSON object at top level, got %s", jsonKind(v)),
		}
	}
	return Document(m), nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// newDownloadBar returns a byte counter bar; an unknown size renders a spinner
func newDownloadBar(size int64, w io.Writer) *progressbar.ProgressBar {
	if size <= 0 {
		size = -1
	}
	return progressbar.NewOptions64(
		size,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Downloading snapshot..."),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}
