package integration

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
)

// ErrorCategory tells which stage of fetching a snapshot failed
type ErrorCategory string

const (
	// ErrRetrievalFailed is returned when the snapshot object cannot be read
	// from the bucket (missing object or bucket, access denied, network)
	ErrRetrievalFailed ErrorCategory = "retrieval_failed"

	// ErrParseFailed is returned when the object content is not a UTF-8 JSON object
	ErrParseFailed ErrorCategory = "parse_failed"
)

// Error is returned by the fetcher with enough context to tell a storage
// failure apart from bad content.
type Error struct {
	Category ErrorCategory

	// Code is the AWS error code when the failure came from the SDK
	Code string

	Bucket string
	Key    string

	Message string

	Underlying error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Category, e.Message)
	if e.Bucket != "" || e.Key != "" {
		msg = fmt.Sprintf("%s [s3://%s/%s]", msg, e.Bucket, e.Key)
	}
	if e.Underlying != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Underlying)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// IsErrorCategory checks if an error belongs to a specific error category
func IsErrorCategory(err error, category ErrorCategory) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Category == category
	}
	return false
}

// classifyGetObjectError turns an SDK error from GetObject into an *Error
func classifyGetObjectError(err error, bucket, key string) *Error {
	e := &Error{
		Category:   ErrRetrievalFailed,
		Bucket:     bucket,
		Key:        key,
		Message:    "failed to get object",
		Underlying: err,
	}

	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return e
	}
	e.Code = aerr.Code()

	switch aerr.Code() {
	case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
		e.Message = "object not found"
	case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		e.Message = "access denied"
	case request.CanceledErrorCode:
		e.Message = "request canceled"
	case "RequestError":
		e.Message = "network error while reading object"
	}
	return e
}
