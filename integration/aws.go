package integration

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	klog "k8s.io/klog/v2"
)

// SessionOptions selects the credentials and region used to reach S3.
// Empty fields fall back to the SDK's default resolution.
type SessionOptions struct {
	Profile string
	Region  string
}

// AWS holds the session and the snapshot fetcher built on it
type AWS struct {
	Session *session.Session
	Fetcher *Fetcher
}

// NewAWS returns a new AWS integration
func NewAWS(opts SessionOptions) (*AWS, error) {
	cfg := aws.NewConfig()
	if opts.Region != "" {
		cfg = cfg.WithRegion(opts.Region)
	}

	s, err := session.NewSessionWithOptions(session.Options{
		Config:            *cfg,
		Profile:           opts.Profile,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("creating AWS session: %w", err)
	}
	klog.V(4).InfoS("Created AWS session", "profile", opts.Profile, "region", aws.StringValue(s.Config.Region))

	return &AWS{
		Session: s,
		Fetcher: NewFetcher(s3.New(s)),
	}, nil
}
