// Package config resolves scanner settings from flags, CSPM_* environment
// variables, an optional YAML file and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. CSPM_BUCKET
const EnvPrefix = "CSPM"

// Configuration keys. Flags bound by Load use the same names.
const (
	KeyBucket  = "bucket"
	KeyKey     = "key"
	KeyRegion  = "region"
	KeyProfile = "profile"
	KeyAddr    = "addr"
)

const (
	DefaultBucket = "enterprise-cspm"
	DefaultKey    = "sample_data.json"
	DefaultAddr   = ":5000"
)

var keys = []string{KeyBucket, KeyKey, KeyRegion, KeyProfile, KeyAddr}

// Config holds the settings for one scanner process
type Config struct {
	// Bucket and Key locate the snapshot object
	Bucket string
	Key    string

	// Region and Profile select AWS credentials; empty means SDK defaults
	Region  string
	Profile string

	// Addr is the HTTP listen address of the server
	Addr string
}

// Validate checks that the snapshot location is set
func (c Config) Validate() error {
	var errs []error
	if c.Bucket == "" {
		errs = append(errs, errors.New("bucket must not be empty"))
	}
	if c.Key == "" {
		errs = append(errs, errors.New("object key must not be empty"))
	}
	return errors.Join(errs...)
}

// Load builds a Config. Precedence, highest first: changed flags in flags,
// environment, config file, defaults. When file is empty, config.yaml in the
// working directory is read if it exists.
func Load(flags *pflag.FlagSet, file string) (Config, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyBucket, DefaultBucket)
	v.SetDefault(KeyKey, DefaultKey)
	v.SetDefault(KeyRegion, "")
	v.SetDefault(KeyProfile, "")
	v.SetDefault(KeyAddr, DefaultAddr)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	if flags != nil {
		for _, key := range keys {
			f := flags.Lookup(key)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("binding flag %q: %w", key, err)
			}
		}
	}

	cfg := Config{
		Bucket:  v.GetString(KeyBucket),
		Key:     v.GetString(KeyKey),
		Region:  v.GetString(KeyRegion),
		Profile: v.GetString(KeyProfile),
		Addr:    v.GetString(KeyAddr),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// AddFlags registers the snapshot and AWS flags understood by Load
func AddFlags(fs *pflag.FlagSet) {
	fs.String(KeyBucket, DefaultBucket, "S3 bucket holding the configuration snapshot")
	fs.String(KeyKey, DefaultKey, "object key of the configuration snapshot")
	fs.String(KeyRegion, "", "AWS region (defaults to the SDK's resolution)")
	fs.String(KeyProfile, "", "AWS shared config profile")
}
