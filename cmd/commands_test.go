package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/S-Chan/cspm/assess"
	"github.com/S-Chan/cspm/integration"
	"github.com/S-Chan/cspm/version"
)

type fakeFetcher struct {
	doc integration.Document
	err error

	bucket, key string
}

func (f *fakeFetcher) Fetch(_ context.Context, bucket, key string) (integration.Document, error) {
	f.bucket, f.key = bucket, key
	return f.doc, f.err
}

type factoryCall struct {
	opts     integration.SessionOptions
	progress io.Writer
}

func fakeFactory(f *fakeFetcher, calls *[]factoryCall) fetcherFactory {
	return func(opts integration.SessionOptions, progress io.Writer) (snapshotFetcher, error) {
		*calls = append(*calls, factoryCall{opts: opts, progress: progress})
		return f, nil
	}
}

func execute(t *testing.T, factory fetcherFactory, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(factory)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

var snapshot = integration.Document{
	"s3_buckets": []any{
		map[string]any{"bucket_name": "public-logs", "public_access": true, "encryption": true},
	},
	"iam_roles": []any{
		map[string]any{"role_name": "admin", "policies": []any{"AdministratorAccess-FullAccess"}},
	},
}

func TestScanCommand_JSON(t *testing.T) {
	fetcher := &fakeFetcher{doc: snapshot}
	var calls []factoryCall

	out, err := execute(t, fakeFactory(fetcher, &calls), "scan", "--bucket", "audit-bucket", "--key", "snap.json", "--region", "eu-west-1", "--profile", "audit")
	require.NoError(t, err)

	require.Len(t, calls, 1)
	assert.Equal(t, integration.SessionOptions{Profile: "audit", Region: "eu-west-1"}, calls[0].opts)
	assert.Nil(t, calls[0].progress, "scan should not draw a progress bar")
	assert.Equal(t, "audit-bucket", fetcher.bucket)
	assert.Equal(t, "snap.json", fetcher.key)

	var findings []assess.Finding
	require.NoError(t, json.Unmarshal([]byte(out), &findings))
	assert.Equal(t, []assess.Finding{
		{Resource: "public-logs", Issue: "Bucket is public", Severity: assess.SeverityHigh},
		{Resource: "admin", Issue: "Role has FullAccess policies", Severity: assess.SeverityCritical},
	}, findings)
}

func TestScanCommand_Table(t *testing.T) {
	color.NoColor = true
	var calls []factoryCall

	out, err := execute(t, fakeFactory(&fakeFetcher{doc: snapshot}, &calls), "scan", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "public-logs")
	assert.Contains(t, out, "Summary: 2 findings")
}

func TestScanCommand_Defaults(t *testing.T) {
	fetcher := &fakeFetcher{doc: integration.Document{}}
	var calls []factoryCall

	out, err := execute(t, fakeFactory(fetcher, &calls), "scan")
	require.NoError(t, err)
	assert.Equal(t, "enterprise-cspm", fetcher.bucket)
	assert.Equal(t, "sample_data.json", fetcher.key)
	assert.JSONEq(t, `[]`, out)
}

func TestScanCommand_Errors(t *testing.T) {
	var calls []factoryCall

	_, err := execute(t, fakeFactory(&fakeFetcher{err: errors.New("retrieval_failed: object not found")}, &calls), "scan")
	assert.ErrorContains(t, err, "object not found")

	_, err = execute(t, fakeFactory(&fakeFetcher{doc: integration.Document{"ec2_instances": "i-1"}}, &calls), "scan")
	assert.ErrorContains(t, err, "assessment failed")

	_, err = execute(t, fakeFactory(&fakeFetcher{}, &calls), "scan", "--output", "xml")
	assert.ErrorContains(t, err, "unsupported output format")

	failing := func(integration.SessionOptions, io.Writer) (snapshotFetcher, error) {
		return nil, errors.New("no credentials")
	}
	_, err = execute(t, failing, "scan")
	assert.ErrorContains(t, err, "AWS integration creation failed")
}

func TestScanCommand_ConfigFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "cspm.yaml")
	require.NoError(t, os.WriteFile(file, []byte("bucket: from-file\nkey: file.json\n"), 0o644))

	fetcher := &fakeFetcher{doc: integration.Document{}}
	var calls []factoryCall
	_, err := execute(t, fakeFactory(fetcher, &calls), "scan", "--config", file)
	require.NoError(t, err)
	assert.Equal(t, "from-file", fetcher.bucket)
	assert.Equal(t, "file.json", fetcher.key)
}

func TestFetchCommand(t *testing.T) {
	var calls []factoryCall

	out, err := execute(t, fakeFactory(&fakeFetcher{doc: snapshot}, &calls), "fetch")
	require.NoError(t, err)

	require.Len(t, calls, 1)
	assert.NotNil(t, calls[0].progress, "fetch should draw a progress bar")
	assert.Contains(t, out, "\n    \"iam_roles\": [")

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc, "s3_buckets")
}

func TestProfilesCommand(t *testing.T) {
	dir := t.TempDir()
	creds := filepath.Join(dir, "credentials")
	require.NoError(t, os.WriteFile(creds, []byte("[default]\n[audit]\n"), 0o600))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", creds)
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "missing"))

	var calls []factoryCall
	out, err := execute(t, fakeFactory(&fakeFetcher{}, &calls), "profiles")
	require.NoError(t, err)
	assert.Equal(t, "audit\ndefault\n", out)
	assert.Empty(t, calls)
}

func TestVersionCommand(t *testing.T) {
	var calls []factoryCall
	out, err := execute(t, fakeFactory(&fakeFetcher{}, &calls), "version")
	require.NoError(t, err)
	assert.Equal(t, "cspm "+version.String()+"\n", out)
}
