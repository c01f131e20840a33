package assess

import (
	"fmt"
	"strings"
)

// Snapshot keys holding each resource category
const (
	KeyS3Buckets    = "s3_buckets"
	KeyIAMRoles     = "iam_roles"
	KeyEC2Instances = "ec2_instances"
)

const fullAccessMarker = "FullAccess"

// AssessS3Buckets flags buckets that are public or lack encryption. A bucket
// can produce both findings, public first.
func AssessS3Buckets(buckets []Record) []Finding {
	var findings []Finding
	for _, bucket := range buckets {
		name := bucket.String("bucket_name")
		if bucket.Truthy("public_access") {
			findings = append(findings, Finding{
				Resource: name,
				Issue:    "Bucket is public",
				Severity: SeverityHigh,
			})
		}
		if !bucket.Truthy("encryption") {
			findings = append(findings, Finding{
				Resource: name,
				Issue:    "Bucket not encrypted",
				Severity: SeverityMedium,
			})
		}
	}
	return findings
}

// AssessIAMRoles flags roles with at least one policy whose name contains
// "FullAccess". At most one finding is emitted per role.
func AssessIAMRoles(roles []Record) ([]Finding, error) {
	var findings []Finding
	for i, role := range roles {
		name := role.String("role_name")
		policies, err := role.Strings("policies")
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", KeyIAMRoles, i, err)
		}
		if hasFullAccess(policies) {
			findings = append(findings, Finding{
				Resource: name,
				Issue:    "Role has FullAccess policies",
				Severity: SeverityCritical,
			})
		}
	}
	return findings, nil
}

func hasFullAccess(policies []string) bool {
	for _, p := range policies {
		if strings.Contains(p, fullAccessMarker) {
			return true
		}
	}
	return false
}

// AssessEC2Instances flags instances with a public IP. Like the S3 rule it
// never fails.
func AssessEC2Instances(instances []Record) []Finding {
	var findings []Finding
	for _, instance := range instances {
		if instance.Truthy("public_ip") {
			findings = append(findings, Finding{
				Resource: instance.String("instance_id"),
				Issue:    "Instance has public IP",
				Severity: SeverityMedium,
			})
		}
	}
	return findings
}
