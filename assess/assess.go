// Package assess runs the static misconfiguration rules over a configuration
// snapshot.
package assess

import "fmt"

type rule struct {
	key   string
	check func([]Record) ([]Finding, error)
}

// Evaluation order is fixed: S3, then IAM, then EC2.
var rules = []rule{
	{key: KeyS3Buckets, check: infallible(AssessS3Buckets)},
	{key: KeyIAMRoles, check: AssessIAMRoles},
	{key: KeyEC2Instances, check: infallible(AssessEC2Instances)},
}

// infallible adapts a rule that cannot fail to the rule table
func infallible(check func([]Record) []Finding) func([]Record) ([]Finding, error) {
	return func(recs []Record) ([]Finding, error) {
		return check(recs), nil
	}
}

// Aggregate runs every rule against its category in doc and concatenates the
// findings. The result is never nil when err is nil.
func Aggregate(doc map[string]any) ([]Finding, error) {
	perRule := make([][]Finding, 0, len(rules))
	for _, r := range rules {
		recs, err := records(doc, r.key)
		if err != nil {
			return nil, fmt.Errorf("reading snapshot: %w", err)
		}
		findings, err := r.check(recs)
		if err != nil {
			return nil, fmt.Errorf("assessing %s: %w", r.key, err)
		}
		perRule = append(perRule, findings)
	}

	all := concatSlice(perRule...)
	if all == nil {
		all = []Finding{}
	}
	return all, nil
}

// concatSlice is a generic function that concatenates multiple slices of the
// same type
func concatSlice[T any](slices ...[]T) []T {
	var result []T
	for _, slice := range slices {
		result = append(result, slice...)
	}
	return result
}
