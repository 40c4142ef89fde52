package types

import (
	"fmt"
	"strings"
)

// ARN holds the positional fields of an Amazon Resource Name
// (arn:partition:service:region:account:resource). Parsed once at
// ingestion; malformed input is rejected instead of misindexed.
type ARN struct {
	Partition string
	Service   string
	Region    string
	AccountID string
	Resource  string
}

// ParseARN splits an ARN into its named fields. The resource field keeps
// any embedded colons (e.g. "function:foo:3").
func ParseARN(s string) (ARN, error) {
	parts := strings.SplitN(s, ":", 6)
	if len(parts) != 6 || parts[0] != "arn" {
		return ARN{}, fmt.Errorf("malformed ARN %q", s)
	}
	arn := ARN{
		Partition: parts[1],
		Service:   parts[2],
		Region:    parts[3],
		AccountID: parts[4],
		Resource:  parts[5],
	}
	if arn.Partition == "" || arn.Service == "" || arn.Resource == "" {
		return ARN{}, fmt.Errorf("malformed ARN %q", s)
	}
	return arn, nil
}

// String reassembles the ARN.
func (a ARN) String() string {
	return strings.Join([]string{"arn", a.Partition, a.Service, a.Region, a.AccountID, a.Resource}, ":")
}

// FunctionName returns the function name for a Lambda function ARN
// (resource "function:name" or "function:name:qualifier").
func (a ARN) FunctionName() (string, error) {
	parts := strings.Split(a.Resource, ":")
	if len(parts) < 2 || parts[0] != "function" || parts[1] == "" {
		return "", fmt.Errorf("not a lambda function ARN: %s", a.String())
	}
	return parts[1], nil
}

// Unqualified strips a trailing version or alias qualifier from a Lambda
// function ARN. Stack outputs publish the qualified form; integrations and
// permissions are bound to the unqualified function.
func (a ARN) Unqualified() ARN {
	parts := strings.Split(a.Resource, ":")
	if len(parts) == 3 && parts[0] == "function" {
		a.Resource = parts[0] + ":" + parts[1]
	}
	return a
}
