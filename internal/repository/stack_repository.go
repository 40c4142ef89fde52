package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	cfn "github.com/aws/aws-sdk-go-v2/service/cloudformation"
)

// CloudFormationAPI is the slice of the CloudFormation client this
// repository needs. *cloudformation.Client satisfies it.
type CloudFormationAPI interface {
	DescribeStacks(ctx context.Context, in *cfn.DescribeStacksInput, opts ...func(*cfn.Options)) (*cfn.DescribeStacksOutput, error)
}

// StackRepository reads the output values a prior deployment published.
type StackRepository struct {
	API CloudFormationAPI
}

// Outputs returns the stack's output key/value mapping.
func (r *StackRepository) Outputs(ctx context.Context, stackName string) (map[string]string, error) {
	out, err := r.API.DescribeStacks(ctx, &cfn.DescribeStacksInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		return nil, fmt.Errorf("DescribeStacks %s failed: %w", stackName, err)
	}
	if len(out.Stacks) == 0 {
		return nil, fmt.Errorf("stack %s not found", stackName)
	}

	outputs := make(map[string]string, len(out.Stacks[0].Outputs))
	for _, o := range out.Stacks[0].Outputs {
		outputs[aws.ToString(o.OutputKey)] = aws.ToString(o.OutputValue)
	}
	return outputs, nil
}
