package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	lambda "github.com/aws/aws-sdk-go-v2/service/lambda"

	"github.com/sawyemj/serverless-websockets-plugin/pkg/types"
)

// LambdaAPI is the slice of the Lambda client this repository needs.
// *lambda.Client satisfies it.
type LambdaAPI interface {
	AddPermission(ctx context.Context, in *lambda.AddPermissionInput, opts ...func(*lambda.Options)) (*lambda.AddPermissionOutput, error)
}

// LambdaRepository wraps the Lambda resource-policy calls.
type LambdaRepository struct {
	API LambdaAPI
}

// GrantInvokePermission allows the gateway service principal to invoke the
// function, scoped to every stage and method of the given gateway. A
// permission that is already in place counts as success.
func (r *LambdaRepository) GrantInvokePermission(ctx context.Context, functionArn types.ARN, apiID string) error {
	functionName, err := functionArn.FunctionName()
	if err != nil {
		return err
	}
	sourceArn := fmt.Sprintf("arn:%s:execute-api:%s:%s:%s/*/*",
		functionArn.Partition, functionArn.Region, functionArn.AccountID, apiID)

	_, err = r.API.AddPermission(ctx, &lambda.AddPermissionInput{
		FunctionName: aws.String(functionName),
		StatementId:  aws.String(fmt.Sprintf("apigateway-%s", apiID)),
		Action:       aws.String("lambda:InvokeFunction"),
		Principal:    aws.String("apigateway.amazonaws.com"),
		SourceArn:    aws.String(sourceArn),
	})
	if err != nil && !IsConflict(err) {
		return fmt.Errorf("AddPermission failed: %w", err)
	}
	return nil
}
