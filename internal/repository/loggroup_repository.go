package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	cw "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
)

// CloudWatchLogsAPI is the slice of the CloudWatch Logs client this
// repository needs. *cloudwatchlogs.Client satisfies it.
type CloudWatchLogsAPI interface {
	CreateLogGroup(ctx context.Context, in *cw.CreateLogGroupInput, opts ...func(*cw.Options)) (*cw.CreateLogGroupOutput, error)
	PutRetentionPolicy(ctx context.Context, in *cw.PutRetentionPolicyInput, opts ...func(*cw.Options)) (*cw.PutRetentionPolicyOutput, error)
	DeleteLogGroup(ctx context.Context, in *cw.DeleteLogGroupInput, opts ...func(*cw.Options)) (*cw.DeleteLogGroupOutput, error)
}

// LogGroupRepository manages the stage access-log group.
type LogGroupRepository struct {
	API CloudWatchLogsAPI
}

// EnsureLogGroup creates a log group if it does not exist and sets its
// retention.
func (r *LogGroupRepository) EnsureLogGroup(ctx context.Context, name string, retentionDays int32) error {
	_, err := r.API.CreateLogGroup(ctx, &cw.CreateLogGroupInput{
		LogGroupName: aws.String(name),
	})
	if err != nil && !IsConflict(err) {
		return fmt.Errorf("CreateLogGroup %s failed: %w", name, err)
	}

	_, err = r.API.PutRetentionPolicy(ctx, &cw.PutRetentionPolicyInput{
		LogGroupName:    aws.String(name),
		RetentionInDays: aws.Int32(retentionDays),
	})
	if err != nil {
		return fmt.Errorf("PutRetentionPolicy %s failed: %w", name, err)
	}
	return nil
}

// DeleteLogGroup removes the log group; absence counts as success.
func (r *LogGroupRepository) DeleteLogGroup(ctx context.Context, name string) error {
	_, err := r.API.DeleteLogGroup(ctx, &cw.DeleteLogGroupInput{
		LogGroupName: aws.String(name),
	})
	if err != nil && !IsNotFound(err) {
		return fmt.Errorf("DeleteLogGroup %s failed: %w", name, err)
	}
	return nil
}
