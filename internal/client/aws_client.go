package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	apigwv2 "github.com/aws/aws-sdk-go-v2/service/apigatewayv2"
	cfn "github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cw "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	lambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	sts "github.com/aws/aws-sdk-go-v2/service/sts"
)

// AWSClient contains the service clients and account information shared
// by the repositories.
type AWSClient struct {
	Config    aws.Config
	APIGWv2   *apigwv2.Client
	Lambda    *lambda.Client
	CFN       *cfn.Client
	CWLogs    *cw.Client
	STS       *sts.Client
	Region    string
	AccountID string
}

// New creates an AWSClient for the given region. An empty region falls
// back to the default credential chain's region.
func New(ctx context.Context, region string) (*AWSClient, error) {
	var cfg aws.Config
	var err error
	if strings.TrimSpace(region) == "" {
		cfg, err = config.LoadDefaultConfig(ctx)
	} else {
		cfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(region))
	}
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := &AWSClient{
		Config:  cfg,
		APIGWv2: apigwv2.NewFromConfig(cfg),
		Lambda:  lambda.NewFromConfig(cfg),
		CFN:     cfn.NewFromConfig(cfg),
		CWLogs:  cw.NewFromConfig(cfg),
		STS:     sts.NewFromConfig(cfg),
		Region:  cfg.Region,
	}

	accountID, aerr := getAccountID(ctx, client.STS)
	if aerr != nil {
		return nil, aerr
	}
	client.AccountID = accountID

	return client, nil
}

func getAccountID(ctx context.Context, stsClient *sts.Client) (string, error) {
	result, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("getting account ID: %w", err)
	}
	return aws.ToString(result.Account), nil
}
