package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	apigwv2 "github.com/aws/aws-sdk-go-v2/service/apigatewayv2"
	apitypes "github.com/aws/aws-sdk-go-v2/service/apigatewayv2/types"

	"github.com/sawyemj/serverless-websockets-plugin/pkg/types"
)

// ErrGatewayNotFound is returned when no gateway carries the computed name.
var ErrGatewayNotFound = errors.New("websocket gateway not found")

// GatewayAPI is the slice of the API Gateway v2 client this repository
// needs. *apigatewayv2.Client satisfies it.
type GatewayAPI interface {
	GetApis(ctx context.Context, in *apigwv2.GetApisInput, opts ...func(*apigwv2.Options)) (*apigwv2.GetApisOutput, error)
	CreateApi(ctx context.Context, in *apigwv2.CreateApiInput, opts ...func(*apigwv2.Options)) (*apigwv2.CreateApiOutput, error)
	DeleteApi(ctx context.Context, in *apigwv2.DeleteApiInput, opts ...func(*apigwv2.Options)) (*apigwv2.DeleteApiOutput, error)
	CreateIntegration(ctx context.Context, in *apigwv2.CreateIntegrationInput, opts ...func(*apigwv2.Options)) (*apigwv2.CreateIntegrationOutput, error)
	CreateRoute(ctx context.Context, in *apigwv2.CreateRouteInput, opts ...func(*apigwv2.Options)) (*apigwv2.CreateRouteOutput, error)
	CreateDeployment(ctx context.Context, in *apigwv2.CreateDeploymentInput, opts ...func(*apigwv2.Options)) (*apigwv2.CreateDeploymentOutput, error)
	UpdateStage(ctx context.Context, in *apigwv2.UpdateStageInput, opts ...func(*apigwv2.Options)) (*apigwv2.UpdateStageOutput, error)
	CreateStage(ctx context.Context, in *apigwv2.CreateStageInput, opts ...func(*apigwv2.Options)) (*apigwv2.CreateStageOutput, error)
}

// AccessLogConfig carries optional stage access-log settings.
type AccessLogConfig struct {
	DestinationArn string
	Format         string
}

// GatewayRepository wraps the API Gateway v2 calls used for websocket
// gateways.
type GatewayRepository struct {
	API GatewayAPI
}

// FindByName lists every gateway and returns the identifier of the one
// whose name matches, or ErrGatewayNotFound.
func (r *GatewayRepository) FindByName(ctx context.Context, name string) (string, error) {
	var next *string
	for {
		out, err := r.API.GetApis(ctx, &apigwv2.GetApisInput{NextToken: next})
		if err != nil {
			return "", fmt.Errorf("GetApis failed: %w", err)
		}
		for _, api := range out.Items {
			if aws.ToString(api.Name) == name {
				return aws.ToString(api.ApiId), nil
			}
		}
		if out.NextToken == nil {
			return "", ErrGatewayNotFound
		}
		next = out.NextToken
	}
}

// Create creates a websocket gateway and returns its identifier.
func (r *GatewayRepository) Create(ctx context.Context, name, routeSelectionExpression string) (string, error) {
	out, err := r.API.CreateApi(ctx, &apigwv2.CreateApiInput{
		Name:                     aws.String(name),
		ProtocolType:             apitypes.ProtocolTypeWebsocket,
		RouteSelectionExpression: aws.String(routeSelectionExpression),
	})
	if err != nil {
		return "", fmt.Errorf("CreateApi failed: %w", err)
	}
	return aws.ToString(out.ApiId), nil
}

// Delete removes the gateway and everything attached to it.
func (r *GatewayRepository) Delete(ctx context.Context, apiID string) error {
	_, err := r.API.DeleteApi(ctx, &apigwv2.DeleteApiInput{ApiId: aws.String(apiID)})
	if err != nil && !IsNotFound(err) {
		return fmt.Errorf("DeleteApi failed: %w", err)
	}
	return nil
}

// CreateIntegration creates an AWS_PROXY integration invoking the given
// function via POST. The provider overwrites identical integrations, so no
// pre-check is performed.
func (r *GatewayRepository) CreateIntegration(ctx context.Context, apiID string, functionArn types.ARN) (string, error) {
	uri := fmt.Sprintf("arn:%s:apigateway:%s:lambda:path/2015-03-31/functions/%s/invocations",
		functionArn.Partition, functionArn.Region, functionArn.String())

	out, err := r.API.CreateIntegration(ctx, &apigwv2.CreateIntegrationInput{
		ApiId:             aws.String(apiID),
		IntegrationType:   apitypes.IntegrationTypeAwsProxy,
		IntegrationMethod: aws.String("POST"),
		IntegrationUri:    aws.String(uri),
	})
	if err != nil {
		return "", fmt.Errorf("CreateIntegration failed: %w", err)
	}
	return aws.ToString(out.IntegrationId), nil
}

// CreateRoute binds a route key to an integration. A route that already
// exists counts as success.
func (r *GatewayRepository) CreateRoute(ctx context.Context, apiID, routeKey, integrationID string) error {
	_, err := r.API.CreateRoute(ctx, &apigwv2.CreateRouteInput{
		ApiId:    aws.String(apiID),
		RouteKey: aws.String(routeKey),
		Target:   aws.String("integrations/" + integrationID),
	})
	if err != nil && !IsConflict(err) {
		return fmt.Errorf("CreateRoute %s failed: %w", routeKey, err)
	}
	return nil
}

// CreateDeployment snapshots the gateway's current configuration.
func (r *GatewayRepository) CreateDeployment(ctx context.Context, apiID string) (string, error) {
	out, err := r.API.CreateDeployment(ctx, &apigwv2.CreateDeploymentInput{ApiId: aws.String(apiID)})
	if err != nil {
		return "", fmt.Errorf("CreateDeployment failed: %w", err)
	}
	return aws.ToString(out.DeploymentId), nil
}

// EnsureStage binds a deployment to the stage, creating the stage when it
// does not exist yet.
func (r *GatewayRepository) EnsureStage(ctx context.Context, apiID, stage, deploymentID string, accessLog *AccessLogConfig) error {
	var settings *apitypes.AccessLogSettings
	if accessLog != nil {
		settings = &apitypes.AccessLogSettings{
			DestinationArn: aws.String(accessLog.DestinationArn),
			Format:         aws.String(accessLog.Format),
		}
	}

	_, err := r.API.UpdateStage(ctx, &apigwv2.UpdateStageInput{
		ApiId:             aws.String(apiID),
		StageName:         aws.String(stage),
		DeploymentId:      aws.String(deploymentID),
		AccessLogSettings: settings,
	})
	if err == nil {
		return nil
	}
	if !IsNotFound(err) {
		return fmt.Errorf("UpdateStage %s failed: %w", stage, err)
	}

	_, err = r.API.CreateStage(ctx, &apigwv2.CreateStageInput{
		ApiId:             aws.String(apiID),
		StageName:         aws.String(stage),
		DeploymentId:      aws.String(deploymentID),
		AccessLogSettings: settings,
	})
	if err != nil && !IsConflict(err) {
		return fmt.Errorf("CreateStage %s failed: %w", stage, err)
	}
	return nil
}
