// Package config loads the serverless.yml project file this plugin is
// attached to and resolves the defaults the provider block leaves unset.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sawyemj/serverless-websockets-plugin/pkg/types"
)

const (
	defaultStage  = "dev"
	defaultRegion = "us-east-1"

	// DefaultRouteSelectionExpression selects the route key from the
	// message body when the provider block does not override it.
	DefaultRouteSelectionExpression = "$request.body.action"
)

// Load reads and decodes a serverless.yml. Stage and region fall back to
// the framework defaults when the provider block leaves them empty.
func Load(path string) (*types.ProjectConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg types.ProjectConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decoding config %s: %w", path, err)
	}
	if cfg.Service == "" {
		return nil, fmt.Errorf("config %s: missing service name", path)
	}
	if cfg.Provider.Stage == "" {
		cfg.Provider.Stage = defaultStage
	}
	if cfg.Provider.Region == "" {
		cfg.Provider.Region = defaultRegion
	}
	return &cfg, nil
}

// GatewayName returns the user override when set, else
// {service}-{stage}-websockets-api.
func GatewayName(cfg *types.ProjectConfig) string {
	if cfg.Provider.WebsocketAPIName != nil {
		return *cfg.Provider.WebsocketAPIName
	}
	return fmt.Sprintf("%s-%s-websockets-api", cfg.Service, cfg.Provider.Stage)
}

// RouteSelectionExpression returns the user override when set, else the
// framework default.
func RouteSelectionExpression(cfg *types.ProjectConfig) string {
	if cfg.Provider.WebsocketAPIRouteSelectionExpression != nil {
		return *cfg.Provider.WebsocketAPIRouteSelectionExpression
	}
	return DefaultRouteSelectionExpression
}

// StackName returns the CloudFormation stack the host framework deploys
// the service into.
func StackName(cfg *types.ProjectConfig) string {
	return fmt.Sprintf("%s-%s", cfg.Service, cfg.Provider.Stage)
}
