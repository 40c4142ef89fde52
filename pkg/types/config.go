package types

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ProjectConfig is the subset of a serverless.yml project this plugin
// consumes. Read once at construction; never written back.
type ProjectConfig struct {
	Service   string                    `yaml:"service"`
	Provider  ProviderConfig            `yaml:"provider"`
	Functions map[string]FunctionConfig `yaml:"functions"`
}

// ProviderConfig carries the provider block. Optional overrides are
// pointers: nil means unset, no runtime type probing.
type ProviderConfig struct {
	Name                                 string  `yaml:"name"`
	Stage                                string  `yaml:"stage"`
	Region                               string  `yaml:"region"`
	WebsocketAPIName                     *string `yaml:"websocketApiName"`
	WebsocketAPIRouteSelectionExpression *string `yaml:"websocketApiRouteSelectionExpression"`
	WebsocketAccessLogRetentionDays      *int32  `yaml:"websocketAccessLogRetentionDays"`
}

// FunctionConfig declares one compute function and its events.
type FunctionConfig struct {
	Handler string  `yaml:"handler"`
	Events  []Event `yaml:"events"`
}

// Event is one entry of a function's events list. Only websocket events
// matter here; other event kinds decode to a nil Websocket field.
type Event struct {
	Websocket *WebsocketEvent `yaml:"websocket"`
}

// WebsocketEvent binds a function to one websocket route key.
type WebsocketEvent struct {
	Route string
}

// UnmarshalYAML accepts both the shorthand scalar form
// (`- websocket: $connect`) and the mapping form
// (`- websocket: {route: $connect}`).
func (w *WebsocketEvent) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var route string
		if err := value.Decode(&route); err != nil {
			return err
		}
		w.Route = route
	case yaml.MappingNode:
		var body struct {
			Route    string `yaml:"route"`
			RouteKey string `yaml:"routeKey"`
		}
		if err := value.Decode(&body); err != nil {
			return err
		}
		w.Route = body.Route
		if w.Route == "" {
			w.Route = body.RouteKey
		}
	default:
		return fmt.Errorf("websocket event: unsupported YAML node kind %d", value.Kind)
	}
	if w.Route == "" {
		return fmt.Errorf("websocket event: missing route")
	}
	return nil
}

// RouteKeys returns the ordered websocket route keys declared on the
// function, or nil when it has none.
func (f FunctionConfig) RouteKeys() []string {
	var keys []string
	for _, ev := range f.Events {
		if ev.Websocket != nil {
			keys = append(keys, ev.Websocket.Route)
		}
	}
	return keys
}

// FunctionBinding pairs a deployed function ARN with the routes it
// handles. Built fresh per lifecycle run and discarded afterwards.
type FunctionBinding struct {
	FunctionName string
	FunctionArn  ARN
	Routes       []string
}

// GatewayIdentity identifies the websocket gateway. Name and
// RouteSelectionExpression are fixed at construction; ID is filled on the
// first successful lookup or create within a lifecycle run.
type GatewayIdentity struct {
	Name                     string
	RouteSelectionExpression string
	ID                       string
}
