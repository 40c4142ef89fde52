// Package service orchestrates the websocket gateway lifecycle: resolving
// deployed function ARNs, wiring integrations, permissions and routes, and
// publishing deployments to a stage.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sawyemj/serverless-websockets-plugin/internal/config"
	"github.com/sawyemj/serverless-websockets-plugin/internal/repository"
	"github.com/sawyemj/serverless-websockets-plugin/pkg/types"
)

// accessLogFormat is the JSON line format bound to the stage when access
// logging is configured.
const accessLogFormat = `{"requestId":"$context.requestId","ip":"$context.identity.sourceIp","routeKey":"$context.routeKey","status":"$context.status","connectionId":"$context.connectionId"}`

// WebsocketGatewayService provisions and tears down the websocket gateway
// for one service/stage. Bindings are rebuilt on every lifecycle call;
// nothing is persisted locally.
type WebsocketGatewayService struct {
	Gateways  *repository.GatewayRepository
	Functions *repository.LambdaRepository
	Stacks    *repository.StackRepository
	Logs      *repository.LogGroupRepository

	cfg       *types.ProjectConfig
	accountID string
	identity  types.GatewayIdentity
	bindings  []types.FunctionBinding

	log *zap.SugaredLogger
	out io.Writer
}

// New computes the gateway identity from static configuration and returns
// a service bound to the given repositories. Progress lines go to log, the
// operator summary block to out.
func New(cfg *types.ProjectConfig, gateways *repository.GatewayRepository, functions *repository.LambdaRepository,
	stacks *repository.StackRepository, logs *repository.LogGroupRepository,
	accountID string, log *zap.SugaredLogger, out io.Writer) *WebsocketGatewayService {
	return &WebsocketGatewayService{
		Gateways:  gateways,
		Functions: functions,
		Stacks:    stacks,
		Logs:      logs,
		cfg:       cfg,
		accountID: accountID,
		identity: types.GatewayIdentity{
			Name:                     config.GatewayName(cfg),
			RouteSelectionExpression: config.RouteSelectionExpression(cfg),
		},
		log: log,
		out: out,
	}
}

// Identity returns the computed gateway identity.
func (s *WebsocketGatewayService) Identity() types.GatewayIdentity {
	return s.identity
}

// Bindings returns the function bindings collected by the current
// lifecycle run.
func (s *WebsocketGatewayService) Bindings() []types.FunctionBinding {
	return s.bindings
}

// BaseURL returns the wss endpoint of the deployed stage.
func (s *WebsocketGatewayService) BaseURL() string {
	return fmt.Sprintf("wss://%s.execute-api.%s.amazonaws.com/%s/",
		s.identity.ID, s.cfg.Provider.Region, s.cfg.Provider.Stage)
}

// ResolveExistingGateway looks up the gateway by its computed name and
// remembers the identifier. Returns repository.ErrGatewayNotFound when no
// gateway carries the name.
func (s *WebsocketGatewayService) ResolveExistingGateway(ctx context.Context) (string, error) {
	id, err := s.Gateways.FindByName(ctx, s.identity.Name)
	if err != nil {
		return "", err
	}
	s.identity.ID = id
	return id, nil
}

// CollectFunctionBindings cross-references the declared functions against
// the deployed stack's outputs. A declared websocket function whose output
// key is missing means the function was never deployed; that is a hard
// precondition failure.
func (s *WebsocketGatewayService) CollectFunctionBindings(ctx context.Context) error {
	s.bindings = nil
	if len(s.cfg.Functions) == 0 {
		return nil
	}

	names := make([]string, 0, len(s.cfg.Functions))
	for name, fn := range s.cfg.Functions {
		if len(fn.RouteKeys()) > 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)

	stackName := config.StackName(s.cfg)
	outputs, err := s.Stacks.Outputs(ctx, stackName)
	if err != nil {
		return err
	}

	for _, name := range names {
		key := outputKey(name)
		value, ok := outputs[key]
		if !ok {
			return fmt.Errorf("stack %s has no output %s: function %s is not deployed", stackName, key, name)
		}
		arn, err := types.ParseARN(value)
		if err != nil {
			return fmt.Errorf("output %s: %w", key, err)
		}
		s.bindings = append(s.bindings, types.FunctionBinding{
			FunctionName: name,
			FunctionArn:  arn.Unqualified(),
			Routes:       s.cfg.Functions[name].RouteKeys(),
		})
	}
	return nil
}

// EnsureGateway resolves the gateway, creating it when absent, and returns
// its identifier. List-then-create: a concurrent duplicate create race is
// possible and deliberately unhandled (single-operator pipeline).
func (s *WebsocketGatewayService) EnsureGateway(ctx context.Context) (string, error) {
	id, err := s.ResolveExistingGateway(ctx)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, repository.ErrGatewayNotFound) {
		return "", err
	}

	id, err = s.Gateways.Create(ctx, s.identity.Name, s.identity.RouteSelectionExpression)
	if err != nil {
		return "", err
	}
	s.identity.ID = id
	return id, nil
}

// wireFunction creates the integration for one binding, grants the invoke
// permission, then creates one route per declared route key. Order inside
// a binding is fixed; nothing is ordered across bindings.
func (s *WebsocketGatewayService) wireFunction(ctx context.Context, binding types.FunctionBinding) error {
	integrationID, err := s.Gateways.CreateIntegration(ctx, s.identity.ID, binding.FunctionArn)
	if err != nil {
		return fmt.Errorf("function %s: %w", binding.FunctionName, err)
	}
	if err := s.Functions.GrantInvokePermission(ctx, binding.FunctionArn, s.identity.ID); err != nil {
		return fmt.Errorf("function %s: %w", binding.FunctionName, err)
	}
	for _, routeKey := range binding.Routes {
		if err := s.Gateways.CreateRoute(ctx, s.identity.ID, routeKey, integrationID); err != nil {
			return fmt.Errorf("function %s: %w", binding.FunctionName, err)
		}
	}
	return nil
}

// WireAllRoutes dispatches one wiring task per binding and joins them all.
func (s *WebsocketGatewayService) WireAllRoutes(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, binding := range s.bindings {
		binding := binding
		g.Go(func() error {
			return s.wireFunction(ctx, binding)
		})
	}
	return g.Wait()
}

// PublishDeployment snapshots the wired configuration and binds it to the
// configured stage, creating the stage if this is the first deployment.
func (s *WebsocketGatewayService) PublishDeployment(ctx context.Context) error {
	deploymentID, err := s.Gateways.CreateDeployment(ctx, s.identity.ID)
	if err != nil {
		return err
	}

	var accessLog *repository.AccessLogConfig
	if s.cfg.Provider.WebsocketAccessLogRetentionDays != nil {
		name := s.accessLogGroupName()
		if err := s.Logs.EnsureLogGroup(ctx, name, *s.cfg.Provider.WebsocketAccessLogRetentionDays); err != nil {
			return err
		}
		accessLog = &repository.AccessLogConfig{
			DestinationArn: fmt.Sprintf("arn:aws:logs:%s:%s:log-group:%s",
				s.cfg.Provider.Region, s.accountID, name),
			Format: accessLogFormat,
		}
	}

	return s.Gateways.EnsureStage(ctx, s.identity.ID, s.cfg.Provider.Stage, deploymentID, accessLog)
}

// DeployWebsockets runs the full provisioning sequence for the post-deploy
// hook.
func (s *WebsocketGatewayService) DeployWebsockets(ctx context.Context) error {
	if err := s.CollectFunctionBindings(ctx); err != nil {
		return err
	}
	if len(s.bindings) == 0 {
		s.log.Debug("no websocket routes configured, skipping gateway deployment")
		return nil
	}

	s.log.Info("Deploying websockets gateway...")
	if _, err := s.EnsureGateway(ctx); err != nil {
		return err
	}
	if err := s.WireAllRoutes(ctx); err != nil {
		return err
	}
	if err := s.PublishDeployment(ctx); err != nil {
		return err
	}
	s.log.Infof("Deployed websockets gateway %s", s.identity.ID)
	s.log.Infof("Base URL: %s", s.BaseURL())
	return nil
}

// RemoveWebsockets deletes the gateway if it exists; absence is a no-op.
func (s *WebsocketGatewayService) RemoveWebsockets(ctx context.Context) error {
	id, err := s.ResolveExistingGateway(ctx)
	if errors.Is(err, repository.ErrGatewayNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	s.log.Infof("Removing websockets gateway %s", s.identity.Name)
	if err := s.Gateways.Delete(ctx, id); err != nil {
		return err
	}
	if s.cfg.Provider.WebsocketAccessLogRetentionDays != nil {
		return s.Logs.DeleteLogGroup(ctx, s.accessLogGroupName())
	}
	return nil
}

// DisplayWebsockets appends the websocket endpoint summary for the
// post-info hook.
func (s *WebsocketGatewayService) DisplayWebsockets(ctx context.Context) error {
	if err := s.CollectFunctionBindings(ctx); err != nil {
		return err
	}
	if len(s.bindings) == 0 {
		return nil
	}

	if _, err := s.ResolveExistingGateway(ctx); err != nil {
		if errors.Is(err, repository.ErrGatewayNotFound) {
			return nil
		}
		return err
	}

	baseURL := s.BaseURL()
	fmt.Fprintln(s.out, "WebSockets:")
	fmt.Fprintf(s.out, "  %s\n", baseURL)
	fmt.Fprintln(s.out, "  Routes:")
	for _, binding := range s.bindings {
		for _, routeKey := range binding.Routes {
			fmt.Fprintf(s.out, "    %s%s\n", baseURL, routeKey)
		}
	}
	return nil
}

func (s *WebsocketGatewayService) accessLogGroupName() string {
	return fmt.Sprintf("/aws/apigateway/%s/%s", s.identity.Name, s.cfg.Provider.Stage)
}
