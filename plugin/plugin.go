// Package plugin exposes the websocket gateway lifecycle as named hooks
// for the host framework to invoke after its own deploy, remove and info
// phases.
package plugin

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sawyemj/serverless-websockets-plugin/internal/service"
)

// Hook is one lifecycle entry point. Hooks take no arguments beyond the
// context and report completion through the returned error.
type Hook func(ctx context.Context) error

// Hook names the host framework dispatches on.
const (
	HookAfterDeploy = "after:deploy:deploy"
	HookAfterRemove = "after:remove:remove"
	HookAfterInfo   = "after:info:info"
)

// Plugin binds the gateway manager to the host lifecycle.
type Plugin struct {
	manager *service.WebsocketGatewayService
	log     *zap.SugaredLogger
}

// New returns a Plugin around the given manager.
func New(manager *service.WebsocketGatewayService, log *zap.SugaredLogger) *Plugin {
	return &Plugin{manager: manager, log: log}
}

// Hooks returns the lifecycle hook map the host framework registers.
func (p *Plugin) Hooks() map[string]Hook {
	return map[string]Hook{
		HookAfterDeploy: p.manager.DeployWebsockets,
		HookAfterRemove: p.manager.RemoveWebsockets,
		HookAfterInfo:   p.manager.DisplayWebsockets,
	}
}

// Run dispatches one named hook.
func (p *Plugin) Run(ctx context.Context, name string) error {
	hook, ok := p.Hooks()[name]
	if !ok {
		return fmt.Errorf("unknown lifecycle hook %q", name)
	}
	p.log.Debugw("running lifecycle hook", "hook", name)
	return hook(ctx)
}
