// Command serverless-websockets-plugin provisions, inspects and removes a
// managed WebSocket gateway for a serverless project. Each subcommand runs
// the matching lifecycle hook the plugin registers with its host framework.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sawyemj/serverless-websockets-plugin/internal/client"
	"github.com/sawyemj/serverless-websockets-plugin/internal/config"
	"github.com/sawyemj/serverless-websockets-plugin/internal/repository"
	"github.com/sawyemj/serverless-websockets-plugin/internal/service"
	"github.com/sawyemj/serverless-websockets-plugin/plugin"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, stage, region string

	root := &cobra.Command{
		Use:           "serverless-websockets-plugin",
		Short:         "Manage the websocket gateway of a serverless project",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "serverless.yml", "project configuration file")
	root.PersistentFlags().StringVar(&stage, "stage", "", "override the target stage")
	root.PersistentFlags().StringVar(&region, "region", "", "override the target region")

	run := func(hook string) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			p, err := buildPlugin(cmd, configPath, stage, region)
			if err != nil {
				return err
			}
			return p.Run(cmd.Context(), hook)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "deploy",
			Short: "Provision the websocket gateway, routes and permissions",
			RunE:  run(plugin.HookAfterDeploy),
		},
		&cobra.Command{
			Use:   "remove",
			Short: "Delete the websocket gateway if it exists",
			RunE:  run(plugin.HookAfterRemove),
		},
		&cobra.Command{
			Use:   "info",
			Short: "Print the websocket endpoint and its routes",
			RunE:  run(plugin.HookAfterInfo),
		},
	)
	return root
}

func buildPlugin(cmd *cobra.Command, configPath, stage, region string) (*plugin.Plugin, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if stage != "" {
		cfg.Provider.Stage = stage
	}
	if region != "" {
		cfg.Provider.Region = region
	}

	zl, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	log := zl.Sugar()

	aws, err := client.New(cmd.Context(), cfg.Provider.Region)
	if err != nil {
		return nil, err
	}

	manager := service.New(
		cfg,
		&repository.GatewayRepository{API: aws.APIGWv2},
		&repository.LambdaRepository{API: aws.Lambda},
		&repository.StackRepository{API: aws.CFN},
		&repository.LogGroupRepository{API: aws.CWLogs},
		aws.AccountID,
		log,
		cmd.OutOrStdout(),
	)
	return plugin.New(manager, log), nil
}
