package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/nguyentranbao-ct/crm-assistant/internal/app"
	"github.com/nguyentranbao-ct/crm-assistant/internal/config"
	"github.com/nguyentranbao-ct/crm-assistant/internal/server"
	"github.com/nguyentranbao-ct/crm-assistant/internal/usecase"
	"github.com/nguyentranbao-ct/crm-assistant/pkg/logger"
	"github.com/nguyentranbao-ct/crm-assistant/pkg/logger/log"
)

var rootCmd = &cobra.Command{
	Use:           "crm-assistant",
	Short:         "CRM backend with an AI assistant",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serverCmd.RunE(cmd, args)
	},
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig()
		if err != nil {
			return err
		}
		app.Invoke(conf, server.StartServer).Run()
		return nil
	},
}

var reconcileTagsCmd = &cobra.Command{
	Use:   "reconcile-tags",
	Short: "Recompute every tag usage counter from live contact references",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig()
		if err != nil {
			return err
		}
		var runErr error
		reconcile := func(lc fx.Lifecycle, sd fx.Shutdowner, tags usecase.TagUsecase) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					go func() {
						result, err := tags.ReconcileAll(context.Background())
						if err != nil {
							runErr = fmt.Errorf("reconcile tags: %w", err)
							_ = sd.Shutdown(fx.ExitCode(1))
							return
						}
						log.Infof("reconciled %d tags, repaired %d, total drift %d",
							result.TagsChecked, result.TagsRepaired, result.Drift)
						_ = sd.Shutdown()
					}()
					return nil
				},
			})
		}
		app.Invoke(conf, reconcile).Run()
		return runErr
	},
}

func init() {
	rootCmd.AddCommand(serverCmd, reconcileTagsCmd)
}

func loadConfig() (*config.Config, error) {
	conf, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Init(conf.Log); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return conf, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
