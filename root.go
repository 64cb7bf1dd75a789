package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cfg "github.com/maastricht-university/fold-predict/config"
	"github.com/maastricht-university/fold-predict/orchestrator"
)

func newRootCommand() *cobra.Command {
	var (
		experiment string
		configFlag string
		kernel     bool
	)

	rootCmd := &cobra.Command{
		Use:           "fold-predict",
		Short:         "Predict the test set with every fold's best checkpoint and blend the results",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(configFlag, experiment)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("kernel") {
				settings.Pipeline.Kernel = kernel
			}

			log, err := newLogger(settings.Pipeline)
			if err != nil {
				return err
			}
			opts := []orchestrator.Option{orchestrator.WithLogger(log)}
			if isatty.IsTerminal(os.Stderr.Fd()) {
				opts = append(opts, orchestrator.WithProgress(os.Stderr))
			}

			p, err := orchestrator.NewPipeline(settings, opts...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			m, err := p.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), orchestrator.RenderSummary(m))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&experiment, "experiment", "e", "", "Experiment directory name under paths.experiments")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (default: config/$CONFIG_ENV/config.yaml)")
	rootCmd.Flags().BoolVar(&kernel, "kernel", false, "Write submission.csv in the working directory and skip validation")
	_ = rootCmd.MarkPersistentFlagRequired("experiment")

	rootCmd.AddCommand(newShowCommand(&configFlag, &experiment))
	rootCmd.SetContext(context.Background())
	return rootCmd
}

func newShowCommand(configFlag, experiment *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the summary of the last completed run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(*configFlag, *experiment)
			if err != nil {
				return err
			}
			m, err := orchestrator.ReadManifest(settings.PredictionDir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), orchestrator.RenderSummary(m))
			return nil
		},
	}
}

func loadSettings(path, experiment string) (*cfg.Settings, error) {
	var (
		root *cfg.Root
		err  error
	)
	if path != "" {
		root, err = cfg.LoadFile(path)
	} else {
		root, err = cfg.Load()
	}
	if err != nil {
		return nil, err
	}
	return cfg.Resolve(root, experiment)
}

func newLogger(p cfg.Pipeline) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	lvl := p.LogLvl
	if lvl == "" {
		lvl = "info"
	}
	level, err := logrus.ParseLevel(lvl)
	if err != nil {
		return nil, fmt.Errorf("pipeline.log_level: %w", err)
	}
	log.SetLevel(level)
	if strings.EqualFold(p.LogFormat, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log, nil
}
