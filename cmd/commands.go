package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	klog "k8s.io/klog/v2"

	"github.com/S-Chan/cspm/assess"
	"github.com/S-Chan/cspm/config"
	"github.com/S-Chan/cspm/integration"
	"github.com/S-Chan/cspm/report"
	"github.com/S-Chan/cspm/version"
)

type snapshotFetcher interface {
	Fetch(ctx context.Context, bucket, key string) (integration.Document, error)
}

// fetcherFactory builds the fetcher for one command run. progress is nil
// unless the command wants a download bar.
type fetcherFactory func(opts integration.SessionOptions, progress io.Writer) (snapshotFetcher, error)

func awsFetcher(opts integration.SessionOptions, progress io.Writer) (snapshotFetcher, error) {
	aws, err := integration.NewAWS(opts)
	if err != nil {
		return nil, err
	}
	if progress != nil {
		return aws.Fetcher.WithProgress(progress), nil
	}
	return aws.Fetcher, nil
}

func newRootCmd(newFetcher fetcherFactory) *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "cspm",
		Short:         "cspm flags risky S3, IAM and EC2 settings in a configuration snapshot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.AddFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./config.yaml)")

	loadConfig := func(cmd *cobra.Command) (config.Config, error) {
		cfg, err := config.Load(cmd.Flags(), configFile)
		if err != nil {
			return config.Config{}, err
		}
		klog.V(4).InfoS("Loaded configuration", "bucket", cfg.Bucket, "key", cfg.Key, "region", cfg.Region, "profile", cfg.Profile)
		return cfg, nil
	}

	rootCmd.AddCommand(
		newScanCmd(newFetcher, loadConfig),
		newFetchCmd(newFetcher, loadConfig),
		newProfilesCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func newScanCmd(newFetcher fetcherFactory, loadConfig func(*cobra.Command) (config.Config, error)) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Fetch the snapshot and print risk findings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := report.ParseFormat(output)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			fetcher, err := newFetcher(integration.SessionOptions{Profile: cfg.Profile, Region: cfg.Region}, nil)
			if err != nil {
				return fmt.Errorf("AWS integration creation failed: %w", err)
			}
			doc, err := fetcher.Fetch(cmd.Context(), cfg.Bucket, cfg.Key)
			if err != nil {
				return err
			}
			findings, err := assess.Aggregate(doc)
			if err != nil {
				return fmt.Errorf("assessment failed: %w", err)
			}
			klog.V(2).InfoS("Scan completed", "findings", len(findings))

			return report.Write(cmd.OutOrStdout(), findings, format)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", string(report.FormatJSON), "output format: json or table")
	return cmd
}

func newFetchCmd(newFetcher fetcherFactory, loadConfig func(*cobra.Command) (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the snapshot and pretty-print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			fetcher, err := newFetcher(integration.SessionOptions{Profile: cfg.Profile, Region: cfg.Region}, cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("AWS integration creation failed: %w", err)
			}
			doc, err := fetcher.Fetch(cmd.Context(), cfg.Bucket, cfg.Key)
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(doc, "", "    ")
			if err != nil {
				return fmt.Errorf("snapshot serialization failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List AWS profiles usable with --profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profiles, err := integration.ListProfiles()
			if err != nil {
				return fmt.Errorf("failed to list profiles: %w", err)
			}
			for _, p := range profiles {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cspm %s\n", version.String())
		},
	}
}
