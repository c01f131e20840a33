package main

import (
	"flag"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	klog "k8s.io/klog/v2"

	"github.com/S-Chan/cspm/config"
	"github.com/S-Chan/cspm/integration"
	"github.com/S-Chan/cspm/version"
)

func main() {
	var fs flag.FlagSet
	klog.InitFlags(&fs)
	defer klog.Flush()

	var configFile string
	rootCmd := &cobra.Command{
		Use:          "cspm-server",
		Short:        "cspm-server serves cloud configuration scans over HTTP",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags(), configFile)
			if err != nil {
				return err
			}

			aws, err := integration.NewAWS(integration.SessionOptions{
				Profile: cfg.Profile,
				Region:  cfg.Region,
			})
			if err != nil {
				return err
			}

			srv, err := newServer(aws.Fetcher, cfg)
			if err != nil {
				return err
			}

			klog.InfoS("Starting server", "addr", cfg.Addr, "bucket", cfg.Bucket, "key", cfg.Key, "version", version.String())
			httpServer := &http.Server{
				Addr:              cfg.Addr,
				Handler:           srv.routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return httpServer.ListenAndServe()
		},
	}

	config.AddFlags(rootCmd.Flags())
	rootCmd.Flags().String(config.KeyAddr, config.DefaultAddr, "HTTP listen address")
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file (default ./config.yaml)")
	rootCmd.Flags().AddGoFlagSet(&fs)

	if err := rootCmd.Execute(); err != nil {
		klog.Fatalf("Failed to start server: %v", err)
	}
}
