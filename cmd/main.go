package main

import (
	"context"
	"flag"

	klog "k8s.io/klog/v2"
)

func main() {
	var fs flag.FlagSet
	klog.InitFlags(&fs)
	defer klog.Flush()

	rootCmd := newRootCmd(awsFetcher)
	rootCmd.PersistentFlags().AddGoFlagSet(&fs)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		klog.Exitf("cspm: %v", err)
	}
}
