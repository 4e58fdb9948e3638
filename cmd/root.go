package cmd

import (
	"fmt"
	"os"

	"wenum/internal/console"

	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	verbose   bool
	debug     bool
	version   = "1.0.0"
	proxyList []string
)

var rootCmd = &cobra.Command{
	Use:   "wenum",
	Short: "Web content discovery fuzzer",
	Long: `wenum - a pipelined web content discovery fuzzer.

Features:
  - Recursive directory discovery
  - Pluggable request analysis (ABI for custom scripts)
  - Expression-based response filtering, with auto-filter
  - Proxy rotation and transport evasion`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Don't print banner for version or help
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return
		}
		console.Banner(version)
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (built-in defaults are used when omitted)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "debug mode")
	rootCmd.PersistentFlags().StringSliceVar(&proxyList, "proxy", []string{}, "proxy list for rotation (can be specified multiple times)")
}
