package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fivetwenty-io/apitailor/cmd/tailor/commands"
	"github.com/fivetwenty-io/apitailor/internal/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "tailor",
	Short: "Call any HTTP API described in a YAML file",
	Long: `A command-line interface for APIs described by a host and a set of
resources and routes.

Every route in the description file becomes callable as
"tailor call <resource> <action>".`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.tailor/config.yml)")
	rootCmd.PersistentFlags().StringP("file", "f", "", "API description file (YAML or JSON)")
	rootCmd.PersistentFlags().String("host", "", "override the host of the API description")
	rootCmd.PersistentFlags().StringP("token", "t", "", "bearer token sent with every request")
	rootCmd.PersistentFlags().String("output", constants.FormatTable, "output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("log-file", "", "also write logs to this file, rotated")
	rootCmd.PersistentFlags().Duration("timeout", constants.DefaultHTTPTimeout, "HTTP timeout per request")
	rootCmd.PersistentFlags().Int("retries", constants.DefaultRetryMax, "retries for failed or 5xx requests")
	rootCmd.PersistentFlags().Float64("rate-limit", 0, "maximum requests per second (0 disables)")
	rootCmd.PersistentFlags().String("nats-url", "", "publish an audit event per response to this NATS server")
	rootCmd.PersistentFlags().String("nats-subject", constants.DefaultAuditSubject, "NATS subject for audit events")

	// Bind flags to viper
	for _, name := range []string{
		"config", "file", "host", "token", "output", "verbose", "log-file",
		"timeout", "retries", "rate-limit", "nats-url", "nats-subject",
	} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewRoutesCommand())
	rootCmd.AddCommand(commands.NewCallCommand())
	rootCmd.AddCommand(commands.NewBatchCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
}

func initConfig() {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in ~/.tailor/config.yml
		viper.AddConfigPath(filepath.Join(home, ".tailor"))
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match, e.g. TAILOR_NATS_URL
	viper.SetEnvPrefix("TAILOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
