package main

import (
	"log/slog"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "0.1.0"
	commit  = ""
	date    = ""
)

var (
	cfgFile string
	verbose bool
)

func main() {
	cmd := newRootCommand()

	cmd.SetArgs(os.Args[1:])
	if err := cmd.Execute(); err != nil {
		slog.Error("fatal error", "err", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "vip8",
		Short:         "CHIP-8 virtual machine",
		Version:       buildinfo.Version(version, commit, date),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cobra.OnInitialize(setupLogger, initConfig)

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.vip8.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newDisasmCommand())

	return cmd
}

func setupLogger() {
	loggerOpts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if verbose {
		loggerOpts.Level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, loggerOpts)))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Search config in home directory with name ".vip8" (without extension).
		home, err := homedir.Dir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigName(".vip8")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		slog.Debug("using config file", "path", viper.ConfigFileUsed())
	}
}
