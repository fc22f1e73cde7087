package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/internal/cli"
	"github.com/aretw0/switchboard/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "switchboard",
	Short: "Switchboard routes natural-language intents to actions",
	Long: `Switchboard turns intents (free text or JSON) into dispatched actions,
tracks each one as a task, and chains follow-up actions through routing rules.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default ./switchboard.yaml)")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", "text", "Log format: text or json")
	flags.String("bridge", "memory", "Bridge kind: memory, process or http")
	flags.String("bridge-config", "bridge.yaml", "Allow-list for the process bridge")
	flags.String("bridge-url", "", "Endpoint for the http bridge")
	flags.String("store", "memory", "Task store: memory, sqlite or redis")
	flags.String("dsn", "", "SQLite DSN (default in-memory)")
	flags.String("rules", "", "Routing rules file (default built-in rules)")
	flags.Int("max-depth", 4, "Maximum chain depth")
	flags.String("generator", "passthrough", "Text generator: passthrough or genai")
	flags.String("model", "gemini-2.5-flash", "Model used by the genai generator")
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"log-level":     "log.level",
	"log-format":    "log.format",
	"bridge":        "bridge.kind",
	"bridge-config": "bridge.config_file",
	"bridge-url":    "bridge.url",
	"confirm":       "bridge.confirm",
	"store":         "store.kind",
	"dsn":           "store.dsn",
	"rules":         "router.rules_file",
	"max-depth":     "router.max_depth",
	"generator":     "generator.kind",
	"model":         "generator.model",
	"addr":          "http.addr",
	"metrics":       "metrics.enabled",
}

// loadConfig reads the config file and environment, with flags set on cmd taking precedence.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := config.New(cfgFile)
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = v.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return nil, bindErr
	}
	return config.Load(v)
}

// runOptions builds the options shared by every engine-backed command.
func runOptions(cmd *cobra.Command) (cli.RunOptions, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cli.RunOptions{}, err
	}
	return cli.RunOptions{
		Config:  cfg,
		Version: switchboard.Version,
		Rich:    term.IsTerminal(int(os.Stdout.Fd())),
		Input:   cmd.InOrStdin(),
		Output:  cmd.OutOrStdout(),
	}, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
