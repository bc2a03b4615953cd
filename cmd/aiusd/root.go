package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/aiusd/aiusd-agent/internal/config"
)

// app carries state shared by the subcommands.
type app struct {
	cfgPath string
	envFile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:     "aiusd",
		Short:   "AIUSD custody agent: an LLM tool loop over MCP",
		Version: version,
		Long: `aiusd relays chat from HTTP, A2A and Telegram to an LLM that may call
custody tools on an MCP server.

Settings come from built-in defaults, an optional YAML file (--config),
a .env file and the process environment, later sources winning.`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.init()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgPath, "config", "", "YAML config file")
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")

	root.AddCommand(
		newGatewayCmd(a),
		newBotCmd(a),
		newRunCmd(a),
		newWithdrawCmd(a),
		newToolsCmd(a),
	)
	return root
}

func (a *app) init() error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}

	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	setupLogging(cfg.LogLevel)
	gin.SetMode(gin.ReleaseMode)
	return nil
}

// setupLogging installs a text logger on stderr, keeping stdout for command output.
func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
