package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/itsmostafa/kvscript/internal/version"
)

var engineName string
var seedFile string
var logLevel string
var logFormat string
var timeout time.Duration
var maxScriptBytes int
var respOutput bool

var rootCmd = &cobra.Command{
	Use:   "kvscript",
	Short: "Run scripts against an in-memory key-value store",
	Long: `kvscript embeds a script interpreter (Lua, JavaScript or Tengo) next to an
in-memory key-value store. Scripts call store commands with redis_call and
redis_pcall and return a single result.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("kvscript %s\n", version.String()))

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&engineName, "engine", "e", envOr("KVSCRIPT_ENGINE", "lua"), "Script engine to use (lua, js, tengo)")
	flags.StringVar(&seedFile, "seed", os.Getenv("KVSCRIPT_SEED"), "YAML file of keys to load into the store at startup")
	flags.StringVar(&logLevel, "log-level", envOr("KVSCRIPT_LOG_LEVEL", "warn"), "Log level (debug, info, warn, error)")
	flags.StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
	flags.DurationVar(&timeout, "timeout", 5*time.Second, "Abort scripts running longer than this (0 = no limit)")
	flags.IntVar(&maxScriptBytes, "max-script-bytes", envInt("KVSCRIPT_MAX_SCRIPT_BYTES", 1<<20), "Largest script the interpreter will load")
	flags.BoolVar(&respOutput, "resp", false, "Print results in the store's wire format")
}

// envOr returns the environment variable or def when it is unset
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
