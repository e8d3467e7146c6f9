package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mvp-joe/pydeps/internal/config"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pydeps",
	Short: "pydeps - find the third-party packages a Python project imports",
	Long: `pydeps statically reads Python sources and lists the top-level modules they
import, without running any of them. The package list of a project can be fed
to packaging tools such as Nuitka as --include-package arguments.

Configuration is read from .pydeps/config.yml in the project root, or from the
file given with --config. PYDEPS_* environment variables override both.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initLogging)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <root>/.pydeps/config.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initLogging sends diagnostics to stderr so stdout stays machine readable.
func initLogging() {
	viper.SetEnvPrefix("PYDEPS")
	viper.AutomaticEnv()

	log.SetFlags(0)
	log.SetOutput(os.Stderr)
	if viper.GetBool("verbose") {
		log.SetFlags(log.Ltime | log.Lmicroseconds)
		if path := viper.GetString("config"); path != "" {
			log.Printf("Using config file: %s", path)
		}
	}
}

// loadConfig loads configuration for a project root, preferring --config.
func loadConfig(rootDir string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := viper.GetString("config"); path != "" {
		cfg, err = config.NewFileLoader(rootDir, path).Load()
	} else {
		cfg, err = config.LoadConfigFromDir(rootDir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
