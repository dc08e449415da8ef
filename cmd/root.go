package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/sonido-voice/configs"
	"github.com/RyanBlaney/sonido-voice/logging"
)

var (
	configFile string
	logLevel   string
	noColor    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sonido-voice",
	Short: "Acoustic voice quality analysis",
	Long: `Extracts clinical voice quality measures from recordings: jitter,
shimmer, harmonics-to-noise ratio, pitch statistics, smoothed cepstral peak
prominence, low/high spectral balance and the cepstral spectral index of
dysphonia.

Multiple recordings of the same speaker are analyzed independently and
averaged per metric.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd, viper.GetViper()); err != nil {
			return err
		}
		return applyLogging(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default is $HOME/.config/sonido-voice/sonido-voice.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"disable colored log output")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "sonido-voice"))
		}
		viper.AddConfigPath("/etc/sonido-voice")
		viper.AddConfigPath("./configs")
		viper.SetConfigName("sonido-voice")
		viper.SetConfigType("yaml")
	}

	configs.ConfigureEnv(viper.GetViper())
	configs.SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		logging.Debug("Using config file", logging.Fields{
			"path": viper.ConfigFileUsed(),
		})
	} else if configFile != "" {
		fmt.Fprintf(os.Stderr, "error reading config file %s: %v\n", configFile, err)
		os.Exit(1)
	}
}

// applyLogging sends every log level to the command's error stream so that
// stdout carries only the report
func applyLogging(cmd *cobra.Command) error {
	level, err := logging.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		return err
	}

	logging.SetGlobalLogger(logging.NewErrorStreamLogger(cmd.ErrOrStderr(), true))
	logging.SetLevel(level)

	if noColor {
		logging.DisableColors()
	}
	return nil
}

// flagKeys maps command flags onto configuration keys
var flagKeys = map[string]string{
	"profile":       "analysis.profile",
	"shape":         "output.shape",
	"output":        "output.format",
	"file-workers":  "analysis.file_workers",
	"frame-workers": "analysis.frame_workers",
	"file-timeout":  "analysis.file_timeout",
	"min-duration":  "analysis.min_duration",
	"endpoint":      "predict.endpoint",
}

// bindFlags binds each cobra flag to its associated viper configuration key
// so that explicit flags win over the config file and environment
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var lastErr error

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}

		if !f.Changed && v.IsSet(key) {
			val := v.Get(key)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				lastErr = fmt.Errorf("flag --%s: %w", f.Name, err)
			}
		}

		if err := v.BindPFlag(key, f); err != nil {
			lastErr = err
		}

		envVar := configs.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envVar); err != nil {
			lastErr = err
		}
	})

	return lastErr
}
