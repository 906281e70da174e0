/*
	Copyright 2026 The drivetime authors
*/

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	driveCmd "github.com/drivetime/drivetime/pkg/cmd/drive"
	migrateCmd "github.com/drivetime/drivetime/pkg/cmd/migrate"
	routesCmd "github.com/drivetime/drivetime/pkg/cmd/routes"
	statsCmd "github.com/drivetime/drivetime/pkg/cmd/stats"
	tripsCmd "github.com/drivetime/drivetime/pkg/cmd/trips"
	"github.com/drivetime/drivetime/pkg/cmd/util"
	"github.com/drivetime/drivetime/pkg/config"
	"github.com/drivetime/drivetime/version"
)

const envPrefix = "DRIVETIME"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "drivetime",
	Short:   "Times drives along checkpoint routes and compares them to history",
	Long:    ``,
	Version: version.FullVersion,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return util.SetupLogger()
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:funlen // flag definitions
func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.drivetime.yml)")

	rootCmd.PersistentFlags().StringVar(&config.Store, "store",
		config.StoreSqlite,
		"Trip store backend (sqlite, postgres, memory)")
	rootCmd.PersistentFlags().StringVar(&config.DB, "db",
		"postgresql://DB_USERNAME:DB_USER_PASSWORD@DB_HOST:5432/drivetime",
		"Connection string for the postgres database")
	rootCmd.PersistentFlags().StringVar(&config.SQLitePath, "sqlite-path",
		defaultSqlitePath(),
		"Path of the sqlite database file")
	rootCmd.PersistentFlags().StringVar(&config.RoutesFile, "routes",
		"",
		"YAML file with route definitions (default: built-in routes)")
	rootCmd.PersistentFlags().StringVar(&config.WaitForServices,
		"wait-for-services",
		"15s",
		"Duration to wait for other services to be ready")
	rootCmd.PersistentFlags().StringVar(&config.LogLevel,
		"log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().StringVar(&config.SQLLogLevel,
		"sql-log-level",
		"info",
		"controls the log level for sql methods")
	rootCmd.PersistentFlags().StringVar(&config.LogFormat,
		"log-format",
		"text",
		"controls the log output format (json, text)")
	rootCmd.PersistentFlags().StringVar(&config.LogFilter,
		"log-filter",
		"",
		"zapfilter rules, e.g. 'info,warn,error:* debug:drivetime.recorder'")
	rootCmd.PersistentFlags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	rootCmd.PersistentFlags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data ('stdout' prints to stdout)")
	rootCmd.PersistentFlags().StringVar(&config.StatsCacheTTL,
		"stats-cache-ttl",
		"5m",
		"How long computed route statistics are cached")

	// add commands here
	rootCmd.AddCommand(routesCmd.NewRoutesCmd())
	rootCmd.AddCommand(driveCmd.NewDriveCmd())
	rootCmd.AddCommand(statsCmd.NewStatsCmd())
	rootCmd.AddCommand(tripsCmd.NewTripsCmd())
	rootCmd.AddCommand(migrateCmd.NewMigrateCmd())
}

func defaultSqlitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "drivetime.db"
	}
	return filepath.Join(home, ".drivetime", "trips.db")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".drivetime" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".drivetime")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	bindFlags(rootCmd, viper.GetViper())
	for _, cmd := range rootCmd.Commands() {
		bindFlags(cmd, viper.GetViper())
	}
}

// Bind each cobra flag to its associated viper configuration
// (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores, e.g. --log-level to DRIVETIME_LOG_LEVEL
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name,
				fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v", f.Name, err)
			}
		}
		// Apply the viper config value to the flag when the flag is not set and viper
		// has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				fmt.Fprintf(os.Stderr, "Could set flag value for %s: %v", f.Name, err)
			}
		}
	})
}
