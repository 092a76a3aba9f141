package cmd

import (
	"fmt"
	"os"

	"github.com/kareemelharony/samatcher/internal/utils"
	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "samatcher",
	Short: "Competitor discovery and similarity ranking for Amazon listings.",
	Long: `samatcher finds the catalog items competing with your Amazon listings and
ranks them by textual similarity, using the Product Advertising API as its
only data source. Results are cached locally so repeated analyses do not
burn API quota.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.samatcher.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("dbpath", "", "data/samatcher.sqlite", "Path to SQLite DB file")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".samatcher")
		viper.SetConfigType("yaml")
	}

	// Credentials can come from PAAPI_ACCESS_KEY, PAAPI_SECRET_KEY and
	// PAAPI_PARTNER_TAG instead of the config file.
	viper.SetEnvPrefix("paapi")
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.samatcher.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default empty values for all keys
	viper.SetDefault("access_key", "")
	viper.SetDefault("secret_key", "")
	viper.SetDefault("partner_tag", "")
	viper.SetDefault("partner_type", "")
	viper.SetDefault("marketplace", "")
	viper.SetDefault("host", "")
	viper.SetDefault("region", "")

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}
