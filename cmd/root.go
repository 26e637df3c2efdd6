package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/swapfeed/swapfeed/internal/utils"
	"github.com/swapfeed/swapfeed/pkg/reddit"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `	                           __               _
	 _____      ____ _ _ __  / _| ___  ___  __| |
	/ __\ \ /\ / / _' | '_ \| |_ / _ \/ _ \/ _' |
	\__ \\ V  V / (_| | |_) |  _|  __/  __/ (_| |
	|___/ \_/\_/ \__,_| .__/|_|  \___|\___|\__,_|
	                  |_|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "swapfeed",
	Short: "Pair one subreddit's posts with another subreddit's media.",
	Long: LOGO + `swapfeed fetches posts from target subreddits and swaps each post's media
for a randomly chosen image or video taken from your source subreddits.`,
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
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.swapfeed.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().StringP("useragent", "u", "", "Override the User-Agent sent to reddit")
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
		viper.SetConfigName(".swapfeed")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.swapfeed.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	viper.SetDefault("useragent", "")
	viper.SetDefault("proxy", "")
	viper.SetDefault("prefs.dbpath", "")
	viper.SetDefault("serve.listen", ":8080")
	viper.SetDefault("serve.username", "")
	viper.SetDefault("serve.password", "")

	_ = viper.BindPFlag("proxy", rootCmd.PersistentFlags().Lookup("proxy"))
	_ = viper.BindPFlag("useragent", rootCmd.PersistentFlags().Lookup("useragent"))

	loglevel, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(loglevel)
}

// newRedditClient builds the shared client from config.
func newRedditClient() *reddit.Client {
	return reddit.NewClient(reddit.Config{
		UserAgent: viper.GetString("useragent"),
		Proxy:     viper.GetString("proxy"),
		Log:       utils.Log,
	})
}
