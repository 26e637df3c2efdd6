package cmd

import (
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/swapfeed/swapfeed/internal/server"
	"github.com/swapfeed/swapfeed/internal/utils"
	"github.com/swapfeed/swapfeed/pkg/pairing"
	"github.com/swapfeed/swapfeed/pkg/prefs"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the swapfeed JSON API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		listenAddr, _ := cmd.Flags().GetString("listen")
		if listenAddr == "" {
			listenAddr = viper.GetString("serve.listen")
		}
		dbPath, _ := cmd.Flags().GetString("dbpath")
		if dbPath == "" {
			dbPath = viper.GetString("prefs.dbpath")
		}
		if dbPath == "" {
			home, err := homedir.Dir()
			if err != nil {
				return err
			}
			dbPath = filepath.Join(home, ".swapfeed.sqlite")
		}

		username, _ := cmd.Flags().GetString("username")
		if username == "" {
			username = viper.GetString("serve.username")
		}
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			password = viper.GetString("serve.password")
		}

		store, err := prefs.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		engine := pairing.New(pairing.Config{
			Fetcher: newRedditClient(),
			Log:     utils.Log,
		})

		return server.New(engine, store, username, password).Start(listenAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "", "HTTP listen address (default :8080)")
	serveCmd.Flags().String("dbpath", "", "Path to the preferences database")
	serveCmd.Flags().String("username", "", "Basic auth username (empty disables auth)")
	serveCmd.Flags().String("password", "", "Basic auth password")
}
