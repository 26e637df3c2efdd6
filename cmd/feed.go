package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/swapfeed/swapfeed/internal/utils"
	"github.com/swapfeed/swapfeed/pkg/pairing"
	"github.com/swapfeed/swapfeed/pkg/reddit"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Fetch a paired feed once and print it",
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, _ := cmd.Flags().GetStringSlice("target")
		sources, _ := cmd.Flags().GetStringSlice("source")
		sortMode, _ := cmd.Flags().GetString("sort")
		timeFilter, _ := cmd.Flags().GetString("time")
		pages, _ := cmd.Flags().GetInt("pages")
		asJSON, _ := cmd.Flags().GetBool("json")

		engine := pairing.New(pairing.Config{
			Fetcher: newRedditClient(),
			Log:     utils.Log,
		})

		ctx := context.Background()
		err := engine.Submit(ctx, pairing.SubmitRequest{
			Targets:    targets,
			Sources:    sources,
			Sort:       reddit.Sort(sortMode),
			TimeFilter: reddit.TimeFilter(timeFilter),
		})
		if err != nil {
			if msg := engine.Message(); msg != nil {
				return fmt.Errorf("%s", msg.Text)
			}
			return err
		}

		for i := 1; i < pages; i++ {
			if engine.Exhausted() {
				break
			}
			if err := engine.LoadMore(ctx, reddit.Sort(sortMode), reddit.TimeFilter(timeFilter)); err != nil {
				utils.Log.Warnf("load more failed: %v", err)
				break
			}
		}

		if msg := engine.Message(); msg != nil && msg.Kind == pairing.KindInfo {
			fmt.Fprintln(os.Stderr, msg.Text)
		}

		posts := engine.Posts()
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			for _, p := range posts {
				if err := enc.Encode(p); err != nil {
					return err
				}
			}
			return nil
		}
		for _, p := range posts {
			fmt.Printf("[%d] %s (by u/%s in r/%s)\n", p.Target.Score, p.Target.Title, p.Target.Author, p.Target.Subreddit)
			fmt.Printf("    %s %s\n", p.Media.Kind, p.Media.URL)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(feedCmd)
	feedCmd.Flags().StringSliceP("target", "t", nil, "Target subreddits (comma-separated, required)")
	feedCmd.Flags().StringSliceP("source", "s", nil, "Source subreddits to take media from (comma-separated, required)")
	feedCmd.Flags().String("sort", "hot", "Sort mode: hot, new, top")
	feedCmd.Flags().String("time", "day", "Time filter for top: day, week, month, year, all")
	feedCmd.Flags().Int("pages", 1, "Number of pages to fetch")
	feedCmd.Flags().Bool("json", false, "Print posts as JSON lines")
	_ = feedCmd.MarkFlagRequired("target")
	_ = feedCmd.MarkFlagRequired("source")
}
