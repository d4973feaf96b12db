package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arbitengine/shellcaster/internal/app"
	"github.com/arbitengine/shellcaster/internal/config"
	"github.com/arbitengine/shellcaster/internal/trends"
)

var trendsKeywords string

var trendsCmd = &cobra.Command{
	Use:   "trends [WOEID]",
	Short: "Show trending topics",
	Long: `Show trending topics for a location. WOEID defaults to 1 (Worldwide).

Examples:
  shellcaster trends            # Worldwide
  shellcaster trends 23424977   # United States
  shellcaster trends --keywords bitcoin,eth`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTrends,
}

func init() {
	trendsCmd.Flags().StringVar(&trendsKeywords, "keywords", "", "Filter trends to names containing any of these comma-separated keywords")
	rootCmd.AddCommand(trendsCmd)
}

func runTrends(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	woeid := 1
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Println(skipStyle.Render(fmt.Sprintf("Invalid WOEID: %s. Using default (Worldwide).", args[0])))
		} else {
			woeid = parsed
		}
	}

	a := app.New(cfg)
	items, err := a.Trends.Fetch(context.Background(), woeid)
	if err != nil || len(items) == 0 {
		fmt.Println(failStyle.Render("No trends found or failed to fetch trends."))
		if err != nil {
			return fmt.Errorf("fetch trends: %w", err)
		}
		return nil
	}

	if trendsKeywords != "" {
		filter := trends.NewKeywordFilter(trends.FilterConfig{
			Keywords: strings.Split(trendsKeywords, ","),
		})
		items = filter.Filter(items)
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("\nTop %d Trending Topics (WOEID: %d):", len(items), woeid)))
	fmt.Println(strings.Repeat("-", 80))
	for i, item := range items {
		volume := ""
		if item.Volume > 0 {
			volume = fmt.Sprintf(" (%d tweets)", item.Volume)
		}
		fmt.Printf("%d. %s%s\n", i+1, item.Name, volume)
		if item.URL != "" {
			fmt.Printf("   %s\n", item.URL)
		}
		if len(item.Matched) > 0 {
			fmt.Printf("   matched: %s\n", strings.Join(item.Matched, ", "))
		}
	}
	fmt.Println()
	return nil
}
