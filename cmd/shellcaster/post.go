package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arbitengine/shellcaster/internal/app"
	"github.com/arbitengine/shellcaster/internal/config"
)

var (
	postText      string
	postFile      string
	postPlatforms string
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Publish a message to social platforms",
	Long: `Publish text or a markdown file to the configured platforms.

Examples:
  shellcaster post --post "Hello world"
  shellcaster post --file article.md --platform x,facebook`,
	RunE: runPost,
}

func init() {
	postCmd.Flags().StringVar(&postText, "post", "", "Text to post")
	postCmd.Flags().StringVar(&postFile, "file", "", "Markdown file to post")
	postCmd.Flags().StringVar(&postPlatforms, "platform", "", "Comma-separated list of platforms (default: all)")
	postCmd.MarkFlagsMutuallyExclusive("post", "file")
	postCmd.MarkFlagsOneRequired("post", "file")
	rootCmd.AddCommand(postCmd)
}

func runPost(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	content, err := loadPostContent()
	if err != nil {
		return err
	}

	a := app.New(cfg)
	results := a.Dispatcher.Run(context.Background(), content, splitPlatforms(postPlatforms))
	printResults(results)
	return nil
}

// loadPostContent resolves the message body from --post or --file.
// Failure here is the only condition that exits non-zero.
func loadPostContent() (string, error) {
	if postText != "" {
		return postText, nil
	}
	if !strings.HasSuffix(postFile, ".md") {
		return "", fmt.Errorf("only markdown files are supported")
	}
	data, err := os.ReadFile(postFile)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return string(data), nil
}

func splitPlatforms(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	platforms := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.ToLower(strings.TrimSpace(p)); trimmed != "" {
			platforms = append(platforms, trimmed)
		}
	}
	return platforms
}
