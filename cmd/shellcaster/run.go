package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/arbitengine/shellcaster/internal/app"
	"github.com/arbitengine/shellcaster/internal/composer"
	"github.com/arbitengine/shellcaster/internal/config"
	"github.com/arbitengine/shellcaster/internal/content"
)

var (
	runTopic     string
	runSelect    int
	runPlatforms string
	runDryRun    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full trend-to-blog-to-social workflow",
	Long: `Identify a trending topic, generate a blog post for it, publish the
post to Blogger, then broadcast a short message to the social platforms.

Examples:
  shellcaster run                      # crypto trends, first candidate
  shellcaster run --topic "AI safety"  # different topic domain
  shellcaster run --select 3           # pick the third candidate
  shellcaster run --dry-run            # generate but publish nothing`,
	RunE: runWorkflow,
}

func init() {
	runCmd.Flags().StringVar(&runTopic, "topic", "", "Topic domain to search trends for (default: cryptocurrency)")
	runCmd.Flags().IntVar(&runSelect, "select", 1, "Which trend candidate to write about (1-based)")
	runCmd.Flags().StringVar(&runPlatforms, "platform", "x,facebook,linkedin", "Comma-separated social platforms to broadcast to")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Generate content without publishing anywhere")
	rootCmd.AddCommand(runCmd)
}

func runWorkflow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForWorkflow(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	client := content.NewGeminiClient(content.GeminiConfig{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiModel,
	})

	// Step 1: identify trending topics.
	candidates, err := content.IdentifyTrends(ctx, client, runTopic, cfg.TrendWindowHours)
	if err != nil {
		return fmt.Errorf("trend identification failed: %w", err)
	}
	for i, seg := range candidates {
		fmt.Printf("\n=== Topic %d ===\n%s\n", i+1, seg)
	}

	pick := runSelect
	if pick < 1 || pick > len(candidates) {
		pick = 1
	}
	topic := candidates[pick-1]
	slog.Info("selected topic", "candidate", pick)

	// Step 2: generate the blog post.
	blogMD, err := content.GeneratePost(ctx, client, topic, content.LoadTemplate(cfg.TemplatePath))
	if err != nil {
		return fmt.Errorf("blog generation failed: %w", err)
	}
	blogMD = content.FormatMarkdown(blogMD, topic)

	// Step 3: archive the markdown.
	archive := fmt.Sprintf("topic-%s.md", content.Slugify(topic))
	if err := os.WriteFile(archive, []byte(blogMD), 0o644); err != nil {
		return fmt.Errorf("save blog archive: %w", err)
	}
	slog.Info("saved blog content", "path", archive)

	if runDryRun {
		fmt.Println(skipStyle.Render("Dry run: skipping Blogger and social publishing."))
		return nil
	}

	// Step 4: publish to Blogger and get the post URL.
	a := app.New(cfg)
	blogger := a.Publisher("blogger")
	if blogger == nil {
		return fmt.Errorf("blogger adapter not configured")
	}
	result, err := blogger.Publish(ctx, blogMD)
	if err != nil {
		return fmt.Errorf("blogger post failed: %w", err)
	}
	fmt.Println(successStyle.Render("Blogger post URL: " + result.PostURL))

	// Step 5: compose the social message and broadcast it.
	message := composer.Compose(blogMD, result.PostURL)
	results := a.Dispatcher.Run(ctx, message, splitPlatforms(runPlatforms))
	printResults(results)
	return nil
}
