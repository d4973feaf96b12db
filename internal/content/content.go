// Package content drives the generative pipeline: trend identification,
// blog post generation, and markdown shaping.
package content

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

// ContentError signals empty or unusable generated content. It is fatal
// to the overall run: nothing downstream has anything to publish.
type ContentError struct {
	Stage string
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("%s returned empty content", e.Stage)
}

// segmentHeader matches the bold-numbered headers ("**1.", "**2.**")
// the trend prompt asks for.
var segmentHeader = regexp.MustCompile(`^\*\*\d+\.(\*\*)?\s*`)

// IdentifyTrends asks the model for trending topics in the given domain
// over a recency window and returns the parsed topic segments. An empty
// first response is retried once with a lighter prompt.
func IdentifyTrends(ctx context.Context, client *GeminiClient, topic string, windowHours int) ([]string, error) {
	if topic == "" {
		topic = "cryptocurrency"
	}

	prompt := fmt.Sprintf(
		"Identify current trending topics related to: %s. "+
			"Use sources from the last %d hours, including news outlets, major social media platforms, and relevant analytics. "+
			"Present the information in a brief, and easy-to-read, structured markdown format with clear bullets "+
			"and each Segment must include bold-numbered headers like **1., **2., **n.",
		topic, windowHours,
	)

	text, err := client.Generate(ctx, prompt, 0.6, maxTokens/2)
	if err != nil {
		return nil, fmt.Errorf("trend identification: %w", err)
	}
	if text == "" {
		time.Sleep(time.Second)
		lighter := fmt.Sprintf(
			"List trending topics related to %s from the last %d hours in markdown.\n"+
				"For each: a title, a 1-2 sentence why-it's-trending, and 3-6 related keywords.\n"+
				"End with: 'Strongest Blog Post Recommendation: <topic>'.",
			topic, windowHours,
		)
		text, err = client.Generate(ctx, lighter, 0.6, maxTokens/2)
		if err != nil {
			return nil, fmt.Errorf("trend identification: %w", err)
		}
	}
	if text == "" {
		return nil, &ContentError{Stage: "trend identification"}
	}

	slog.Debug("identified trends", "model", client.Model())

	segments := SplitSegments(text)
	if len(segments) == 0 {
		return nil, &ContentError{Stage: "trend segmentation"}
	}
	return segments, nil
}

// SplitSegments slices structured text into topic blocks on
// bold-numbered headers.
func SplitSegments(text string) []string {
	lines := strings.Split(text, "\n")
	var starts []int
	for i, line := range lines {
		if segmentHeader.MatchString(strings.TrimLeft(line, " \t")) {
			starts = append(starts, i)
		}
	}

	var segments []string
	for i, start := range starts {
		end := len(lines)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		seg := strings.TrimSpace(strings.Join(lines[start:end], "\n"))
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

// GeneratePost writes a blog post for the topic, guided by the template.
func GeneratePost(ctx context.Context, client *GeminiClient, topic, template string) (string, error) {
	prompt := fmt.Sprintf(
		"You are a content writer for a crypto blog. Write a timely post using the strict markdown outline below.\n"+
			"Topic: %s\n"+
			"Tone: Professional, concise, informative.\n"+
			"Rules:\n"+
			"- Use markdown only.\n"+
			"- Do not include financial advice.\n"+
			"- No placeholders; keep it factual and recent-context framed.\n"+
			"Structure:\n"+
			"- Begin with a single H1 title line.\n"+
			"- Include a 1-3 sentence summary as a blockquote.\n"+
			"- Then continue as a cohesive article with natural, model-chosen section headings.\n"+
			"- End with keywords as hashtags.\n"+
			"TEMPLATE START\n%s\nTEMPLATE END\n",
		topic, template,
	)

	text, err := client.Generate(ctx, prompt, 0.7, maxTokens*3)
	if err != nil {
		return "", fmt.Errorf("blog generation: %w", err)
	}
	if text == "" {
		return "", &ContentError{Stage: "blog generation"}
	}

	slog.Debug("generated blog post", "model", client.Model())
	return text, nil
}
