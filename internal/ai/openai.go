package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"engagement-optimizer/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// Advisor turns an analysis into content suggestions.
type Advisor interface {
	// ThemeIdeas proposes next-video themes from the suggested topics and the
	// best performing items, written in the given language.
	ThemeIdeas(ctx context.Context, topics []model.TopicCount, top []model.Ranked, language string) (string, error)
}

// OpenAIClient implements Advisor using OpenAI Chat Completions API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string // optional
}

const defaultModel = "gpt-4o-mini"

func NewOpenAI(cfg Config) *OpenAIClient {
	var c *openai.Client
	if cfg.BaseURL != "" {
		cc := openai.DefaultConfig(cfg.APIKey)
		cc.BaseURL = cfg.BaseURL
		c = openai.NewClientWithConfig(cc)
	} else {
		c = openai.NewClient(cfg.APIKey)
	}
	m := cfg.Model
	if m == "" {
		m = defaultModel
	}
	return &OpenAIClient{client: c, model: m}
}

func (o *OpenAIClient) ThemeIdeas(ctx context.Context, topics []model.TopicCount, top []model.Ranked, language string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()
	if len(topics) == 0 && len(top) == 0 {
		return "", nil
	}
	b := &strings.Builder{}
	b.WriteString("Recurring tags among the top performers (tag: occurrences):\n")
	for _, t := range topics {
		fmt.Fprintf(b, "- %s: %d\n", t.Tag, t.Count)
	}
	b.WriteString("\nBest performing videos (title, format, engagement score):\n")
	for i, r := range top {
		if i >= 10 {
			break
		}
		fmt.Fprintf(b, "- %s (%s, %.0f)\n", r.Record.Title, r.ContentType, r.Score)
	}
	sys := fmt.Sprintf(`
		You advise a YouTube creator on what to publish next. Write in %s.
		Return 3 to 5 numbered video ideas, one line each, each naming a format (short or long video).
		Build on the recurring tags; do not repeat existing titles.
		`, langOrDefault(language))
	out, err := o.create(ctx, sys, b.String()+"\nTask: Suggest the next videos. Output the list only, plain text, no links.")
	if err != nil {
		slog.Error("openai: theme ideas error", "err", err)
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (o *OpenAIClient) create(ctx context.Context, system, user string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func langOrDefault(lang string) string {
	l := strings.TrimSpace(lang)
	if l == "" {
		return "English"
	}
	return l
}
