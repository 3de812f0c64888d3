package indexer

import (
	"context"
	"fmt"

	"workspace-ai/internal/llm"
)

// maxSummaryInputRunes bounds the content sent to the summarization prompt.
const maxSummaryInputRunes = 6000

// fallbackSummaryRunes is how much raw content stands in for a summary when
// the language model is unavailable.
const fallbackSummaryRunes = 800

const summarySystemPrompt = "You summarize workspace content for a search index. " +
	"Write a short factual summary (2-3 sentences) of the provided content, " +
	"keeping names, dates, and identifiers intact. Reply with the summary only."

// Summarizer produces a short natural-language summary of raw content.
type Summarizer interface {
	Summarize(ctx context.Context, content string) (string, error)
}

// LLMSummarizer implements Summarizer on top of the chat completions client.
type LLMSummarizer struct {
	client *llm.Client
}

// NewLLMSummarizer creates a new LLMSummarizer.
func NewLLMSummarizer(client *llm.Client) *LLMSummarizer {
	return &LLMSummarizer{client: client}
}

// Summarize asks the language model for a short summary of content.
func (s *LLMSummarizer) Summarize(ctx context.Context, content string) (string, error) {
	runes := []rune(content)
	if len(runes) > maxSummaryInputRunes {
		content = string(runes[:maxSummaryInputRunes])
	}

	messages := []llm.Message{
		{Role: "system", Content: summarySystemPrompt},
		{Role: "user", Content: content},
	}
	summary, err := s.client.ChatWithMessages(ctx, messages, llm.ChatParams{MaxTokens: 256})
	if err != nil {
		return "", fmt.Errorf("summary generation failed: %w", err)
	}
	return summary, nil
}
