package search

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"workspace-ai/internal/contextutil"
	"workspace-ai/internal/llm"
	"workspace-ai/internal/storage"
)

// NoInformationAnswer is returned when retrieval produced nothing; the
// language model is never called with no context.
const NoInformationAnswer = "I couldn't find any relevant information in this workspace to answer that question."

// maxContextChunksPerSource bounds prompt size.
const maxContextChunksPerSource = 3

// assumedSourcesWhenUnparsed is the conservative heuristic applied when the
// model omits the SOURCES line from a substantive answer.
const assumedSourcesWhenUnparsed = 3

const answerSystemPrompt = "You are a helpful assistant that answers questions about a team workspace. " +
	"Answer using only the information in the numbered context below. " +
	"If the context does not contain enough information to answer, say so. " +
	"Cite source numbers inline like [1] where you use them. " +
	"End your reply with a line of exactly this form listing the sources you actually used: " +
	"SOURCES: [1], [2]"

// TitleResolver resolves a human-readable label for a source resource.
type TitleResolver interface {
	Title(ctx context.Context, resourceType storage.ResourceType, id string) (string, error)
}

// AnswerClient is the language-model dependency for answer synthesis.
type AnswerClient interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

var (
	sourcesLineRe = regexp.MustCompile(`(?m)^\s*SOURCES:\s*((?:\[\d+\]\s*,?\s*)+)\s*$`)
	sourceIndexRe = regexp.MustCompile(`\[(\d+)\]`)
	noInfoRe      = regexp.MustCompile(`(?i)(couldn't find|could not find|no relevant|not enough information|don't have (that |any )?information|no information)`)
)

// Answer runs retrieval and synthesizes a cited answer for the question.
func (e *Engine) Answer(ctx context.Context, workspaceID, question string) (*Answer, error) {
	logger := contextutil.LoggerFromContext(ctx)

	results, err := e.SearchWorkspace(ctx, workspaceID, question)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &Answer{Answer: NoInformationAnswer, Sources: []Source{}}, nil
	}

	sources := e.resolveSources(ctx, results)
	contextBlock := buildContextBlock(results, sources)

	messages := []llm.Message{
		{Role: "system", Content: answerSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("%s\n\n%s", question, contextBlock)},
	}

	raw, err := e.llmClient.ChatWithMessages(ctx, messages, llm.ChatParams{Temperature: 0.2})
	if err != nil {
		return nil, fmt.Errorf("failed to get answer from language model: %w", err)
	}

	answerText, used := parseSources(raw, len(sources))
	logger.InfoContext(ctx, "answer synthesized",
		"workspace_id", workspaceID, "results", len(results), "sources_used", len(used))

	filtered := make([]Source, 0, len(used))
	for _, idx := range used {
		filtered = append(filtered, sources[idx-1])
	}
	return &Answer{Answer: answerText, Sources: filtered}, nil
}

// resolveSources maps results to citation entries with human-readable titles.
func (e *Engine) resolveSources(ctx context.Context, results []Result) []Source {
	logger := contextutil.LoggerFromContext(ctx)

	sources := make([]Source, len(results))
	for i, result := range results {
		title, err := e.titles.Title(ctx, result.SourceType, result.SourceID)
		if err != nil {
			logger.WarnContext(ctx, "failed to resolve source title",
				"source_type", result.SourceType, "source_id", result.SourceID, "error", err)
		}
		if title == "" {
			label := result.SourceID
			if len(label) > 8 {
				label = label[:8]
			}
			title = fmt.Sprintf("%s %s", result.SourceType, label)
		}
		sources[i] = Source{
			ParentID:   result.ParentID,
			SourceType: result.SourceType,
			SourceID:   result.SourceID,
			Title:      title,
			Score:      result.Score,
		}
	}
	return sources
}

// buildContextBlock renders one numbered entry per result, each with its
// title, score and top chunk texts.
func buildContextBlock(results []Result, sources []Source) string {
	var builder strings.Builder
	builder.WriteString("--- Context ---\n\n")
	for i, result := range results {
		builder.WriteString(fmt.Sprintf("[%d] %s (relevance %.2f)\n", i+1, sources[i].Title, result.Score))
		for j, chunk := range result.Chunks {
			if j == maxContextChunksPerSource {
				break
			}
			builder.WriteString(chunk.Content)
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}
	builder.WriteString("--- End Context ---")
	return builder.String()
}

// parseSources extracts the terminal SOURCES line from the raw model reply
// and strips it from the displayed answer. When the line is missing, the
// source list is empty for answers reading as "nothing found" and assumed to
// be the top 3 otherwise — a documented conservative fallback, not a
// guarantee.
func parseSources(raw string, sourceCount int) (string, []int) {
	answer := strings.TrimSpace(raw)

	loc := sourcesLineRe.FindStringSubmatchIndex(answer)
	if loc == nil {
		if noInfoRe.MatchString(answer) {
			return answer, nil
		}
		n := assumedSourcesWhenUnparsed
		if n > sourceCount {
			n = sourceCount
		}
		used := make([]int, 0, n)
		for i := 1; i <= n; i++ {
			used = append(used, i)
		}
		return answer, used
	}

	listText := answer[loc[2]:loc[3]]
	cleaned := strings.TrimSpace(answer[:loc[0]] + answer[loc[1]:])

	seen := make(map[int]bool)
	var used []int
	for _, match := range sourceIndexRe.FindAllStringSubmatch(listText, -1) {
		idx, err := strconv.Atoi(match[1])
		if err != nil || idx < 1 || idx > sourceCount || seen[idx] {
			continue
		}
		seen[idx] = true
		used = append(used, idx)
	}
	return cleaned, used
}
