package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/mandry-ai/server/internal/search"
)

const answerPromptTemplate = `You are a knowledgeable travel and visa assistant for {{.Region}} with access to official sources.

What is known about the user:
{{.ProfileSummary}}

OFFICIAL SOURCES CONTEXT:
{{.Sources}}

INSTRUCTIONS:
1. Base your answer primarily on the official sources provided above
2. Use **markdown formatting** for emphasis (bold, italic, lists, etc.)
3. Include inline citations using [Source 1], [Source 2], etc. when referencing information
4. Structure your response with clear headings and bullet points where appropriate
5. If the sources don't contain enough information, clearly state this limitation
6. Always recommend checking the most current official government websites
7. Be helpful but emphasize the importance of verifying information with official sources
8. Tailor the advice to the user's situation described above

RESPONSE FORMAT:
- Use **bold** for important terms and requirements
- Use bullet points or numbered lists for step-by-step information
- Include [Source X] citations immediately after relevant information
- End with a verification reminder

User Question: {{.Question}}

Please provide a comprehensive, well-formatted answer using the official sources above.`

// renderAnswerPrompt builds the single-instruction generation prompt through
// the Eino prompt component, embedding the numbered source list.
func renderAnswerPrompt(ctx context.Context, region, profileSummary, question string, sources []search.Source) (string, error) {
	var numbered strings.Builder
	for i, s := range sources {
		fmt.Fprintf(&numbered, "Source %d: %s\nURL: %s\nContent: %s\n\n", i+1, s.Title, s.URL, s.Snippet)
	}

	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(answerPromptTemplate),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"Region":         region,
		"ProfileSummary": profileSummary,
		"Sources":        strings.TrimRight(numbered.String(), "\n"),
		"Question":       question,
	})
	if err != nil {
		return "", fmt.Errorf("answer prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("answer prompt render: empty result")
	}
	return msgs[0].Content, nil
}
