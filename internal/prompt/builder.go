// Package prompt renders the debugging prompt handed to the language model.
// The section order and the no-context marker are load-bearing: a parser
// downstream of the model keys confidence off the literal marker text.
package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/crashlens/crashlens/internal/domain/models"
)

const (
	// DefaultMaxTotalLines caps how many source lines a prompt may carry
	// across all code blocks.
	DefaultMaxTotalLines = 500

	// minTruncatedLines is the smallest head-slice of a block still worth
	// including when the budget is nearly spent.
	minTruncatedLines = 10

	// NoContextMarker is rendered verbatim when no source code was fetched.
	NoContextMarker = "(No source code context available)"
)

const sectionSeparator = "================================================================================"

const debuggingPromptTemplate = `You are an expert debugging assistant. Analyze this error and provide actionable insights.

CRITICAL CONSTRAINTS:
- Base your analysis ONLY on the provided error message, stack trace, and source code context
- DO NOT hallucinate logs, runtime values, or information not provided
- DO NOT make assumptions about code that isn't shown
- Focus on what you can see in the stack trace and source code

{{.Sep}}
ERROR MESSAGE
{{.Sep}}
{{.ErrorMessage}}

{{.Sep}}
STACK TRACE
{{.Sep}}
{{.StackTrace}}

{{.Sep}}
SOURCE CODE CONTEXT
{{.Sep}}
{{- if .Blocks}}
{{range .Blocks}}
--- File {{.Index}}: {{.FilePath}} ---
{{if .TargetLine}}Lines {{.StartLine}}-{{.EndLine}} (error at line {{.TargetLine}}):{{else}}Lines {{.StartLine}}-{{.EndLine}}:{{end}}

{{.Content}}
{{end}}
{{- else}}
{{.NoContextMarker}}
{{- end}}

{{.Sep}}
ANALYSIS REQUEST
{{.Sep}}

Please provide:

1. ROOT CAUSE ANALYSIS
   - What is the likely root cause of this error?
   - What evidence from the stack trace and source code supports this?

2. SUGGESTED FIX
   - What specific code changes would fix this error?
   - Include the exact file path and line number(s) where changes are needed

3. PREVENTION STRATEGY
   - How could this error be prevented in the future?
   - What code patterns or practices would help avoid this?

Remember: Base your analysis ONLY on the provided context. Do not invent details.
`

var debuggingPrompt = template.Must(template.New("debugging").Parse(debuggingPromptTemplate))

type (
	promptData struct {
		Sep             string
		ErrorMessage    string
		StackTrace      string
		Blocks          []blockData
		NoContextMarker string
	}

	blockData struct {
		Index      int
		FilePath   string
		StartLine  int
		EndLine    int
		TargetLine int
		Content    string
	}
)

// Build renders the four fixed prompt sections. Code blocks are admitted in
// list order under a global line budget; see trimToBudget.
func Build(errorMessage, stackTrace string, blocks []models.CodeBlock, maxTotalLines int) (string, error) {
	limited := trimToBudget(blocks, maxTotalLines)

	data := promptData{
		Sep:             sectionSeparator,
		ErrorMessage:    errorMessage,
		StackTrace:      stackTrace,
		NoContextMarker: NoContextMarker,
	}
	for i, block := range limited {
		data.Blocks = append(data.Blocks, blockData{
			Index:      i + 1,
			FilePath:   block.FilePath,
			StartLine:  block.StartLine,
			EndLine:    block.EndLine,
			TargetLine: block.TargetLine,
			Content:    block.Content,
		})
	}

	var rendered strings.Builder
	if err := debuggingPrompt.Execute(&rendered, data); err != nil {
		return "", fmt.Errorf("error rendering debugging prompt: %w", err)
	}
	return rendered.String(), nil
}

// HasSourceContext reports whether a rendered prompt carries fetched code,
// which is what confidence is keyed on.
func HasSourceContext(rendered string) bool {
	return !strings.Contains(rendered, NoContextMarker)
}

// trimToBudget accumulates blocks while the running line total stays within
// budget. A block that would overflow is head-truncated when the remaining
// budget is still meaningful (more than minTruncatedLines), then everything
// after it is dropped.
func trimToBudget(blocks []models.CodeBlock, maxTotalLines int) []models.CodeBlock {
	if len(blocks) == 0 {
		return nil
	}

	var limited []models.CodeBlock
	total := 0

	for _, block := range blocks {
		blockLines := block.LineCount()

		if total+blockLines <= maxTotalLines {
			limited = append(limited, block)
			total += blockLines
			continue
		}

		remaining := maxTotalLines - total
		if remaining > minTruncatedLines {
			lines := strings.Split(strings.TrimSuffix(block.Content, "\n"), "\n")
			truncated := block
			truncated.Content = strings.Join(lines[:remaining], "\n")
			truncated.EndLine = block.StartLine + remaining - 1
			limited = append(limited, truncated)
		}
		break
	}
	return limited
}
