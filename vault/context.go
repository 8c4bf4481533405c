package vault

import (
	"fmt"
	"log/slog"
	"strings"
)

// TruncationMarker is appended whenever formatted context had to be cut to
// fit the token budget. Its presence is the in-band signal that loss
// occurred.
const TruncationMarker = "[... Context truncated due to token limit ...]"

// charsPerToken is a coarse heuristic (one token is roughly four characters
// of English text). It is an approximation, not real tokenization; budgets
// derived from it are soft by nature.
const charsPerToken = 4

// ContextSettings controls which vault sources feed the injected context.
type ContextSettings struct {
	IncludeActiveFile       bool     `json:"includeActiveFile"`
	IncludeSelection        bool     `json:"includeSelection"`
	SelectedFiles           []string `json:"selectedFiles"`
	MaxContextTokensPercent int      `json:"maxContextTokensPercent"`
}

// Context is the gathered vault material for one generation: built fresh per
// request, formatted into a text block, and discarded unless the caller
// attaches it to a history record.
type Context struct {
	ActiveFile      *Document  `json:"activeFile,omitempty"`
	SelectedText    string     `json:"selectedText,omitempty"`
	AdditionalFiles []Document `json:"additionalFiles"`
}

// ContextBuilder gathers documents from a Vault and renders them under a
// token budget.
type ContextBuilder struct {
	vault Vault
	log   *slog.Logger
}

// NewContextBuilder creates a ContextBuilder over the given vault.
func NewContextBuilder(v Vault, log *slog.Logger) *ContextBuilder {
	if log == nil {
		log = slog.Default()
	}
	return &ContextBuilder{vault: v, log: log}
}

// BuildContext gathers up to three sources under the settings flags: the
// active document, the current selection, and the explicitly selected files.
// A failed read of any single source is logged and skipped; it never aborts
// the others. Returns nil when no source yielded content.
func (b *ContextBuilder) BuildContext(settings ContextSettings) *Context {
	ctx := &Context{AdditionalFiles: []Document{}}
	hasContext := false

	if settings.IncludeActiveFile {
		if ref := b.vault.ActiveDocument(); ref != nil {
			content, err := b.vault.ReadDocument(ref.Path)
			if err != nil {
				b.log.Warn("failed to read active document", "path", ref.Path, "error", err)
			} else {
				ctx.ActiveFile = &Document{Path: ref.Path, Name: ref.Name, Content: content}
				hasContext = true
			}
		}
	}

	if settings.IncludeSelection {
		// A whitespace-only selection does not count as context.
		if selection := b.vault.Selection(); strings.TrimSpace(selection) != "" {
			ctx.SelectedText = selection
			hasContext = true
		}
	}

	for _, path := range settings.SelectedFiles {
		content, err := b.vault.ReadDocument(path)
		if err != nil {
			b.log.Warn("failed to read selected document", "path", path, "error", err)
			continue
		}
		name := path
		if idx := strings.LastIndex(path, "/"); idx >= 0 {
			name = path[idx+1:]
		}
		ctx.AdditionalFiles = append(ctx.AdditionalFiles, Document{Path: path, Name: name, Content: content})
		hasContext = true
	}

	if !hasContext {
		return nil
	}
	return ctx
}

// FormatStructuredContext renders a Context as markdown with a fixed section
// order: active file, selected text, additional files. Each document is
// fenced and labeled with its path.
func (b *ContextBuilder) FormatStructuredContext(ctx *Context) string {
	var sb strings.Builder
	sb.WriteString("# Vault Context\n\n")

	if ctx.ActiveFile != nil {
		fmt.Fprintf(&sb, "## Active File: %s\n", ctx.ActiveFile.Name)
		fmt.Fprintf(&sb, "Path: `%s`\n\n", ctx.ActiveFile.Path)
		sb.WriteString("```\n")
		sb.WriteString(ctx.ActiveFile.Content)
		sb.WriteString("\n```\n\n")
	}

	if ctx.SelectedText != "" {
		sb.WriteString("## Selected Text\n\n")
		sb.WriteString("```\n")
		sb.WriteString(ctx.SelectedText)
		sb.WriteString("\n```\n\n")
	}

	if len(ctx.AdditionalFiles) > 0 {
		sb.WriteString("## Additional Files\n\n")
		for _, file := range ctx.AdditionalFiles {
			fmt.Fprintf(&sb, "### %s\n", file.Name)
			fmt.Fprintf(&sb, "Path: `%s`\n\n", file.Path)
			sb.WriteString("```\n")
			sb.WriteString(file.Content)
			sb.WriteString("\n```\n\n")
		}
	}

	return sb.String()
}

// TruncateToTokenLimit enforces the character budget derived from maxTokens.
// Text under budget is returned unchanged. Over budget, the cut lands on the
// last full line at or before the budget and the truncation marker is
// appended, so loss is never silent.
func (b *ContextBuilder) TruncateToTokenLimit(text string, maxTokens int) string {
	maxChars := maxTokens * charsPerToken
	if len(text) <= maxChars {
		return text
	}

	truncated := text[:maxChars]
	if idx := strings.LastIndex(truncated, "\n"); idx > 0 {
		truncated = truncated[:idx]
	}

	return truncated + "\n\n" + TruncationMarker
}

// ContextTokenBudget returns the share of the response token budget reserved
// for injected context: floor(total*percent/100).
func (b *ContextBuilder) ContextTokenBudget(totalMaxTokens, percent int) int {
	return totalMaxTokens * percent / 100
}

// BuildFormattedContext is the composition used by the engine: gather,
// format, truncate. Returns "" when there is nothing to inject; callers must
// not send an empty context message.
func (b *ContextBuilder) BuildFormattedContext(settings ContextSettings, maxTokens int) (string, *Context) {
	ctx := b.BuildContext(settings)
	if ctx == nil {
		return "", nil
	}

	formatted := b.FormatStructuredContext(ctx)
	return b.TruncateToTokenLimit(formatted, maxTokens), ctx
}
