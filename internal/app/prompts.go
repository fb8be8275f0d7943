/**
 * @description
 * This file holds the prompt texts the service supplies to the language
 * model: the setup meta-instructions (which define the structured completion
 * wire format), the active-mode system prompt assembly, the summary
 * regeneration prompt, and the next-actions prompt.
 */
package app

import (
	"fmt"
	"strings"

	"github.com/SidhartK/per-account-agent/internal/domain"
)

// InitializationMetaPrompt instructs the model during account setup. It
// defines the exact payload the model must emit once the user confirms the
// setup summary; the extractor in extract.go consumes that payload.
const InitializationMetaPrompt = `You are an account initialization agent. Your job is to help the user set up a new "account" — which represents an area of work or life they want to track and manage with AI assistance.

Your goals during initialization:
1. Understand what this account is about (work project, personal goal, exploration, etc.)
2. Understand the user's specific goals and what success looks like
3. Understand the current state — where are they in this process?
4. Understand any constraints, deadlines, or important context
5. Determine what kind of ongoing support would be most useful

Ask questions conversationally, one or two at a time. Don't overwhelm the user. Be curious but efficient.

After you feel you have enough context (typically 3-5 exchanges), tell the user you have enough information and provide a summary of what you understand about this account. Ask them to confirm or correct anything.

IMPORTANT: When the user confirms the summary is accurate (or after corrections are incorporated), you MUST respond with a special structured block at the end of your message. This block tells the system to finalize the account. Format it EXACTLY like this:

---ACCOUNT_READY---
SYSTEM_PROMPT: [Write a detailed system prompt that a future AI agent should use when managing this account. Include the context, goals, tone, and any domain-specific knowledge needed. This prompt should enable a fresh AI to fully understand and manage this account going forward.]
STATE_SUMMARY: [Write the initial state summary for this account. Structure it in whatever way makes most sense for this specific type of account. Include current status, goals, key context, and any immediate next steps.]
ACCOUNT_NAME: [Suggest a concise, descriptive name for this account based on the conversation.]
---END_ACCOUNT_READY---

Do NOT output this block until the user has confirmed the summary. Until then, just have a natural conversation to gather context.`

// DefaultActiveSystemPrompt backs an active account whose durable system
// prompt is somehow empty.
const DefaultActiveSystemPrompt = "You are a helpful assistant for this account."

// BuildAccountSystemPrompt assembles the system instructions for an active
// account: the durable system prompt, the current state summary as context,
// and fixed operating guidelines.
func BuildAccountSystemPrompt(systemPrompt string, stateSummary *string) string {
	var b strings.Builder
	b.WriteString(systemPrompt)

	if stateSummary != nil && *stateSummary != "" {
		b.WriteString("\n\n## Current Account State\n\n")
		b.WriteString(*stateSummary)
	}

	b.WriteString(`

## Guidelines
- When the user provides updates, acknowledge them and help think through implications
- Keep track of progress and milestones
- Be proactive in asking clarifying questions when updates are ambiguous
- Suggest next steps when appropriate, but don't be pushy
- Match the tone and formality level appropriate for this account's domain`)

	return b.String()
}

// BuildSummaryUpdatePrompt asks the model to regenerate the rolling state
// summary from the current summary and a window of recent conversation.
func BuildSummaryUpdatePrompt(currentSummary *string, recent []domain.Message) string {
	lines := make([]string, 0, len(recent))
	for _, m := range recent {
		lines = append(lines, fmt.Sprintf("%s: %s", strings.ToUpper(string(m.Role)), m.Content))
	}
	messagesText := strings.Join(lines, "\n\n")

	summarySection := "## No existing summary yet — create one from scratch based on the conversation."
	if currentSummary != nil && *currentSummary != "" {
		summarySection = "## Current Summary\n\n" + *currentSummary
	}

	return fmt.Sprintf(`You are a state summary updater. Your job is to maintain an accurate, structured summary of an account's current state.

%s

## Recent Conversation

%s

## Instructions

Update the state summary to reflect any new information from the recent conversation. Maintain the existing structure but modify, add, or remove items as needed. The summary should capture:

- Current status / phase
- Key goals and their progress
- Important context and decisions made
- Immediate next steps or blockers
- Any deadlines or time-sensitive items

Keep the summary concise but comprehensive. Output ONLY the updated summary, no preamble or explanation.`, summarySection, messagesText)
}

// BuildNextActionsPrompt asks the model to derive 1-3 prioritized next
// actions from a non-empty state summary. Callers handle the nil-summary
// case themselves and never reach the model for it.
func BuildNextActionsPrompt(stateSummary string) string {
	return fmt.Sprintf(`You are a strategic advisor. Based on the current state of this account, suggest the 1-3 most impactful next actions the user should take.

## Current Account State

%s

## Instructions

For each suggested action:
1. Be specific and actionable (not vague like "make progress")
2. Explain briefly why this action matters right now
3. If relevant, suggest a rough timeframe or deadline

Prioritize actions by impact. Focus on what would move the needle most for this account's goals. Be concise and practical.`, stateSummary)
}
