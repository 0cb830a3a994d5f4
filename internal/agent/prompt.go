package agent

import "strings"

// systemPrompt fixes the text protocol the loop expects from the model.
// Adjusting the wording is fine; the ACTION / FINAL ANSWER markers are load
// bearing and match the parser.
const systemPrompt = `You are a helpful Norwegian financial assistant using Statistics Norway data.

Answer questions using this EXACT format:

THOUGHT: [explain what you need to know]
ACTION: tool_name("argument")
[wait for observation]

Available tools:
- get_spending("category") - get spending for a category like "housing", "food", etc.
- compare_spending("category1", "category2") - compare two categories
- get_total_spending() - get total household spending

After getting observations, provide:
FINAL ANSWER: [your complete answer with sources]

Be concise. Use tools to get data before answering.`

// buildPrompt assembles the model prompt from the system instructions, the
// question, and the accumulated conversation history.
func buildPrompt(question string, history []string) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)

	if len(history) == 0 {
		b.WriteString("\n\nLet's think step by step:")
		return b.String()
	}

	b.WriteString("\n\n")
	b.WriteString(strings.Join(history, "\n"))
	b.WriteString("\n\nContinue reasoning:")
	return b.String()
}
