package agent

import (
	"regexp"
	"strings"
)

// The text protocol between model and loop uses two markers:
//
//	ACTION: tool_name(arg1, arg2)
//	FINAL ANSWER: free text until end of output
//
// Both markers match case-insensitively. Termination always wins over an
// action: a turn containing FINAL ANSWER is terminal and no tool is called.
//
// Arguments are split on commas with no escaping rule, so an argument value
// cannot contain a literal comma. This is a known limitation of the protocol,
// kept deliberately.

var (
	// The argument part may not span lines or contain parentheses, so an
	// opening paren that never closes on its line simply fails to match.
	actionRe = regexp.MustCompile(`(?i)ACTION:\s*([A-Za-z_][A-Za-z0-9_]*)\s*\(([^()\n]*)\)`)
	// The marker match consumes the optional colon, so the remainder never
	// starts with it.
	finalMarkerRe = regexp.MustCompile(`(?i)FINAL\s+ANSWER:?`)
)

// ParseFinal detects the termination marker and extracts the candidate final
// answer: everything following the marker, trimmed. It returns false when the
// marker is absent or nothing follows it.
func ParseFinal(text string) (string, bool) {
	loc := finalMarkerRe.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	answer := strings.TrimSpace(text[loc[1]:])
	if answer == "" {
		return "", false
	}
	return answer, true
}

// ParseAction extracts a tool invocation from a model turn. The absent case
// is a first-class result: malformed syntax (unbalanced parentheses, an empty
// argument segment) yields (Action{}, false) exactly like a turn with no
// ACTION marker at all, never a partially parsed action.
func ParseAction(text string) (Action, bool) {
	m := actionRe.FindStringSubmatch(text)
	if m == nil {
		return Action{}, false
	}

	name := strings.ToLower(m[1])
	argsRaw := strings.TrimSpace(m[2])

	if argsRaw == "" {
		return Action{Tool: name, Args: nil}, true
	}

	segments := strings.Split(argsRaw, ",")
	args := make([]string, 0, len(segments))
	for _, seg := range segments {
		arg := unquote(strings.TrimSpace(seg))
		if arg == "" {
			// Empty argument segment, e.g. f(a,,b) or f(a,): malformed.
			return Action{}, false
		}
		args = append(args, arg)
	}
	return Action{Tool: name, Args: args}, true
}

// unquote strips one layer of matching single or double quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '\'' || first == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
