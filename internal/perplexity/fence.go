// internal/perplexity/fence.go
package perplexity

import (
	"errors"
	"fmt"
	"strings"
)

const fence = "```"

var ErrMalformedFence = errors.New("malformed fenced code block")

// ExtractFenced unwraps content delimited by a single pair of fence lines.
// Content that does not start with a fence is returned unchanged. When it does,
// the first line must be an opening fence with at most one language tag, the
// last line must be a bare closing fence, and no other fence line may appear
// in between. Anything else is ErrMalformedFence.
func ExtractFenced(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, fence) {
		return content, nil
	}

	lines := strings.Split(strings.ReplaceAll(trimmed, "\r\n", "\n"), "\n")
	if len(lines) < 2 {
		return "", fmt.Errorf("%w: missing closing fence", ErrMalformedFence)
	}
	if !isOpeningFence(lines[0]) {
		return "", fmt.Errorf("%w: invalid opening fence %q", ErrMalformedFence, lines[0])
	}
	if strings.TrimSpace(lines[len(lines)-1]) != fence {
		return "", fmt.Errorf("%w: missing closing fence", ErrMalformedFence)
	}

	body := lines[1 : len(lines)-1]
	for i, line := range body {
		if strings.HasPrefix(strings.TrimSpace(line), fence) {
			return "", fmt.Errorf("%w: unexpected fence on line %d", ErrMalformedFence, i+2)
		}
	}
	return strings.Join(body, "\n"), nil
}

func isOpeningFence(line string) bool {
	tag := strings.TrimPrefix(strings.TrimSpace(line), fence)
	if strings.Contains(tag, "`") {
		return false
	}
	return !strings.ContainsAny(strings.TrimSpace(tag), " \t")
}
