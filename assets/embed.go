package assets

import (
	_ "embed"
	"strings"
)

// DetectPrompt is the instruction sent with each image to a vision model
// detector.
//
//go:embed detect_prompt.txt
var DetectPrompt string

// Prompt returns override when it is set, otherwise the embedded prompt.
func Prompt(override string) string {
	if s := strings.TrimSpace(override); s != "" {
		return s
	}
	return strings.TrimSpace(DetectPrompt)
}
