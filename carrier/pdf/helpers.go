package pdf

import "strings"

// pdfString escapes text into a PDF literal string, in the same order the
// teacher's sign package escapes signer metadata: backslash, then the two
// parenthesis characters, then bare carriage returns.
func pdfString(text string) string {
	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, ")", "\\)")
	text = strings.ReplaceAll(text, "(", "\\(")
	text = strings.ReplaceAll(text, "\r", "\\r")
	return "(" + text + ")"
}
