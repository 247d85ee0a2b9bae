package dbmanager

import "strings"

const (
	delimiterMarker   = "DELIMITER"
	procedureOpen     = "DELIMITER //"
	procedureBoundary = "//"
)

// SplitStatements breaks a semicolon-delimited script into executable statements.
// Blank chunks and "--" comment lines are dropped.
func SplitStatements(script string) []string {
	var out []string
	for _, chunk := range strings.Split(stripComments(script), ";") {
		if stmt := strings.TrimSpace(chunk); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// ParseObjectStatements handles scripts that mix plain statements with stored routines.
// Everything before the first DELIMITER marker is split on semicolons. After "DELIMITER //"
// the text is split on "//" and only the CREATE blocks are kept.
func ParseObjectStatements(script string) []string {
	content := stripComments(script)

	before, _, found := strings.Cut(content, delimiterMarker)
	out := SplitStatements(before)
	if !found {
		return out
	}

	_, routines, ok := strings.Cut(content, procedureOpen)
	if !ok {
		return out
	}
	for _, block := range strings.Split(routines, procedureBoundary) {
		block = strings.TrimSpace(block)
		if strings.HasPrefix(block, "CREATE") {
			out = append(out, block)
		}
	}
	return out
}

func stripComments(script string) string {
	lines := strings.Split(script, "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
