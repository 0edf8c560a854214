package tools

import (
	"fmt"
	"strings"
)

// UnifiedDiff compares two file bodies line by line and returns a unified
// diff with hunk headers plus the added and removed line counts. The counts
// feed the transcript's per-file summary line.
func UnifiedDiff(path, before, after string) (diff string, added, removed int) {
	oldLines := splitLines(before)
	newLines := splitLines(after)

	var b strings.Builder
	fmt.Fprintf(&b, "--- a/%s\n+++ b/%s\n", path, path)

	longest := len(oldLines)
	if len(newLines) > longest {
		longest = len(newLines)
	}

	hunkStart := -1
	var hunk strings.Builder
	flush := func() {
		if hunkStart < 0 {
			return
		}
		fmt.Fprintf(&b, "@@ -%d +%d @@\n", hunkStart+1, hunkStart+1)
		b.WriteString(hunk.String())
		hunkStart = -1
		hunk.Reset()
	}

	for i := 0; i < longest; i++ {
		oldLine, oldOK := lineAt(oldLines, i)
		newLine, newOK := lineAt(newLines, i)

		if oldLine == newLine && oldOK && newOK {
			flush()
			continue
		}
		if hunkStart < 0 {
			hunkStart = i
		}
		if oldOK {
			hunk.WriteString("-" + oldLine + "\n")
			removed++
		}
		if newOK {
			hunk.WriteString("+" + newLine + "\n")
			added++
		}
	}
	flush()

	return b.String(), added, removed
}

func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func lineAt(lines []string, i int) (string, bool) {
	if i < len(lines) {
		return lines[i], true
	}
	return "", false
}
