// Package chunk splits accumulated answer text into ordered multi-line
// render chunks and reconciles successive chunk lists so a consumer can
// re-render only what changed.
package chunk

import (
	"strings"

	"github.com/codevoyager1984/math-agent/mathblock"
)

// DefaultLinesPerChunk is the chunk size threshold used when a caller
// does not configure one. Larger values re-render less often but replace
// more content on each provisional-chunk update.
const DefaultLinesPerChunk = 6

// Split cuts text into chunks of at least linesPerChunk lines, deferring
// any boundary that would fall inside an open math block. The trailing
// partial buffer becomes a final chunk regardless of size.
//
// Joining the result with "\n" reproduces text exactly. Split is
// deterministic: the math-block scan always replays from the start of
// text, so identical input yields an identical chunk list.
func Split(text string, linesPerChunk int) []string {
	if linesPerChunk <= 0 {
		linesPerChunk = DefaultLinesPerChunk
	}

	lines := strings.Split(text, "\n")
	chunks := make([]string, 0, len(lines)/linesPerChunk+1)
	buf := make([]string, 0, linesPerChunk)

	var st mathblock.State
	for _, line := range lines {
		pre := st.InBlock()
		st = mathblock.ScanLine(st, line)
		buf = append(buf, line)
		// Cut only when the threshold is met and neither side of the
		// line sits inside a math block. The pre-line check stops a cut
		// right after a line that merely closes a block opened earlier.
		if len(buf) >= linesPerChunk && !st.InBlock() && !pre {
			chunks = append(chunks, strings.Join(buf, "\n"))
			buf = buf[:0]
		}
	}
	if len(buf) > 0 {
		chunks = append(chunks, strings.Join(buf, "\n"))
	}
	return chunks
}
