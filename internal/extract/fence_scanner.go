package extract

import "strings"

// scanBlocks scans the input for fenced blocks and returns them in order
// of appearance. A block opens at a run of three-plus backticks whose
// info string (tag) runs to the end of that line, and closes at the next
// backtick run that directly follows a newline. Content after the closing
// run stays outside the block.
//
// This is a byte-level scan rather than a regex so that offsets are exact
// and the closing fence at end-of-input (no trailing newline) is handled.
// It is safe to index bytes for ASCII delimiters because UTF-8 guarantees
// ASCII bytes never appear inside a multi-byte sequence.
func scanBlocks(s string) []Block {
	var blocks []Block
	i := 0
	for i < len(s) {
		rel := strings.Index(s[i:], "```")
		if rel < 0 {
			break
		}
		open := i + rel

		// Consume the whole opening run.
		j := open
		for j < len(s) && s[j] == '`' {
			j++
		}

		// The info string runs to the end of the line. An opening fence
		// on the final line can never close, so scanning ends there.
		nl := strings.IndexByte(s[j:], '\n')
		if nl < 0 {
			break
		}
		tag := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(s[j:j+nl], "\r")))
		bodyStart := j + nl + 1

		// Closing fence: the next backtick run sitting right after a newline.
		closeRel := strings.Index(s[bodyStart:], "\n```")
		if closeRel < 0 {
			break
		}
		body := strings.TrimSuffix(s[bodyStart:bodyStart+closeRel], "\r")

		end := bodyStart + closeRel + 1
		for end < len(s) && s[end] == '`' {
			end++
		}

		blocks = append(blocks, Block{
			Tag:   tag,
			Body:  body,
			start: open,
			end:   end,
		})
		i = end
	}
	return blocks
}
