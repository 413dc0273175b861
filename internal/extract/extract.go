// Package extract pulls machine-readable payloads out of free-form model
// replies. Model output mixes prose with a fenced data block; this package
// locates the block, decodes it, and strips it from the narrative.
//
// Absence of a block and a malformed block are both expected outcomes, not
// errors: callers get a bool and fall back to the narrative text. Nothing
// here panics or returns an error, and the same input always yields the
// same outcome.
package extract

import (
	"encoding/json"
	"strings"

	"auroracast/internal/logging"
)

// Block is one fenced region located in a reply.
type Block struct {
	Tag  string // lowercased info string, "" for an untagged fence
	Body string // payload between the fence lines

	start int // offset of the opening backtick run
	end   int // offset one past the closing backtick run
}

// FindBlock returns the preferred data block: the first json-tagged fence
// if one exists anywhere in the text, otherwise the first untagged fence.
// Fences carrying any other tag are never selected. Selection happens
// before parsing, so a malformed tagged block is not skipped in favor of
// a later untagged one.
func FindBlock(text string) (Block, bool) {
	blocks := scanBlocks(text)
	for _, b := range blocks {
		if b.Tag == "json" {
			return b, true
		}
	}
	for _, b := range blocks {
		if b.Tag == "" {
			return b, true
		}
	}
	return Block{}, false
}

// Decode locates the preferred block and unmarshals its body into dst.
// Returns false when no block exists or its body is not valid JSON; the
// malformed case is logged as a warning. dst is untouched on failure
// only as far as encoding/json guarantees, so callers should treat a
// false return as "no structured data" and ignore dst.
func Decode(text string, dst any) bool {
	block, ok := FindBlock(text)
	if !ok {
		logging.ExtractDebug("no fenced data block in reply (%d bytes)", len(text))
		return false
	}
	if err := json.Unmarshal([]byte(block.Body), dst); err != nil {
		logging.ExtractWarn("fenced block found but body does not parse: %v", err)
		return false
	}
	logging.ExtractDebug("decoded %q block (%d bytes)", block.Tag, len(block.Body))
	return true
}

// StripBlock returns the text with the preferred block removed and the
// result trimmed of surrounding whitespace. Text without a block comes
// back trimmed. The returned narrative never contains the selected
// block's fenced form.
func StripBlock(text string) string {
	block, ok := FindBlock(text)
	if !ok {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[:block.start] + text[block.end:])
}
