package extract

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type sampleReport struct {
	KpIndex  float64         `json:"kpIndex"`
	Forecast []samplePoint   `json:"forecast"`
	Extra    map[string]bool `json:"extra,omitempty"`
}

type samplePoint struct {
	Time string  `json:"time"`
	Kp   float64 `json:"kp"`
}

func TestDecodeTaggedBlock(t *testing.T) {
	text := "Report:\n```json\n{\"kpIndex\":5,\"forecast\":[]}\n```"

	var got sampleReport
	if !Decode(text, &got) {
		t.Fatal("Decode returned false for a valid tagged block")
	}
	want := sampleReport{KpIndex: 5, Forecast: []samplePoint{}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decoded report mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeNoBlock(t *testing.T) {
	var got sampleReport
	if Decode("The aurora looks promising tonight over Tromso.", &got) {
		t.Error("Decode returned true for text without any fence")
	}
}

func TestDecodeMalformedBlock(t *testing.T) {
	text := "```json\n{\"kpIndex\": oops,}\n```"
	var got sampleReport
	if Decode(text, &got) {
		t.Error("Decode returned true for a malformed block")
	}
}

func TestDecodeEmptyBody(t *testing.T) {
	var got map[string]any
	if Decode("```json\n\n```", &got) {
		t.Error("Decode returned true for an empty block body")
	}
}

func TestDecodeUntaggedSecondary(t *testing.T) {
	text := "Summary first.\n```\n{\"kpIndex\":3.2,\"forecast\":[{\"time\":\"Now\",\"kp\":3.2}]}\n```"
	var got sampleReport
	if !Decode(text, &got) {
		t.Fatal("Decode returned false for a valid untagged block")
	}
	if got.KpIndex != 3.2 || len(got.Forecast) != 1 {
		t.Errorf("unexpected decode result: %+v", got)
	}
}

func TestTaggedBlockTakesPrecedence(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{
			name: "tagged before untagged",
			text: "```json\n{\"which\":\"tagged\"}\n```\nthen\n```\n{\"which\":\"untagged\"}\n```",
		},
		{
			name: "untagged before tagged",
			text: "```\n{\"which\":\"untagged\"}\n```\nthen\n```json\n{\"which\":\"tagged\"}\n```",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got struct {
				Which string `json:"which"`
			}
			if !Decode(tt.text, &got) {
				t.Fatal("Decode returned false")
			}
			if got.Which != "tagged" {
				t.Errorf("selected %q block, want the tagged one", got.Which)
			}
		})
	}
}

func TestMalformedTaggedDoesNotFallBack(t *testing.T) {
	// Selection happens before parsing: a broken tagged block must not be
	// skipped in favor of the valid untagged one that follows it.
	text := "```json\n{broken\n```\n```\n{\"which\":\"untagged\"}\n```"
	var got map[string]any
	if Decode(text, &got) {
		t.Error("Decode fell back to the untagged block after a malformed tagged block")
	}
}

func TestForeignTagNeverSelected(t *testing.T) {
	var got map[string]any
	if Decode("```yaml\nkey: value\n```", &got) {
		t.Error("Decode selected a non-json tagged block")
	}
}

func TestStripBlock(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "example scenario",
			text: "Report:\n```json\n{\"kpIndex\":5,\"forecast\":[]}\n```",
			want: "Report:",
		},
		{
			name: "no block returns trimmed text",
			text: "  just prose  ",
			want: "just prose",
		},
		{
			name: "block between prose",
			text: "Intro.\n```json\n{}\n```\nOutro.",
			want: "Intro.\n\nOutro.",
		},
		{
			name: "untagged block stripped",
			text: "Narrative.\n```\n{\"a\":1}\n```",
			want: "Narrative.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripBlock(tt.text); got != tt.want {
				t.Errorf("StripBlock() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStripBlockRemovesPayload(t *testing.T) {
	texts := []string{
		"Report:\n```json\n{\"kpIndex\":5,\"solarWindSpeed\":512.3}\n```",
		"```\n{\"probabilityScore\":85}\n```\ntrailing narrative",
		"lead\n```json\n{\n  \"bz\": -7.1\n}\n```\ntail",
	}
	for _, text := range texts {
		block, ok := FindBlock(text)
		if !ok {
			t.Fatalf("no block found in %q", text)
		}
		stripped := StripBlock(text)
		if strings.Contains(stripped, block.Body) {
			t.Errorf("stripped narrative still contains the block payload:\n%s", stripped)
		}
	}
}

func TestFindBlockIsPure(t *testing.T) {
	text := "A\n```json\n{\"x\":1}\n```\nB\n```\n{\"y\":2}\n```"
	first, ok1 := FindBlock(text)
	second, ok2 := FindBlock(text)
	if ok1 != ok2 || first != second {
		t.Errorf("FindBlock is not deterministic: %+v vs %+v", first, second)
	}
}
