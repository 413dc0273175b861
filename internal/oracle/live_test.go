package oracle

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"auroracast/internal/aurora"
)

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), Settings{})
	require.Error(t, err)
}

func TestSourcesFromChunks(t *testing.T) {
	chunks := []*genai.GroundingChunk{
		nil,
		{},
		{Web: &genai.GroundingChunkWeb{URI: ""}},
		{Web: &genai.GroundingChunkWeb{URI: "https://a.example", Title: "Site A"}},
		{Web: &genai.GroundingChunkWeb{URI: "https://b.example", Domain: "b.example"}},
		{Web: &genai.GroundingChunkWeb{URI: "https://c.example"}},
	}

	want := []aurora.GroundingSource{
		{URI: "https://a.example", Title: "Site A"},
		{URI: "https://b.example", Title: "b.example"},
		{URI: "https://c.example", Title: "https://c.example"},
	}
	if diff := cmp.Diff(want, sourcesFromChunks(chunks)); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
}

func TestSourcesFromChunksEmpty(t *testing.T) {
	assert.Nil(t, sourcesFromChunks(nil))
	assert.Nil(t, sourcesFromChunks([]*genai.GroundingChunk{nil, {}}))
}

func TestForecastFromReplyWithBlock(t *testing.T) {
	reply := "Strong storm tonight.\n```json\n{\"kpIndex\": 6.5, \"probabilityScore\": 80, \"visibilityChance\": \"High\", \"locationName\": \"Tromso\", \"forecast\": []}\n```"

	res := forecastFromReply(reply, nil)
	require.NotNil(t, res.Report)
	assert.InDelta(t, 6.5, res.Report.KpIndex, 0.001)
	assert.Equal(t, 80, res.Report.ProbabilityScore)
	assert.Equal(t, aurora.VisibilityHigh, res.Report.VisibilityChance)
	assert.Equal(t, "Strong storm tonight.", res.RawText)
	assert.Empty(t, res.Sources)
	assert.False(t, res.FetchedAt.IsZero())
}

func TestForecastFromReplyWithoutBlock(t *testing.T) {
	res := forecastFromReply("  The service is briefly unavailable.  ", nil)
	assert.Nil(t, res.Report)
	assert.Equal(t, "The service is briefly unavailable.", res.RawText)
}

func TestForecastFromReplyMalformedBlock(t *testing.T) {
	res := forecastFromReply("Outlook:\n```json\n{not json}\n```", nil)
	assert.Nil(t, res.Report)
	assert.Equal(t, "Outlook:", res.RawText)
}

func TestPhotoFromReplyDirect(t *testing.T) {
	reply := `{"cloudCover": "10%", "darknessRating": "8/10", "recommendedSettings": {"iso": "1600", "shutterSpeed": "8s", "aperture": "f/2.8", "focus": "infinity"}, "checklist": ["a", "b", "c"], "feedback": "Nice spot."}`

	analysis := photoFromReply(reply)
	require.NotNil(t, analysis)
	assert.Equal(t, "10%", analysis.CloudCover)
	assert.Equal(t, "1600", analysis.RecommendedSettings.ISO)
	assert.Len(t, analysis.Checklist, 3)
}

func TestPhotoFromReplyFenced(t *testing.T) {
	reply := "Here you go:\n```json\n{\"cloudCover\": \"50%\", \"feedback\": \"ok\"}\n```"

	analysis := photoFromReply(reply)
	require.NotNil(t, analysis)
	assert.Equal(t, "50%", analysis.CloudCover)
	assert.Equal(t, "ok", analysis.Feedback)
}

func TestPhotoFromReplyGarbage(t *testing.T) {
	assert.Nil(t, photoFromReply("I could not process the image."))
	assert.Nil(t, photoFromReply(""))
	assert.Nil(t, photoFromReply("{broken"))
	assert.Nil(t, photoFromReply("null"))
}

func TestGroundingChunksNilSafety(t *testing.T) {
	assert.Nil(t, groundingChunks(nil))
	assert.Nil(t, groundingChunks(&genai.GenerateContentResponse{}))
	assert.Nil(t, groundingChunks(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{}},
	}))
}
