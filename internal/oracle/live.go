package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"auroracast/internal/aurora"
	"auroracast/internal/extract"
	"auroracast/internal/logging"
)

// Gemini is the live capability backed by the hosted Gemini API.
type Gemini struct {
	client        *genai.Client
	forecastModel string
	photoModel    string
	chatModel     string
}

// NewGemini creates the live capability. The API key must be present;
// credential gating happens in New, not here.
func NewGemini(ctx context.Context, st Settings) (*Gemini, error) {
	if st.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: st.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	g := &Gemini{
		client:        client,
		forecastModel: st.Model,
		photoModel:    st.PhotoModel,
		chatModel:     st.ChatModel,
	}
	if g.photoModel == "" {
		g.photoModel = g.forecastModel
	}
	if g.chatModel == "" {
		g.chatModel = g.forecastModel
	}
	return g, nil
}

// Live reports that a real provider backs this capability.
func (g *Gemini) Live() bool { return true }

// FetchForecast runs one grounded forecast request. Provider failures
// propagate; a reply without a usable data block does not.
func (g *Gemini) FetchForecast(ctx context.Context, loc aurora.Coordinates) (*aurora.ForecastResult, error) {
	if !loc.Valid() {
		return nil, fmt.Errorf("coordinates must be finite, got lat=%v lon=%v", loc.Lat, loc.Lon)
	}

	timer := logging.StartTimer(logging.CategoryForecast, "grounded forecast call")
	defer timer.StopWithInfo()
	logging.Forecast("fetching forecast for lat=%.4f lon=%.4f (model=%s)", loc.Lat, loc.Lon, g.forecastModel)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: forecastPersona}},
		},
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.forecastModel, genai.Text(forecastPrompt(loc)), cfg)
	if err != nil {
		logging.ForecastError("model call failed: %v", err)
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}

	return forecastFromReply(resp.Text(), groundingChunks(resp)), nil
}

// AnalyzePhoto sends the image plus the analysis prompt, asking for bare
// JSON output. Every failure collapses to nil by contract.
func (g *Gemini) AnalyzePhoto(ctx context.Context, image []byte, mimeType, deviceLabel string) *aurora.PhotoAnalysis {
	if len(image) == 0 {
		logging.PhotoWarn("empty image, nothing to analyze")
		return nil
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	if deviceLabel == "" {
		deviceLabel = "Smartphone"
	}

	timer := logging.StartTimer(logging.CategoryPhoto, "photo analysis call")
	defer timer.Stop()
	logging.Photo("analyzing %d byte %s photo (device=%s)", len(image), mimeType, deviceLabel)

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText(photoPrompt(deviceLabel)),
		}, genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.photoModel, contents, cfg)
	if err != nil {
		logging.PhotoWarn("model call failed: %v", err)
		return nil
	}
	return photoFromReply(resp.Text())
}

// NewChat opens a persona-bound session. The provider keeps the history;
// we hand back a handle that serializes its sends.
func (g *Gemini) NewChat(ctx context.Context) (ChatSession, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: chatPersona}},
		},
	}

	chat, err := g.client.Chats.Create(ctx, g.chatModel, cfg, nil)
	if err != nil {
		logging.ChatError("failed to open session: %v", err)
		return nil, fmt.Errorf("failed to open chat session: %w", err)
	}
	logging.Chat("session opened (model=%s)", g.chatModel)
	return &geminiChat{chat: chat}, nil
}

// geminiChat wraps one provider-side conversation. The mutex keeps sends
// one-at-a-time in submission order; the provider accumulates history
// keyed by this handle, and interleaved sends would corrupt it.
type geminiChat struct {
	chat *genai.Chat
	mu   sync.Mutex
}

func (s *geminiChat) Send(ctx context.Context, message string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer := logging.StartTimer(logging.CategoryChat, "chat turn")
	defer timer.Stop()

	resp, err := s.chat.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		logging.ChatError("send failed: %v", err)
		return "", fmt.Errorf("failed to send chat message: %w", err)
	}
	return resp.Text(), nil
}

// forecastFromReply assembles a result from one reply. Report and RawText
// always derive from this same reply; parse failure leaves Report nil and
// the narrative carries the fetch alone.
func forecastFromReply(text string, chunks []*genai.GroundingChunk) *aurora.ForecastResult {
	result := &aurora.ForecastResult{
		RawText:   extract.StripBlock(text),
		Sources:   sourcesFromChunks(chunks),
		FetchedAt: time.Now(),
	}

	var report aurora.WeatherReport
	if extract.Decode(text, &report) {
		result.Report = &report
		logging.Forecast("report decoded: kp=%.1f score=%d chance=%s", report.KpIndex, report.ProbabilityScore, report.VisibilityChance)
	} else {
		logging.ForecastWarn("reply carried no usable data block, narrative only")
	}
	return result
}

// sourcesFromChunks filters grounding chunks down to web citations.
// Entries without a web reference are dropped; a missing title falls back
// to the domain, then the URI.
func sourcesFromChunks(chunks []*genai.GroundingChunk) []aurora.GroundingSource {
	var sources []aurora.GroundingSource
	for _, chunk := range chunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		title := chunk.Web.Title
		if title == "" {
			title = chunk.Web.Domain
		}
		if title == "" {
			title = chunk.Web.URI
		}
		sources = append(sources, aurora.GroundingSource{URI: chunk.Web.URI, Title: title})
	}
	return sources
}

// photoFromReply parses an analysis reply. Direct JSON is the expected
// shape; a fenced block is the fallback when the model wraps it anyway.
// Anything else is nil.
func photoFromReply(text string) *aurora.PhotoAnalysis {
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "{") {
		var analysis aurora.PhotoAnalysis
		if err := json.Unmarshal([]byte(trimmed), &analysis); err == nil {
			return &analysis
		}
		logging.PhotoWarn("direct JSON parse failed, trying fenced block")
	}

	var analysis aurora.PhotoAnalysis
	if extract.Decode(text, &analysis) {
		return &analysis
	}
	logging.PhotoWarn("reply was neither direct JSON nor a fenced block (%d bytes)", len(text))
	return nil
}

func groundingChunks(resp *genai.GenerateContentResponse) []*genai.GroundingChunk {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	return resp.Candidates[0].GroundingMetadata.GroundingChunks
}
