package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"auroracast/internal/aurora"
	"auroracast/internal/store"
)

// maxPhotoBytes caps uploads; phone photos comfortably fit.
const maxPhotoBytes = 10 << 20

type forecastRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type forecastResponse struct {
	ID        string                   `json:"id,omitempty"`
	Demo      bool                     `json:"demo"`
	FetchedAt time.Time                `json:"fetchedAt"`
	Report    *aurora.WeatherReport    `json:"report"`
	RawText   string                   `json:"rawText"`
	Sources   []aurora.GroundingSource `json:"sources"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"live":   s.oracle.Live(),
	})
}

// handleForecast runs one fetch. Coordinates default to the configured
// location when the body omits them; non-finite values are rejected.
func (s *Server) handleForecast(c *gin.Context) {
	loc := aurora.Coordinates{
		Lat: s.cfg.Location.Latitude,
		Lon: s.cfg.Location.Longitude,
	}

	var req forecastRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	if req.Latitude != nil {
		loc.Lat = *req.Latitude
	}
	if req.Longitude != nil {
		loc.Lon = *req.Longitude
	}
	if !loc.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates must be finite numbers"})
		return
	}

	ctx, cancel := contextWithTimeout(c, s.cfg.GetRequestTimeout())
	defer cancel()

	res, err := s.tracker.Refresh(ctx, loc)
	if err != nil {
		s.logger.Warn("forecast fetch failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "forecast fetch failed"})
		return
	}

	resp := forecastResponse{
		Demo:      !s.oracle.Live(),
		FetchedAt: res.FetchedAt,
		Report:    res.Report,
		RawText:   res.RawText,
		Sources:   res.Sources,
	}
	if s.archive != nil {
		id, err := s.archive.SaveForecast(ctx, loc, res, !s.oracle.Live())
		if err != nil {
			s.logger.Warn("archive save failed", zap.Error(err))
		} else {
			resp.ID = id
		}
	}
	c.JSON(http.StatusOK, resp)
}

// handleLatestForecast serves the most recent result without fetching:
// the in-memory latest first, then the archive after a restart.
func (s *Server) handleLatestForecast(c *gin.Context) {
	if res := s.tracker.Latest(); res != nil {
		c.JSON(http.StatusOK, forecastResponse{
			Demo:      !s.oracle.Live(),
			FetchedAt: res.FetchedAt,
			Report:    res.Report,
			RawText:   res.RawText,
			Sources:   res.Sources,
		})
		return
	}

	if s.archive != nil {
		rec, err := s.archive.Latest(c.Request.Context())
		if err == nil {
			c.JSON(http.StatusOK, forecastResponse{
				ID:        rec.ID,
				Demo:      rec.Demo,
				FetchedAt: rec.Result.FetchedAt,
				Report:    rec.Result.Report,
				RawText:   rec.Result.RawText,
				Sources:   rec.Result.Sources,
			})
			return
		}
		if !errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "archive read failed"})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "no forecast fetched yet"})
}

// handlePhoto accepts a multipart upload (field "image", optional
// "device") and returns the analysis. A reply the model could not
// produce or we could not parse answers 422 with a null analysis; nil
// is a valid outcome, not a server fault.
func (s *Server) handlePhoto(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	if file.Size > maxPhotoBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds 10 MB"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image"})
		return
	}
	defer f.Close()
	image, err := io.ReadAll(io.LimitReader(f, maxPhotoBytes+1))
	if err != nil || len(image) == 0 || len(image) > maxPhotoBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image"})
		return
	}

	ctx, cancel := contextWithTimeout(c, s.cfg.GetRequestTimeout())
	defer cancel()

	analysis := s.oracle.AnalyzePhoto(ctx, image, file.Header.Get("Content-Type"), c.PostForm("device"))
	if analysis == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"analysis": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"analysis": analysis})
}

func (s *Server) handleChatCreate(c *gin.Context) {
	cs, err := s.chats.Create(c.Request.Context())
	if err != nil {
		s.logger.Warn("chat session create failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not open chat session"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": cs.id, "createdAt": cs.createdAt})
}

func (s *Server) handleChatTranscript(c *gin.Context) {
	cs, ok := s.chats.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":        cs.id,
		"createdAt": cs.createdAt,
		"messages":  cs.Transcript(),
	})
}

func (s *Server) handleChatDelete(c *gin.Context) {
	if !s.chats.Delete(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleChatMessage(c *gin.Context) {
	cs, ok := s.chats.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	ctx, cancel := contextWithTimeout(c, s.cfg.GetRequestTimeout())
	defer cancel()

	reply, err := cs.Send(ctx, req.Message)
	if err != nil {
		// The session survives a failed turn; the client may retry.
		s.logger.Warn("chat turn failed", zap.String("session", cs.id), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "chat turn failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

func (s *Server) handleReports(c *gin.Context) {
	if s.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "archive disabled"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	summaries, err := s.archive.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "archive read failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(summaries), "reports": summaries})
}

func (s *Server) handleReport(c *gin.Context) {
	if s.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "archive disabled"})
		return
	}

	rec, err := s.archive.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown report"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "archive read failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":        rec.ID,
		"location":  rec.Location,
		"demo":      rec.Demo,
		"fetchedAt": rec.Result.FetchedAt,
		"report":    rec.Result.Report,
		"rawText":   rec.Result.RawText,
		"sources":   rec.Result.Sources,
	})
}

func contextWithTimeout(c *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), d)
}
