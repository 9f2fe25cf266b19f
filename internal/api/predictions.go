package api

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/snaptaplaque/plateapi/internal/model"
	"github.com/snaptaplaque/plateapi/internal/queue"
	"github.com/snaptaplaque/plateapi/internal/vision"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 500
)

type predictionResponse struct {
	Filename     string               `json:"filename"`
	Results      []model.PlateReading `json:"results"`
	PredictionID int64                `json:"prediction_id"`
}

// handlePredict runs one uploaded image through the recognition pipeline and
// persists the outcome. An image with no recognizable plate is a successful
// prediction with an empty result list, not an error.
func (s *Server) handlePredict(c *gin.Context) {
	user := currentUser(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		if tooLarge(err) {
			fail(c, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		fail(c, http.StatusBadRequest, "missing file field")
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, "unable to read upload")
		return
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		if tooLarge(err) {
			fail(c, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		fail(c, http.StatusBadRequest, "unable to read upload")
		return
	}

	ctx := c.Request.Context()
	summary, err := s.pipeline.Process(ctx, data, fileHeader.Filename)
	if err != nil {
		switch {
		case errors.Is(err, vision.ErrDecode):
			fail(c, http.StatusBadRequest, "could not decode image")
		case errors.Is(err, vision.ErrInferenceTimeout), errors.Is(err, vision.ErrModelUnavailable):
			fail(c, http.StatusServiceUnavailable, "recognition temporarily unavailable")
		case errors.Is(err, context.Canceled):
			// Client went away; nothing useful to send.
			c.Abort()
		default:
			log.Printf("predict: pipeline failed: %v", err)
			fail(c, http.StatusInternalServerError, "prediction failed")
		}
		return
	}

	record, err := s.detections.Create(ctx, user.ID, summary.Filename, summary.ResultSet())
	if err != nil {
		log.Printf("predict: persist failed: %v", err)
		fail(c, http.StatusInternalServerError, "could not save prediction")
		return
	}

	if s.archiver != nil {
		// Archive failures never surface to the client; the prediction is
		// already durable.
		payload := queue.ArchivePayload{
			PredictionID: record.ID,
			UserID:       user.ID,
			Filename:     summary.Filename,
			ContentType:  fileHeader.Header.Get("Content-Type"),
			Image:        data,
		}
		if err := s.archiver.Archive(ctx, payload); err != nil {
			log.Printf("predict: archive enqueue failed: %v", err)
		}
	}

	c.JSON(http.StatusOK, predictionResponse{
		Filename:     summary.Filename,
		Results:      summary.Readings,
		PredictionID: record.ID,
	})
}

func (s *Server) handleHistory(c *gin.Context) {
	user := currentUser(c)
	skip := queryInt(c, "skip", 0)
	if skip < 0 {
		skip = 0
	}
	limit := queryInt(c, "limit", defaultHistoryLimit)
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	records, err := s.detections.ListByUser(c.Request.Context(), user.ID, skip, limit)
	if err != nil {
		log.Printf("history: list failed: %v", err)
		fail(c, http.StatusInternalServerError, "could not load history")
		return
	}
	c.JSON(http.StatusOK, model.FlattenHistory(records))
}

func (s *Server) handleStats(c *gin.Context) {
	user := currentUser(c)
	total, err := s.detections.CountByUser(c.Request.Context(), user.ID)
	if err != nil {
		log.Printf("stats: count failed: %v", err)
		fail(c, http.StatusInternalServerError, "could not load stats")
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_predictions": total})
}

func tooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
