package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"drawparty-backend/internal/model"
	"drawparty-backend/internal/storage"
	"drawparty-backend/internal/store"
)

// ResultHandler serves round result records over HTTP.
type ResultHandler struct {
	results store.ResultStore
	objects storage.ObjectStore
}

// NewResultHandler builds the handler. objects may be nil when object
// storage is unconfigured; responses then omit image URLs.
func NewResultHandler(results store.ResultStore, objects storage.ObjectStore) *ResultHandler {
	return &ResultHandler{results: results, objects: objects}
}

// ResultResponse is the wire shape of one result record. Analysis is the
// raw JSON produced by the analysis stage; image URLs are presigned and
// short-lived.
type ResultResponse struct {
	RoomID       string          `json:"roomId"`
	Status       string          `json:"status"`
	Topic        string          `json:"topic"`
	PlayerCount  int             `json:"playerCount"`
	Analysis     json.RawMessage `json:"analysis,omitempty"`
	DrawingURL   string          `json:"drawingUrl,omitempty"`
	GeneratedURL string          `json:"generatedUrl,omitempty"`
	Error        string          `json:"error,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// GetResult handles GET /api/results/:roomId.
func (h *ResultHandler) GetResult(c *fiber.Ctx) error {
	roomID := c.Params("roomId")
	if roomID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "roomId is required"})
	}

	result, err := h.results.Get(c.Context(), roomID)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "result not found"})
	}
	if err != nil {
		log.Printf("[Result] Lookup failed for room %s: %v", roomID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load result"})
	}

	return c.JSON(h.toResponse(c.Context(), result))
}

// ListResults handles GET /api/results with cursor pagination over finished
// rounds.
func (h *ResultHandler) ListResults(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	var cursor time.Time
	if raw := c.Query("cursor"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cursor must be RFC3339"})
		}
		cursor = parsed
	}

	results, err := h.results.ListFinished(c.Context(), cursor, limit)
	if err != nil {
		log.Printf("[Result] List failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list results"})
	}

	responses := make([]ResultResponse, 0, len(results))
	for i := range results {
		responses = append(responses, h.toResponse(c.Context(), &results[i]))
	}

	next := ""
	if len(results) > 0 {
		next = results[len(results)-1].CreatedAt.Format(time.RFC3339)
	}
	return c.JSON(fiber.Map{"results": responses, "nextCursor": next})
}

func (h *ResultHandler) toResponse(ctx context.Context, result *model.RoomResult) ResultResponse {
	resp := ResultResponse{
		RoomID:      result.RoomID,
		Status:      result.Status.String(),
		Topic:       result.Topic,
		PlayerCount: result.PlayerCount,
		CreatedAt:   result.CreatedAt,
	}
	if result.Analysis != nil {
		resp.Analysis = json.RawMessage(*result.Analysis)
	}
	if result.Error != nil {
		resp.Error = *result.Error
	}

	if h.objects != nil {
		if result.DrawingKey != nil {
			if url, err := h.objects.PresignGet(ctx, *result.DrawingKey); err == nil {
				resp.DrawingURL = url
			} else {
				log.Printf("[Result] Presign failed for %s: %v", *result.DrawingKey, err)
			}
		}
		if result.GeneratedKey != nil {
			if url, err := h.objects.PresignGet(ctx, *result.GeneratedKey); err == nil {
				resp.GeneratedURL = url
			} else {
				log.Printf("[Result] Presign failed for %s: %v", *result.GeneratedKey, err)
			}
		}
	}
	return resp
}
