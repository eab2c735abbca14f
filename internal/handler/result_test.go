package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drawparty-backend/internal/model"
	"drawparty-backend/internal/store"
)

type stubResultStore struct {
	records  map[string]*model.RoomResult
	finished []model.RoomResult
}

func (s *stubResultStore) Create(ctx context.Context, result *model.RoomResult) error {
	s.records[result.RoomID] = result
	return nil
}

func (s *stubResultStore) Get(ctx context.Context, roomID string) (*model.RoomResult, error) {
	record, ok := s.records[roomID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return record, nil
}

func (s *stubResultStore) Update(ctx context.Context, roomID string, fields map[string]any) error {
	return nil
}

func (s *stubResultStore) ListFinished(ctx context.Context, cursor time.Time, limit int) ([]model.RoomResult, error) {
	return s.finished, nil
}

type stubObjects struct{}

func (stubObjects) PutDrawing(ctx context.Context, roomID string, data []byte) (string, error) {
	return "", nil
}

func (stubObjects) PutGenerated(ctx context.Context, roomID string, data []byte) (string, error) {
	return "", nil
}

func (stubObjects) PresignGet(ctx context.Context, key string) (string, error) {
	return "https://cdn.example.test/" + key, nil
}

func setupResultApp(results *stubResultStore, withObjects bool) *fiber.App {
	app := fiber.New()
	var h *ResultHandler
	if withObjects {
		h = NewResultHandler(results, stubObjects{})
	} else {
		h = NewResultHandler(results, nil)
	}
	app.Get("/api/results", h.ListResults)
	app.Get("/api/results/:roomId", h.GetResult)
	return app
}

func TestGetResult_NotFound(t *testing.T) {
	app := setupResultApp(&stubResultStore{records: map[string]*model.RoomResult{}}, false)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/results/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGetResult_PendingRecord(t *testing.T) {
	results := &stubResultStore{records: map[string]*model.RoomResult{
		"room-1": {RoomID: "room-1", Status: model.ResultStatusPending, Topic: "a cat", PlayerCount: 3},
	}}
	app := setupResultApp(results, false)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/results/room-1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var decoded ResultResponse
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "PENDING", decoded.Status)
	assert.Equal(t, "a cat", decoded.Topic)
	assert.Empty(t, decoded.DrawingURL)
}

func TestGetResult_CompletedWithPresignedURLs(t *testing.T) {
	analysis := `{"subject":"a cat"}`
	drawingKey := "rooms/room-2/drawing.png"
	generatedKey := "rooms/room-2/generated.png"
	results := &stubResultStore{records: map[string]*model.RoomResult{
		"room-2": {
			RoomID:       "room-2",
			Status:       model.ResultStatusCompleted,
			Topic:        "a cat",
			PlayerCount:  2,
			Analysis:     &analysis,
			DrawingKey:   &drawingKey,
			GeneratedKey: &generatedKey,
		},
	}}
	app := setupResultApp(results, true)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/results/room-2", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var decoded ResultResponse
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "COMPLETED", decoded.Status)
	assert.Equal(t, "https://cdn.example.test/"+drawingKey, decoded.DrawingURL)
	assert.Equal(t, "https://cdn.example.test/"+generatedKey, decoded.GeneratedURL)
	assert.JSONEq(t, analysis, string(decoded.Analysis))
}

func TestListResults_ReturnsCursor(t *testing.T) {
	created := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	results := &stubResultStore{
		records: map[string]*model.RoomResult{},
		finished: []model.RoomResult{
			{RoomID: "room-a", Status: model.ResultStatusCompleted, CreatedAt: created},
			{RoomID: "room-b", Status: model.ResultStatusFailed, CreatedAt: created.Add(-time.Hour)},
		},
	}
	app := setupResultApp(results, false)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/results?limit=2", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var decoded struct {
		Results    []ResultResponse `json:"results"`
		NextCursor string           `json:"nextCursor"`
	}
	require.NoError(t, json.Unmarshal(body, &decoded))
	require.Len(t, decoded.Results, 2)
	assert.Equal(t, "room-a", decoded.Results[0].RoomID)
	assert.Equal(t, created.Add(-time.Hour).Format(time.RFC3339), decoded.NextCursor)
}

func TestListResults_RejectsBadCursor(t *testing.T) {
	app := setupResultApp(&stubResultStore{records: map[string]*model.RoomResult{}}, false)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/results?cursor=yesterday", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
