package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/persistorai/neighborrank/internal/api"
	"github.com/persistorai/neighborrank/internal/models"
)

func TestEdgeUpsert_Valid(t *testing.T) {
	t.Parallel()

	svc := &mockEdgeService{
		upsertFn: func(_ context.Context, _ string, req models.UpsertEdgesRequest) (*models.UpsertEdgesResult, error) {
			return &models.UpsertEdgesResult{Edges: len(req.Edges), Vertices: 3, Labels: 2}, nil
		},
	}

	r := newTestRouter()
	r.POST("/edges", api.NewEdgeHandler(svc, testLogger()).Upsert)

	w := doRequest(r, http.MethodPost, "/edges",
		`{"edges":[{"source":"a","target":"b","label":"knows"},{"source":"b","target":"c","label":"likes","properties":{"w":1}}]}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var res models.UpsertEdgesResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if res.Edges != 2 || res.Vertices != 3 || res.Labels != 2 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestEdgeUpsert_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"malformed", `{"edges":`, http.StatusBadRequest},
		{"empty", `{"edges":[]}`, http.StatusBadRequest},
		{"missing target", `{"edges":[{"source":"a","label":"knows"}]}`, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := newTestRouter()
			r.POST("/edges", api.NewEdgeHandler(&mockEdgeService{}, testLogger()).Upsert)

			w := doRequest(r, http.MethodPost, "/edges", tc.body)

			if w.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d: %s", tc.wantCode, w.Code, w.Body.String())
			}
		})
	}
}

func TestEdgeUpsert_StoreError(t *testing.T) {
	t.Parallel()

	svc := &mockEdgeService{
		upsertFn: func(context.Context, string, models.UpsertEdgesRequest) (*models.UpsertEdgesResult, error) {
			return nil, errors.New("db down")
		},
	}

	r := newTestRouter()
	r.POST("/edges", api.NewEdgeHandler(svc, testLogger()).Upsert)

	w := doRequest(r, http.MethodPost, "/edges", `{"edges":[{"source":"a","target":"b","label":"knows"}]}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}

	if strings.Contains(w.Body.String(), "db down") {
		t.Errorf("internal error leaked: %s", w.Body.String())
	}
}
