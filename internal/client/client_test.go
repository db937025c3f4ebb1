package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/RiskRater/internal/api"
	"github.com/MikeSquared-Agency/RiskRater/internal/chat"
	"github.com/MikeSquared-Agency/RiskRater/internal/scoring"
	"github.com/MikeSquared-Agency/RiskRater/internal/store"
)

type memStore struct {
	mu    sync.Mutex
	items []*store.Assessment
}

func (m *memStore) CreateAssessment(_ context.Context, a *store.Assessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uuid.New()
	a.DateSaved = time.Now()
	m.items = append([]*store.Assessment{a}, m.items...)
	return nil
}
func (m *memStore) ListAssessments(_ context.Context, f store.AssessmentFilter) ([]*store.Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]*store.Assessment(nil), m.items...)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
func (m *memStore) ClearAssessments(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.items))
	m.items = nil
	return n, nil
}
func (m *memStore) Close() error { return nil }

type echoBackend struct{}

func (echoBackend) Send(_ context.Context, prompt string) (string, error) {
	return "ack", nil
}

func newServer(t *testing.T, withChat bool) *HTTPClient {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	set, err := scoring.NewMatrixSet()
	require.NoError(t, err)
	sc, err := scoring.NewScorer(set, "", 0, logger)
	require.NoError(t, err)

	ms := &memStore{}
	var relay *chat.Relay
	if withChat {
		relay = chat.NewRelay(echoBackend{}, ms, 5, logger)
	}
	srv := httptest.NewServer(api.NewRouter(ms, nil, sc, relay, api.RouterOptions{}, logger))
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL + "/")
}

func uniformFactors(v int) map[string]any {
	out := make(map[string]any)
	for _, name := range scoring.FactorNames() {
		out[name] = v
	}
	return out
}

func TestScoreSaveAndHistory(t *testing.T) {
	c := newServer(t, false)
	ctx := context.Background()

	res, err := c.Score(ctx, api.ScoreRequest{Factors: uniformFactors(7)})
	require.NoError(t, err)
	assert.Equal(t, scoring.CategoryCritical, res.Category)
	assert.Len(t, res.Chart.Values, 4)

	require.NoError(t, c.Save(ctx, SaveRequestFor("Exposed admin panel", res.ScoreResult)))

	items, err := c.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Exposed admin panel", items[0].Name)
	assert.Equal(t, "Critical", items[0].FinalScore)
	assert.Equal(t, "table-danger", items[0].Class)

	require.NoError(t, c.Clear(ctx))
	items, err = c.History(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSaveRejectedReturnsAPIError(t *testing.T) {
	c := newServer(t, false)

	err := c.Save(context.Background(), SaveRequest{Name: "info", FinalScore: "Note"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Contains(t, apiErr.Message, "Note")
}

func TestScoreInvalidReturnsAPIError(t *testing.T) {
	c := newServer(t, false)

	_, err := c.Score(context.Background(), api.ScoreRequest{Factors: uniformFactors(10)})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "invalid input", apiErr.Message)
}

func TestMatrices(t *testing.T) {
	c := newServer(t, false)

	m, err := c.Matrices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "standard", m.Default)
	require.Len(t, m.Matrices, 1)
}

func TestChat(t *testing.T) {
	c := newServer(t, true)
	out, err := c.Chat(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "ack", out)

	_, err = newServer(t, false).Chat(context.Background(), "hello")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, "Sorry, the assistant is currently offline or busy.", apiErr.Message)
}

func TestSaveRequestForWeighted(t *testing.T) {
	req := SaveRequestFor("x", scoring.ScoreResult{Category: scoring.CategoryHigh, Weighted: true})
	assert.Equal(t, 1, req.Weighted)
	assert.Equal(t, "High", req.FinalScore)
}
