package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/MikeSquared-Agency/RiskRater/internal/store"
)

// MockStore implements store.Store for failure-path tests.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateAssessment(ctx context.Context, a *store.Assessment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockStore) ListAssessments(ctx context.Context, filter store.AssessmentFilter) ([]*store.Assessment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.Assessment), args.Error(1)
}

func (m *MockStore) ClearAssessments(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) Close() error {
	return m.Called().Error(0)
}

func TestSaveDatabaseError(t *testing.T) {
	ms := new(MockStore)
	ms.On("CreateAssessment", mock.Anything, mock.MatchedBy(func(a *store.Assessment) bool {
		return a.Name == "SQLi" && a.FinalScore == "High" && a.Likelihood == 6
	})).Return(errors.New("database is locked"))

	router := NewRouter(ms, nil, testScorer(t), nil, RouterOptions{}, testLogger())
	w := do(t, router, "POST", "/history/save", `{"name":" SQLi ","finalScore":"High","likelihood":6,"impact":4,"weighted":0}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "database is locked")
	ms.AssertExpectations(t)
}

func TestListDatabaseError(t *testing.T) {
	ms := new(MockStore)
	ms.On("ListAssessments", mock.Anything, store.AssessmentFilter{}).Return(nil, errors.New("no such table"))

	router := NewRouter(ms, nil, testScorer(t), nil, RouterOptions{}, testLogger())
	w := do(t, router, "GET", "/history", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	ms.AssertExpectations(t)
}

func TestListEmptyReturnsArray(t *testing.T) {
	ms := new(MockStore)
	ms.On("ListAssessments", mock.Anything, store.AssessmentFilter{Limit: 3}).Return(nil, nil)

	router := NewRouter(ms, nil, testScorer(t), nil, RouterOptions{}, testLogger())
	w := do(t, router, "GET", "/history?limit=3", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
	ms.AssertExpectations(t)
}

func TestListInvalidLimit(t *testing.T) {
	ms := new(MockStore)
	router := NewRouter(ms, nil, testScorer(t), nil, RouterOptions{}, testLogger())

	w := do(t, router, "GET", "/history?limit=-2", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	ms.AssertNotCalled(t, "ListAssessments", mock.Anything, mock.Anything)
}

func TestClearDatabaseError(t *testing.T) {
	ms := new(MockStore)
	ms.On("ClearAssessments", mock.Anything).Return(int64(0), errors.New("readonly database"))

	router := NewRouter(ms, nil, testScorer(t), nil, RouterOptions{}, testLogger())
	w := do(t, router, "POST", "/history/clear", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	ms.AssertExpectations(t)
}
