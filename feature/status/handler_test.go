package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"decomp-history/core/apperr"
	"decomp-history/core/reconcile"
	"decomp-history/core/version"
	"decomp-history/feature/history"
	"decomp-history/feature/journal"
	"decomp-history/feature/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockHistory struct {
	mock.Mock
}

func (m *mockHistory) Status(ctx context.Context) (*repository.Snapshot, error) {
	args := m.Called(ctx)
	snap, _ := args.Get(0).(*repository.Snapshot)
	return snap, args.Error(1)
}

func (m *mockHistory) Plan(ctx context.Context) (*history.Report, error) {
	args := m.Called(ctx)
	rep, _ := args.Get(0).(*history.Report)
	return rep, args.Error(1)
}

type mockRuns struct {
	mock.Mock
}

func (m *mockRuns) Recent(ctx context.Context, limit int) ([]journal.Run, error) {
	args := m.Called(ctx, limit)
	runs, _ := args.Get(0).([]journal.Run)
	return runs, args.Error(1)
}

func setupTestApp(runs Runs) (*fiber.App, *mockHistory) {
	app := fiber.New()
	h := new(mockHistory)
	NewHandler(NewService(h, runs, zap.NewNop())).RegisterRoutes(app)
	return app, h
}

func TestHandleSnapshot(t *testing.T) {
	app, h := setupTestApp(nil)
	h.On("Status", mock.Anything).Return(&repository.Snapshot{
		Branch: "main",
		Head:   "4b825dc642cb6eb9a060e54bf8d69288fbee4904",
		Entries: []repository.Entry{
			{Version: "1.18", Tag: "refs/tags/1.18", Commit: "4b825dc642cb6eb9a060e54bf8d69288fbee4904"},
		},
	}, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/status", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body repository.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "main", body.Branch)
	require.Len(t, body.Entries, 1)
	assert.Equal(t, "1.18", body.Entries[0].Version)
}

func TestHandleSnapshot_Corrupt(t *testing.T) {
	app, h := setupTestApp(nil)
	h.On("Status", mock.Anything).Return(nil, apperr.Corrupt("tag %s is not on the history of main", "1.18"))

	resp, err := app.Test(httptest.NewRequest("GET", "/status", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body["error"], "1.18")
}

func TestHandlePlan(t *testing.T) {
	app, h := setupTestApp(nil)
	v := version.GameVersion{ID: "1.18.2", Kind: version.KindRelease}
	h.On("Plan", mock.Anything).Return(&history.Report{
		DryRun: true,
		Target: version.Set{v},
		Plan: &reconcile.Plan{
			Strategy: reconcile.StrategyAppend,
			Actions:  []reconcile.Action{{Type: reconcile.ActionAdd, Version: v}},
		},
	}, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/status/plan", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["dry_run"])
	plan := body["plan"].(map[string]any)
	assert.Equal(t, "append", plan["strategy"])
}

func TestHandlePlan_InvalidRange(t *testing.T) {
	app, h := setupTestApp(nil)
	h.On("Plan", mock.Anything).Return(nil, &apperr.InvalidRangeError{MinVersion: "1.99", MissingMin: true})

	resp, err := app.Test(httptest.NewRequest("GET", "/status/plan", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestHandlePlan_Unexpected(t *testing.T) {
	app, h := setupTestApp(nil)
	h.On("Plan", mock.Anything).Return(nil, errors.New("manifest request failed"))

	resp, err := app.Test(httptest.NewRequest("GET", "/status/plan", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestHandleRuns(t *testing.T) {
	runs := new(mockRuns)
	runs.On("Recent", mock.Anything, 5).Return([]journal.Run{
		{ID: "0b6a8f5e-1d1c-4c55-9a53-3b8b1f1f8e11", Status: journal.StatusSucceeded, Strategy: "noop"},
	}, nil)
	app, _ := setupTestApp(runs)

	resp, err := app.Test(httptest.NewRequest("GET", "/status/runs?limit=5", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body []journal.Run
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, journal.StatusSucceeded, body[0].Status)
	runs.AssertExpectations(t)
}

func TestHandleRuns_JournalDisabled(t *testing.T) {
	app, _ := setupTestApp(nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/status/runs", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
