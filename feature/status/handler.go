package status

import (
	"errors"

	"decomp-history/core/apperr"
	"decomp-history/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the repository status.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the status routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/status")
	group.Get("/", h.HandleSnapshot)
	group.Get("/plan", h.HandlePlan)
	group.Get("/runs", h.HandleRuns)
}

// HandleSnapshot returns the version entries found in the repository.
// @Summary Repository Status
// @Description Lists the version commits on the primary branch, oldest first, and the branch head.
// @Tags status
// @Produce json
// @Success 200 {object} repository.Snapshot "Repository snapshot"
// @Failure 409 {object} map[string]string "Repository is corrupt"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /status [get]
func (h *Handler) HandleSnapshot(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	snap, err := h.service.Snapshot(c.Context())
	if err != nil {
		l.Error("Repository inspection failed", zap.Error(err))
		return errorResponse(c, err)
	}
	return c.JSON(snap)
}

// HandlePlan computes the plan a run would apply right now.
// @Summary Pending Plan
// @Description Fetches the version manifest and reconciles it with the repository without changing anything.
// @Tags status
// @Produce json
// @Success 200 {object} history.Report "Dry-run report"
// @Failure 409 {object} map[string]string "Repository is corrupt"
// @Failure 422 {object} map[string]string "Invalid configuration"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /status/plan [get]
func (h *Handler) HandlePlan(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Computing plan")

	rep, err := h.service.Plan(c.Context())
	if err != nil {
		l.Error("Planning failed", zap.Error(err))
		return errorResponse(c, err)
	}
	return c.JSON(rep)
}

// HandleRuns lists recent runs.
// @Summary Recent Runs
// @Description Lists runs recorded in the journal, newest first.
// @Tags status
// @Produce json
// @Param limit query int false "Maximum number of runs" default(20)
// @Success 200 {array} journal.Run "Runs"
// @Failure 404 {object} map[string]string "Journal disabled"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /status/runs [get]
func (h *Handler) HandleRuns(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	runs, err := h.service.Runs(c.Context(), c.QueryInt("limit", 20))
	if err != nil {
		l.Error("Listing runs failed", zap.Error(err))
		return errorResponse(c, err)
	}
	return c.JSON(runs)
}

func errorResponse(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var (
		corrupt *apperr.RepositoryCorruptError
		cfgErr  *apperr.ConfigurationError
		rng     *apperr.InvalidRangeError
	)
	switch {
	case errors.Is(err, ErrJournalDisabled):
		code = fiber.StatusNotFound
	case errors.As(err, &corrupt):
		code = fiber.StatusConflict
	case errors.As(err, &cfgErr), errors.As(err, &rng):
		code = fiber.StatusUnprocessableEntity
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
