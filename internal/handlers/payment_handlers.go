package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"tripsplit/internal/models"
	"tripsplit/internal/services"
	"tripsplit/internal/store"
)

type PaymentHandler struct {
	store *store.Store
}

func NewPaymentHandler(s *store.Store) *PaymentHandler {
	return &PaymentHandler{store: s}
}

// GetState returns the full current state
func (h *PaymentHandler) GetState(c echo.Context) error {
	state, lastSaved := h.store.Snapshot()
	return c.JSON(http.StatusOK, buildStateResponse(state, lastSaved))
}

// ReplaceState validates the request body and swaps in the complete new
// state. Validation failures reject the request before anything is mutated.
func (h *PaymentHandler) ReplaceState(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	state, err := services.ValidateStateRequest(body)
	if err != nil {
		return err
	}

	if err := h.store.ReplaceState(c.Request().Context(), state); err != nil {
		return err
	}

	newState, lastSaved := h.store.Snapshot()
	return c.JSON(http.StatusOK, buildStateResponse(newState, lastSaved))
}

// Summary returns the roster aggregates plus the per-participant display rows
func (h *PaymentHandler) Summary(c echo.Context) error {
	state, lastSaved := h.store.Snapshot()

	var lastSavedStr *string
	if lastSaved != nil {
		formatted := lastSaved.UTC().Format(time.RFC3339)
		lastSavedStr = &formatted
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"totalAmount":  state.TotalAmount,
		"summary":      models.Summarize(state.Roster, state.TotalAmount),
		"participants": state.Display(),
		"lastSaved":    lastSavedStr,
	})
}

// Export streams a read-only snapshot as a JSON or CSV download. Exporting
// never mutates state and never saves.
func (h *PaymentHandler) Export(c echo.Context) error {
	format := c.QueryParam("format")
	if format == "" {
		format = "json"
	}

	state, _ := h.store.Snapshot()
	date := time.Now().Format("2006-01-02")

	switch format {
	case "json":
		data, err := services.ExportJSON(state, time.Now())
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to export payments")
		}
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="tripsplit-export-%s.json"`, date))
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
	case "csv":
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="tripsplit-export-%s.csv"`, date))
		return c.Blob(http.StatusOK, "text/csv; charset=utf-8", []byte(services.ExportCSV(state)))
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "format must be json or csv")
	}
}

// Import replaces the whole roster from uploaded export text. Malformed input
// is a handled outcome: 400 with a message, state untouched.
func (h *PaymentHandler) Import(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	imported, err := h.store.ImportJSON(c.Request().Context(), body)
	if err != nil {
		if errors.Is(err, services.ErrImportParse) {
			return echo.NewHTTPError(http.StatusBadRequest, "Could not parse import data")
		}
		return err
	}

	state, lastSaved := h.store.Snapshot()
	response := buildStateResponse(state, lastSaved)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"imported":     imported,
		"totalAmount":  response.TotalAmount,
		"participants": response.Participants,
		"lastSaved":    response.LastSaved,
	})
}

func buildStateResponse(state models.State, lastSaved *time.Time) stateResponse {
	response := stateResponse{
		TotalAmount:  state.TotalAmount,
		Participants: make([]wireParticipant, 0, len(state.Roster)),
	}
	for _, entry := range state.Roster {
		response.Participants = append(response.Participants, wireParticipant{
			Name:       entry.Name,
			PaidAmount: entry.PaidAmount,
		})
	}
	if lastSaved != nil {
		formatted := lastSaved.UTC().Format(time.RFC3339)
		response.LastSaved = &formatted
	}
	return response
}
