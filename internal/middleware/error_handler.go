package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"tripsplit/internal/models"
)

// JSONErrorHandler is the custom error handler for Echo. Every failure path
// ends in a structured JSON envelope; validation errors carry the offending
// field, everything else maps onto a generic title per status code.
func JSONErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	errorTitle := "Internal Server Error"
	errorMessage := ""
	field := ""

	var validationErr *models.ValidationError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &validationErr):
		code = http.StatusBadRequest
		errorTitle = "Validation Failed"
		errorMessage = validationErr.Message
		field = validationErr.Field
	case errors.As(err, &httpErr):
		code = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok && msg != "" {
			errorMessage = msg
		}
		switch code {
		case http.StatusNotFound:
			errorTitle = "Not Found"
			if errorMessage == "" {
				errorMessage = "The resource you're looking for doesn't exist."
			}
		case http.StatusBadRequest:
			errorTitle = "Bad Request"
			if errorMessage == "" {
				errorMessage = "The request could not be processed."
			}
		default:
			if errorMessage == "" {
				errorMessage = "Something went wrong. Please try again later."
			}
		}
	default:
		// Persistence and other internal failures: the in-memory state is
		// still valid, the client just needs to know the save didn't stick.
		errorTitle = "Save Failed"
		errorMessage = "Something went wrong. Please try again later."
	}

	// Log the error
	c.Logger().Error(err)

	body := map[string]string{
		"error":   errorTitle,
		"message": errorMessage,
	}
	if field != "" {
		body["field"] = field
	}

	if jsonErr := c.JSON(code, body); jsonErr != nil {
		c.Logger().Error(jsonErr)
	}
}
