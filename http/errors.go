package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mortgage-calculator/domain"
	"mortgage-calculator/logger"
)

// queryParams renames engine field names to the query parameters they came
// from.
var queryParams = map[string]string{
	"annualInterestRatePercent": "annualInterestRate",
	"termYears":                 "years",
}

// respondError maps service errors to status codes. Anything that is not
// a domain error is logged and hidden behind a 500.
func respondError(c *gin.Context, err error) {
	var invalid *domain.InvalidInputError

	switch {
	case errors.As(err, &invalid):
		field := invalid.Field
		if param, ok := queryParams[field]; ok {
			field = param
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error": (&domain.InvalidInputError{Field: field, Reason: invalid.Reason}).Error(),
			"field": field,
		})
	case errors.Is(err, domain.ErrNoTermFits):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		logger.CtxError(c.Request.Context(), "Request failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
