// Package controllers holds the response helpers shared by the handler
// packages.
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/apperrors"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/logger"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/models"
)

// RespondError writes err with its mapped status. Server-side failures are
// logged and answered with fallback so driver details never reach clients.
func RespondError(c *gin.Context, err error, fallback string) {
	status := apperrors.HTTPStatusCode(err)
	message := apperrors.Message(err)
	if status >= http.StatusInternalServerError {
		logger.WithComponent("http").Error().Err(err).
			Str("route", c.FullPath()).
			Msg(fallback)
		message = fallback
	}
	c.JSON(status, models.KindErrorResponse(c, apperrors.Kind(err), message))
}

// BadRequest answers a malformed path or body.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.KindErrorResponse(c, "validation", message))
}
