package api

import (
	"errors"
	"net/http"

	"alcyxob/fittrack/internal/domain"
	"alcyxob/fittrack/internal/service"
	"alcyxob/fittrack/internal/storage"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// respondWithServiceError maps service and domain errors to HTTP status codes.
// Internal failures are logged and answered with a generic message.
func respondWithServiceError(c *gin.Context, err error, internalMessage string) {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, service.ErrNotATemplate),
		errors.Is(err, storage.ErrUnsupportedContentType):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrWorkoutNotFound),
		errors.Is(err, service.ErrExerciseNotFound),
		errors.Is(err, service.ErrSetNotFound),
		errors.Is(err, service.ErrEntryNotFound),
		errors.Is(err, service.ErrFoodNotFound),
		errors.Is(err, service.ErrPhotoNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrWorkoutExists),
		errors.Is(err, service.ErrEntryExists):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrFoodLookup):
		log.Warnf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		abortWithError(c, http.StatusBadGateway, "Food database is unavailable.")
	case errors.Is(err, service.ErrPhotoStorageDisabled):
		abortWithError(c, http.StatusServiceUnavailable, err.Error())
	default:
		log.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		abortWithError(c, http.StatusInternalServerError, internalMessage)
	}
}
