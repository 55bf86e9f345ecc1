package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"matchroom/internal/service"
)

// HandleServiceError maps a business error onto the HTTP status taxonomy.
// Unknown errors are logged and hidden behind a generic 500.
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrMemberNotFound),
		errors.Is(err, service.ErrInvalidInviteCode):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidVote):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrRoomFull),
		errors.Is(err, service.ErrRoomClosed),
		errors.Is(err, service.ErrRoomNotStartable),
		errors.Is(err, service.ErrRoomNotActive):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrCatalogUnavailable),
		errors.Is(err, service.ErrServiceUnavailable):
		respondError(c, http.StatusServiceUnavailable, err.Error())
	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("Unhandled service error")
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}
