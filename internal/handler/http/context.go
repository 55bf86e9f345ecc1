package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// currentUserID reads the authenticated user id the auth middleware stored on
// the context. Writes a 401 itself when the id is missing.
func currentUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return 0, false
	}
	userID, ok := value.(uint)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return 0, false
	}
	return userID, true
}

// roomIDParam parses the :roomId path parameter. Writes a 400 itself on a
// malformed id.
func roomIDParam(c *gin.Context) (uint, bool) {
	raw := c.Param("roomId")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "invalid room id")
		return 0, false
	}
	return uint(id), true
}
