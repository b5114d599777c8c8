package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/VP171097/vitality/services"
)

func userIDFromCtx(c *gin.Context) (uint, bool) {
	v, ok := c.Get("userID")
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// sessionFromCtx resolves the caller's live session, syncing one on first
// use. Writes the error response itself when it fails.
func sessionFromCtx(c *gin.Context, sessions *services.SessionManager) (*services.Session, bool) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	sess, err := sessions.Attach(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not sync your data, try again"})
		return nil, false
	}
	return sess, true
}

// aiError maps AI-gateway failures onto the non-fatal responses the UI
// shows as toasts.
func aiError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrUnidentified) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Could not identify. Try again."})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": "AI Error. Check connection."})
}
