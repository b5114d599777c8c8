package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/VP171097/vitality/services"
)

type ActivityController struct {
	Sessions *services.SessionManager
}

func NewActivityController(sessions *services.SessionManager) *ActivityController {
	return &ActivityController{Sessions: sessions}
}

// Today lists today's activity entries plus the calories-burned total.
func (a *ActivityController) Today(c *gin.Context) {
	sess, ok := sessionFromCtx(c, a.Sessions)
	if !ok {
		return
	}

	entries := sess.TodayActivity()
	burned := 0
	for _, e := range entries {
		burned += e.Calories
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "todayBurned": burned})
}

type LogActivityInput struct {
	Description     string `json:"description" binding:"required"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1"`
}

// Log estimates calories burned via the AI gateway and records the entry.
func (a *ActivityController) Log(c *gin.Context) {
	sess, ok := sessionFromCtx(c, a.Sessions)
	if !ok {
		return
	}

	var input LogActivityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := sess.LogActivity(c.Request.Context(), input.Description, input.DurationMinutes)
	if err != nil {
		aiError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": fmt.Sprintf("Logged %s", entry.Name), "entry": entry})
}

// Remove deletes one of today's entries by id.
func (a *ActivityController) Remove(c *gin.Context) {
	sess, ok := sessionFromCtx(c, a.Sessions)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	if !sess.RemoveActivity(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
