package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/VP171097/vitality/models"
	"github.com/VP171097/vitality/services"
)

type TrackerController struct {
	Sessions *services.SessionManager
}

func NewTrackerController(sessions *services.SessionManager) *TrackerController {
	return &TrackerController{Sessions: sessions}
}

// Today returns the tracker form prefill for the current date.
func (t *TrackerController) Today(c *gin.Context) {
	sess, ok := sessionFromCtx(c, t.Sessions)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.TodayDraft())
}

type SaveLogInput struct {
	Weight  float64 `json:"weight"`
	Water   float64 `json:"water" binding:"min=0,max=4"`
	Workout bool    `json:"workout"`
	NoSugar bool    `json:"noSugar"`
	LowSalt bool    `json:"lowSalt"`
	Vacuums bool    `json:"vacuums"`
}

// Save overwrites today's log entry.
func (t *TrackerController) Save(c *gin.Context) {
	sess, ok := sessionFromCtx(c, t.Sessions)
	if !ok {
		return
	}

	var input SaveLogInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved := sess.SaveDailyLog(models.DailyLog{
		Weight:  input.Weight,
		Water:   input.Water,
		Workout: input.Workout,
		NoSugar: input.NoSugar,
		LowSalt: input.LowSalt,
		Vacuums: input.Vacuums,
	})
	c.JSON(http.StatusOK, gin.H{"message": "Daily log saved!", "entry": saved})
}

// History lists the full daily log history, ascending by date.
func (t *TrackerController) History(c *gin.Context) {
	sess, ok := sessionFromCtx(c, t.Sessions)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Logs())
}
