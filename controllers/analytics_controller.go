package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/VP171097/vitality/services"
)

type AnalyticsController struct {
	Sessions *services.SessionManager
	AI       services.AIGateway
}

func NewAnalyticsController(sessions *services.SessionManager, ai services.AIGateway) *AnalyticsController {
	return &AnalyticsController{Sessions: sessions, AI: ai}
}

// Series returns the day-by-day chart series from startDate to endDate.
func (a *AnalyticsController) Series(c *gin.Context) {
	sess, ok := sessionFromCtx(c, a.Sessions)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Series())
}

// Coach asks the AI gateway for a short advice message over the current
// stats snapshot.
func (a *AnalyticsController) Coach(c *gin.Context) {
	sess, ok := sessionFromCtx(c, a.Sessions)
	if !ok {
		return
	}

	reply, err := a.AI.CoachSummary(c.Request.Context(), sess.CoachStats())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Coach is offline currently."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": reply.Message})
}
