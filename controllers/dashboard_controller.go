package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/VP171097/vitality/services"
)

type DashboardController struct {
	Sessions *services.SessionManager
	Steps    *services.StepsService
}

func NewDashboardController(sessions *services.SessionManager, steps *services.StepsService) *DashboardController {
	return &DashboardController{Sessions: sessions, Steps: steps}
}

// Get returns the dashboard figure set. Steps are best-effort and never
// fail the request.
func (d *DashboardController) Get(c *gin.Context) {
	sess, ok := sessionFromCtx(c, d.Sessions)
	if !ok {
		return
	}

	stats := sess.Dashboard()
	steps := d.Steps.StepsToday(c.Request.Context(), time.Now())

	c.JSON(http.StatusOK, gin.H{
		"stats": stats,
		"steps": steps,
		"calorieRing": gin.H{
			"consumed":  stats.TodayCalories,
			"remaining": stats.RemainingCals,
		},
	})
}
