package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/VP171097/vitality/services"
)

type SettingsController struct {
	Sessions *services.SessionManager
}

func NewSettingsController(sessions *services.SessionManager) *SettingsController {
	return &SettingsController{Sessions: sessions}
}

func (s *SettingsController) Get(c *gin.Context) {
	sess, ok := sessionFromCtx(c, s.Sessions)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Settings())
}

func (s *SettingsController) Update(c *gin.Context) {
	sess, ok := sessionFromCtx(c, s.Sessions)
	if !ok {
		return
	}

	var form services.SettingsForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, sess.UpdateSettings(form))
}
