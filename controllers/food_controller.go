package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/VP171097/vitality/services"
)

type FoodController struct {
	Sessions *services.SessionManager
}

func NewFoodController(sessions *services.SessionManager) *FoodController {
	return &FoodController{Sessions: sessions}
}

// Today lists today's entries plus the running totals.
func (f *FoodController) Today(c *gin.Context) {
	sess, ok := sessionFromCtx(c, f.Sessions)
	if !ok {
		return
	}

	entries := sess.TodayFood()
	cals, protein := 0, 0
	for _, e := range entries {
		cals += e.Cals
		protein += e.Protein
	}
	c.JSON(http.StatusOK, gin.H{
		"entries":       entries,
		"todayCalories": cals,
		"todayProtein":  protein,
	})
}

type AddFoodInput struct {
	Name    string `json:"name" binding:"required"`
	Cals    int    `json:"cals" binding:"required"`
	Protein int    `json:"protein"`
}

func (f *FoodController) Add(c *gin.Context) {
	sess, ok := sessionFromCtx(c, f.Sessions)
	if !ok {
		return
	}

	var input AddFoodInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry := sess.AddFood(input.Name, input.Cals, input.Protein)
	c.JSON(http.StatusCreated, gin.H{"message": fmt.Sprintf("Added %s", entry.Name), "entry": entry})
}

// AddDescribed parses a free-text description through the AI gateway.
func (f *FoodController) AddDescribed(c *gin.Context) {
	sess, ok := sessionFromCtx(c, f.Sessions)
	if !ok {
		return
	}

	var input struct {
		Description string `json:"description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := sess.AddFoodDescribed(c.Request.Context(), input.Description)
	if err != nil {
		aiError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": fmt.Sprintf("Added %s", entry.Name), "entry": entry})
}

// QuickList returns the tap-to-add shortcuts.
func (f *FoodController) QuickList(c *gin.Context) {
	c.JSON(http.StatusOK, services.QuickFoods)
}

// QuickAdd logs a shortcut food by its list index.
func (f *FoodController) QuickAdd(c *gin.Context) {
	sess, ok := sessionFromCtx(c, f.Sessions)
	if !ok {
		return
	}

	var input struct {
		Index *int `json:"index" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := sess.AddQuickFood(*input.Index)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": fmt.Sprintf("Added %s", entry.Name), "entry": entry})
}

// Remove deletes one of today's entries by id.
func (f *FoodController) Remove(c *gin.Context) {
	sess, ok := sessionFromCtx(c, f.Sessions)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	if !sess.RemoveFood(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
