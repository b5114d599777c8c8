package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/VP171097/vitality/controllers"
	"github.com/VP171097/vitality/services"
)

// Deps carries everything the router wires into the controllers. Auth is
// the authentication middleware; tests substitute a stub.
type Deps struct {
	Auth     gin.HandlerFunc
	AuthSvc  *services.AuthService
	Sessions *services.SessionManager
	AI       services.AIGateway
	Steps    *services.StepsService
	Hub      *services.RealtimeHub
	Alerts   *services.AlertService
}

// SetupRouter builds the tabbed surface: auth, settings, tracker, food,
// activity, dashboard, analytics and the realtime push socket.
func SetupRouter(d Deps) *gin.Engine {
	r := gin.Default()

	authCtl := controllers.NewAuthController(d.AuthSvc, d.Sessions)
	userCtl := controllers.NewUserController(d.AuthSvc)
	settingsCtl := controllers.NewSettingsController(d.Sessions)
	trackerCtl := controllers.NewTrackerController(d.Sessions)
	foodCtl := controllers.NewFoodController(d.Sessions)
	activityCtl := controllers.NewActivityController(d.Sessions)
	dashboardCtl := controllers.NewDashboardController(d.Sessions, d.Steps)
	analyticsCtl := controllers.NewAnalyticsController(d.Sessions, d.AI)
	realtimeCtl := controllers.NewRealtimeController(d.Hub)
	alertCtl := controllers.NewAlertController(d.Alerts)

	// Public auth routes
	auth := r.Group("/auth")
	{
		auth.POST("/register", authCtl.Register)
		auth.POST("/login", authCtl.Login)
		auth.POST("/forgot-password", authCtl.ForgotPassword)
		auth.POST("/reset-password", authCtl.ResetPassword)
	}

	// Everything else requires a session token
	api := r.Group("/")
	api.Use(d.Auth)
	{
		api.POST("/auth/signout", authCtl.SignOut)

		api.GET("/user/profile", userCtl.GetProfile)
		api.PUT("/user/profile", userCtl.UpdateProfile)

		api.GET("/settings", settingsCtl.Get)
		api.PUT("/settings", settingsCtl.Update)

		api.GET("/tracker/today", trackerCtl.Today)
		api.POST("/tracker/today", trackerCtl.Save)
		api.GET("/tracker/history", trackerCtl.History)

		api.GET("/food/today", foodCtl.Today)
		api.POST("/food", foodCtl.Add)
		api.POST("/food/describe", foodCtl.AddDescribed)
		api.GET("/food/quick", foodCtl.QuickList)
		api.POST("/food/quick", foodCtl.QuickAdd)
		api.DELETE("/food/:id", foodCtl.Remove)

		api.GET("/activity/today", activityCtl.Today)
		api.POST("/activity", activityCtl.Log)
		api.DELETE("/activity/:id", activityCtl.Remove)

		api.GET("/dashboard", dashboardCtl.Get)

		api.GET("/analytics/series", analyticsCtl.Series)
		api.POST("/analytics/coach", analyticsCtl.Coach)

		api.GET("/alerts", alertCtl.Recent)

		api.GET("/realtime", realtimeCtl.Stream)
	}

	return r
}
