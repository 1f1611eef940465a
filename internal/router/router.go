package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/goalboard/backend/api/handler"
)

type Handlers struct {
	Auth     *apiHandler.AuthHandler
	Goal     *apiHandler.GoalHandler
	Public   *apiHandler.PublicHandler
	Activity *apiHandler.ActivityHandler
	Health   *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/v1/auth/register", handlers.Auth.Register)
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/refresh", handlers.Auth.Refresh)
	r.POST("/api/v1/auth/logout", handlers.Auth.Logout)

	// Public read-only routes
	r.GET("/api/v1/public/goals", handlers.Public.ListPublicGoals)
	r.GET("/api/v1/public/goals/{publicId}", handlers.Public.GetPublicGoal)

	// Protected routes
	r.GET("/api/v1/goals", authMiddleware(handlers.Goal.ListGoals))
	r.POST("/api/v1/goals", authMiddleware(handlers.Goal.CreateGoal))
	r.GET("/api/v1/goals/{id}", authMiddleware(handlers.Goal.GetGoal))
	r.PUT("/api/v1/goals/{id}", authMiddleware(handlers.Goal.UpdateGoal))
	r.DELETE("/api/v1/goals/{id}", authMiddleware(handlers.Goal.DeleteGoal))

	r.GET("/api/v1/activity", authMiddleware(handlers.Activity.Feed))

	return r
}
