package http

import (
	"github.com/gin-gonic/gin"

	"github.com/emberapp/ember-backend/internal/delivery/http/handler"
	"github.com/emberapp/ember-backend/internal/delivery/http/middleware"
)

type Router struct {
	authHandler            *handler.AuthHandler
	profileHandler         *handler.ProfileHandler
	missionHandler         *handler.MissionHandler
	connectionHandler      *handler.ConnectionHandler
	votingHandler          *handler.VotingHandler
	missionResponseHandler *handler.MissionResponseHandler
	authMiddleware         *middleware.AuthMiddleware
}

func NewRouter(
	authHandler *handler.AuthHandler,
	profileHandler *handler.ProfileHandler,
	missionHandler *handler.MissionHandler,
	connectionHandler *handler.ConnectionHandler,
	votingHandler *handler.VotingHandler,
	missionResponseHandler *handler.MissionResponseHandler,
	authMiddleware *middleware.AuthMiddleware,
) *Router {
	return &Router{
		authHandler:            authHandler,
		profileHandler:         profileHandler,
		missionHandler:         missionHandler,
		connectionHandler:      connectionHandler,
		votingHandler:          votingHandler,
		missionResponseHandler: missionResponseHandler,
		authMiddleware:         authMiddleware,
	}
}

func (r *Router) Setup() *gin.Engine {
	router := gin.Default()

	// Health check (supports both GET and HEAD)
	healthHandler := func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	// API v1
	v1 := router.Group("/api/v1")
	{
		// Auth routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
			auth.POST("/refresh", r.authHandler.Refresh)
			auth.POST("/logout", r.authHandler.Logout)
			auth.GET("/me", r.authMiddleware.RequireAuth(), r.authHandler.Me)
		}

		// Public profile and mission catalog
		v1.GET("/users/:user_id", r.profileHandler.GetProfileByUserID)
		v1.GET("/missions", r.missionHandler.ListMissions)
		v1.GET("/missions/:mission_id", r.missionHandler.GetMission)

		// Protected routes
		protected := v1.Group("")
		protected.Use(r.authMiddleware.RequireAuth())
		{
			// Profile routes
			profile := protected.Group("/profile")
			{
				profile.GET("/me", r.profileHandler.GetMyProfile)
				profile.PUT("/me", r.profileHandler.UpdateMyProfile)
			}

			// Connection routes
			connections := protected.Group("/connections")
			{
				connections.POST("", r.connectionHandler.CreateConnection)
				connections.GET("", r.connectionHandler.ListConnections)
				connections.GET("/:connection_id", r.connectionHandler.GetConnection)
				connections.POST("/:connection_id/accept", r.connectionHandler.AcceptConnection)
				connections.POST("/:connection_id/decline", r.connectionHandler.DeclineConnection)
				connections.POST("/:connection_id/end", r.connectionHandler.EndConnection)

				// Voting round routes
				connections.GET("/:connection_id/round", r.votingHandler.GetRound)
				connections.POST("/:connection_id/round", r.votingHandler.StartRound)
				connections.POST("/:connection_id/round/vote", r.votingHandler.CastVote)

				// Mission progression routes
				connections.GET("/:connection_id/mission", r.missionResponseHandler.GetCurrentMission)
				connections.POST("/:connection_id/mission/response", r.missionResponseHandler.SubmitResponse)
				connections.GET("/:connection_id/mission/responses", r.missionResponseHandler.GetResponses)
			}
		}
	}

	return router
}
