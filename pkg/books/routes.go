package books

import (
	"github.com/labstack/echo/v4"

	"github.com/taleweave/taleweave/pkg/uploads"
	"github.com/taleweave/taleweave/pkg/users"
)

// RegisterRoutes registers all book routes. Everything is owner-scoped and
// requires authentication.
func RegisterRoutes(e *echo.Echo, service *Service, uploadService *uploads.Service, mw *users.Middleware) {
	h := &handler{
		service: service,
		uploads: uploadService,
	}

	g := e.Group("/api/book", mw.Authenticate)
	g.POST("/create", h.create)
	g.GET("/user-books", h.userBooks)
	g.GET("/:id", h.retrieve)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.PUT("/:id/finalize", h.finalize)
	g.GET("/:id/episodes", h.listEpisodes)
	g.GET("/:id/episode/:episodeIndex", h.retrieveEpisode)
	g.PUT("/:id/episode/:episodeIndex", h.updateEpisode)
	g.DELETE("/:id/episode/:episodeIndex", h.deleteEpisode)
	g.GET("/:id/episode/:episodeIndex/start-conversation", h.startConversation)
	g.POST("/:id/episode/:episodeIndex/answer", h.answer)
	g.GET("/:id/episode/:episodeIndex/next-question", h.nextQuestion)
	g.POST("/:id/episode/:episodeIndex/generate-story", h.generateStory)
}
