package http

import (
	"github.com/gin-gonic/gin"

	"ragserver/internal/bootstrap"
	"ragserver/internal/repository"
	"ragserver/internal/transport/http/handler"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app.IndexService, app.Conversations)
	indexHandler := handler.NewIndexHandler(app.IndexService)
	queryHandler := handler.NewQueryHandler(app.QueryService)
	conversationHandler := handler.NewConversationHandler(app.ConversationService)
	evalHandler := handler.NewEvalHandler(app.EvalService)

	router.GET("/health", healthHandler.Check)
	router.GET("/stats", indexHandler.Stats)

	router.POST("/index", indexHandler.Index)
	router.POST("/index-pdf", indexHandler.UploadPDF)
	router.POST("/query", queryHandler.Query)

	router.GET("/conversations", conversationHandler.List)
	router.POST("/conversations", conversationHandler.Create)
	router.GET("/conversations/:id", conversationHandler.Get)
	router.PATCH("/conversations/:id", conversationHandler.UpdateTitle)
	router.DELETE("/conversations/:id", conversationHandler.Delete)
	router.POST("/conversations/:id/messages", conversationHandler.SendMessage)

	router.POST("/eval", evalHandler.Run)
	router.POST("/eval-document", evalHandler.EvalDocument)

	if app.MySQL != nil {
		queryLogHandler := handler.NewQueryLogHandler(repository.NewQueryLogRepository(app.MySQL))
		router.GET("/query-logs", queryLogHandler.ListRecent)
	}

	return router
}
