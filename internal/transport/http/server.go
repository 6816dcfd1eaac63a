package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "communibot/internal/app"
	"communibot/internal/bootstrap"
	rabbitmqClient "communibot/internal/platform/rabbitmq"
	"communibot/internal/repository"
	"communibot/internal/transport/http/handler"
	"communibot/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	adminRepo := repository.NewAdminUserRepository(app.MySQL)
	authService := appsvc.NewAuthService(
		adminRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)

	ingestService := appsvc.NewIngestService(app.MySQL, app.Index, app.Config.Knowledge.PassageChars)
	configService := appsvc.NewGroupConfigService(app.MySQL, app.Config.Provider.QuotaPerMinute)

	usagePublisher := rabbitmqClient.NewUsageLogPublisher(app.MQConn, app.Config.RabbitMQ.UsageLogQueue)
	answerService := appsvc.NewAnswerService(
		app.MySQL,
		app.Index,
		app.Memory,
		app.Provider,
		usagePublisher,
		nil, // default heuristic detector
		appsvc.AnswerOptions{
			TopK:           app.Config.Knowledge.TopK,
			ContextChars:   app.Config.Answer.ContextChars,
			MemoryTurns:    app.Config.Answer.MemoryTurns,
			MaxAnswerChars: app.Config.Answer.MaxAnswerChars,
		},
	)

	authHandler := handler.NewAuthHandler(authService)
	knowledgeHandler := handler.NewKnowledgeHandler(ingestService)
	configHandler := handler.NewGroupConfigHandler(configService)
	messageHandler := handler.NewMessageHandler(answerService)
	usageHandler := handler.NewUsageHandler(repository.NewUsageLogRepository(app.MySQL))

	v1 := router.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	knowledgeGroup := v1.Group("/knowledge")
	knowledgeGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	knowledgeGroup.POST("/files", knowledgeHandler.Upload)
	knowledgeGroup.GET("/files", knowledgeHandler.List)
	knowledgeGroup.DELETE("/files/:id", knowledgeHandler.Delete)

	groupsGroup := v1.Group("/groups")
	groupsGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	groupsGroup.GET("/:id/ai-config", configHandler.Get)
	groupsGroup.PUT("/:id/ai-config", configHandler.Update)
	groupsGroup.GET("/:id/usage", usageHandler.List)

	// Called by the message-routing collaborator, not end users.
	v1.POST("/messages", messageHandler.Handle)

	return router
}
