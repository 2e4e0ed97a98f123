package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"chirpchat/configs"
	"chirpchat/internal/handlers"
	"chirpchat/internal/hub"

	"github.com/gin-gonic/gin"
)

type HttpServer struct {
	ctx               context.Context
	config            *configs.Config
	router            *gin.Engine
	restHandler       *handlers.RestHandler
	socketChatHandler *handlers.SocketChatHandler
	chatHub           *hub.Hub
}

func NewHttpServer(
	ctx context.Context,
	config *configs.Config,
	restHandler *handlers.RestHandler,
	socketChatHandler *handlers.SocketChatHandler,
	chatHub *hub.Hub,
) *HttpServer {
	return &HttpServer{
		ctx:               ctx,
		config:            config,
		restHandler:       restHandler,
		socketChatHandler: socketChatHandler,
		chatHub:           chatHub,
	}
}

func (hs *HttpServer) Run() {
	hs.initializeGin()
	hs.setupRestfulRoutes()
	hs.setupWebSocketRoutes()

	// The hub relays Redis events to local websocket clients for as long as
	// the listener is up.
	go hs.chatHub.Run()

	server := hs.startServer()

	// Wait for interrupt signal to gracefully shut down the server
	hs.waitForShutdown(server)
}

func (hs *HttpServer) initializeGin() {
	hs.router = gin.Default()
}

func (hs *HttpServer) setupRestfulRoutes() {
	api := hs.router.Group("/api")

	api.POST("/auth/register", hs.restHandler.Register)
	api.POST("/auth/login", hs.restHandler.Login)

	authenticated := api.Group("", hs.restHandler.MustAuthenticateMiddleware())
	authenticated.GET("/users", hs.restHandler.GetAllUsersWithPagination)
	authenticated.POST("/users/profile-photo", hs.restHandler.UploadUserProfilePhoto)
	authenticated.POST("/conversations", hs.restHandler.CreateOrGetConversation)
	authenticated.GET("/conversations", hs.restHandler.GetUserConversations)
	authenticated.POST("/conversations/:id/messages", hs.restHandler.SendMessage)
	authenticated.GET("/conversations/:id/messages", hs.restHandler.GetConversationMessages)
	authenticated.DELETE("/conversations/:id", hs.restHandler.SoftDeleteConversation)
	authenticated.POST("/attachments", hs.restHandler.UploadMessageAttachment)
}

func (hs *HttpServer) setupWebSocketRoutes() {
	hs.router.GET("/ws/chat", hs.socketChatHandler.HandleSocketChatRoute)
}

func (hs *HttpServer) startServer() *http.Server {
	addr := fmt.Sprintf(":%d", hs.config.Viper.GetInt("server.port"))
	server := &http.Server{
		Addr:    addr,
		Handler: hs.router,
	}

	go func() {
		log.Printf("HTTP server started on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	return server
}

func (hs *HttpServer) waitForShutdown(server *http.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if err := server.Shutdown(hs.ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	hs.chatHub.Shutdown()

	log.Println("Server exiting")
}
