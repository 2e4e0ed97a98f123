package app

import (
	"context"
	"sync"

	"chirpchat/configs"
	"chirpchat/internal/handlers"
	"chirpchat/internal/hub"
	"chirpchat/internal/repositories"
	"chirpchat/internal/servers/database"
	"chirpchat/internal/servers/http"
	"chirpchat/internal/services"

	"github.com/redis/go-redis/v9"
)

var (
	app  *App
	once sync.Once
)

type App struct {
	redis   *redis.Client
	ctx     context.Context
	configs *configs.Config
}

func GetApp() *App {
	once.Do(func() {
		app = &App{}
	})
	return app
}

func (app *App) LetsGo() {
	app.ctx = context.Background()
	app.initializeConfigs()
	app.initializeRedis()

	db := database.GetDB(app.configs)

	authRepo := repositories.NewAuthenticationRepository(db)
	authService := services.NewAuthenticationService(authRepo, app.configs)

	chatHub := hub.NewHub(app.ctx, app.redis)

	chatRepo := repositories.NewChatRepository(db)
	chatService := services.NewChatService(chatRepo, authRepo, chatHub)

	minioService := services.NewMinioService(app.configs)
	fileManagerService := services.NewFileManagerService(minioService)

	restHandler := handlers.NewRestHandler(
		authService,
		chatService,
		fileManagerService,
	)
	socketChatHandler := handlers.NewSocketChatHandler(chatHub, chatService, authService)

	http.NewHttpServer(
		app.ctx,
		app.configs,
		restHandler,
		socketChatHandler,
		chatHub,
	).Run()
}

func (app *App) initializeRedis() {
	app.redis = redis.NewClient(&redis.Options{
		Addr: app.configs.Viper.GetString("redis.address"),
	})
}

func (app *App) initializeConfigs() {
	app.configs = configs.GetConfig()
}
