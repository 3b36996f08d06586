package main

import (
	"context"
	"log"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/wendylandcan/liqingai/config"
	"github.com/wendylandcan/liqingai/controllers"
	"github.com/wendylandcan/liqingai/db"
	"github.com/wendylandcan/liqingai/internal/caselock"
	"github.com/wendylandcan/liqingai/middlewares"
	"github.com/wendylandcan/liqingai/routes"
	"github.com/wendylandcan/liqingai/services"
	"github.com/wendylandcan/liqingai/utils"
)

func main() {
	cfg, err := config.LoadConfig("./config/config.prod.yml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := services.InitGemini(cfg); err != nil {
		log.Fatalf("Failed to initialize Gemini client: %v", err)
	}
	if err := caselock.InitRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	if err := db.ConnectMongoDB(cfg.Database.URI); err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	log.Println("Connected to MongoDB")
	if err := db.EnsureIndexes(context.Background()); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	store := db.NewMongoCaseStore()
	gateway := services.NewGateway(cfg)
	ai := services.NewAIService(gateway)
	cases := services.NewCaseService(store, ai, caselock.NewLocker(caselock.Client()))
	controllers.Init(cases, ai)

	router := setupRouter()
	port := strconv.Itoa(cfg.Server.Port)
	log.Printf("Server starting on port %s", port)

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func setupRouter() *gin.Engine {
	router := gin.Default()

	router.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))
	router.OPTIONS("/*path", func(c *gin.Context) { c.Status(204) })

	auth := router.Group("/")
	auth.Use(middlewares.AuthMiddleware())
	{
		routes.SetupCaseRoutes(auth)
		routes.SetupAssistRoutes(auth)
	}

	return router
}
