package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/vidtube/backend/auth"
	"github.com/vidtube/backend/config"
	"github.com/vidtube/backend/controllers"
	"github.com/vidtube/backend/database"
	"github.com/vidtube/backend/middleware"
	"github.com/vidtube/backend/repositories"
	"github.com/vidtube/backend/storage"
	"github.com/vidtube/backend/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		log.Fatal(err)
	}

	files, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatal(err)
	}

	users := repositories.NewUserRepository(db)
	tokens := auth.NewTokenManager(cfg.Auth)
	validator := utils.NewImageValidator(cfg.Upload)

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	allowedOrigins := map[string]bool{}
	for _, origin := range cfg.AllowedOrigins {
		allowedOrigins[origin] = true
	}
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowedOrigins[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.ErrorHandler())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	verifyJWT := middleware.VerifyJWT(users, tokens)

	api := r.Group("/api/v1/users")
	{
		api.POST("/register", controllers.RegisterUser(users, files, validator))
		api.POST("/login", controllers.LoginUser(users, tokens))
		api.POST("/refresh-token", controllers.RefreshAccessToken(users, tokens))

		api.POST("/logout", verifyJWT, controllers.LogoutUser(users))
		api.POST("/change-password", verifyJWT, controllers.ChangeCurrentPassword(users))
		api.GET("/current-user", verifyJWT, controllers.GetCurrentUser())
		api.PATCH("/update-account-detail", verifyJWT, controllers.UpdateAccountDetail(users))
		api.PATCH("/update-avatar", verifyJWT, controllers.UpdateUserAvatar(users, files, validator))
		api.PATCH("/update-cover-image", verifyJWT, controllers.UpdateUserCoverImage(users, files, validator))
		api.GET("/c/:username", verifyJWT, controllers.GetUserChannelProfile(users))
		api.GET("/history", verifyJWT, controllers.GetWatchHistory(users))
	}

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
