package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	apirest "github.com/ayakura/gamehub/server/api/rest"
	"github.com/ayakura/gamehub/server/audit"
	"github.com/ayakura/gamehub/server/cache"
	"github.com/ayakura/gamehub/server/config"
	dbadapter "github.com/ayakura/gamehub/server/db"
	"github.com/ayakura/gamehub/server/group"
	mw "github.com/ayakura/gamehub/server/middleware"
	"github.com/ayakura/gamehub/server/model"
	"github.com/ayakura/gamehub/server/recommend"
	"github.com/ayakura/gamehub/server/scheduler"
	"github.com/ayakura/gamehub/server/social"
	"github.com/ayakura/gamehub/server/stats"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	// Warn loudly if admin endpoints will be disabled.
	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(context.Background())

	// ---- Cache / PubSub ----
	cacheCfg := cache.Config{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheCfg)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cacheCfg)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	// ---- Services ----
	socialSvc := social.NewService(db, logger)
	groupSvc := group.NewService(db, pubsub, logger)
	statsSvc := stats.NewService(db, c, logger)

	catalog, err := recommend.NewHTTPCatalog(recommend.HTTPCatalogConfig{
		BaseURL:        cfg.Catalog.BaseURL,
		Timeout:        cfg.Catalog.Timeout,
		CacheSize:      cfg.Catalog.CacheSize,
		BreakerMaxFail: cfg.Catalog.BreakerMaxFail,
		BreakerCooloff: cfg.Catalog.BreakerCooloff,
	}, logger)
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}
	recommendSvc, err := recommend.NewService(db, catalog, recommend.ServiceConfig{
		Workers:      cfg.Recommend.Workers,
		DefaultLimit: cfg.Recommend.DefaultLimit,
	}, logger)
	if err != nil {
		log.Fatalf("recommend: %v", err)
	}
	defer recommendSvc.Close()

	// ---- Periodic Scheduler Tasks ----
	sched.AddTicker("top_groups_refresh", cfg.Stats.RefreshInterval, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		statsSvc.RefreshTopGroups(ctx, cfg.Stats.TopGroupsLimit)
	})

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))
	r.Use(mw.Metrics())

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ---- REST API routes ----
	authH := apirest.NewAuthHandler(db, c, cfg.Security, auditSvc)
	socialH := apirest.NewSocialHandler(socialSvc)
	groupH := apirest.NewGroupHandler(groupSvc)
	recommendH := apirest.NewRecommendHandler(db, recommendSvc)
	statsH := apirest.NewStatsHandler(statsSvc)
	adminH := apirest.NewAdminHandler(db, sched, auditSvc, logger)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(cfg.Security, c), authH.Logout)
		authG.GET("/me", mw.Auth(cfg.Security, c), authH.Me)

		socialG := api.Group("/social")
		socialG.Use(mw.Auth(cfg.Security, c))
		socialG.GET("/friends", socialH.ListFriends)
		socialG.GET("/requests", socialH.ListPending)
		socialG.GET("/suggestions", socialH.ListSuggestions)
		socialG.POST("/requests", socialH.SendRequest)
		socialG.POST("/requests/:id/accept", socialH.AcceptRequest)
		socialG.POST("/requests/:id/reject", socialH.RejectRequest)
		socialG.DELETE("/requests/:id", socialH.CancelRequest)
		socialG.DELETE("/friends/:id", socialH.Unfriend)

		groupsG := api.Group("/groups")
		groupsG.Use(mw.Auth(cfg.Security, c))
		groupsG.POST("", groupH.Create)
		groupsG.GET("", groupH.List)
		groupsG.GET("/:id", groupH.Detail)
		groupsG.POST("/:id/join", groupH.Join)
		groupsG.POST("/:id/leave", groupH.Leave)
		groupsG.DELETE("/:id/members/:uid", groupH.RemoveMember)
		groupsG.PUT("/:id/members/:uid/role", groupH.SetRole)
		groupsG.DELETE("/:id", groupH.Delete)
		groupsG.POST("/:id/posts", groupH.CreatePost)
		groupsG.GET("/:id/posts", groupH.ListPosts)
		groupsG.POST("/:id/media", groupH.UploadMedia)
		groupsG.GET("/:id/media", groupH.ListMedia)
		groupsG.POST("/comments", groupH.AddComment)

		postsG := api.Group("/posts")
		postsG.Use(mw.Auth(cfg.Security, c))
		postsG.POST("/:id/like", groupH.LikePost)

		mediaG := api.Group("/media")
		mediaG.Use(mw.Auth(cfg.Security, c))
		mediaG.POST("/:id/react", groupH.React)

		libraryG := api.Group("/library")
		libraryG.Use(mw.Auth(cfg.Security, c))
		libraryG.GET("", recommendH.ListLibrary)
		libraryG.POST("", recommendH.AddLibraryEntry)
		libraryG.PUT("/:game_id/rating", recommendH.RateGame)

		api.POST("/recommendations", mw.Auth(cfg.Security, c), recommendH.Recommend)

		gamesG := api.Group("/games")
		gamesG.Use(mw.Auth(cfg.Security, c))
		gamesG.POST("/:id/similar", recommendH.SimilarGames)

		statsG := api.Group("/stats")
		statsG.Use(mw.Auth(cfg.Security, c))
		statsG.GET("/me", statsH.Me)
		statsG.GET("/groups/top", statsH.TopGroups)

		adminG := api.Group("/admin")
		adminG.Use(apirest.AdminAuth(cfg.Server.AdminKey))
		if len(cfg.Server.AdminIPs) > 0 {
			adminG.Use(mw.IPWhitelist(cfg.Server.AdminIPs))
		}
		adminG.GET("/overview", adminH.Overview)
		adminG.GET("/accounts", adminH.ListAccounts)
		adminG.POST("/accounts/:id/ban", adminH.BanAccount)
		adminG.GET("/scheduler", adminH.ListSchedulerTasks)
		adminG.GET("/audit", adminH.RecentAudit)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
