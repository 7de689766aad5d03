// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/memstore"
	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	redis "github.com/redis/go-redis/v9"

	"github.com/yourusername/share-board/internal/auth"
	"github.com/yourusername/share-board/internal/cloudinary"
	"github.com/yourusername/share-board/internal/config"
	"github.com/yourusername/share-board/internal/middleware"
	"github.com/yourusername/share-board/internal/migrations"
	"github.com/yourusername/share-board/internal/posts"
	sessionstore "github.com/yourusername/share-board/internal/session"
	"github.com/yourusername/share-board/internal/tasks"
	"github.com/yourusername/share-board/internal/users"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	// データベース接続とマイグレーション
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := runMigrations(context.Background(), db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Printf("Database ready")

	userRepo := users.NewPostgresRepository(db)
	postRepo := posts.NewPostgresRepository(db)

	// Cloudinaryサブシステム（設定が無い場合は画像アップロードのみ無効化）
	var uploader auth.Uploader
	var cleanup auth.AssetCleanupEnqueuer
	var taskManager *tasks.Manager
	if cfg.CloudinaryConfigured() {
		cloudinarySvc := cloudinary.NewService(cfg)
		taskManager, err = tasks.NewManager(cfg.QueueRedisURL, cloudinarySvc, log.Default())
		if err != nil {
			log.Fatalf("Failed to set up task queue: %v", err)
		}
		taskManager.StartWorkers()
		uploader = cloudinarySvc
		cleanup = taskManager
	} else {
		log.Printf("Cloudinary is not configured; profile picture uploads are disabled")
	}

	// Ginルーターの初期化（アクセスログにはリクエストIDを含める）
	router := gin.New()
	router.Use(gin.LoggerWithFormatter(requestLogFormatter), gin.Recovery())

	// CORSミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	router.Use(middleware.RequestID())

	// Partitioned はセッションより先に登録し、Set-Cookie の書き換えが
	// セッションミドルウェアの出力にも効くようにする
	router.Use(middleware.Partitioned())

	// セッションストアの設定
	store, err := buildSessionStore(cfg)
	if err != nil {
		log.Fatalf("Failed to set up session store: %v", err)
	}
	router.Use(sessions.Sessions(auth.SessionCookieName, store))

	// ルーティングの設定
	authManager := auth.NewManager(userRepo, uploader, cleanup)
	postHandler := posts.NewHandler(postRepo)
	setupRoutes(router, authManager, postHandler)

	// サーバーの起動
	addr := ":" + cfg.Port
	srv := &http.Server{Addr: addr, Handler: router}
	go func() {
		log.Printf("Starting API server on %s (mode: %s)", addr, cfg.GinMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// シグナルでHTTPサーバーとワーカーを順に停止する
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Printf("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown: %v", err)
	}
	if taskManager != nil {
		if err := taskManager.Shutdown(shutdownCtx); err != nil {
			log.Printf("Task manager shutdown: %v", err)
		}
	}
}

// requestLogFormatter はアクセスログ1行のフォーマットです。
// RequestID ミドルウェアが設定したIDを含めます。
func requestLogFormatter(param gin.LogFormatterParams) string {
	requestID, _ := param.Keys[middleware.RequestIDKey].(string)
	return fmt.Sprintf("[API] %s | %3d | %13v | %15s | %-7s %s | request_id=%s\n",
		param.TimeStamp.Format(time.RFC3339),
		param.StatusCode,
		param.Latency,
		param.ClientIP,
		param.Method,
		param.Path,
		requestID,
	)
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// buildSessionStore は設定に応じたセッションストアを返します。
// クロスサイトで使うCookieのため SameSite=None と Secure を常に付けます
// （Partitioned 属性は書き換えミドルウェアが付与します）。
func buildSessionStore(cfg *config.Config) (sessions.Store, error) {
	secret := cfg.SessionSecret
	if secret == "" {
		// ローカル開発向け: 再起動でセッションが無効になるランダム鍵
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		secret = hex.EncodeToString(buf)
		log.Printf("SESSION_SECRET is not set; using a random key (sessions reset on restart)")
	}

	options := sessions.Options{
		Path:     "/",
		MaxAge:   auth.SessionMaxAgeSeconds(),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}

	switch cfg.SessionStore {
	case "redis":
		opt, err := redis.ParseURL(cfg.SessionRedisURL)
		if err != nil {
			return nil, err
		}
		store := sessionstore.NewRedisStore(
			redis.NewClient(opt),
			time.Duration(auth.SessionMaxAgeSeconds())*time.Second,
			[]byte(secret),
		)
		store.Options(options)
		return store, nil
	case "memory":
		store := memstore.NewStore([]byte(secret))
		store.Options(options)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session store: %s", cfg.SessionStore)
	}
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "share-board-api",
		"version": "0.1.0",
	})
}

// setupRoutes は認証・投稿まわりの配線を行います。
func setupRoutes(router *gin.Engine, authManager *auth.Manager, postHandler *posts.Handler) {
	router.GET("/health", handleHealth)

	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", authManager.Register)
		authRoutes.POST("/login", authManager.Login)
		authRoutes.POST("/logout", authManager.Logout)
		authRoutes.GET("/check", authManager.Check)

		profile := authRoutes.Group("", authManager.RequireLogin())
		profile.GET("/myprofile", authManager.GetMyProfile)
		profile.POST("/myprofile/picture", authManager.UpdateProfilePicture)
	}

	protected := router.Group("", authManager.RequireLogin())
	{
		protected.GET("/", postHandler.ListMine)
		protected.GET("/posts", postHandler.ListMine)
		protected.GET("/posts/offers", postHandler.ListMineOffers)
		protected.GET("/posts/requests", postHandler.ListMineRequests)
		protected.GET("/community", postHandler.ListCommunity)
		protected.GET("/community/offers", postHandler.ListCommunityOffers)
		protected.GET("/community/requests", postHandler.ListCommunityRequests)
		protected.POST("/posts/create", postHandler.Create)
		protected.POST("/posts/update", postHandler.Update)
		protected.DELETE("/posts/delete/:id", postHandler.Delete)
	}
}
