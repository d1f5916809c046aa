package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/medsafe-labs/riskboard-api/internal/config"
	"github.com/medsafe-labs/riskboard-api/internal/database"
	"github.com/medsafe-labs/riskboard-api/internal/handler"
	"github.com/medsafe-labs/riskboard-api/internal/middleware"
	"github.com/medsafe-labs/riskboard-api/internal/models"
	"github.com/medsafe-labs/riskboard-api/internal/repository"
	"github.com/medsafe-labs/riskboard-api/internal/router"
	"github.com/medsafe-labs/riskboard-api/internal/service"
	"github.com/medsafe-labs/riskboard-api/pkg/sanitize"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.ProjectVersion{},
		&models.RiskAnalysis{},
		&models.RiskFactor{},
		&models.ChangeLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	sanitizer := sanitize.New()

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	versionRepo := repository.NewVersionRepository(db)
	analysisRepo := repository.NewRiskAnalysisRepository(db)
	factorRepo := repository.NewRiskFactorRepository(db)
	changelogRepo := repository.NewChangelogRepository(db)

	sessions := service.NewRedisSessionStore(redisClient)

	changelogService := service.NewChangelogService(changelogRepo, projectRepo, memberRepo, natsConn, cfg.ChangelogRecentLimit, logger)
	authService := service.NewAuthService(userRepo, sessions, changelogService, validate, cfg.JWTSecret, cfg.SessionTTL, logger)
	projectService := service.NewProjectService(projectRepo, memberRepo, versionRepo, changelogService, validate, sanitizer, logger)
	memberService := service.NewMemberService(projectRepo, memberRepo, userRepo, changelogService, validate, logger)
	riskService := service.NewRiskService(projectRepo, memberRepo, analysisRepo, factorRepo, changelogService, validate, sanitizer, logger)
	userService := service.NewUserService(userRepo, changelogService, validate, logger)

	authHandler := handler.NewAuthHandler(authService, logger)
	projectHandler := handler.NewProjectHandler(projectService, logger)
	memberHandler := handler.NewMemberHandler(memberService, logger)
	riskHandler := handler.NewRiskHandler(riskService, logger)
	userHandler := handler.NewUserHandler(userService, logger)
	changelogHandler := handler.NewChangelogHandler(changelogService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:      authHandler,
		ProjectHandler:   projectHandler,
		MemberHandler:    memberHandler,
		RiskHandler:      riskHandler,
		UserHandler:      userHandler,
		ChangelogHandler: changelogHandler,
		AuthMiddleware:   middleware.Protected(cfg.JWTSecret, sessions, userRepo),
		LoginRateLimit:   middleware.RateLimit("login", cfg.LoginRateLimit, cfg.LoginRateWindow),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
