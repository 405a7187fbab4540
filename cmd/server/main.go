package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"escrow-chain.backend/internal/config"
	"escrow-chain.backend/internal/infrastructure/jobs"
	"escrow-chain.backend/internal/infrastructure/repositories"
	"escrow-chain.backend/internal/interfaces/http/handlers"
	"escrow-chain.backend/internal/interfaces/http/middleware"
	domainRepos "escrow-chain.backend/internal/domain/repositories"
	"escrow-chain.backend/internal/usecases"
	"escrow-chain.backend/pkg/crypto"
	"escrow-chain.backend/pkg/jwt"
	"escrow-chain.backend/pkg/logger"
	"escrow-chain.backend/pkg/redis"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
	runServer = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Contract store: in-memory by default, Postgres via GORM when enabled
	var contractRepo domainRepos.ContractRepository
	if cfg.Database.Enabled {
		db, err := openDB(cfg.Database.URL())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		gormRepo := repositories.NewGormContractRepository(db)
		if err := gormRepo.Migrate(); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		contractRepo = gormRepo
		logger.Info(context.Background(), "Using Postgres contract store")
	} else {
		contractRepo = repositories.NewMemoryContractRepository()
		logger.Info(context.Background(), "Using in-memory contract store")
	}

	// Notifications are published over Redis pub/sub when enabled
	var notifier usecases.Notifier
	if cfg.Redis.Enabled {
		if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		notifier = redis.NewNotifier()
		logger.Info(context.Background(), "Redis initialized")
	}

	var verifier crypto.Verifier
	if cfg.Engine.SignatureMode == "simulation" {
		verifier = crypto.SimulationVerifier{}
	} else {
		verifier = crypto.Secp256k1Verifier{}
	}

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry)

	conditionEvaluator, err := usecases.NewConditionEvaluator()
	if err != nil {
		return fmt.Errorf("failed to build condition evaluator: %w", err)
	}

	triggerEvaluator := usecases.NewTriggerEvaluator(contractRepo, conditionEvaluator, notifier, nil)
	contractUsecase := usecases.NewContractUsecase(contractRepo, verifier, triggerEvaluator, nil)
	escrowUsecase := usecases.NewEscrowUsecase(contractRepo, triggerEvaluator, nil)
	milestoneUsecase := usecases.NewMilestoneUsecase(contractRepo, triggerEvaluator, nil)
	disputeUsecase := usecases.NewDisputeUsecase(contractRepo, triggerEvaluator, nil)

	authHandler := handlers.NewAuthHandler(jwtService)
	contractHandler := handlers.NewContractHandler(contractUsecase)
	escrowHandler := handlers.NewEscrowHandler(escrowUsecase)
	milestoneHandler := handlers.NewMilestoneHandler(milestoneUsecase)
	disputeHandler := handlers.NewDisputeHandler(disputeUsecase)

	// Start background jobs
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweepJob := jobs.NewTriggerSweepJob(triggerEvaluator, cfg.Engine.SweepInterval)
	go sweepJob.Start(ctx)

	drainJob := jobs.NewExecutionDrainJob(triggerEvaluator.Queue(), cfg.Engine.DrainInterval)
	go drainJob.Start(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())

	registerHealthRoute(r)
	registerMetricsRoute(r)
	registerAPIV1Routes(r, routeDeps{
		authHandler:      authHandler,
		contractHandler:  contractHandler,
		escrowHandler:    escrowHandler,
		milestoneHandler: milestoneHandler,
		disputeHandler:   disputeHandler,
		authMiddleware:   middleware.AuthMiddleware(jwtService),
		tokenIssuer:      cfg.JWT.IssuerEnabled,
	})

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")
		sweepJob.Stop()
		drainJob.Stop()
		cancel()
	}()

	log.Printf("Escrow engine starting on port %s", cfg.Server.Port)
	log.Printf("API: http://localhost:%s/api/v1", cfg.Server.Port)

	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
