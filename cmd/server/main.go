package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"csecv/internal/auth"
	"csecv/internal/config"
	"csecv/internal/domain"
	apphttp "csecv/internal/http"
	"csecv/internal/repository/sqlite"
	"csecv/internal/seed"
	"csecv/internal/service"
	"csecv/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if strings.TrimSpace(cfg.Auth.SessionSecret) == "" {
		logger.Fatalf("auth session secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	topicRepo := sqlite.NewTopicRepository(db)
	newsRepo := sqlite.NewNewsRepository(db)
	courseRepo := sqlite.NewCourseRepository(db)
	questionRepo := sqlite.NewQuestionRepository(db)

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := topicRepo.Init(ctx); err != nil {
		logger.Fatalf("init topic repository: %v", err)
	}
	if err := newsRepo.Init(ctx); err != nil {
		logger.Fatalf("init news repository: %v", err)
	}
	if err := courseRepo.Init(ctx); err != nil {
		logger.Fatalf("init course repository: %v", err)
	}
	if err := questionRepo.Init(ctx); err != nil {
		logger.Fatalf("init question repository: %v", err)
	}

	owners := domain.NewOwnerList(cfg.OwnerEmails())
	userService := service.NewUserService(userRepo, owners)
	contentService := service.NewContentService(topicRepo, newsRepo, courseRepo, questionRepo)

	importer := seed.NewImporter(topicRepo, newsRepo, courseRepo, questionRepo, logger)
	if err := importer.Import(ctx, cfg.Seed.Path); err != nil {
		logger.Warnf("import seed data: %v", err)
	}

	assets, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}

	codec := auth.NewCodec(cfg.Auth.SessionSecret, time.Duration(cfg.Auth.SessionTTLHours)*time.Hour)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(
		userService,
		contentService,
		codec,
		assets,
		cfg.Storage.Bucket,
		cfg.Storage.KeyPrefix,
		logger,
	)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		logger.Info("no storage bucket configured, asset uploads disabled")
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
