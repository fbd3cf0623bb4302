package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campus-timetable-api/api/swagger"
	"github.com/noah-isme/campus-timetable-api/internal/handler"
	"github.com/noah-isme/campus-timetable-api/internal/repository"
	"github.com/noah-isme/campus-timetable-api/internal/service"
	"github.com/noah-isme/campus-timetable-api/pkg/cache"
	"github.com/noah-isme/campus-timetable-api/pkg/config"
	"github.com/noah-isme/campus-timetable-api/pkg/database"
	"github.com/noah-isme/campus-timetable-api/pkg/logger"
)

// @title Campus Timetable API
// @version 1.0.0
// @description Timetable engine: teacher assignment, session placement, conflicts, rooms and moves.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Redis.Enabled {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		client, err := cache.NewRedis(pingCtx, cfg.Redis)
		cancel()
		if err != nil {
			logr.Warn("redis unavailable, grid cache disabled", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(client, logr)
			defer repo.Close()
			cacheRepo = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Scheduler.GridCacheTTL, logr, cacheRepo != nil)

	calendarRepo := repository.NewCalendarRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	availabilityRepo := repository.NewTeacherAvailabilityRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	conflictRepo := repository.NewConflictRepository(db)
	changeRepo := repository.NewScheduleChangeRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	validate := validator.New()
	settings := service.SchedulerSettingsFromConfig(cfg.Scheduler)

	gridSvc := service.NewGridService(calendarRepo, cacheSvc, cfg.Scheduler.GridCacheTTL, logr)
	notificationSvc := service.NewNotificationService(groupRepo, teacherRepo, notificationRepo, cfg.Notifications, logr)
	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()

	teacherProposalSvc := service.NewTeacherProposalService(gridSvc, groupRepo, groupRepo, teacherRepo, availabilityRepo, sessionRepo, db, metrics, settings, validate, logr)
	plannerSvc := service.NewSessionPlannerService(gridSvc, groupRepo, teacherRepo, availabilityRepo, sessionRepo, sessionRepo, db, metrics, settings, validate, logr)
	conflictSvc := service.NewConflictService(sessionRepo, conflictRepo, db, metrics, validate, logr)
	roomSvc := service.NewRoomAssignmentService(gridSvc, sessionRepo, groupRepo, roomRepo, sessionRepo, db, metrics, validate, logr)
	changeSvc := service.NewSessionChangeService(gridSvc, sessionRepo, changeRepo, teacherRepo, notificationSvc, db, metrics, validate, logr)
	historySvc := service.NewSessionHistoryService(sessionRepo, changeRepo)
	bulkSvc := service.NewBulkSessionService(gridSvc, sessionRepo, changeRepo, db, validate, logr)
	loadSvc := service.NewTeacherLoadService(gridSvc, teacherRepo, sessionRepo, settings, validate, logr)
	weeklyGridSvc := service.NewWeeklyGridService(gridSvc, sessionRepo, validate, logr)

	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
	})

	router := newRouter(cfg, logr, authSvc, metrics, handlers{
		proposals: handler.NewProposalHandler(teacherProposalSvc, plannerSvc),
		conflicts: handler.NewConflictHandler(conflictSvc),
		rooms:     handler.NewRoomHandler(roomSvc),
		sessions:  handler.NewSessionHandler(changeSvc, historySvc, bulkSvc),
		timetable: handler.NewTimetableHandler(loadSvc, weeklyGridSvc),
		metrics:   handler.NewMetricsHandler(metrics, db, cacheSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
