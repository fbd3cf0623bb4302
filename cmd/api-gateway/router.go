package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/campus-timetable-api/internal/middleware"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/service"
	"github.com/noah-isme/campus-timetable-api/pkg/config"
	"github.com/noah-isme/campus-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-timetable-api/pkg/middleware/requestid"
)

type handlers struct {
	proposals *handler.ProposalHandler
	conflicts *handler.ConflictHandler
	rooms     *handler.RoomHandler
	sessions  *handler.SessionHandler
	timetable *handler.TimetableHandler
	metrics   *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, auth *service.AuthService, metrics *service.MetricsService, h handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	editors := internalmiddleware.RequireRoles(models.RoleManager, models.RoleStaff)

	api := r.Group(cfg.APIPrefix, internalmiddleware.JWT(auth))
	scheduling := api.Group("/scheduling")
	{
		scheduling.POST("/teacher-proposals", editors, h.proposals.TeacherProposals)
		scheduling.POST("/session-proposals", editors, h.proposals.SessionProposals)

		scheduling.POST("/conflicts/detect", editors, h.conflicts.Detect)
		scheduling.GET("/conflicts", h.conflicts.List)
		scheduling.POST("/conflicts/:id/resolve", editors, h.conflicts.Resolve)

		scheduling.POST("/rooms/assign", editors, h.rooms.Assign)

		scheduling.POST("/sessions/move", editors, h.sessions.Move)
		scheduling.POST("/sessions/bulk", editors, h.sessions.BulkCreate)
		scheduling.PUT("/sessions/bulk", editors, h.sessions.BulkUpdate)
		scheduling.POST("/sessions/bulk-delete", editors, h.sessions.BulkDelete)
		scheduling.PATCH("/sessions/:id/substitute", editors, h.sessions.Substitute)
		scheduling.GET("/sessions/:id/changes", h.sessions.History)

		scheduling.GET("/teacher-loads", h.timetable.TeacherLoads)
		scheduling.POST("/grid", h.timetable.WeeklyGrid)
	}

	return r
}
