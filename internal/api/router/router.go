package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"manabi/backend/config"
	"manabi/backend/internal/api/handler"
	"manabi/backend/internal/api/middleware"
	"manabi/backend/pkg/jwt"
	"manabi/backend/pkg/redis"
)

// 请求体上限与接口限流参数
const (
	maxBodyBytes    = 1 << 20
	rateLimitPerMin = 120
)

// Setup 初始化并返回 Gin 路由引擎
// gatherer 为 nil 时不暴露 /metrics
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) *gin.Engine {
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 / 指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb, cfg.Auth.BypassUserID, logger))
	v1.Use(middleware.RateLimit(rdb, rateLimitPerMin, time.Minute))
	{
		// 认证模块
		v1.POST("/auth/logout", h.Auth.Logout)

		// 复习提醒
		reminders := v1.Group("/reminders")
		{
			reminders.GET("/today", h.Reminder.GetTodayReminders)
			reminders.PUT("/:id/status", h.Reminder.UpdateStatus)
			reminders.GET("/export", h.Export.ExportReminders)
			reminders.GET("/calendar.ics", h.Export.ReminderCalendar)
			reminders.POST("/dispatch", middleware.RoleAuth("admin"), h.Reminder.Dispatch)
		}

		// 提醒设置
		settings := v1.Group("/reminder-settings")
		{
			settings.GET("", h.ReminderSettings.GetSettings)
			settings.PUT("", h.ReminderSettings.UpdateSettings)
		}

		// 学习记录
		records := v1.Group("/learning-records")
		{
			records.POST("", h.LearningRecord.CreateRecord)
			records.GET("", h.LearningRecord.ListRecords)
			records.GET("/:id", h.LearningRecord.GetRecord)
		}
	}

	return r
}
