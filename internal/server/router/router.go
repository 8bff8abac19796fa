package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/supto/pharmacy-buddy/internal/domain/models"
	"github.com/supto/pharmacy-buddy/internal/realtime"
	"github.com/supto/pharmacy-buddy/internal/server/handlers"
	"github.com/supto/pharmacy-buddy/internal/server/middleware"
	"github.com/supto/pharmacy-buddy/internal/service/auth"
)

// Handlers bundles every HTTP adapter the router mounts.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Medicines *handlers.MedicineHandler
	Sales     *handlers.SaleHandler
	Purchases *handlers.PurchaseHandler
	Requests  *handlers.RequestHandler
	Users     *handlers.UserHandler
	Dashboard *handlers.DashboardHandler
	Data      *handlers.DataHandler
}

// New wires the Gin engine with all routes and middlewares. Every /api route
// runs behind authentication; write routes additionally declare their
// allowed-role sets.
func New(h Handlers, authSvc *auth.Service, hub *realtime.Hub, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/ws", func(c *gin.Context) {
		hub.Serve(c.Writer, c.Request)
	})

	authed := r.Group("/api")
	authed.Use(middleware.Authenticate(authSvc, logger))

	anyRole := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleViewer)
	staffUp := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	authRoutes := authed.Group("/auth")
	{
		authRoutes.POST("/login", h.Auth.Login)
		authRoutes.GET("/me", h.Auth.Me)
		authRoutes.GET("/verify", h.Auth.Verify)
	}

	medicines := authed.Group("/medicines")
	{
		medicines.GET("", anyRole, h.Medicines.List)
		medicines.GET("/meta/categories", anyRole, h.Medicines.Categories)
		medicines.GET("/:id", anyRole, h.Medicines.Get)
		medicines.POST("", adminOnly, h.Medicines.Create)
		medicines.POST("/import", adminOnly, h.Medicines.Import)
		medicines.PUT("/:id", adminOnly, h.Medicines.Update)
		medicines.DELETE("/:id", adminOnly, h.Medicines.Delete)
	}

	sales := authed.Group("/sales")
	{
		sales.GET("", anyRole, h.Sales.List)
		sales.GET("/:id", anyRole, h.Sales.Get)
		sales.GET("/staff/:staffId", adminOnly, h.Sales.ByStaff)
		sales.POST("", staffUp, h.Sales.Create)
	}

	purchases := authed.Group("/purchases")
	{
		purchases.GET("", adminOnly, h.Purchases.List)
		purchases.GET("/:id", adminOnly, h.Purchases.Get)
		purchases.POST("", adminOnly, h.Purchases.Create)
	}

	requests := authed.Group("/requests")
	{
		requests.GET("", staffUp, h.Requests.List)
		requests.GET("/pending-count", adminOnly, h.Requests.PendingCount)
		requests.GET("/:id", staffUp, h.Requests.Get)
		requests.POST("", staffUp, h.Requests.Create)
		requests.PATCH("/:id", adminOnly, h.Requests.Transition)
	}

	users := authed.Group("/users", adminOnly)
	{
		users.GET("", h.Users.List)
		users.GET("/list/staff", h.Users.StaffList)
		users.GET("/:id", h.Users.Get)
		users.PATCH("/:id/role", h.Users.UpdateRole)
		users.PATCH("/:id/status", h.Users.UpdateStatus)
	}

	dashboard := authed.Group("/dashboard", adminOnly)
	{
		dashboard.GET("/summary", h.Dashboard.Summary)
		dashboard.GET("/monthly-stats", h.Dashboard.MonthlyStats)
		dashboard.GET("/top-medicines", h.Dashboard.TopMedicines)
		dashboard.GET("/staff-performance", h.Dashboard.StaffPerformance)
		dashboard.GET("/recent-transactions", h.Dashboard.RecentTransactions)
	}

	data := authed.Group("/data", adminOnly)
	{
		data.GET("/export", h.Data.Export)
		data.DELETE("/erase", h.Data.Erase)
	}

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
