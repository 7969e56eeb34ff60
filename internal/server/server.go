package server

import (
	"context"
	"net/http"

	"gymshood/internal/attendance"
	"gymshood/internal/auth"
	"gymshood/internal/billing"
	"gymshood/internal/checkin"
	"gymshood/internal/config"
	"gymshood/internal/email"
	"gymshood/internal/gym"
	"gymshood/internal/membership"
	"gymshood/internal/occupancy"
	"gymshood/internal/payment"
	"gymshood/internal/plan"
	"gymshood/internal/user"
	"gymshood/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	router *gin.Engine
	db     *sqlx.DB
	config *config.Config
	email  *email.Service
	http   *http.Server
}

func New(db *sqlx.DB, cfg *config.Config, emailService *email.Service, rdb *redis.Client, gateway payment.Gateway) *Server {
	router := gin.Default()
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RateLimitMiddleware(50, 100))

	gymRepo := gym.NewRepository(db)
	planRepo := plan.NewRepository(db)
	membershipRepo := membership.NewRepository(db)
	walletRepo := wallet.NewRepository(db)
	userRepo := user.NewRepository(db)
	occupancyRepo := occupancy.NewRepository(db)
	billingRepo := billing.NewRepository(db)

	attendanceService := attendance.NewService(attendance.NewRepository(db))
	occupancyService := occupancy.NewService(occupancyRepo, gymRepo)
	billingService := billing.NewService(
		billingRepo, membershipRepo, walletRepo, planRepo, gymRepo, userRepo,
		occupancyRepo, gateway, emailService, rdb,
		cfg.PaymentKeySecret, cfg.AnalyticsCacheTTL,
	)
	checkinService := checkin.NewService(
		membershipRepo, attendanceService, occupancyService, gymRepo, userRepo, emailService,
	)

	userHandler := user.NewHandler(db, cfg.JWTSecret)
	gymHandler := gym.NewHandler(db)
	planHandler := plan.NewHandler(db)
	membershipHandler := membership.NewHandler(db)
	attendanceHandler := attendance.NewHandler(db)
	occupancyHandler := occupancy.NewHandler(db)
	walletHandler := wallet.NewHandler(db)
	billingHandler := billing.NewHandler(billingService, gymRepo)
	checkinHandler := checkin.NewHandler(checkinService)

	public := router.Group("/auth")
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.Refresh)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)
		protected.PUT("/me/location", userHandler.UpdateLocation)

		protected.GET("/gyms", gymHandler.ListGyms)
		protected.GET("/gyms/nearby", gymHandler.ListNearby)
		protected.GET("/gyms/:id", gymHandler.GetGym)
		protected.GET("/gyms/:id/plans", planHandler.ListPlans)
		protected.GET("/gyms/:id/shifts", gymHandler.ListShifts)
		protected.GET("/gyms/:id/capacity", occupancyHandler.GetCapacity)

		protected.POST("/purchases", billingHandler.InitiatePurchase)
		protected.POST("/purchases/verify", billingHandler.VerifyPurchase)
		protected.GET("/memberships", membershipHandler.ListMine)

		protected.POST("/checkin", checkinHandler.CheckIn)
		protected.POST("/checkout", checkinHandler.CheckOut)
		protected.GET("/streak", attendanceHandler.GetStreak)
		protected.GET("/heatmap", attendanceHandler.GetHeatmap)

		protected.GET("/wallet/transactions", walletHandler.ListTransactions)
		protected.GET("/wallet/balance", walletHandler.GetBalance)
	}

	ownerMiddleware := auth.RequireRole(auth.RoleOwner, auth.RoleAdmin)
	owner := router.Group("/owner")
	owner.Use(authMiddleware, ownerMiddleware)
	{
		owner.POST("/gyms", gymHandler.CreateGym)
		owner.POST("/gyms/:id/shifts", gymHandler.AddShift)
		owner.POST("/gyms/:id/plans", planHandler.CreatePlan)
		owner.PATCH("/plans/:id/toggle", planHandler.TogglePlan)
		owner.GET("/gyms/:id/members", membershipHandler.ListActiveByGym)
		owner.GET("/gyms/:id/register", occupancyHandler.GetDayRegister)
		owner.GET("/gyms/:id/revenue", billingHandler.GetRevenue)
		owner.GET("/gyms/:id/earnings", billingHandler.GetDailyEarnings)
	}

	adminMiddleware := auth.RequireRole(auth.RoleAdmin)
	admin := router.Group("/admin")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.GET("/gyms/unverified", gymHandler.ListUnverified)
		admin.PATCH("/gyms/:id/verify", gymHandler.VerifyGym)
		admin.POST("/entitlements/:id/refund", billingHandler.RefundEntitlement)
		admin.POST("/sweeps/entitlements", membershipHandler.RunSweep)
		admin.POST("/sweeps/visits", occupancyHandler.RunSweep)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	router.GET("/test-email", TestEmail(emailService))

	return &Server{
		router: router,
		db:     db,
		config: cfg,
		email:  emailService,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
