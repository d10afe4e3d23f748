package main

import (
	"log"

	"lessonbook/internal/config"
	"lessonbook/internal/database"
	"lessonbook/internal/domain"
	"lessonbook/internal/gateway"
	"lessonbook/internal/middleware"
	"lessonbook/internal/modules/auth"
	"lessonbook/internal/modules/availability"
	"lessonbook/internal/modules/booking"
	"lessonbook/internal/modules/notify"
	"lessonbook/internal/modules/payment"
	"lessonbook/internal/modules/refund"
	jwtsvc "lessonbook/internal/pkg/jwt"
	"lessonbook/internal/pkg/logger"
	"lessonbook/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zl := logger.New(cfg.AppEnv)
	defer zl.Sync()

	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		zl.Fatal("db connect failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zl.Fatal("db migrate failed", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	hub := notify.NewHub()
	notifySvc := notify.NewService(notify.NewRepository(db), hub, zl)
	notifyHandler := notify.NewHandler(notifySvc, hub, zl)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)
	authSvc := auth.NewService(userRepo, j)
	authHandler := auth.NewHandler(authSvc)

	var gw gateway.Adapter
	if cfg.GatewayName == "http" {
		gw = gateway.NewHTTPAdapter(cfg.GatewayBaseURL, cfg.GatewaySecret, cfg.GatewayTimeout, zl)
	} else {
		gw = gateway.NewSandbox()
	}

	refundSvc := refund.NewService(paymentRepo, gw, notifySvc, zl, cfg.GatewayTimeout)
	refundHandler := refund.NewHandler(refundSvc)

	var policy booking.CancellationPolicy = booking.DeferRefundPolicy{}
	if cfg.CancellationPolicy == "auto" {
		policy = booking.AutoRefundPolicy{Refunds: refundSvc}
	}

	bookingSvc := booking.NewService(bookingRepo, slotRepo, paymentRepo, paymentRepo, policy, notifySvc, zl)
	bookingHandler := booking.NewHandler(bookingSvc)

	paymentSvc := payment.NewService(paymentRepo, bookingRepo, bookingSvc, gw, notifySvc, zl,
		cfg.GatewayName, cfg.GatewayTimeout)
	paymentHandler := payment.NewHandler(paymentSvc, cfg.GatewaySecret)

	availabilitySvc := availability.NewService(slotRepo, userRepo, zl)
	availabilityHandler := availability.NewHandler(availabilitySvc)

	if cfg.AppEnv == "prod" || cfg.AppEnv == "production" || cfg.AppEnv == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(zl))

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterPublicRoutes(v1)
		availabilityHandler.RegisterPublicRoutes(v1)
		paymentHandler.RegisterWebhook(v1)

		protected := v1.Group("")
		protected.Use(middleware.Auth(j))
		{
			authHandler.RegisterRoutes(protected)
			bookingHandler.RegisterRoutes(protected)
			paymentHandler.RegisterRoutes(protected)
			notifyHandler.RegisterRoutes(protected)

			teacher := protected.Group("")
			teacher.Use(middleware.RequireRole(domain.RoleTeacher))
			{
				availabilityHandler.RegisterTeacherRoutes(teacher)
				refundHandler.RegisterRoutes(teacher)
			}
		}
	}

	zl.Info("starting api",
		zap.String("addr", cfg.ListenAddr),
		zap.String("gateway", cfg.GatewayName),
		zap.String("cancellation_policy", cfg.CancellationPolicy),
	)
	if err := r.Run(cfg.ListenAddr); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}
