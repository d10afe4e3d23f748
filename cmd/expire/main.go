package main

import (
	"context"
	"log"
	"time"

	"lessonbook/internal/config"
	"lessonbook/internal/database"
	"lessonbook/internal/modules/booking"
	"lessonbook/internal/pkg/logger"
	"lessonbook/internal/repository"

	"go.uber.org/zap"
)

// Cancels unpaid pending bookings older than BOOKING_TTL. Meant to run from
// cron; it goes through the booking lifecycle so the freed slots are released
// the same way a manual cancellation releases them.
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

	bookingRepo := repository.NewBookingRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	svc := booking.NewService(bookingRepo, slotRepo, paymentRepo, paymentRepo,
		booking.DeferRefundPolicy{}, nil, zl)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := svc.ExpirePending(ctx, cfg.BookingTTL)
	if err != nil {
		zl.Fatal("expiry sweep failed", zap.Error(err))
	}
	zl.Info("expiry sweep completed", zap.Int("cancelled", n), zap.Duration("ttl", cfg.BookingTTL))
}
