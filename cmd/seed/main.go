package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"lessonbook/internal/database"
	"lessonbook/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "lessonbook.db"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	// Cleanup old data (in safe order to avoid foreign key errors)
	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM notifications")
	db.Exec("DELETE FROM refund_records")
	db.Exec("DELETE FROM payments")
	db.Exec("DELETE FROM availability_slots")
	db.Exec("DELETE FROM bookings")
	db.Exec("DELETE FROM users")

	log.Println("Creating users...")

	adminHash, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	admin := domain.User{
		Email:        "admin@lessonbook.sa",
		PasswordHash: string(adminHash),
		Role:         domain.RoleAdmin,
		Name:         "Admin",
	}
	db.Create(&admin)
	log.Println("Admin created: admin@lessonbook.sa / admin123")

	teachers := []domain.User{}
	teacherSeeds := []struct {
		email string
		name  string
		rate  int64 // halalas per hour
	}{
		{"noura.math@lessonbook.sa", "Noura (Mathematics)", 15000},
		{"faisal.physics@lessonbook.sa", "Faisal (Physics)", 18000},
		{"layla.english@lessonbook.sa", "Layla (English)", 12000},
	}
	for i, t := range teacherSeeds {
		hash, _ := bcrypt.GenerateFromPassword([]byte("teacher123"), bcrypt.DefaultCost)
		teacher := domain.User{
			Email:           t.email,
			PasswordHash:    string(hash),
			Role:            domain.RoleTeacher,
			Name:            t.name,
			Phone:           fmt.Sprintf("+966 50 123 45%02d", i+10),
			HourlyRateMinor: t.rate,
		}
		db.Create(&teacher)
		teachers = append(teachers, teacher)
		log.Printf("Teacher created: %s / teacher123", t.email)
	}

	studentEmails := []string{"sara@example.com", "omar@example.com", "huda@example.com"}
	for i, email := range studentEmails {
		hash, _ := bcrypt.GenerateFromPassword([]byte("student123"), bcrypt.DefaultCost)
		student := domain.User{
			Email:        email,
			PasswordHash: string(hash),
			Role:         domain.RoleStudent,
			Name:         fmt.Sprintf("Student %d", i+1),
			Phone:        fmt.Sprintf("+966 55 987 65%02d", i+30),
		}
		db.Create(&student)
		log.Printf("Student created: %s / student123", email)
	}

	log.Println("Publishing availability...")
	windows := []struct{ start, end string }{
		{"09:00", "10:00"},
		{"10:00", "11:00"},
		{"16:00", "17:00"},
		{"17:00", "18:00"},
	}
	slots := 0
	for day := 1; day <= 7; day++ {
		date := time.Now().UTC().AddDate(0, 0, day)
		dateStr := date.Format("2006-01-02")
		for _, teacher := range teachers {
			for _, w := range windows {
				start, _ := time.Parse("2006-01-02 15:04", dateStr+" "+w.start)
				end, _ := time.Parse("2006-01-02 15:04", dateStr+" "+w.end)
				slot := domain.AvailabilitySlot{
					TeacherID:  teacher.ID,
					Date:       dateStr,
					StartTime:  start,
					EndTime:    end,
					Status:     domain.SlotAvailable,
					PriceMinor: teacher.HourlyRateMinor,
				}
				db.Create(&slot)
				slots++
			}
		}
	}
	log.Printf("Seed completed: %d teachers, %d slots over 7 days", len(teachers), slots)
}
