package config

import (
	"log"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/core/domain"
	"openshelf/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedAdminUser(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}
	if err := s.seedStarterCatalog(); err != nil {
		log.Printf("⚠️ Catalog seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminUser seeds default admin account
// In production, rotate the password immediately after first login
func (s *Seeder) seedAdminUser() error {
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", domain.RoleAdmin).Count(&count)
	if count > 0 {
		return nil // Admin already exists
	}

	hashedPassword, err := password.Hash(getEnv("ADMIN_PASSWORD", "admin123456"))
	if err != nil {
		return err
	}

	admin := &models.User{
		Username:      getEnv("ADMIN_USERNAME", "admin"),
		Email:         getEnv("ADMIN_EMAIL", "admin@openshelf.local"),
		Password:      hashedPassword,
		Role:          string(domain.RoleAdmin),
		AccountStatus: domain.AccountActive,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Username)
	return nil
}

// seedStarterCatalog seeds a small starter catalog so a fresh install
// has something to show (dev convenience, skipped when books exist)
func (s *Seeder) seedStarterCatalog() error {
	var count int64
	s.db.Model(&models.Book{}).Count(&count)
	if count > 0 {
		return nil
	}

	books := []models.Book{
		{Title: "The Go Programming Language", Author: "Alan A. A. Donovan", Category: "Programming", Description: "The authoritative resource for Go.", TotalCopies: 3, CopiesAvailable: 3},
		{Title: "Clean Architecture", Author: "Robert C. Martin", Category: "Software Engineering", Description: "A craftsman's guide to software structure.", TotalCopies: 2, CopiesAvailable: 2},
		{Title: "Designing Data-Intensive Applications", Author: "Martin Kleppmann", Category: "Databases", Description: "Ideas behind reliable, scalable systems.", TotalCopies: 2, CopiesAvailable: 2},
	}

	if err := s.db.Create(&books).Error; err != nil {
		return err
	}

	log.Printf("✅ Starter catalog seeded: %d books", len(books))
	return nil
}
