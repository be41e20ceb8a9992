// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/BruksfildServices01/marketplace/internal/db"
	"github.com/BruksfildServices01/marketplace/internal/models"
)

// NewDB returns a migrated in-memory sqlite database private to the test.
// A single connection keeps every query on the same memory database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

// Fixture is a provider with one service and variation, plus a client.
type Fixture struct {
	Provider  models.User
	Client    models.User
	Type      models.ServiceType
	Service   models.Service
	Variation models.ServiceVariation
}

func Seed(t *testing.T, gdb *gorm.DB, price float64, durationMinutes int) Fixture {
	t.Helper()

	f := Fixture{
		Provider: models.User{Name: "Provider", Email: uuid.NewString() + "@example.com", PasswordHash: "x", Role: models.RoleProvider},
		Client:   models.User{Name: "Client", Email: uuid.NewString() + "@example.com", PasswordHash: "x", Role: models.RoleClient},
		Type:     models.ServiceType{Name: "Cleaning " + uuid.NewString()},
	}
	must(t, gdb.Create(&f.Provider).Error)
	must(t, gdb.Create(&f.Client).Error)
	must(t, gdb.Create(&f.Type).Error)

	f.Service = models.Service{
		Name:          "Home cleaning",
		ServiceTypeID: f.Type.ID,
		ProviderID:    f.Provider.ID,
	}
	must(t, gdb.Omit("Variations", "Provider", "ServiceType").Create(&f.Service).Error)

	f.Variation = models.ServiceVariation{
		ServiceID:       f.Service.ID,
		Name:            "Standard",
		Price:           price,
		DurationMinutes: durationMinutes,
	}
	must(t, gdb.Create(&f.Variation).Error)
	return f
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}
