// Package repotest opens throwaway in-memory databases for package tests.
package repotest

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

// NewRepo returns a repo over a fresh, migrated sqlite database. A single
// connection keeps every statement on the same in-memory database.
func NewRepo(t testing.TB) *repo.GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return repo.New(db)
}

func SeedUser(t testing.TB, r *repo.GormRepo, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         models.RoleUser,
	}
	require.NoError(t, r.DB.Create(u).Error)
	return u
}

func SeedProduct(t testing.TB, r *repo.GormRepo, name, price string) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Type:        models.ProductTypeOneTime,
	}
	require.NoError(t, r.DB.Create(p).Error)
	return p
}
