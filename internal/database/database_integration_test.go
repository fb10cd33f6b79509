//go:build integration

package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"equity/internal/config"
	"equity/internal/models"
)

func TestPostgresMigrations(t *testing.T) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("equity"),
		postgres.WithUsername("equity"),
		postgres.WithPassword("equity"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	}()

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	m, err := NewManager(config.DatabaseConfig{
		Driver:         "postgres",
		Host:           host,
		Port:           port.Port(),
		User:           "equity",
		Password:       "equity",
		Name:           "equity",
		SSLMode:        "disable",
		MigrationsPath: "file://../../migrations",
	})
	require.NoError(t, err)
	defer func() { _ = m.Close() }()

	require.NoError(t, m.RunMigrations())
	require.NoError(t, m.RunMigrations(), "second run must be a no-op")
	require.NoError(t, m.Ping(ctx))

	user := &models.User{Email: "pg@example.com", SubscriptionStatus: models.SubscriptionInactive}
	require.NoError(t, m.DB().Create(user).Error)

	asset := &models.Asset{UserID: user.ID, SectorType: "Tech", Name: "ACME", Price: 10, AcquisitionPrice: 8, Amount: 2, Value: 20, ProfitLoss: 4, ProfitLossPercentage: 25}
	require.NoError(t, m.DB().Create(asset).Error)

	var stored models.Asset
	require.NoError(t, m.DB().Where("id = ? AND user_id = ?", asset.ID, user.ID).First(&stored).Error)
	require.Nil(t, stored.PE)
	require.Equal(t, 20.0, stored.Value)
}
