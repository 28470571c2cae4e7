package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/krishisetu/krishisetu/internal/modules/advisory"
	"github.com/krishisetu/krishisetu/internal/modules/alerts"
	"github.com/krishisetu/krishisetu/internal/modules/auth"
	"github.com/krishisetu/krishisetu/internal/modules/farmers"
	"github.com/krishisetu/krishisetu/internal/modules/mandis"
	"github.com/krishisetu/krishisetu/internal/modules/retailers"
	"github.com/krishisetu/krishisetu/internal/modules/settings"
)

// InitializeRepositories creates all repositories and stores them in the container.
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil || container.DB == nil {
		return fmt.Errorf("container with open database required")
	}

	conn := container.DB.Conn()

	container.AuthRepo = auth.NewRepository(conn, log)
	container.FarmersRepo = farmers.NewRepository(conn, log)
	container.MandisRepo = mandis.NewRepository(conn, log)
	container.RetailersRepo = retailers.NewRepository(conn, log)
	container.SettingsRepo = settings.NewRepository(conn, log)
	container.AlertsRepo = alerts.NewRepository(conn, log)
	container.SnapshotRepo = advisory.NewSnapshotRepository(conn, log)

	return nil
}
