// Package main seeds the database with demo accounts for local development:
// one user per role, a couple of registered crops for the farmer, mandi
// inventory and shop stock. Safe to run repeatedly; existing usernames are
// skipped.
package main

import (
	"github.com/rs/zerolog"

	"github.com/krishisetu/krishisetu/internal/config"
	"github.com/krishisetu/krishisetu/internal/di"
	"github.com/krishisetu/krishisetu/internal/modules/auth"
	"github.com/krishisetu/krishisetu/internal/modules/farmers"
	"github.com/krishisetu/krishisetu/pkg/logger"
)

const demoPassword = "krishi123"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.DB.Close()

	seedFarmer(container, log)
	seedMandiOwner(container, log)
	seedRetailer(container, log)
	seedAdmin(container, log)

	counts, err := container.AuthRepo.CountUsersByRole()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to count users")
	}
	log.Info().
		Str("password", demoPassword).
		Interface("users", counts).
		Msg("Demo accounts ready")
}

// registerUser creates an account unless the username already exists.
// Returns nil when the user was skipped.
func registerUser(c *di.Container, log zerolog.Logger, username, role, contact string, lat, lng float64) *auth.User {
	existing, err := c.AuthRepo.GetUserByUsername(username)
	if err != nil {
		log.Fatal().Err(err).Str("username", username).Msg("Failed to look up user")
	}
	if existing != nil {
		log.Info().Str("username", username).Str("role", role).Msg("User exists, skipping")
		return nil
	}

	user, err := c.AuthService.Register(username, demoPassword, role, contact, lat, lng)
	if err != nil {
		log.Fatal().Err(err).Str("username", username).Msg("Failed to register user")
	}
	log.Info().Str("username", username).Str("role", role).Int64("user_id", user.ID).Msg("User created")
	return user
}

func seedFarmer(c *di.Container, log zerolog.Logger) {
	user := registerUser(c, log, "ramesh", auth.RoleFarmer, "+91 98450 00001", 12.97, 77.59)
	if user == nil {
		return
	}

	if err := c.FarmersRepo.CreateProfile(user.ID, "kn"); err != nil {
		log.Fatal().Err(err).Msg("Failed to create farmer profile")
	}
	profile, err := c.FarmersRepo.GetProfileByUserID(user.ID)
	if err != nil || profile == nil {
		log.Fatal().Err(err).Msg("Failed to load farmer profile")
	}

	for _, crop := range []farmers.Crop{
		{FarmerID: profile.ID, Name: "tomato", QuantityKg: 120, PlantedDate: "2026-06-15"},
		{FarmerID: profile.ID, Name: "onion", QuantityKg: 80, PlantedDate: "2026-05-20"},
	} {
		if _, err := c.FarmersRepo.AddCrop(&crop); err != nil {
			log.Fatal().Err(err).Str("crop", crop.Name).Msg("Failed to add crop")
		}
	}
	log.Info().Int64("farmer_id", profile.ID).Msg("Farmer seeded with 2 crops")
}

func seedMandiOwner(c *di.Container, log zerolog.Logger) {
	user := registerUser(c, log, "lakshmi", auth.RoleMandiOwner, "+91 98450 00002", 12.9634, 77.5779)
	if user == nil {
		return
	}

	if err := c.MandisRepo.CreateProfile(user.ID, "KR Market Mandi"); err != nil {
		log.Fatal().Err(err).Msg("Failed to create mandi profile")
	}
	profile, err := c.MandisRepo.GetProfileByUserID(user.ID)
	if err != nil || profile == nil {
		log.Fatal().Err(err).Msg("Failed to load mandi profile")
	}

	stock := map[string]float64{"tomato": 500, "onion": 350, "potato": 400}
	for item, qty := range stock {
		if err := c.MandisRepo.UpsertItem(profile.ID, item, qty); err != nil {
			log.Fatal().Err(err).Str("item", item).Msg("Failed to add mandi item")
		}
	}
	log.Info().Int64("mandi_owner_id", profile.ID).Int("items", len(stock)).Msg("Mandi seeded")
}

func seedRetailer(c *di.Container, log zerolog.Logger) {
	user := registerUser(c, log, "suresh", auth.RoleRetailer, "+91 98450 00003", 12.9352, 77.6245)
	if user == nil {
		return
	}

	if err := c.RetailersRepo.CreateProfile(user.ID, "Suresh Provision Store"); err != nil {
		log.Fatal().Err(err).Msg("Failed to create retailer profile")
	}
	profile, err := c.RetailersRepo.GetProfileByUserID(user.ID)
	if err != nil || profile == nil {
		log.Fatal().Err(err).Msg("Failed to load retailer profile")
	}

	// Potato sits below the restock threshold so the demand sweep has
	// something to flag.
	stock := map[string]float64{"tomato": 40, "potato": 15}
	for item, qty := range stock {
		if err := c.RetailersRepo.UpsertItem(profile.ID, item, qty); err != nil {
			log.Fatal().Err(err).Str("item", item).Msg("Failed to add shop item")
		}
	}
	log.Info().Int64("retailer_id", profile.ID).Int("items", len(stock)).Msg("Retailer seeded")
}

func seedAdmin(c *di.Container, log zerolog.Logger) {
	registerUser(c, log, "admin", auth.RoleAdmin, "", 0, 0)
}
