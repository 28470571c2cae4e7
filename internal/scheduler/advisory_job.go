package scheduler

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/krishisetu/krishisetu/internal/modules/advisory"
	"github.com/krishisetu/krishisetu/internal/modules/alerts"
	"github.com/krishisetu/krishisetu/internal/modules/farmers"
	"github.com/krishisetu/krishisetu/internal/modules/market"
)

// FarmerDirectory lists farmers and their registered crops.
// Implemented by *farmers.Repository. Used to enable testing with mocks.
type FarmerDirectory interface {
	ListAdvisoryTargets() ([]farmers.AdvisoryTarget, error)
	ListCrops(farmerID int64) ([]farmers.Crop, error)
}

// Advisor turns an engine result into a recommendation.
// Implemented by *advisory.Service.
type Advisor interface {
	Recommend(result *market.AnalysisResult, weather *advisory.WeatherReport, news *advisory.MarketInfo) *advisory.Recommendation
}

// AlertSink stores categorized alerts for a user.
// Implemented by *alerts.Service.
type AlertSink interface {
	CreateBatch(userID int64, drafts []alerts.NewAlert) ([]alerts.Alert, error)
}

// SnapshotStore persists analysis snapshots.
// Implemented by *advisory.SnapshotRepository.
type SnapshotStore interface {
	Save(userID int64, snap *advisory.AnalysisSnapshot) error
}

// FarmerAdvisoryJob runs the sell-timing analysis for every registered crop
// of every farmer and writes the outcome as morning alerts. Weather and
// market news are skipped here; the sweep stays deterministic and cheap.
type FarmerAdvisoryJob struct {
	farmers   FarmerDirectory
	market    *market.Service
	advisor   Advisor
	alerts    AlertSink
	snapshots SnapshotStore
	log       zerolog.Logger
}

// NewFarmerAdvisoryJob creates the daily advisory sweep job.
func NewFarmerAdvisoryJob(
	directory FarmerDirectory,
	marketSvc *market.Service,
	advisor Advisor,
	sink AlertSink,
	snapshots SnapshotStore,
	log zerolog.Logger,
) *FarmerAdvisoryJob {
	return &FarmerAdvisoryJob{
		farmers:   directory,
		market:    marketSvc,
		advisor:   advisor,
		alerts:    sink,
		snapshots: snapshots,
		log:       log.With().Str("job", "farmer_advisory").Logger(),
	}
}

// Name returns the job name.
func (j *FarmerAdvisoryJob) Name() string {
	return "farmer_advisory"
}

// Run analyzes every farmer's crops and stores alerts plus a snapshot per crop.
func (j *FarmerAdvisoryJob) Run() error {
	targets, err := j.farmers.ListAdvisoryTargets()
	if err != nil {
		return fmt.Errorf("failed to list advisory targets: %w", err)
	}

	now := time.Now()
	analyzed := 0
	created := 0

	for _, t := range targets {
		crops, err := j.farmers.ListCrops(t.FarmerID)
		if err != nil {
			j.log.Warn().Err(err).Int64("farmer_id", t.FarmerID).Msg("Failed to list crops")
			continue
		}

		origin := market.DefaultOrigin
		if t.Latitude != 0 || t.Longitude != 0 {
			origin = market.Coordinate{Lat: t.Latitude, Lng: t.Longitude}
		}

		for _, c := range crops {
			result := j.market.Analyze(origin, c.Name, c.QuantityKg, now)
			rec := j.advisor.Recommend(&result, nil, nil)

			drafts := alerts.Categorize(alerts.AnalysisInput{
				Crop:           result.Crop,
				UrgentAlerts:   rec.UrgentAlerts,
				PriceTrend:     rec.PriceTrend,
				Recommendation: rec.SpokenSummary,
			})
			stored, err := j.alerts.CreateBatch(t.UserID, drafts)
			if err != nil {
				j.log.Warn().Err(err).Int64("user_id", t.UserID).Msg("Failed to store advisory alerts")
			} else {
				created += len(stored)
			}

			snap := &advisory.AnalysisSnapshot{
				Crop:       result.Crop,
				QuantityKg: result.QuantityKg,
				Engine:     result,
				Advisory:   rec,
			}
			if err := j.snapshots.Save(t.UserID, snap); err != nil {
				j.log.Warn().
					Err(err).
					Int64("user_id", t.UserID).
					Str("crop", result.Crop).
					Msg("Failed to save analysis snapshot")
			}
			analyzed++
		}
	}

	j.log.Info().
		Int("farmers", len(targets)).
		Int("crops_analyzed", analyzed).
		Int("alerts_created", created).
		Msg("Morning advisory sweep completed")
	return nil
}
