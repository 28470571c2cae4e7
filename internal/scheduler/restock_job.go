package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/krishisetu/krishisetu/internal/modules/alerts"
	"github.com/krishisetu/krishisetu/internal/modules/retailers"
)

// Shop stock at or below this level triggers a restock alert.
const restockThresholdKg = 25.0

// ShopDirectory lists retailer profiles and shop inventory.
// Implemented by *retailers.Repository.
type ShopDirectory interface {
	ListProfiles() ([]retailers.Profile, error)
	ListItems(retailerID int64) ([]retailers.Item, error)
}

// SupplyReader totals mandi stock for an item across all mandis.
// Implemented by *mandis.Repository.
type SupplyReader interface {
	TotalStock(itemName string) (float64, error)
}

// RetailerRestockJob checks every shop's inventory against the restock
// threshold and alerts owners, noting how much mandi supply is available.
type RetailerRestockJob struct {
	shops  ShopDirectory
	supply SupplyReader
	alerts AlertSink
	log    zerolog.Logger
}

// NewRetailerRestockJob creates the daily restock check job.
func NewRetailerRestockJob(shops ShopDirectory, supply SupplyReader, sink AlertSink, log zerolog.Logger) *RetailerRestockJob {
	return &RetailerRestockJob{
		shops:  shops,
		supply: supply,
		alerts: sink,
		log:    log.With().Str("job", "retailer_demand").Logger(),
	}
}

// Name returns the job name.
func (j *RetailerRestockJob) Name() string {
	return "retailer_demand"
}

// Run scans shop inventories and stores a warning per low item.
func (j *RetailerRestockJob) Run() error {
	profiles, err := j.shops.ListProfiles()
	if err != nil {
		return fmt.Errorf("failed to list retailer profiles: %w", err)
	}

	flagged := 0
	for _, p := range profiles {
		items, err := j.shops.ListItems(p.ID)
		if err != nil {
			j.log.Warn().Err(err).Int64("retailer_id", p.ID).Msg("Failed to list shop items")
			continue
		}

		var drafts []alerts.NewAlert
		for _, item := range items {
			if item.QuantityKg > restockThresholdKg {
				continue
			}

			available, err := j.supply.TotalStock(item.ItemName)
			if err != nil {
				j.log.Warn().Err(err).Str("item", item.ItemName).Msg("Failed to total mandi stock")
				continue
			}

			var msg string
			if available > 0 {
				msg = fmt.Sprintf("Stock for %s is down to %.0f kg. Mandis currently hold %.0f kg.",
					item.ItemName, item.QuantityKg, available)
			} else {
				msg = fmt.Sprintf("Stock for %s is down to %.0f kg and no mandi stock is listed.",
					item.ItemName, item.QuantityKg)
			}
			drafts = append(drafts, alerts.NewAlert{Message: msg, Severity: alerts.SeverityWarning})
		}

		if len(drafts) == 0 {
			continue
		}
		if _, err := j.alerts.CreateBatch(p.UserID, drafts); err != nil {
			j.log.Warn().Err(err).Int64("user_id", p.UserID).Msg("Failed to store restock alerts")
			continue
		}
		flagged += len(drafts)
	}

	j.log.Info().
		Int("shops", len(profiles)).
		Int("items_flagged", flagged).
		Msg("Restock check completed")
	return nil
}
