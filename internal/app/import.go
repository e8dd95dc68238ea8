package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bobmcallan/fundlens/internal/common"
	"github.com/bobmcallan/fundlens/internal/interfaces"
	"github.com/bobmcallan/fundlens/internal/models"
)

type importFundsFile struct {
	Funds []importFund `json:"funds"`
}

type importFund struct {
	FundID           string                    `json:"fund_id"`
	Name             string                    `json:"name"`
	Category         string                    `json:"category"`
	SubCategory      string                    `json:"sub_category"`
	Holdings         []models.Holding          `json:"holdings"`
	SectorAllocation []models.SectorAllocation `json:"sector_allocation"`
	Prices           []importPrice             `json:"prices"`
}

type importPrice struct {
	Date string  `json:"date"` // YYYY-MM-DD
	NAV  float64 `json:"nav"`
}

// ImportFundsFromFile reads a funds JSON file and writes each fund and its NAV
// history through writer. Funds without an id, or whose prices fail to parse,
// are skipped. Returns (imported count, skipped count, error).
func ImportFundsFromFile(ctx context.Context, writer interfaces.FundWriter, logger *common.Logger, filePath string) (int, int, error) {
	if writer == nil {
		return 0, 0, fmt.Errorf("storage backend is read-only")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read funds file %s: %w", filePath, err)
	}

	var file importFundsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return 0, 0, fmt.Errorf("failed to parse funds file %s: %w", filePath, err)
	}

	imported, skipped := 0, 0
	for _, f := range file.Funds {
		id := strings.TrimSpace(f.FundID)
		if id == "" {
			skipped++
			continue
		}

		points, err := parsePrices(f.Prices)
		if err != nil {
			logger.Warn().Err(err).Str("fund_id", id).Msg("Invalid price history during import")
			skipped++
			continue
		}

		fund := &models.FundProjection{
			FundRef: models.FundRef{
				FundID:      id,
				Name:        f.Name,
				Category:    f.Category,
				SubCategory: f.SubCategory,
			},
			Holdings:         f.Holdings,
			SectorAllocation: f.SectorAllocation,
		}
		if err := writer.SaveFund(ctx, fund); err != nil {
			logger.Warn().Err(err).Str("fund_id", id).Msg("Failed to save fund during import")
			skipped++
			continue
		}
		if len(points) > 0 {
			if err := writer.SavePrices(ctx, id, points); err != nil {
				logger.Warn().Err(err).Str("fund_id", id).Msg("Failed to save prices during import")
				skipped++
				continue
			}
		}
		imported++
	}

	logger.Info().Int("imported", imported).Int("skipped", skipped).Str("file", filePath).Msg("Fund import complete")
	return imported, skipped, nil
}

func parsePrices(prices []importPrice) ([]models.PricePoint, error) {
	points := make([]models.PricePoint, 0, len(prices))
	for _, p := range prices {
		d, err := time.Parse("2006-01-02", p.Date)
		if err != nil {
			return nil, fmt.Errorf("bad price date %q: %w", p.Date, err)
		}
		points = append(points, models.PricePoint{Date: d, NAV: p.NAV})
	}
	return points, nil
}
