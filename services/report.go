package services

import (
	"fmt"
	"sort"
	"strings"

	"rental-cleaning/models"
	"rental-cleaning/utils"
)

type ReportService struct {
	logger *utils.Logger
}

func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

// Build summarises one cleaning run: the filter tallies plus price stats
// and per-borough counts over the retained rows.
func (s *ReportService) Build(cleaned *models.Snapshot, stats *models.CleanStats) *models.CleanReport {
	report := &models.CleanReport{
		Stats:       *stats,
		RowsByGroup: make(map[string]int),
	}

	if cleaned == nil || cleaned.Len() == 0 {
		return report
	}

	priceCol, hasPrice := cleaned.ColumnIndex("price")
	groupCol, hasGroup := cleaned.ColumnIndex("neighbourhood_group")

	var total float64
	var priced int
	for i := range cleaned.Rows {
		if hasPrice {
			if price, ok := cleaned.Float(i, priceCol); ok {
				if priced == 0 || price < report.MinPrice {
					report.MinPrice = price
				}
				if priced == 0 || price > report.MaxPrice {
					report.MaxPrice = price
				}
				total += price
				priced++
			}
		}
		if hasGroup {
			if group := cleaned.Rows[i][groupCol]; group != "" {
				report.RowsByGroup[group]++
			}
		}
	}

	if priced > 0 {
		report.AveragePrice = round2(total / float64(priced))
		report.MinPrice = round2(report.MinPrice)
		report.MaxPrice = round2(report.MaxPrice)
	}

	return report
}

func (s *ReportService) Print(r *models.CleanReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  🧹 BASIC CLEANING SUMMARY\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	// Filter tallies
	fmt.Printf("\033[1;33m  Rows\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Rows in          : \033[1m%d\033[0m\n", r.Stats.RowsIn)
	fmt.Printf("  Rows out         : \033[1m%d\033[0m\n", r.Stats.RowsOut)
	fmt.Printf("  Price outliers   : %d\n", r.Stats.DroppedPrice)
	fmt.Printf("  Out of bounds    : %d\n", r.Stats.DroppedBounds)
	fmt.Printf("  Unparsable dates : %d\n", r.Stats.UnparsableDates)
	fmt.Println()

	// Price stats over retained rows
	fmt.Printf("\033[1;33m  Price Statistics (per night)\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.AveragePrice > 0 {
		fmt.Printf("  Average price : \033[1;32m$%.2f\033[0m\n", r.AveragePrice)
		fmt.Printf("  Minimum price : \033[1;32m$%.2f\033[0m\n", r.MinPrice)
		fmt.Printf("  Maximum price : \033[1;32m$%.2f\033[0m\n", r.MaxPrice)
	} else {
		fmt.Printf("  No price data available\n")
	}
	fmt.Println()

	// Rows by borough
	fmt.Printf("\033[1;33m  Rows by Neighbourhood Group\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.RowsByGroup) == 0 {
		fmt.Printf("  No neighbourhood data\n")
	} else {
		type groupCount struct {
			group string
			count int
		}
		var groups []groupCount
		for g, n := range r.RowsByGroup {
			groups = append(groups, groupCount{g, n})
		}
		sort.Slice(groups, func(i, j int) bool {
			return groups[i].count > groups[j].count
		})
		for _, gc := range groups {
			fmt.Printf("  %-30s %d\n", gc.group, gc.count)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
