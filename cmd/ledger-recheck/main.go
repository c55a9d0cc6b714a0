package main

import (
	"flag"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/parcels_backend/config"
	"bitbucket.org/mmdatafocus/parcels_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Recomputes a (detail, manufacture) ledger balance from the parcel audit
// log and reports drift against the stored row. Scan-only; it never writes.
func main() {
	detailID := flag.Int("detail-id", 0, "Required: detail id")
	manufactureID := flag.Int("manufacture-id", 0, "Required: manufacture id")
	flag.Parse()

	if *detailID <= 0 || *manufactureID <= 0 {
		fmt.Fprintln(os.Stderr, "--detail-id and --manufacture-id are required")
		os.Exit(2)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	logger := logrus.New()

	var logs []models.ParcelLog
	if err := db.
		Where("detail_id = ? AND warehouse_id = ?", *detailID, *manufactureID).
		Order("id").
		Find(&logs).Error; err != nil {
		logger.Fatalf("load parcel logs: %v", err)
	}

	// SENT decremented this warehouse; POSTED and DELETED incremented it.
	replayed := decimal.Zero
	for _, entry := range logs {
		switch entry.Action {
		case models.ParcelActionSent:
			replayed = replayed.Sub(entry.Quantity)
		case models.ParcelActionPosted, models.ParcelActionDeleted:
			replayed = replayed.Add(entry.Quantity)
		}
	}

	row, err := models.GetLedgerEntry(db, *detailID, *manufactureID)
	if err != nil {
		logger.Fatalf("load ledger row: %v", err)
	}

	stored := row.Quantity.Add(row.TestedQuantity)
	drift := stored.Sub(replayed)

	fmt.Printf("detail_id=%d manufacture_id=%d log_entries=%d replayed=%s stored=%s drift=%s\n",
		*detailID, *manufactureID, len(logs), replayed.String(), stored.String(), drift.String())
	if !drift.IsZero() {
		os.Exit(1)
	}
}
