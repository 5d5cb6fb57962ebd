// reconcile-links scans both ledgers for pending-link rows whose
// propagation never finalized and prints them for manual review.
//
// Usage:
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//   go run ./cmd/reconcile-links
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/backoffice_backend/config"
	"bitbucket.org/mmdatafocus/backoffice_backend/workflow"
)

func main() {
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	report, err := workflow.RunReconciliation(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "reconciliation failed: %v\n", err)
		os.Exit(1)
	}

	if report.Clean() {
		fmt.Println("clean: no orphaned pending links")
		return
	}

	for _, record := range report.OrphanCashRecords {
		fmt.Printf("orphan cash record id=%d origin=%s/%d amount=%s description=%q\n",
			record.ID, record.OriginKind, record.OriginId, record.Amount.String(), record.Description)
	}
	for _, bill := range report.OrphanBills {
		fmt.Printf("orphan bill id=%d origin=%s/%d receivable=%s payable=%s description=%q\n",
			bill.ID, bill.OriginKind, bill.OriginId, bill.Receivable.String(), bill.Payable.String(), bill.Description)
	}
	os.Exit(3)
}
