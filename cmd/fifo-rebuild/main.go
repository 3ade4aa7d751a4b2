package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/zentabooks/erpcore_backend/config"
	"github.com/zentabooks/erpcore_backend/utils"
	"github.com/zentabooks/erpcore_backend/workflow"
	"gorm.io/gorm"
)

func main() {
	tenantID := flag.String("tenant-id", "", "Required: tenant id (uuid)")
	productID := flag.Int("product-id", 0, "Optional: product id")
	warehouseID := flag.Int("warehouse-id", 0, "Optional: warehouse id")
	dryRun := flag.Bool("dry-run", false, "Report drift without repairing it")
	flag.Parse()

	if strings.TrimSpace(*tenantID) == "" {
		fmt.Fprintln(os.Stderr, "--tenant-id is required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	// operator tool: tenant filtering is explicit, not guard-injected
	db = db.WithContext(utils.SetSkipTenantScopeInContext(context.Background(), true))
	logger := logrus.New()

	if err := workflow.AcquireTenantPostingLock(db, *tenantID); err != nil {
		fmt.Fprintf(os.Stderr, "posting lock: %v\n", err)
		os.Exit(1)
	}
	defer workflow.ReleaseTenantPostingLock(db, *tenantID)

	// errDryRunRollback aborts the transaction on purpose so a dry run
	// never persists repairs.
	errDryRunRollback := errors.New("dry run rollback")

	var corrections []workflow.LotCorrection
	err := db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		corrections, txErr = workflow.RebuildLotRemainders(tx, logger, *tenantID, *warehouseID, *productID)
		if txErr != nil {
			return txErr
		}
		if *dryRun {
			return errDryRunRollback
		}
		return nil
	})
	if err != nil && !errors.Is(err, errDryRunRollback) {
		fmt.Fprintf(os.Stderr, "rebuild failed: %v\n", err)
		os.Exit(1)
	}

	if len(corrections) == 0 {
		fmt.Println("no drift found")
		return
	}
	for _, c := range corrections {
		fmt.Printf("lot %d: remaining %s -> %s\n", c.LotId, c.OldRemaining.String(), c.NewRemaining.String())
	}
	if *dryRun {
		fmt.Printf("%d lot(s) would be repaired (dry run, rolled back)\n", len(corrections))
	} else {
		fmt.Printf("%d lot(s) repaired\n", len(corrections))
	}
}
