package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/zentabooks/erpcore_backend/config"
	"github.com/zentabooks/erpcore_backend/utils"
	"github.com/zentabooks/erpcore_backend/workflow"
)

func main() {
	tenantID := flag.String("tenant-id", "", "Required: tenant id (uuid)")
	asJSON := flag.Bool("json", false, "Emit the full report as JSON")
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

	report, err := workflow.IntegrityCheck(db, *tenantID, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "integrity check failed: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		out, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(out))
	} else {
		fmt.Printf("products checked: %d, mismatches: %d\n", len(report.Products), report.Mismatches)
		fmt.Printf("cogs total: %s, returns total: %s\n", report.CogsTotal.String(), report.ReturnsTotal.String())
		for _, p := range report.Products {
			if p.Difference.IsZero() {
				continue
			}
			fmt.Printf("  product %d warehouse %d: ledger %s vs lots %s (diff %s)\n",
				p.ProductId, p.WarehouseId, p.OnHandQty.String(), p.LotRemainder.String(), p.Difference.String())
		}
	}

	if !report.Consistent {
		os.Exit(2)
	}
}
