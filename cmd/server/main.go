package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zentabooks/erpcore_backend/config"
	"github.com/zentabooks/erpcore_backend/models"
	"github.com/zentabooks/erpcore_backend/utils"
	"github.com/zentabooks/erpcore_backend/workflow"
	"gorm.io/gorm"
)

const defaultPort = "8080"

func main() {
	config.ConnectDatabaseWithRetry()
	config.ConnectRedis()
	db := config.GetDB()
	if db == nil {
		log.Fatal("database not initialized")
	}
	if os.Getenv("AUTO_MIGRATE") == "true" {
		if err := models.MigrateTable(db); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
	}

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Tenant-Id", "X-User-Id"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api", tenantMiddleware())
	{
		api.POST("/postings/:refType/:refId/prepare", preparePosting)
		api.POST("/postings/:refType/:refId/commit", commitPosting)
		api.POST("/journals/:entryId/reverse", reverseJournal)
		api.POST("/fifo/consume", consumeFIFO)
		api.POST("/fifo/rebuild", rebuildFIFO)
		api.GET("/cogs/total", cogsTotal)
		api.GET("/integrity", integrityCheck)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}
	srv := &http.Server{Addr: ":" + port, Handler: router}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// tenantMiddleware also threads the request identity into the request
// context, which is what arms the tenant guard plugin on every query run
// through requestDB.
func tenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantId := c.GetHeader("X-Tenant-Id")
		if tenantId == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "X-Tenant-Id header is required"})
			return
		}
		c.Set("tenantId", tenantId)
		ctx := utils.SetTenantIdInContext(c.Request.Context(), tenantId)
		if userId, err := strconv.Atoi(c.GetHeader("X-User-Id")); err == nil {
			ctx = utils.SetUserIdInContext(ctx, userId)
		}
		if branchId, err := strconv.Atoi(c.GetHeader("X-Branch-Id")); err == nil {
			ctx = utils.SetBranchIdInContext(ctx, branchId)
		}
		correlationId := c.GetHeader("X-Request-Id")
		if correlationId == "" {
			correlationId = uuid.NewString()
		}
		ctx = utils.SetCorrelationIdInContext(ctx, correlationId)
		c.Header("X-Request-Id", correlationId)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// requestDB binds the request context to the session so the tenant guard
// sees the tenant on every statement.
func requestDB(c *gin.Context) *gorm.DB {
	return config.GetDB().WithContext(c.Request.Context())
}

// resolveScope derives the actor's governance scope when a user is
// identified. Postings without an identified user run unscoped (service to
// service calls).
func resolveScope(c *gin.Context, db *gorm.DB) (*models.GovernanceScope, error) {
	userId, ok := utils.GetUserIdFromContext(c.Request.Context())
	if !ok {
		return nil, nil
	}
	return workflow.ResolveGovernanceScope(db, c.GetString("tenantId"), userId)
}

func preparePosting(c *gin.Context) {
	db := requestDB(c)
	refId, err := strconv.Atoi(c.Param("refId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reference id"})
		return
	}
	result, err := workflow.PreparePosting(db, config.GetLogger(), c.GetString("tenantId"),
		models.ReferenceType(c.Param("refType")), refId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func commitPosting(c *gin.Context) {
	db := requestDB(c)
	logger := config.GetLogger()
	tenantId := c.GetString("tenantId")
	refId, err := strconv.Atoi(c.Param("refId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reference id"})
		return
	}
	scope, err := resolveScope(c, db)
	if err != nil {
		respondError(c, err)
		return
	}

	redisLock, err := workflow.AcquireRedisPostingLock(c.Request.Context(), tenantId)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	defer workflow.ReleaseRedisPostingLock(c.Request.Context(), redisLock)
	if err := workflow.AcquireTenantPostingLock(db, tenantId); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	defer workflow.ReleaseTenantPostingLock(db, tenantId)

	result, err := workflow.PostReference(db, logger, scope, tenantId,
		models.ReferenceType(c.Param("refType")), refId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type reverseRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func reverseJournal(c *gin.Context) {
	db := requestDB(c)
	entryId, err := strconv.Atoi(c.Param("entryId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}
	var req reverseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}
	var reversal *models.JournalEntry
	err = db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		reversal, txErr = workflow.ReverseJournalEntry(tx, config.GetLogger(), c.GetString("tenantId"), entryId, req.Reason)
		return txErr
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reversal)
}

type consumeRequest struct {
	WarehouseId  int             `json:"warehouse_id" binding:"required"`
	BranchId     int             `json:"branch_id" binding:"required"`
	CostCenterId int             `json:"cost_center_id"`
	ProductId    int             `json:"product_id" binding:"required"`
	Qty          decimal.Decimal `json:"qty" binding:"required"`
	RefType      string          `json:"reference_type" binding:"required"`
	RefId        int             `json:"reference_id" binding:"required"`
	RefDetailId  int             `json:"reference_detail_id"`
	Date         time.Time       `json:"date" binding:"required"`
	EmitCogs     bool            `json:"emit_cogs"`
}

func consumeFIFO(c *gin.Context) {
	db := requestDB(c)
	var req consumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}
	var plan *workflow.FIFOPlan
	err := db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		plan, txErr = workflow.ConsumeFIFO(tx, config.GetLogger(), c.GetString("tenantId"),
			req.WarehouseId, req.BranchId, req.CostCenterId, req.ProductId, req.Qty,
			models.ReferenceType(req.RefType), req.RefId, req.RefDetailId, req.Date,
			req.EmitCogs, models.CogsSourceAdjustment)
		return txErr
	})
	if err != nil {
		respondError(c, err)
		return
	}
	// a shortage is a signaled condition, not an error: nothing was
	// applied, the caller sees the partial cost data and decides
	c.JSON(http.StatusOK, gin.H{
		"total_cost":         plan.TotalCost,
		"insufficient_stock": plan.InsufficientStock,
		"missing_qty":        plan.MissingQty,
		"consumptions":       plan.Consumptions,
	})
}

type rebuildRequest struct {
	WarehouseId int `json:"warehouse_id"`
	ProductId   int `json:"product_id"`
}

func rebuildFIFO(c *gin.Context) {
	db := requestDB(c)
	tenantId := c.GetString("tenantId")
	var req rebuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}
	if err := workflow.AcquireTenantPostingLock(db, tenantId); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	defer workflow.ReleaseTenantPostingLock(db, tenantId)

	var corrections []workflow.LotCorrection
	err := db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		corrections, txErr = workflow.RebuildLotRemainders(tx, config.GetLogger(), tenantId, req.WarehouseId, req.ProductId)
		return txErr
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"corrections": corrections})
}

func cogsTotal(c *gin.Context) {
	db := requestDB(c)
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
		return
	}
	branchId, _ := strconv.Atoi(c.Query("branch_id"))
	if branchId == 0 {
		// the X-Branch-Id header narrows the read when the query does not
		if ctxBranch, ok := utils.GetBranchIdFromContext(c.Request.Context()); ok {
			branchId = ctxBranch
		}
	}
	warehouseId, _ := strconv.Atoi(c.Query("warehouse_id"))
	costCenterId, _ := strconv.Atoi(c.Query("cost_center_id"))
	productId, _ := strconv.Atoi(c.Query("product_id"))

	scope, err := resolveScope(c, db)
	if err != nil {
		respondError(c, err)
		return
	}
	total, err := workflow.COGSTotal(db, c.GetString("tenantId"), scope, from, to, branchId, warehouseId, costCenterId, productId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total})
}

func integrityCheck(c *gin.Context) {
	db := requestDB(c)
	scope, err := resolveScope(c, db)
	if err != nil {
		respondError(c, err)
		return
	}
	report, err := workflow.IntegrityCheck(db, c.GetString("tenantId"), scope)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func respondBindingError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(verrs)})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func respondError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		status = http.StatusNotFound
	case utils.IsGovernanceError(err):
		status = http.StatusForbidden
	case utils.IsLockedPeriodError(err):
		status = http.StatusConflict
	case utils.IsInsufficientStockError(err):
		status = http.StatusConflict
	case utils.IsConflictError(err):
		status = http.StatusConflict
	case utils.IsConfigurationError(err):
		status = http.StatusUnprocessableEntity
	case utils.IsValidationError(err):
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
	}
	body := gin.H{"error": err.Error()}
	if requestId, ok := utils.GetCorrelationIdFromContext(c.Request.Context()); ok {
		body["request_id"] = requestId
	}
	c.JSON(status, body)
}
