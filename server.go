package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/backoffice_backend/config"
	"bitbucket.org/mmdatafocus/backoffice_backend/importer"
	"bitbucket.org/mmdatafocus/backoffice_backend/middlewares"
	"bitbucket.org/mmdatafocus/backoffice_backend/models"
	"bitbucket.org/mmdatafocus/backoffice_backend/models/reports"
	"bitbucket.org/mmdatafocus/backoffice_backend/summarize"
	"bitbucket.org/mmdatafocus/backoffice_backend/utils"
	"bitbucket.org/mmdatafocus/backoffice_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

// RateLimiter throttles per client IP with a fixed redis window.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	key := "RateLimit:" + c.ClientIP()

	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	if exists == 0 {
		if err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err(); err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}
	c.Next()
}

func idParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// respondError maps domain errors onto HTTP statuses. Step failures keep
// their step name in the payload so the operator knows what to reconcile.
func respondError(c *gin.Context, err error) {
	var stepErr *utils.StepError
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &stepErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": stepErr.Error(), "failed_step": stepErr.Step})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return false
	}
	return true
}

func periodFromRequest(c *gin.Context) reports.Period {
	return reports.PeriodFromQuery(c.Query("window"), c.Query("start"), c.Query("end"))
}

/* auth */

func loginHandler() gin.HandlerFunc {
	type credentials struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	return func(c *gin.Context) {
		var input credentials
		if !bindJSON(c, &input) {
			return
		}
		token, err := models.SignIn(c.Request.Context(), input.Username, input.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

func logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := models.SignOut(c.Request.Context()); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

/* cash records */

func listCashRecordsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := models.ListCashRecords(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		period := periodFromRequest(c)
		c.JSON(http.StatusOK, reports.FilterRecordsByPeriod(records, period, time.Now()))
	}
}

func createCashRecordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewCashRecord
		if !bindJSON(c, &input) {
			return
		}
		record, err := models.CreateCashRecord(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		reports.InvalidateReportCache()
		c.JSON(http.StatusCreated, record)
	}
}

func getCashRecordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		record, err := models.GetCashRecord(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

func updateCashRecordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewCashRecord
		if !bindJSON(c, &input) {
			return
		}
		record, err := models.UpdateCashRecord(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		reports.InvalidateReportCache()
		c.JSON(http.StatusOK, record)
	}
}

func deleteCashRecordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		record, err := models.DeleteCashRecord(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		reports.InvalidateReportCache()
		c.JSON(http.StatusOK, record)
	}
}

/* investments */

func listInvestmentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		movements, err := models.ListInvestmentMovements(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, movements)
	}
}

func createInvestmentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewInvestmentMovement
		if !bindJSON(c, &input) {
			return
		}
		movement, err := workflow.CreateInvestment(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		reports.InvalidateReportCache()
		c.JSON(http.StatusCreated, movement)
	}
}

func deleteInvestmentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		movement, err := workflow.DeleteInvestment(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		reports.InvalidateReportCache()
		c.JSON(http.StatusOK, movement)
	}
}

/* bills */

func listBillsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		bills, err := models.ListBills(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, bills)
	}
}

func createBillHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewBill
		if !bindJSON(c, &input) {
			return
		}
		bill, err := models.CreateBill(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, bill)
	}
}

func updateBillHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewBill
		if !bindJSON(c, &input) {
			return
		}
		bill, err := models.UpdateBill(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, bill)
	}
}

func deleteBillHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		bill, err := models.DeleteBill(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, bill)
	}
}

func payBillHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		record, err := workflow.PayBill(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		reports.InvalidateReportCache()
		c.JSON(http.StatusOK, record)
	}
}

/* forecast lines */

func listForecastLinesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		lines, err := models.ListForecastLines(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, lines)
	}
}

func createForecastLineHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewForecastLine
		if !bindJSON(c, &input) {
			return
		}
		line, err := models.CreateForecastLine(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		reports.InvalidateReportCache()
		c.JSON(http.StatusCreated, line)
	}
}

func updateForecastLineHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewForecastLine
		if !bindJSON(c, &input) {
			return
		}
		line, err := models.UpdateForecastLine(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		reports.InvalidateReportCache()
		c.JSON(http.StatusOK, line)
	}
}

func deleteForecastLineHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		line, err := models.DeleteForecastLine(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		reports.InvalidateReportCache()
		c.JSON(http.StatusOK, line)
	}
}

/* categories */

func listCategoriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := models.ListCategories(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

func createCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewCategory
		if !bindJSON(c, &input) {
			return
		}
		category, err := models.CreateCategory(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, category)
	}
}

func updateCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewCategory
		if !bindJSON(c, &input) {
			return
		}
		category, err := models.UpdateCategory(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

func deleteCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		category, err := models.DeleteCategory(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		reports.InvalidateReportCache()
		c.JSON(http.StatusOK, category)
	}
}

func addSubCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewSubCategory
		if !bindJSON(c, &input) {
			return
		}
		sub, err := models.AddSubCategory(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, sub)
	}
}

func deleteSubCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		sub, err := models.DeleteSubCategory(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, sub)
	}
}

/* contracts */

func listContractsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		contracts, err := models.ListContracts(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, contracts)
	}
}

func getContractHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		contract, err := models.GetContract(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, contract)
	}
}

func createContractHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewContract
		if !bindJSON(c, &input) {
			return
		}
		contract, err := workflow.CreateContract(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		reports.InvalidateReportCache()
		c.JSON(http.StatusCreated, contract)
	}
}

func deleteContractHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		contract, err := workflow.DeleteContract(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		reports.InvalidateReportCache()
		c.JSON(http.StatusOK, contract)
	}
}

/* reports */

func dashboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := reports.GetDashboardReport(c.Request.Context(), periodFromRequest(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func forecastVarianceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		months := 0
		if v := c.Query("months"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				months = n
			}
		}
		report, err := reports.GetForecastVarianceReport(c.Request.Context(), months)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func exportCashFlowHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := reports.ExportCashFlowExcel(c.Request.Context(), periodFromRequest(c))
		if err != nil {
			respondError(c, err)
			return
		}
		defer file.Close()

		c.Header("Content-Disposition", `attachment; filename="cashflow.xlsx"`)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := file.Write(c.Writer); err != nil {
			config.LogError(config.GetLogger(), "server", "exportCashFlowHandler", "write workbook", nil, err)
		}
	}
}

func reconciliationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := workflow.RunReconciliation(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

/* csv import */

func importCSVHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		f, err := fileHeader.Open()
		if err != nil {
			respondError(c, err)
			return
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			respondError(c, err)
			return
		}
		staged, err := importer.ParseStatementAuto(data)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": staged})
	}
}

func commitImportHandler() gin.HandlerFunc {
	type commitRequest struct {
		Records []importer.StagedRecord `json:"records" binding:"required"`
	}
	return func(c *gin.Context) {
		var input commitRequest
		if !bindJSON(c, &input) {
			return
		}
		created := make([]*models.CashRecord, 0, len(input.Records))
		for _, staged := range input.Records {
			record, err := models.CreateCashRecord(c.Request.Context(), staged.ToNewCashRecord())
			if err != nil {
				// report what landed; the client retries the rest
				c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "created": created})
				return
			}
			created = append(created, record)
		}
		reports.InvalidateReportCache()
		c.JSON(http.StatusCreated, gin.H{"created": created})
	}
}

/* summary */

func summaryHandler(logger *logrus.Logger, client *summarize.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !config.SummaryEnabled() || client == nil {
			c.JSON(http.StatusOK, gin.H{"summary": summarize.FallbackMessage(), "fallback": true})
			return
		}

		ctx := c.Request.Context()
		cash, err := models.ListCashRecords(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		investments, err := models.ListInvestmentMovements(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		bills, err := models.ListBills(ctx)
		if err != nil {
			respondError(c, err)
			return
		}

		text, err := client.Summarize(ctx, cash, investments, bills)
		if err != nil {
			config.LogError(logger, "server", "summaryHandler", "summarize", nil, err)
			c.JSON(http.StatusOK, gin.H{"summary": summarize.FallbackMessage(), "fallback": true})
			return
		}
		if userName, ok := utils.GetUserNameFromContext(ctx); ok {
			logger.WithField("user", userName).Info("summary generated")
		}
		c.JSON(http.StatusOK, gin.H{"summary": text, "fallback": false})
	}
}

// customErrorLogger logs only requests that collected errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
			logger.WithField("correlation_id", cid).Error(c.Errors.String())
		}
	}
}

func registerRoutes(r *gin.Engine, logger *logrus.Logger, summaryClient *summarize.Client) {
	r.POST("/auth/login", loginHandler())

	api := r.Group("/", middlewares.RequireSession())

	api.POST("/auth/logout", logoutHandler())

	api.GET("/cash-records", listCashRecordsHandler())
	api.POST("/cash-records", createCashRecordHandler())
	api.GET("/cash-records/:id", getCashRecordHandler())
	api.PUT("/cash-records/:id", updateCashRecordHandler())
	api.DELETE("/cash-records/:id", deleteCashRecordHandler())

	api.GET("/investments", listInvestmentsHandler())
	api.POST("/investments", createInvestmentHandler())
	api.DELETE("/investments/:id", deleteInvestmentHandler())

	api.GET("/bills", listBillsHandler())
	api.POST("/bills", createBillHandler())
	api.PUT("/bills/:id", updateBillHandler())
	api.DELETE("/bills/:id", deleteBillHandler())
	api.POST("/bills/:id/pay", payBillHandler())

	api.GET("/forecast-lines", listForecastLinesHandler())
	api.POST("/forecast-lines", createForecastLineHandler())
	api.PUT("/forecast-lines/:id", updateForecastLineHandler())
	api.DELETE("/forecast-lines/:id", deleteForecastLineHandler())

	api.GET("/categories", listCategoriesHandler())
	api.POST("/categories", createCategoryHandler())
	api.PUT("/categories/:id", updateCategoryHandler())
	api.DELETE("/categories/:id", deleteCategoryHandler())
	api.POST("/categories/:id/subcategories", addSubCategoryHandler())
	api.DELETE("/subcategories/:id", deleteSubCategoryHandler())

	api.GET("/contracts", listContractsHandler())
	api.GET("/contracts/:id", getContractHandler())
	api.POST("/contracts", createContractHandler())
	api.DELETE("/contracts/:id", deleteContractHandler())

	api.GET("/dashboard", dashboardHandler())
	api.GET("/forecast/variance", forecastVarianceHandler())
	api.GET("/reports/cashflow/export", exportCashFlowHandler())
	api.GET("/internal/reconciliation", reconciliationHandler())

	api.POST("/import/csv", importCSVHandler())
	api.POST("/import/csv/commit", commitImportHandler())

	api.GET("/summary", summaryHandler(logger, summaryClient))
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}
	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Until the DB is ready we return 503 for app endpoints.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow the startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS: explicit allowlist in production, open elsewhere.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = utils.SplitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	// Optional rate limiting.
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		r.Use(func(c *gin.Context) {
			client := config.GetRedisDB()
			if client == nil {
				c.Next()
				return
			}
			NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second).RateLimitMiddleware(c)
		})
	}

	r.Use(middlewares.SessionMiddleware())
	r.Use(middlewares.AuthMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	// One shared client so the rate-limit tick spans requests.
	summaryClient, err := summarize.NewClient()
	if err != nil && config.SummaryEnabled() {
		config.LogError(logger, "server", "main", "init summary client", nil, err)
	}

	registerRoutes(r, logger, summaryClient)

	// Start listening immediately; dependencies connect behind the gate.
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can run DDL that blocks tables; allow running migrations
	// as a separate job instead.
	if !config.SkipMigrations() {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Surface orphaned pending-link rows left by interrupted propagations.
	go func() {
		if _, err := workflow.RunReconciliation(context.Background()); err != nil {
			logger.WithFields(logrus.Fields{"field": "reconciliation"}).Error(err.Error())
		}
	}()

	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}
