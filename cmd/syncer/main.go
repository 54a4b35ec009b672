package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/ASAPRATAJ/OrderAutomation/internal/api"
	"github.com/ASAPRATAJ/OrderAutomation/internal/assemble"
	"github.com/ASAPRATAJ/OrderAutomation/internal/db"
	"github.com/ASAPRATAJ/OrderAutomation/internal/diff"
	"github.com/ASAPRATAJ/OrderAutomation/internal/logging"
	"github.com/ASAPRATAJ/OrderAutomation/internal/projector"
	"github.com/ASAPRATAJ/OrderAutomation/internal/sheets"
	"github.com/ASAPRATAJ/OrderAutomation/internal/syncer"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	log.SetOutput(os.Stdout)

	ctx := context.Background()

	database, err := db.NewDatabase()
	if err != nil {
		log.Fatalf("Database initialization failed: %v", err)
	}
	defer database.Close()

	spreadsheetID := os.Getenv("SPREADSHEET_ID")
	if spreadsheetID == "" {
		log.Fatal("SPREADSHEET_ID is required")
	}
	sheetName := os.Getenv("SHEET_NAME")
	if sheetName == "" {
		sheetName = "Arkusz1"
	}

	sheetClient, err := sheets.NewClient(ctx, spreadsheetID, sheetName)
	if err != nil {
		log.Fatalf("Sheets client initialization failed: %v", err)
	}

	store := db.NewStore(database)
	writer := sheets.NewWriter(sheetClient)
	assembler := assemble.New(projector.New(store, nil))
	s := syncer.New(store, assembler, writer, policyFromEnv(store), floorFromEnv())

	// With SYNC_PORT set the process serves an HTTP trigger; otherwise it
	// runs a single cycle and exits, which suits a cron entry.
	port := os.Getenv("SYNC_PORT")
	if port == "" {
		stats, err := s.Run(ctx)
		if err != nil {
			log.Fatalf("Sync cycle failed: %v", err)
		}
		log.Printf("Sync cycle finished: watermark=%d missing=%d appended=%d skipped=%d",
			stats.Watermark, stats.Missing, stats.Appended, stats.Skipped)
		return
	}

	handler := api.NewHandler(database, s)
	router := setupRouter(handler)

	go func() {
		log.Printf("Starting sync trigger server on port %s", port)
		if err := router.Run(":" + port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down sync trigger server...")
}

func setupRouter(handler *api.Handler) *gin.Engine {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(logging.JSONLogger())
	router.Use(gin.Recovery())

	router.GET("/live", func(c *gin.Context) { c.Status(200) })
	router.GET("/health", handler.Health)
	router.POST("/sync", handler.TriggerSync)

	return router
}

func floorFromEnv() int64 {
	if v := os.Getenv("ORDER_FLOOR_ID"); v != "" {
		if floor, err := strconv.ParseInt(v, 10, 64); err == nil {
			return floor
		}
		log.Printf("Invalid ORDER_FLOOR_ID %q, using default", v)
	}
	return syncer.DefaultFloorID
}

func policyFromEnv(store *db.Store) diff.EligibilityPolicy {
	switch os.Getenv("DIFF_POLICY") {
	case "email_sent":
		return diff.EmailSentPolicy{Source: store}
	case "", "all":
		return diff.AllOrders{}
	default:
		log.Printf("Unknown DIFF_POLICY %q, using range-based policy", os.Getenv("DIFF_POLICY"))
		return diff.AllOrders{}
	}
}
