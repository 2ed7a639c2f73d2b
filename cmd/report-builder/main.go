package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"

	"activity-platform/internal/config"
	"activity-platform/internal/files"
	"activity-platform/internal/models"
	"activity-platform/internal/repository"
	"activity-platform/internal/services"
	"activity-platform/pkg/database"
	"activity-platform/pkg/logging"
	"activity-platform/pkg/metrics"
)

func main() {
	// Parse command-line flags
	subjectNumber := flag.String("subject", "", "Subject number (four digits starting with 7, 8, or 9); prompted for when omitted")
	archive := flag.Bool("archive", false, "Archive the scanned day records to the configured database")
	batchSize := flag.Int("batch-size", 500, "Number of day records to store in each batch")
	flag.Parse()

	if flag.Arg(0) == "init" {
		if err := handleInit(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*subjectNumber, *archive, *batchSize); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// handleInit prompts for the share path and persists it to the user
// configuration file.
func handleInit() error {
	sharePath, err := promptForSharePath(bufio.NewReader(os.Stdin))
	if err != nil {
		return err
	}

	configFile, err := config.SaveSharePath(sharePath)
	if err != nil {
		return err
	}

	fmt.Printf("Saved vosslabhpc share path to %s\n", configFile)
	return nil
}

func run(subjectNumber string, archive bool, batchSize int) error {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// Initialize logger. Session output owns stdout; diagnostics go to
	// stderr.
	logLevel := logging.InfoLevel
	if cfg.Logging.Level == "debug" {
		logLevel = logging.DebugLevel
	}

	logger := logging.NewStructuredLogger("report-builder", "1.0.0", logLevel)
	logger.SetOutput(os.Stderr)

	ctx := context.Background()

	sharePath, err := cfg.RequireSharePath()
	if err != nil {
		return err
	}

	fmt.Printf("Using configured share path: %s\n", sharePath)

	if subjectNumber == "" {
		subjectNumber, err = promptForSubjectNumber(bufio.NewReader(os.Stdin))
		if err != nil {
			return err
		}
	} else if err := files.ValidateSubjectNumber(subjectNumber); err != nil {
		return err
	}

	subjectDirectory, err := files.SubjectDirectory(sharePath, subjectNumber)
	if err != nil {
		return err
	}

	if _, err := os.Stat(subjectDirectory); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("Subject directory does not exist: %s", subjectDirectory)
		}
		return err
	}

	logger.Info(ctx, "[SESSION_START] Starting report session", logging.Fields{
		"share_path":        sharePath,
		"subject_number":    subjectNumber,
		"subject_directory": subjectDirectory,
	})

	paths, err := files.DiscoverDaySummaries(subjectDirectory)
	if err != nil {
		return err
	}

	fmt.Printf("Located %d target file(s) for subject %s under %s\n", len(paths), subjectNumber, subjectDirectory)

	if len(paths) == 0 {
		fmt.Println("No matching files found; verify the subject data is available.")
		return nil
	}

	for _, path := range paths {
		fmt.Printf("  %s\n", path)
	}

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("activity_platform")

	// Scan the discovered files
	scanService := services.NewScanService(logger, metricsCollector)
	result := scanService.ScanFiles(ctx, paths)

	if len(result.Errors) > 0 {
		fmt.Fprintf(os.Stderr, "Encountered %d file error(s) during the scan:\n", len(result.Errors))
		for i, errMsg := range result.Errors {
			if i < 10 {
				fmt.Fprintf(os.Stderr, "  - %s\n", errMsg)
			}
		}
		if len(result.Errors) > 10 {
			fmt.Fprintf(os.Stderr, "  ... and %d more errors\n", len(result.Errors)-10)
		}
	}

	matrix := result.Matrix

	fmt.Printf("Prepared metrics for %d participant(s).\n", len(matrix))

	ids := matrix.ParticipantIDs()
	for i, id := range ids {
		if i >= 5 {
			break
		}
		fmt.Printf("  %s -> %d day(s) of data\n", id, len(matrix[id]))
	}
	if len(ids) > 5 {
		fmt.Println("  ...")
	}

	// Compute and render the weekly/daily summary
	summaryService := services.NewSummaryService(logger, metricsCollector)
	summary := summaryService.ComputeWeeklySummary(ctx, matrix)
	renderSummary(summary)

	// Archive the day records if requested
	if archive {
		if err := archiveMatrix(ctx, cfg, logger, metricsCollector, matrix, subjectNumber, batchSize); err != nil {
			return err
		}
	}

	fmt.Printf("Session ready with %d total day-level rows for downstream aggregation.\n", matrix.TotalDays())

	logger.Info(ctx, "[SESSION_COMPLETE] Report session finished", logging.Fields{
		"subject_number":    subjectNumber,
		"files_scanned":     result.FilesScanned,
		"files_failed":      result.FilesFailed,
		"records_extracted": result.RecordsExtracted,
		"rows_skipped":      result.RowsSkipped,
		"summary_computed":  summary != nil,
	})

	return nil
}

// archiveMatrix connects to the archive database and stores the scanned
// day records.
func archiveMatrix(
	ctx context.Context,
	cfg *config.Config,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
	matrix models.ActivityMatrix,
	subjectNumber string,
	batchSize int,
) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	dbConfig := &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}

	db, err := database.NewPostgresDB(dbConfig, logger, metricsCollector)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	repo := repository.NewActivityRepository(db, logger, metricsCollector)
	archiveService := services.NewArchiveService(repo, logger, metricsCollector)

	archiveResult, err := archiveService.ArchiveMatrix(ctx, matrix, subjectNumber, batchSize)
	if err != nil {
		return err
	}

	fmt.Printf("Archived %d day record(s) for %d participant(s) in %d batch(es).\n",
		archiveResult.Records, archiveResult.Participants, archiveResult.Batches)

	return nil
}

// renderSummary prints the weekly/daily summary in the session report
// format.
func renderSummary(summary *models.WeeklySummary) {
	if summary == nil {
		fmt.Println("Unable to compute weekly or daily averages due to insufficient overlapping data.")
		return
	}

	fmt.Println("weekly_average (hours per 7-day week):")
	for i, label := range models.MetricLabels {
		fmt.Printf("  %-5s: %.2f\n", label, summary.WeeklyHours[i])
	}
	fmt.Printf("weekly_mvpa (minutes per 7-day week): %.2f\n", summary.WeeklyMVPAMinutes)

	fmt.Println("daily_average (hours per day):")
	for i, label := range models.MetricLabels {
		fmt.Printf("  %-5s: %.2f\n", label, summary.DailyHours[i])
	}
	fmt.Printf("daily_mvpa (minutes per day): %.2f\n", summary.DailyMVPAMinutes)
	fmt.Printf("daily_sedentary (hours per day, excluding sleep): %.2f\n", summary.DailySedentaryHours)

	if len(summary.SleepByWeekday) > 0 {
		fmt.Println("average_sleep_by_weekday (hours):")
		for _, entry := range summary.SleepByWeekday {
			fmt.Printf("  %-9s: %.2f\n", entry.Weekday, entry.AverageHours)
		}
	}
}

// promptForSharePath asks for the share path until a non-blank value is
// entered. A read error with no pending input aborts the prompt instead
// of looping.
func promptForSharePath(reader *bufio.Reader) (string, error) {
	examplePath := exampleSharePath()

	for {
		fmt.Printf("Enter the path to the vosslabhpc share (e.g., %s):\n", examplePath)
		fmt.Print("> ")

		line, err := reader.ReadString('\n')
		trimmed := strings.TrimSpace(line)

		if trimmed != "" {
			return trimmed, nil
		}
		if err != nil {
			return "", err
		}
		fmt.Println("A value is required. Please try again.")
	}
}

// promptForSubjectNumber asks for a subject number until it validates.
func promptForSubjectNumber(reader *bufio.Reader) (string, error) {
	for {
		fmt.Println("Enter the subject number (four digits starting with 7, 8, or 9):")
		fmt.Print("> ")

		line, err := reader.ReadString('\n')
		trimmed := strings.TrimSpace(line)

		if validationErr := files.ValidateSubjectNumber(trimmed); validationErr != nil {
			if err != nil {
				return "", err
			}
			fmt.Printf("%s Please try again.\n", validationErr)
			continue
		}

		return trimmed, nil
	}
}

func exampleSharePath() string {
	switch runtime.GOOS {
	case "darwin":
		return "/Volumes/vosslabhpc"
	case "windows":
		return `\\vosslabhpc`
	default:
		return "/mnt/vosslabhpc"
	}
}
