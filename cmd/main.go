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
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ebogdum/imagedeck/backends"
	"github.com/ebogdum/imagedeck/backends/aws"
	"github.com/ebogdum/imagedeck/backends/firebase"
	"github.com/ebogdum/imagedeck/backends/noop"
	"github.com/ebogdum/imagedeck/config"
	"github.com/ebogdum/imagedeck/core"
	"github.com/ebogdum/imagedeck/flags"
	"github.com/ebogdum/imagedeck/locks"
	"github.com/ebogdum/imagedeck/server"
)

var rootCmd = &cobra.Command{
	Use:   "imagedeck",
	Short: "imagedeck - image folder manager API",
	Long: `imagedeck serves nested folders and images over HTTP, storing metadata
and objects in AWS (DynamoDB + S3) or Firebase (Firestore + Cloud Storage).`,
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the imagedeck server",
	Long:  "Start the imagedeck server with the backend selected by the useFirebaseStorage flag",
	RunE:  runServer,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  "Validate the imagedeck configuration and display the loaded settings",
	RunE:  validateConfig,
}

var flagsCmd = &cobra.Command{
	Use:   "flags",
	Short: "Feature flag commands",
}

var flagsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the storage backend the flags select",
	RunE:  getFlags,
}

var configFilePath string

func main() {
	// A missing .env file is fine
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", "", "Path to configuration file")

	configCmd.AddCommand(validateCmd)
	flagsCmd.AddCommand(flagsGetCmd)
	rootCmd.AddCommand(serverCmd, configCmd, flagsCmd)

	// If no command specified, default to server
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "server")
	}

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// runServer starts the imagedeck server
func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigFromFile(configFilePath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := initializeLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			// Log to stderr since logger may not be working
			fmt.Fprintf(os.Stderr, "Failed to sync logger: %v\n", err)
		}
	}()

	logger.Info("Starting imagedeck server",
		zap.String("listen_addr", cfg.Server.ListenAddr),
		zap.String("flags_source", cfg.Flags.Source))

	// Initialize lock manager
	logger.Info("Initializing lock manager", zap.String("type", cfg.DLM.Type))
	lockManager, err := newLockManager(cfg.DLM, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize lock manager: %w", err)
	}
	defer lockManager.Close()

	// Initialize feature flags
	flagSource, err := flags.New(cfg.Flags, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize flag source: %w", err)
	}
	if closer, ok := flagSource.(io.Closer); ok {
		defer closer.Close()
	}

	// Backends are built lazily by the resolver on the first request
	resolver := core.NewResolver(flagSource, awsConstructor(cfg.Backend.AWS, logger), firebaseConstructor(cfg.Backend.Firebase, logger), logger)
	defer func() {
		if err := resolver.Close(); err != nil {
			logger.Error("Failed to close storage backend", zap.Error(err))
		}
	}()

	engine := core.NewEngine(resolver, lockManager, logger)
	defer engine.Close()

	// Initialize HTTP router
	logger.Info("Initializing HTTP router")
	router := server.NewRouter(engine, &cfg.Server, cfg.Metrics.Enabled, logger)

	srv := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		var err error
		if cfg.Server.CertFile != "" {
			logger.Info("Starting HTTPS server", zap.String("addr", cfg.Server.ListenAddr))
			err = srv.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
		} else {
			logger.Info("Starting HTTP server", zap.String("addr", cfg.Server.ListenAddr))
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server exited gracefully")
	return nil
}

// awsConstructor builds the AWS backend, or a disabled one when no bucket
// is configured
func awsConstructor(cfg config.AWSConfig, logger *zap.Logger) core.Constructor {
	return func(ctx context.Context) (backends.Storage, error) {
		if cfg.BucketName == "" {
			logger.Warn("AWS backend disabled (no bucket configured)")
			return noop.New(aws.BackendName), nil
		}
		logger.Info("Initializing AWS backend", zap.String("bucket", cfg.BucketName), zap.String("region", cfg.Region))
		return aws.New(cfg, logger)
	}
}

// firebaseConstructor builds the Firebase backend, or a disabled one when
// no project is configured
func firebaseConstructor(cfg config.FirebaseConfig, logger *zap.Logger) core.Constructor {
	return func(ctx context.Context) (backends.Storage, error) {
		if cfg.ProjectID == "" {
			logger.Warn("Firebase backend disabled (no project configured)")
			return noop.New(firebase.BackendName), nil
		}
		logger.Info("Initializing Firebase backend", zap.String("project_id", cfg.ProjectID), zap.String("bucket", cfg.StorageBucket))
		return firebase.New(ctx, cfg, logger)
	}
}

func newLockManager(cfg config.DLMConfig, logger *zap.Logger) (locks.Manager, error) {
	if cfg.Type == "redis" {
		return locks.NewRedisManager(cfg.RedisAddr, cfg.RedisPassword, logger)
	}
	return locks.NewLocalManager(), nil
}

// validateConfig validates the imagedeck configuration and displays settings
func validateConfig(cmd *cobra.Command, args []string) error {
	fmt.Println("Validating configuration...")

	cfg, err := config.LoadConfigFromFile(configFilePath)
	if err != nil {
		fmt.Printf("❌ Configuration validation failed: %v\n", err)
		return err
	}

	fmt.Println("✅ Configuration is valid")
	fmt.Printf("Listen Address: %s\n", cfg.Server.ListenAddr)
	fmt.Printf("Flags Source: %s\n", cfg.Flags.Source)
	fmt.Printf("Lock Manager: %s\n", cfg.DLM.Type)
	if cfg.Backend.AWS.BucketName != "" {
		fmt.Printf("AWS Bucket: %s\n", cfg.Backend.AWS.BucketName)
		fmt.Printf("AWS Region: %s\n", cfg.Backend.AWS.Region)
		fmt.Printf("AWS Tables: %s, %s\n", cfg.Backend.AWS.FoldersTable, cfg.Backend.AWS.ImagesTable)
	} else {
		fmt.Println("AWS: disabled")
	}
	if cfg.Backend.Firebase.ProjectID != "" {
		fmt.Printf("Firebase Project: %s\n", cfg.Backend.Firebase.ProjectID)
		fmt.Printf("Firebase Bucket: %s\n", cfg.Backend.Firebase.StorageBucket)
	} else {
		fmt.Println("Firebase: disabled")
	}

	return nil
}

// getFlags reads useFirebaseStorage and prints the backend it selects
func getFlags(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigFromFile(configFilePath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	source, err := flags.New(cfg.Flags, zap.NewNop())
	if err != nil {
		return fmt.Errorf("failed to initialize flag source: %w", err)
	}
	if closer, ok := source.(io.Closer); ok {
		defer closer.Close()
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	useFirebase, err := source.Bool(ctx, flags.UseFirebaseStorage)
	if err != nil {
		fmt.Printf("%s: error (%v)\n", flags.UseFirebaseStorage, err)
		fmt.Printf("backend: %s (fallback)\n", aws.BackendName)
		return nil
	}

	backend := aws.BackendName
	if useFirebase {
		backend = firebase.BackendName
	}
	fmt.Printf("%s: %t\n", flags.UseFirebaseStorage, useFirebase)
	fmt.Printf("backend: %s\n", backend)
	return nil
}

// initializeLogger creates a zap logger based on configuration
func initializeLogger(logCfg config.LogConfig) (*zap.Logger, error) {
	var cfg zap.Config

	if logCfg.Format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	switch logCfg.Level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return cfg.Build()
}
