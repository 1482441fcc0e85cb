package main

import (
	"fmt"
	"log"
	"os"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pressly/goose/v3"
	"github.com/spf13/viper"

	"travel-cms/config"
	"travel-cms/domain/auth"
	"travel-cms/domain/catalog"
	"travel-cms/migrations"
	"travel-cms/pkg/apperrors"
	"travel-cms/pkg/logger"
	"travel-cms/pkg/mediastore"
	"travel-cms/routes"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/main.go [server|migrate|seed]")
		os.Exit(1)
	}

	config.InitConfig()

	logger.Init(logger.Config{
		Level:       logger.Level(viper.GetString("LOG_LEVEL")),
		Environment: viper.GetString("ENVIRONMENT"),
		ServiceName: "travel-cms",
		Version:     viper.GetString("VERSION"),
	})

	config.InitDB()
	defer config.CloseDB()

	switch os.Args[1] {
	case "server":
		config.InitRedis()
		startServer()
	case "migrate":
		runMigrations()
	case "seed":
		seedAdmin()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}

func startServer() {
	appLog := logger.Get()

	media, err := mediastore.NewS3Store(mediastore.S3Config{
		Region:    viper.GetString("AWS_REGION"),
		Bucket:    viper.GetString("S3_BUCKET_NAME"),
		AccessKey: viper.GetString("AWS_ACCESS_KEY"),
		SecretKey: viper.GetString("AWS_SECRET_KEY"),
	})
	if err != nil {
		appLog.Fatal("Failed to initialize media store", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = apperrors.HTTPErrorHandler(appLog)

	e.Use(logger.RequestLoggerMiddleware(appLog))
	e.Use(logger.RecoveryMiddleware(appLog))

	// The dashboards are served from a separate origin, so CORS is
	// deliberately permissive.
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.PATCH, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		MaxAge:       86400,
	}))

	handler := catalog.NewHandler(catalog.NewSQLStore(config.DB), media)
	routes.RegisterRoutes(e, handler)

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}

func runMigrations() {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("Failed to set goose dialect: %v", err)
	}
	if err := goose.Up(config.DB.DB, "."); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations applied")
}

func seedAdmin() {
	email := viper.GetString("ADMIN_EMAIL")
	password := viper.GetString("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}

	_, err = config.DB.Exec(`
		INSERT INTO admins (email, password_hash)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash
	`, email, hash)
	if err != nil {
		log.Fatalf("Failed to seed admin %s: %v", email, err)
	}

	log.Printf("Seeded admin: %s", email)
}
