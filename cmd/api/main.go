package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	config "github.com/tutorify/tutor-query/configs"
	"github.com/tutorify/tutor-query/database"
	"github.com/tutorify/tutor-query/events"
	"github.com/tutorify/tutor-query/handlers"
	"github.com/tutorify/tutor-query/jobs"
	"github.com/tutorify/tutor-query/metrics"
	"github.com/tutorify/tutor-query/mutexes"
	"github.com/tutorify/tutor-query/proxies"
	"github.com/tutorify/tutor-query/repositories"
	"github.com/tutorify/tutor-query/routes"
	"github.com/tutorify/tutor-query/services"
)

func main() {
	database.ConnectDB()
	database.Migrate()
	metrics.Init()

	keyedMutexes := mutexes.NewKeyedMutex()
	tutorRepo := repositories.NewTutorRepository(database.DB, config.BayesianAverageM())
	categoryRepo := repositories.NewClassCategoryRepository(database.DB)

	authProxy := proxies.NewAuthProxy(config.Config("AUTH_SERVICE_URL"))
	preferencesProxy := proxies.NewUserPreferencesProxy(config.Config("USER_PREFERENCES_SERVICE_URL"))
	addressProxy := proxies.NewAddressProxy(config.Config("ADDRESS_SERVICE_URL"))

	tutorQueryService := services.NewTutorQueryService(
		tutorRepo, categoryRepo, keyedMutexes, authProxy, preferencesProxy, addressProxy,
	)
	categoryService := services.NewClassCategoryService(categoryRepo)

	brokers := strings.Split(config.Config("KAFKA_BROKERS"), ",")
	consumer := events.NewConsumer(
		brokers,
		config.Config("KAFKA_TOPIC"),
		config.Config("KAFKA_GROUP_ID"),
		tutorQueryService,
	)
	go func() {
		if err := consumer.Run(context.Background()); err != nil {
			log.Fatalf("🔥 Event consumer stopped: %v", err)
		}
	}()

	locationJob := jobs.NewLocationBackfillJob(tutorRepo, tutorQueryService, addressProxy)
	c := cron.New()
	c.AddFunc("*/10 * * * *", locationJob.Run)
	go c.Start()
	log.Println("✅ Cron job for location backfill scheduled successfully.")

	app := fiber.New(fiber.Config{
		AppName:       "Tutor Query",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New())
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	tutorHandler := handlers.NewTutorHandler(tutorQueryService)
	categoryHandler := handlers.NewClassCategoryHandler(categoryService)
	routes.TutorRoutes(app, tutorHandler, categoryHandler)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	port := config.Config("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("✅ Server is running on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
