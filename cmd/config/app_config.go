package config

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	"nomorewaste/internal/api/handlers"
	"nomorewaste/internal/api/routes"
	"nomorewaste/internal/middleware"
	"nomorewaste/internal/utils"
	"nomorewaste/internal/utils/mailing"
	"nomorewaste/internal/utils/storage"
	"nomorewaste/pkg/activity"
	"nomorewaste/pkg/household"
	"nomorewaste/pkg/inventory"
	"nomorewaste/pkg/jwt"
	"nomorewaste/pkg/realtime"
	"nomorewaste/pkg/receipt"
	"nomorewaste/pkg/recipe"
)

// Server is the REST app plus the change-feed gateway it publishes to. The gateway is
// served on its own listener because fiber cannot hijack connections for websockets.
type Server struct {
	App     *fiber.App
	Hub     *realtime.Hub
	Gateway http.Handler
}

type (
	Option func(*options)

	options struct {
		jwtService jwt.JWTService
		model      receipt.Model
		modelSet   bool
		storage    storage.AwsS3
		storageSet bool
		mailer     mailing.Mailer
		mailerSet  bool
		accessLog  io.Writer
		rateLimit  int
		gateway    []realtime.GatewayOption
	}
)

func WithJWTService(j jwt.JWTService) Option {
	return func(o *options) { o.jwtService = j }
}

// WithModel replaces the configured extraction and recipe provider. nil disables both.
func WithModel(m receipt.Model) Option {
	return func(o *options) { o.model, o.modelSet = m, true }
}

func WithStorage(s storage.AwsS3) Option {
	return func(o *options) { o.storage, o.storageSet = s, true }
}

func WithMailer(m mailing.Mailer) Option {
	return func(o *options) { o.mailer, o.mailerSet = m, true }
}

func WithAccessLog(w io.Writer) Option {
	return func(o *options) { o.accessLog = w }
}

// WithRateLimit sets requests per second per client. 0 turns the limiter off.
func WithRateLimit(max int) Option {
	return func(o *options) { o.rateLimit = max }
}

func WithGatewayOptions(opts ...realtime.GatewayOption) Option {
	return func(o *options) { o.gateway = append(o.gateway, opts...) }
}

func openAccessLog() io.Writer {
	err := os.MkdirAll("./logs", os.ModePerm)
	if err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}
	file, err := os.OpenFile(
		"./logs/app.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	return file
}

func NewApp(db *gorm.DB, opts ...Option) (*Server, error) {
	o := &options{rateLimit: 10}
	for _, opt := range opts {
		opt(o)
	}

	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: o.accessLog == nil,
		BodyLimit:         10 * 1024 * 1024,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	// setting up logging and limiter
	if o.accessLog == nil {
		o.accessLog = openAccessLog()
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Output:     o.accessLog,
	}))

	if o.rateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        o.rateLimit,
			Expiration: 1 * time.Second,
		}))
	}

	// utils
	if !o.storageSet {
		o.storage = storage.NewAwsS3()
	}
	if !o.mailerSet && utils.GetConfig("SMTP_HOST") != "" {
		o.mailer = mailing.NewSMTPMailer(mailing.LoadMailConfig())
	}
	if !o.modelSet {
		m, err := receipt.NewModelFromConfig()
		if err != nil {
			log.Warnf("receipt extraction and recipes disabled: %v", err)
		}
		o.model = m
	}
	if o.jwtService == nil {
		o.jwtService = jwt.NewJWTService()
	}
	hub := realtime.NewHub()

	// Repository
	activityRepository := activity.NewActivityRepository(db)
	householdRepository := household.NewHouseholdRepository(db, activityRepository)
	inventoryRepository := inventory.NewInventoryRepository(db)
	receiptRepository := receipt.NewReceiptRepository(db)
	recipeRepository := recipe.NewRecipeRepository(db)

	// Service
	householdService := household.NewHouseholdService(
		householdRepository,
		hub,
		utils.GetConfigDuration("INVITE_CODE_TTL"),
		household.WithMailer(o.mailer, utils.GetConfig("APP_URL")),
		household.WithEvictor(hub),
	)
	inventoryService := inventory.NewInventoryService(inventoryRepository, activityRepository, householdService, hub)
	receiptService := receipt.NewReceiptService(
		receiptRepository,
		householdService,
		o.model,
		o.storage,
		utils.GetConfigInt("RECEIPT_MAX_WIDTH"),
		utils.GetConfigInt("RECEIPT_JPEG_QUALITY"),
	)
	var generator recipe.Generator
	if o.model != nil {
		generator = o.model
	}
	recipeService := recipe.NewRecipeService(recipeRepository, inventoryService, generator, utils.GetConfigInt("RECIPE_DAILY_LIMIT"))

	// Handler
	householdHandler := handlers.NewHouseholdHandler(householdService, validator)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService, validator)
	receiptHandler := handlers.NewReceiptHandler(receiptService)
	recipeHandler := handlers.NewRecipeHandler(recipeService, validator)

	// routes
	routesConfig := routes.Config{
		App:              app,
		HouseholdHandler: householdHandler,
		InventoryHandler: inventoryHandler,
		ReceiptHandler:   receiptHandler,
		RecipeHandler:    recipeHandler,
		Middleware:       middlewares,
		JWTService:       o.jwtService,
	}
	routesConfig.Setup()

	mux := http.NewServeMux()
	mux.Handle("/ws", realtime.NewGateway(hub, o.jwtService, householdService, o.gateway...))

	return &Server{App: app, Hub: hub, Gateway: mux}, nil
}
