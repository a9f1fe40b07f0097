package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nomorewaste/internal/api/handlers"
	"nomorewaste/internal/api/presenters"
	"nomorewaste/internal/middleware"
	"nomorewaste/pkg/jwt"
)

type Config struct {
	App              *fiber.App
	HouseholdHandler handlers.HouseholdHandler
	InventoryHandler handlers.InventoryHandler
	ReceiptHandler   handlers.ReceiptHandler
	RecipeHandler    handlers.RecipeHandler
	Middleware       middleware.Middleware
	JWTService       jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.Households()
	c.Inventory()
	c.Receipts()
	c.Recipes()
	c.GuestRoute()
	c.AuthRoute()
}

func (c *Config) Households() {
	households := c.App.Group("/api/v1/households", c.Middleware.AuthMiddleware(c.JWTService))
	{
		households.Post("", c.HouseholdHandler.CreateHousehold)
		households.Get("/me", c.HouseholdHandler.GetMyHousehold)
		households.Post("/join", c.HouseholdHandler.JoinHousehold)
		households.Post("/invite-code", c.HouseholdHandler.GenerateInviteCode)
		households.Post("/invite-email", c.HouseholdHandler.SendInvite)
		households.Delete("/membership", c.HouseholdHandler.LeaveHousehold)
		households.Delete("", c.HouseholdHandler.DeleteHousehold)
	}
}

func (c *Config) Inventory() {
	auth := c.Middleware.AuthMiddleware(c.JWTService)

	inventory := c.App.Group("/api/v1/inventory", auth)
	inventory.Get("", c.InventoryHandler.GetInventory)
	inventory.Get("/stats", c.InventoryHandler.GetStats)

	items := c.App.Group("/api/v1/items", auth)
	items.Post("", c.InventoryHandler.AddItems)
	items.Put("/:id", c.InventoryHandler.UpdateItem)
	items.Delete("/:id", c.InventoryHandler.DeleteItem)
	items.Post("/:id/consume", c.InventoryHandler.ConsumeItem)
	items.Post("/:id/waste", c.InventoryHandler.WasteItem)

	history := c.App.Group("/api/v1/history", auth)
	history.Put("/:disposition/:id", c.InventoryHandler.UpdateLog)
	history.Delete("/:disposition/:id", c.InventoryHandler.DeleteLog)
}

func (c *Config) Receipts() {
	receipts := c.App.Group("/api/v1/receipts", c.Middleware.AuthMiddleware(c.JWTService))
	receipts.Post("/extract", c.ReceiptHandler.ExtractReceipt)
}

func (c *Config) Recipes() {
	recipes := c.App.Group("/api/v1/recipes", c.Middleware.AuthMiddleware(c.JWTService))
	recipes.Post("", c.RecipeHandler.GenerateRecipe)
	recipes.Get("/usage", c.RecipeHandler.GetUsage)
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
	c.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

func (c *Config) AuthRoute() {
	c.App.Get("/api/v1/me", c.Middleware.AuthMiddleware(c.JWTService), func(c *fiber.Ctx) error {
		return presenters.SuccessResponse(c, fiber.Map{
			"user_id": c.Locals("user_id"),
			"email":   c.Locals("email"),
		}, fiber.StatusOK, "authenticated")
	})
}
