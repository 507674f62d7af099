package routes

import (
	"os"

	"lastmile-address/constants"
	addressController "lastmile-address/controllers/address"
	authController "lastmile-address/controllers/auth"
	companyController "lastmile-address/controllers/company"
	contactController "lastmile-address/controllers/contact"
	driverController "lastmile-address/controllers/driver"
	userController "lastmile-address/controllers/user"
	httpServices "lastmile-address/httpServices/sso"
	"lastmile-address/logger"
	"lastmile-address/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	ssoClient := httpServices.NewClient(os.Getenv("SSO_BASE_URL"))
	asyncLogger := logger.NewAsyncLogger(db)
	auth := authController.NewAuthController(ssoClient, db, asyncLogger)
	addresses := addressController.NewAddressController(db, asyncLogger)
	contacts := contactController.NewContactController(db, asyncLogger)
	drivers := driverController.NewDriverController(db, asyncLogger)
	companies := companyController.NewCompanyController(db, asyncLogger)

	// Start the async logger processing goroutine
	go asyncLogger.ProcessLog()

	app.Use(middleware.AuditLog(asyncLogger))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"service": "lastmile-address", "status": "ok"})
	})

	/*=============================================================================
	| Public Routes
	===============================================================================*/
	api := app.Group("/api")
	api.Post("/get-service-token", auth.GetServiceToken)
	api.Post("/login", auth.Login)

	/*=============================================================================
	| Driver Routes (public; gated by the driver registry + feedback lock)
	===============================================================================*/
	driverGroup := api.Group("/driver")
	driverGroup.Post("/check-pending-feedback", drivers.CheckPendingFeedback)
	driverGroup.Post("/lookup-address", drivers.LookupAddress)
	driverGroup.Post("/feedback", drivers.SubmitFeedback)
	driverGroup.Get("/lookup/:id/alternates", drivers.GetAlternates)
	driverGroup.Post("/request-alternate", drivers.RequestAlternate)
	driverGroup.Post("/complete-alternate", drivers.CompleteAlternate)

	/*=============================================================================
	| Protected Routes
	===============================================================================*/
	authGroup := api.Group("/auth").Use(middleware.RequireAnyPermission())
	authGroup.Get("/profile", userController.GetUserInfo)
	authGroup.Post("/logout", auth.LogOut)

	/*=============================================================================
	| Address Routes (resident portal)
	===============================================================================*/
	addressGroup := api.Group("/addresses").Use(middleware.RequireAuthentication())
	addressGroup.Post("/", addresses.Create)
	addressGroup.Get("/", addresses.List)
	addressGroup.Get("/by-digital-id/:digitalId", addresses.GetByDigitalID)
	addressGroup.Get("/:digitalId/qr", addresses.QRCode)
	addressGroup.Get("/:addressId/fallback-contacts", contacts.List)
	addressGroup.Get("/:id", addresses.Get)
	addressGroup.Put("/:id", addresses.Update)
	addressGroup.Delete("/:id", addresses.Delete)
	addressGroup.Post("/:id/set-primary", addresses.SetPrimary)

	/*=============================================================================
	| Fallback Contact Routes (resident portal)
	===============================================================================*/
	contactGroup := api.Group("/fallback-contacts").Use(middleware.RequireAuthentication())
	contactGroup.Post("/", contacts.Create)
	contactGroup.Put("/:id", contacts.Update)
	contactGroup.Delete("/:id", contacts.Delete)

	/*=============================================================================
	| Company Portal Routes
	===============================================================================*/
	companyGroup := api.Group("/company").Use(middleware.RequirePermissions(
		constants.CompanyPortalPermissions...,
	))
	companyGroup.Post("/profile", companies.CreateProfile)
	companyGroup.Get("/profile", companies.GetProfile)
	companyGroup.Post("/drivers", companies.CreateDriver)
	companyGroup.Get("/drivers", companies.ListDrivers)
	companyGroup.Put("/drivers/:id", companies.UpdateDriver)
	companyGroup.Delete("/drivers/:id", companies.DeleteDriver)
	companyGroup.Get("/address-stats", companies.AddressDeliveryStats)
	companyGroup.Get("/hotspots", companies.DeliveryHotspots)
}
