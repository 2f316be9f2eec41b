package handler

import (
	"commust/internal/middleware"
	"commust/internal/model"

	"github.com/gofiber/fiber/v2"
)

// Routes holds the handlers and guards mounted under /api/v1.
type Routes struct {
	Auth      *AuthHandler
	Products  *ProductHandler
	Cart      *CartHandler
	Dashboard *DashboardHandler

	RequireAuth fiber.Handler
	Session     fiber.Handler
}

func (r Routes) Mount(api fiber.Router) {
	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", r.Auth.Login)

	visitor := api.Group("", r.Session)
	visitor.Get("/products", r.Products.GetProducts)
	visitor.Get("/products/p/:slug", r.Products.GetProductBySlug)
	visitor.Get("/products/:id", r.Products.GetProduct)

	visitor.Get("/cart", r.Cart.GetCart)
	visitor.Post("/cart/add-item", r.Cart.AddItem)
	visitor.Post("/cart/update", r.Cart.UpdateItem)
	visitor.Post("/cart/remove", r.Cart.RemoveItem)

	// ============ ADMIN ROUTES ============
	admin := api.Group("", r.RequireAuth, middleware.RequireRole(model.RoleAdmin))
	admin.Get("/dashboard/stats", r.Dashboard.GetDashboardStats)
	admin.Post("/products", r.Products.CreateProduct)
	admin.Get("/products/:id/edit", r.Products.GetProductForEdit)
	admin.Post("/products/:id", r.Products.UpdateProduct)
	admin.Delete("/products/:id", r.Products.DeleteProduct)
}
