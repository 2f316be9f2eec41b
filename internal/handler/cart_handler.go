package handler

import (
	"errors"

	"commust/internal/middleware"
	"commust/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	cartPath        = "/api/v1/cart"
	productSlugPath = "/api/v1/products/p/"
)

// CartRequest is the form or JSON body of the cart mutation routes.
type CartRequest struct {
	ProductID string `json:"product_id" form:"product_id"`
	Key       string `json:"key" form:"key"`
	Quantity  *int   `json:"quantity" form:"quantity"`
}

type CartHandler struct {
	service service.CartService
	cookies middleware.CookieConfig
}

func NewCartHandler(s service.CartService, cookies middleware.CookieConfig) *CartHandler {
	return &CartHandler{service: s, cookies: cookies}
}

// GetCart returns the cart lines with prices and the running total, along with
// any rejected cart changes waiting for this visitor.
// GET /api/v1/cart
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	sc := middleware.CurrentSession(c)
	view, err := h.service.Show(c.UserContext(), sc)
	if err != nil {
		return respondError(c, "cart.show", err)
	}
	errs, err := h.service.TakeErrors(c.UserContext(), sc)
	if err != nil {
		return respondError(c, "cart.show", err)
	}
	view.Errors = errs
	if view.Errors == nil {
		view.Errors = []string{}
	}
	return c.JSON(view)
}

// AddItem adds quantity (default 1) of a product and redirects to the product page.
// Stock failures are stored as flash errors and shown on that page.
// POST /api/v1/cart/add-item
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	var req CartRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product ID"})
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	res, err := h.service.Add(c.UserContext(), middleware.CurrentSession(c), productID, qty)
	if res == nil {
		return respondError(c, "cart.add", err)
	}
	return h.finish(c, res, err, productSlugPath+res.Slug)
}

// UpdateItem sets the quantity of a cart line.
// POST /api/v1/cart/update
func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	var req CartRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Key == "" || req.Quantity == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "key and quantity are required"})
	}

	res, err := h.service.Update(c.UserContext(), middleware.CurrentSession(c), req.Key, *req.Quantity)
	if res == nil {
		return respondError(c, "cart.update", err)
	}
	return h.finish(c, res, err, cartPath)
}

// RemoveItem drops a cart line. Unknown keys are ignored.
// POST /api/v1/cart/remove
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	var req CartRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "key is required"})
	}

	res, err := h.service.Remove(c.UserContext(), middleware.CurrentSession(c), req.Key)
	if res == nil {
		return respondError(c, "cart.remove", err)
	}
	return h.finish(c, res, err, cartPath)
}

// finish writes the cart cookies and answers with a redirect, or JSON when the caller asks for it.
// err is a rejected mutation that was recorded as a flash error.
func (h *CartHandler) finish(c *fiber.Ctx, res *service.CartResult, err error, location string) error {
	middleware.WriteCartCookies(c, h.cookies, res.Hash, res.Count)

	if !wantsJSON(c) {
		return c.Redirect(location, fiber.StatusSeeOther)
	}

	body := fiber.Map{"items": res.State.Items, "count": res.Count, "hash": res.Hash}
	if err != nil {
		status := fiber.StatusUnprocessableEntity
		if errors.Is(err, service.ErrInvalidInput) {
			status = fiber.StatusBadRequest
		}
		body["error"] = err.Error()
		return c.Status(status).JSON(body)
	}
	return c.JSON(body)
}
