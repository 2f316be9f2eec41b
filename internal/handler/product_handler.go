package handler

import (
	"commust/internal/applog"
	"commust/internal/middleware"
	"commust/internal/model"
	"commust/internal/repository"
	"commust/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	service service.ProductService
	cart    service.CartService
}

func NewProductHandler(s service.ProductService, cart service.CartService) *ProductHandler {
	return &ProductHandler{service: s, cart: cart}
}

// GetProducts lists product views.
// GET /api/v1/products?status=publish&limit=20&offset=0
func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	filter := repository.ProductFilter{
		Status: c.Query("status"),
		Limit:  c.QueryInt("limit", 0),
		Offset: c.QueryInt("offset", 0),
	}
	products, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, "product.list", err)
	}
	return c.JSON(products)
}

// GetProduct returns a product view along with any cart errors waiting for this visitor.
// GET /api/v1/products/:id
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product ID"})
	}
	product, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, "product.show", err)
	}
	return h.show(c, product)
}

// GetProductBySlug is GetProduct addressed by slug.
// GET /api/v1/products/p/:slug
func (h *ProductHandler) GetProductBySlug(c *fiber.Ctx) error {
	product, err := h.service.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, "product.show", err)
	}
	return h.show(c, product)
}

func (h *ProductHandler) show(c *fiber.Ctx, product *model.ProductView) error {
	errs, err := h.cart.TakeErrors(c.UserContext(), middleware.CurrentSession(c))
	if err != nil {
		return respondError(c, "product.show", err)
	}
	if errs == nil {
		errs = []string{}
	}
	return c.JSON(fiber.Map{"data": product, "errors": errs})
}

// GetProductForEdit returns the view plus the raw metadata rows.
// GET /api/v1/products/:id/edit
func (h *ProductHandler) GetProductForEdit(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product ID"})
	}
	edit, err := h.service.GetForEdit(c.UserContext(), id)
	if err != nil {
		return respondError(c, "product.edit", err)
	}
	return c.JSON(edit)
}

func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var in service.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	product, err := h.service.Create(c.UserContext(), &in, actor(c))
	if err != nil {
		return respondError(c, "product.create", err)
	}

	applog.Audit(c, "product.create", map[string]any{"product_id": product.ID.String()})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Product created", "data": product})
}

func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var in service.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	product, err := h.service.Update(c.UserContext(), id, &in, actor(c))
	if err != nil {
		return respondError(c, "product.update", err)
	}

	applog.Audit(c, "product.update", map[string]any{"product_id": product.ID.String()})
	return c.JSON(fiber.Map{"message": "Product updated", "data": product})
}

func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	if err := h.service.Delete(c.UserContext(), id, actor(c)); err != nil {
		return respondError(c, "product.delete", err)
	}

	applog.Audit(c, "product.delete", map[string]any{"product_id": id.String()})
	return c.JSON(fiber.Map{"message": "Product deleted"})
}
