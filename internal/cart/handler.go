package cart

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/hoangng/fitwear-backend/internal/auth"
)

// Handler delegates cart operations to the cart service.
// This keeps cart-specific HTTP routing isolated.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/cart", h.getCart)
	app.Post("/api/v1/cart/items", h.addLine)
	app.Patch("/api/v1/cart/items/:id<[0-9]+>", h.updateLine)
	app.Delete("/api/v1/cart/items/:id<[0-9]+>", h.removeLine)
}

type addLineRequest struct {
	VariantID int `json:"variantId"`
	Quantity  int `json:"quantity"`
}

type updateLineRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	ident, err := auth.FromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	crt, err := h.service.GetCart(ident.UserID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(crt)
}

func (h *Handler) addLine(c *fiber.Ctx) error {
	payload := new(addLineRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	ident, err := auth.FromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	crt, err := h.service.AddLine(ident.UserID, payload.VariantID, payload.Quantity)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(crt)
}

func (h *Handler) updateLine(c *fiber.Ctx) error {
	lineID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid cart line id"})
	}
	payload := new(updateLineRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	ident, err := auth.FromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	crt, err := h.service.UpdateLine(ident.UserID, lineID, payload.Quantity)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(crt)
}

func (h *Handler) removeLine(c *fiber.Ctx) error {
	lineID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid cart line id"})
	}

	ident, err := auth.FromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	crt, err := h.service.RemoveLine(ident.UserID, lineID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(crt)
}

func respondErr(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrCartNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "cart not found"})
	case errors.Is(err, ErrLineNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "cart line not found"})
	case errors.Is(err, ErrVariantNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "variant not found"})
	case errors.Is(err, ErrInvalidQuantity):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
}
