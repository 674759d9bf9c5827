package order

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/hoangng/fitwear-backend/internal/auth"
	"github.com/hoangng/fitwear-backend/internal/cart"
	"github.com/hoangng/fitwear-backend/internal/stock"
)

// Handler translates HTTP requests into order service calls and maps
// the typed failures onto status codes.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/checkout", h.checkout)
	app.Get("/api/v1/orders", h.listOrders)
	app.Get("/api/v1/orders/all", h.listAllOrders)
	app.Get("/api/v1/orders/:id<[0-9]+>", h.getOrder)
	app.Patch("/api/v1/orders/:id<[0-9]+>/status", h.updateStatus)
	app.Post("/api/v1/orders/:id<[0-9]+>/cancel", h.cancelOrder)
}

type checkoutRequest struct {
	ShippingAddress string `json:"shippingAddress"`
	ShippingPhone   string `json:"shippingPhone"`
	PaymentMethod   string `json:"paymentMethod"`
	CartLineIDs     []int  `json:"cartLineIds"`
}

func (h *Handler) checkout(c *fiber.Ctx) error {
	payload := new(checkoutRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.ShippingAddress == "" || payload.ShippingPhone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "shippingAddress and shippingPhone are required"})
	}
	if !PaymentMethod(payload.PaymentMethod).Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "paymentMethod must be COD or BANK_TRANSFER"})
	}
	if len(payload.CartLineIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "cartLineIds cannot be empty"})
	}

	ident, err := auth.FromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	created, err := h.service.Checkout(ident, CheckoutInput{
		CartLineIDs:     payload.CartLineIDs,
		ShippingAddress: payload.ShippingAddress,
		ShippingPhone:   payload.ShippingPhone,
		PaymentMethod:   PaymentMethod(payload.PaymentMethod),
	})
	if err != nil {
		return h.respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) getOrder(c *fiber.Ctx) error {
	orderID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid order id"})
	}

	ident, err := auth.FromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	ord, err := h.service.Get(ident, orderID)
	if err != nil {
		return h.respondErr(c, err)
	}
	return c.JSON(ord)
}

func (h *Handler) listOrders(c *fiber.Ctx) error {
	ident, err := auth.FromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	orders, err := h.service.ListForUser(ident, c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		return h.respondErr(c, err)
	}
	return c.JSON(orders)
}

func (h *Handler) listAllOrders(c *fiber.Ctx) error {
	ident, err := auth.FromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	orders, err := h.service.ListAll(ident, c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		return h.respondErr(c, err)
	}
	return c.JSON(orders)
}

func (h *Handler) updateStatus(c *fiber.Ctx) error {
	orderID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid order id"})
	}
	next := Status(c.Query("status"))
	if next == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "status query parameter is required"})
	}

	ident, err := auth.FromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	ord, err := h.service.UpdateStatus(ident, orderID, next)
	if err != nil {
		return h.respondErr(c, err)
	}
	return c.JSON(ord)
}

func (h *Handler) cancelOrder(c *fiber.Ctx) error {
	orderID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid order id"})
	}

	ident, err := auth.FromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	ord, err := h.service.Cancel(ident, orderID)
	if err != nil {
		return h.respondErr(c, err)
	}
	return c.JSON(ord)
}

func (h *Handler) respondErr(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, stock.ErrInsufficientStock):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, cart.ErrEmptySelection):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "no valid items selected for checkout"})
	case errors.Is(err, cart.ErrCartNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "cart not found"})
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "order not found"})
	case errors.Is(err, ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "forbidden"})
	case errors.Is(err, ErrIllegalTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrVersionConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "order was modified concurrently, retry"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
}
