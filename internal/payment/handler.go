package payment

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/hoangng/fitwear-backend/internal/auth"
	"github.com/hoangng/fitwear-backend/internal/order"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// The callback is public: the gateway is authenticated by its HMAC
// signature, not by a JWT.
func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/payments/callback", h.callback)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/payments/:orderId<[0-9]+>/create", h.createPayment)
}

func (h *Handler) createPayment(c *fiber.Ctx) error {
	orderID, err := strconv.Atoi(c.Params("orderId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid order id"})
	}

	ident, err := auth.FromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}

	paymentURL, err := h.service.CreatePayment(ident, orderID, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "order not found"})
		case errors.Is(err, order.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "forbidden"})
		case errors.Is(err, ErrNotPayable):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}
	}

	return c.JSON(fiber.Map{
		"status":     "OK",
		"paymentUrl": paymentURL,
	})
}

func (h *Handler) callback(c *fiber.Ctx) error {
	params := make(map[string]string)
	for name, value := range c.Queries() {
		if value != "" {
			params[name] = value
		}
	}

	result, err := h.service.HandleCallback(params)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSignature):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"status":  "error",
				"message": "payment verification failed",
			})
		case errors.Is(err, order.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"status":  "error",
				"message": "unknown order reference",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"status":  "error",
				"message": err.Error(),
			})
		}
	}

	status := "success"
	if !result.Paid {
		status = "error"
	}
	return c.JSON(fiber.Map{
		"status":       status,
		"orderId":      result.OrderID,
		"responseCode": result.ResponseCode,
		"outcome":      result.Outcome,
	})
}
