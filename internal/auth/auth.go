package auth

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// Roles carried in the JWT `role` claim. Tokens are issued by the
// identity service; this backend only verifies and consumes them.
const (
	RoleAdmin    = "ADMIN"
	RoleCustomer = "CUSTOMER"
)

// Identity is the authenticated caller. It is passed explicitly into
// every service call so nothing below the handlers reads ambient state.
type Identity struct {
	UserID int
	Role   string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// FromCtx extracts the user_id and role claims from the JWT token the
// jwtware middleware stored in c.Locals("user").
func FromCtx(c *fiber.Ctx) (Identity, error) {
	u := c.Locals("user")
	if u == nil {
		return Identity{}, fiber.ErrUnauthorized
	}
	tok, ok := u.(*jwt.Token)
	if !ok {
		return Identity{}, fiber.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fiber.ErrUnauthorized
	}

	id, err := intClaim(claims, "user_id")
	if err != nil {
		return Identity{}, err
	}

	role := RoleCustomer
	if raw, ok := claims["role"]; ok {
		if s, ok := raw.(string); ok && s != "" {
			role = s
		}
	}

	return Identity{UserID: id, Role: role}, nil
}

func intClaim(claims jwt.MapClaims, name string) (int, error) {
	raw, ok := claims[name]
	if !ok {
		return 0, fiber.ErrUnauthorized
	}
	switch v := raw.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case string:
		id, err := strconv.Atoi(v)
		if err != nil {
			return 0, fiber.ErrUnauthorized
		}
		return id, nil
	default:
		return 0, fiber.ErrUnauthorized
	}
}
