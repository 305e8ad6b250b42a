package middleware

import (
	"coursehub/apperr"
	"coursehub/config"
	"coursehub/services/access"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// GenerateJWT signs a token with the claims the middleware reads back.
func GenerateJWT(userID uuid.UUID, role, email string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"email":   email,
		"iss":     config.AppConfig.JWTIssuer,
		"iat":     time.Now().Unix(),                     // issued at
		"exp":     time.Now().Add(24 * time.Hour).Unix(), // expiry 24h
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	jwtSecret := []byte(config.AppConfig.JWTKey)

	return token.SignedString(jwtSecret)
}

// JWTMiddleware is a middleware to check for valid JWT token in the request
func JWTMiddleware(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return unauthorized(c, "Missing or invalid Authorization header")
	}
	if err := authenticate(c, authHeader); err != nil {
		return unauthorized(c, err.Error())
	}
	return c.Next()
}

// OptionalJWTMiddleware authenticates when a token is sent and lets anonymous requests through.
// A token that is present but invalid is still rejected.
func OptionalJWTMiddleware(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		c.Locals("requestor", access.Requestor{})
		return c.Next()
	}
	if err := authenticate(c, authHeader); err != nil {
		return unauthorized(c, err.Error())
	}
	return c.Next()
}

func authenticate(c *fiber.Ctx, authHeader string) error {
	// The token should be prefixed with "Bearer "
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return fmt.Errorf("Invalid Authorization header format")
	}
	tokenString := strings.TrimSpace(authHeader[len("Bearer "):])

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.JWTKey), nil
	})
	if err != nil || !token.Valid {
		return fmt.Errorf("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !claims.VerifyIssuer(config.AppConfig.JWTIssuer, false) {
		return fmt.Errorf("Invalid token payload")
	}

	// Older tokens carry userId instead of user_id.
	rawID, _ := claims["user_id"].(string)
	if rawID == "" {
		rawID, _ = claims["userId"].(string)
	}
	userID, err := uuid.Parse(rawID)
	if err != nil || userID == uuid.Nil {
		return fmt.Errorf("Invalid token payload")
	}
	role, _ := claims["role"].(string)
	email, _ := claims["email"].(string)

	c.Locals("userId", userID)
	c.Locals("role", role)
	c.Locals("email", email)
	c.Locals("requestor", access.Requestor{
		UserID:   userID,
		Role:     role,
		Elevated: config.AppConfig.IsElevated(role),
	})
	return nil
}

// GetRequestor returns the identity stored by the JWT middlewares; anonymous if none.
func GetRequestor(c *fiber.Ctx) access.Requestor {
	r, _ := c.Locals("requestor").(access.Requestor)
	return r
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"status":  false,
		"message": message,
		"reason":  apperr.ReasonUnauthorized,
	})
}

func JsonResponse(c *fiber.Ctx, statusCode int, status bool, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"status":  false,
		"message": "Validation failed!",
		"reason":  apperr.ReasonInvalidBody,
		"data":    errors,
	})
}

// ErrorResponse renders any error with its status and stable reason. Causes are never echoed.
func ErrorResponse(c *fiber.Ctx, err error) error {
	e := apperr.As(err)
	return c.Status(e.Status()).JSON(fiber.Map{
		"status":  false,
		"message": e.Message,
		"reason":  e.Reason,
		"data":    nil,
	})
}
