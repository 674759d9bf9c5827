package main

import (
	"database/sql"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/joho/godotenv"

	"github.com/hoangng/fitwear-backend/internal/cart"
	"github.com/hoangng/fitwear-backend/internal/config"
	"github.com/hoangng/fitwear-backend/internal/database"
	"github.com/hoangng/fitwear-backend/internal/logger"
	"github.com/hoangng/fitwear-backend/internal/order"
	"github.com/hoangng/fitwear-backend/internal/payment"
	"github.com/hoangng/fitwear-backend/internal/stock"
	"github.com/hoangng/fitwear-backend/internal/variant"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New("fitwear-backend", os.Getenv("LOG_LEVEL"))

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("could not open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := ensureSchema(db); err != nil {
		log.Error("could not ensure schema", "error", err)
		os.Exit(1)
	}

	app := fiber.New()
	setupCORS(app)
	app.Use(requestLogger(log))

	txRunner := database.NewSQLRunner(db)
	ledger := stock.NewSQLLedger()

	variantRepo := variant.NewPostgresRepository(db)
	variantHandler := variant.NewHandler(variantRepo)

	cartRepo := cart.NewPostgresRepository(db)
	cartService := cart.NewService(cartRepo)
	cartHandler := cart.NewHandler(cartService)

	orderService := order.NewService(txRunner, order.NewPostgresRepository(db), cartRepo, ledger, log)
	orderHandler := order.NewHandler(orderService)

	gateway := payment.NewGateway(cfg.VNPay)
	paymentService := payment.NewService(gateway, orderService, payment.NewPostgresEventRepository(db), log)
	paymentHandler := payment.NewHandler(paymentService)

	// public surface: catalog reads and the signature-authenticated
	// gateway callback
	variantHandler.RegisterPublicRoutes(app)
	paymentHandler.RegisterPublicRoutes(app)

	app.Use(jwtware.New(jwtware.Config{
		SigningKey: []byte(cfg.JWTSecret),
	}))

	cartHandler.RegisterProtectedRoutes(app)
	orderHandler.RegisterProtectedRoutes(app)
	paymentHandler.RegisterProtectedRoutes(app)

	log.Info("starting server", "addr", cfg.Addr)
	if err := app.Listen(cfg.Addr); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}

func requestLogger(log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration_ms", time.Since(start).Milliseconds())
		return err
	}
}

func ensureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS product_variants (
			variant_id SERIAL PRIMARY KEY,
			product_id INT NOT NULL,
			product_name TEXT NOT NULL,
			size TEXT NOT NULL DEFAULT '',
			color TEXT NOT NULL DEFAULT '',
			price NUMERIC(12,2) NOT NULL,
			stock_quantity INT NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS carts (
			cart_id SERIAL PRIMARY KEY,
			user_id INT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS cart_lines (
			cart_line_id SERIAL PRIMARY KEY,
			cart_id INT NOT NULL REFERENCES carts(cart_id),
			variant_id INT NOT NULL REFERENCES product_variants(variant_id),
			quantity INT NOT NULL CHECK (quantity > 0),
			UNIQUE (cart_id, variant_id)
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			order_id SERIAL PRIMARY KEY,
			user_id INT NOT NULL,
			status TEXT NOT NULL,
			payment_status TEXT NOT NULL,
			payment_method TEXT NOT NULL,
			shipping_address TEXT NOT NULL,
			shipping_phone TEXT NOT NULL,
			total_amount NUMERIC(14,2) NOT NULL,
			version INT NOT NULL DEFAULT 0,
			created_at TEXT,
			updated_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS order_lines (
			order_line_id SERIAL PRIMARY KEY,
			order_id INT NOT NULL REFERENCES orders(order_id),
			variant_id INT NOT NULL,
			product_name TEXT NOT NULL DEFAULT '',
			quantity INT NOT NULL CHECK (quantity > 0),
			unit_price NUMERIC(12,2) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS payment_events (
			event_id UUID PRIMARY KEY,
			order_id INT NOT NULL,
			response_code TEXT,
			outcome TEXT,
			created_at TEXT
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
