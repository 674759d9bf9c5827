package config

import "os"

// Config collects every runtime setting the app reads from the
// environment. main loads .env first so local runs work without an
// exported shell environment.
type Config struct {
	Addr        string
	DatabaseURL string
	JWTSecret   string

	VNPay VNPayConfig
}

// VNPayConfig holds the merchant-side settings for the VNPay gateway.
// SecretKey is the shared HMAC secret; it never appears in any URL.
type VNPayConfig struct {
	PayURL    string
	ReturnURL string
	TmnCode   string
	SecretKey string
	Version   string
	Command   string
	OrderType string
	Locale    string
	CurrCode  string
}

func Load() Config {
	return Config{
		Addr:        getEnv("FITWEAR_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		VNPay: VNPayConfig{
			PayURL:    getEnv("VNPAY_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
			ReturnURL: os.Getenv("VNPAY_RETURN_URL"),
			TmnCode:   os.Getenv("VNPAY_TMN_CODE"),
			SecretKey: os.Getenv("VNPAY_SECRET_KEY"),
			Version:   getEnv("VNPAY_VERSION", "2.1.0"),
			Command:   getEnv("VNPAY_COMMAND", "pay"),
			OrderType: getEnv("VNPAY_ORDER_TYPE", "other"),
			Locale:    getEnv("VNPAY_LOCALE", "vn"),
			CurrCode:  getEnv("VNPAY_CURR_CODE", "VND"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
