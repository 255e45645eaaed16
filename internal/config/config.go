package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int
	DatabasePath string

	ProfileUploadPath string // Base path for profile images
	BlogUploadPath    string // Base path for blog post images

	AllowedImageTypes     []string
	MaxImageSize          int64
	BlogAllowedImageTypes []string
	MaxBlogImageSize      int64

	SessionTTLHours int
	CleanupSchedule string // Cron expression for the session janitor

	AllowedOrigins []string
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	maxImageSize, err := strconv.ParseInt(getEnv("MAX_IMAGE_SIZE", "2097152"), 10, 64)
	if err != nil {
		return nil, err
	}

	maxBlogImageSize, err := strconv.ParseInt(getEnv("MAX_BLOG_IMAGE_SIZE", "5242880"), 10, 64)
	if err != nil {
		return nil, err
	}

	sessionTTL, err := strconv.Atoi(getEnv("SESSION_TTL_HOURS", "24"))
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:            port,
		DatabasePath:          getEnv("DATABASE_PATH", "./inkwell.db"),
		ProfileUploadPath:     getEnv("UPLOAD_PATH", "./uploads/profile"),
		BlogUploadPath:        getEnv("BLOG_UPLOAD_PATH", "./uploads/blog"),
		AllowedImageTypes:     splitList(getEnv("ALLOWED_IMAGE_TYPES", "jpg,jpeg,png,gif")),
		MaxImageSize:          maxImageSize,
		BlogAllowedImageTypes: splitList(getEnv("BLOG_ALLOWED_IMAGE_TYPES", "jpg,jpeg,png,gif,webp")),
		MaxBlogImageSize:      maxBlogImageSize,
		SessionTTLHours:       sessionTTL,
		CleanupSchedule:       getEnv("CLEANUP_SCHEDULE", "@hourly"),
		AllowedOrigins:        splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
