package handlers

import (
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

func getUserIDFromContext(c *gin.Context) (uint, error) {
	val, ok := c.Get("user_id")
	if !ok {
		return 0, fmt.Errorf("user_id missing from context")
	}
	switch v := val.(type) {
	case uint:
		return v, nil
	case int:
		return uint(v), nil
	case int64:
		return uint(v), nil
	case float64:
		return uint(v), nil
	default:
		return 0, fmt.Errorf("unexpected user_id type: %T", val)
	}
}

// getUserEmailFromContext returns the authenticated operator's email, or
// "system" when no identity is available.
func getUserEmailFromContext(c *gin.Context) string {
	if email := c.GetString("email"); email != "" {
		return email
	}
	if login := c.GetString("login"); login != "" {
		return login
	}
	return "system"
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

func contractsBaseDir() string {
	if dir := os.Getenv("CONTRACTS_DIR"); dir != "" {
		return dir
	}
	return "data/contracts"
}

func publicBaseURL() string {
	if base := os.Getenv("PUBLIC_BASE_URL"); base != "" {
		return strings.TrimRight(base, "/")
	}
	return "http://localhost:8080"
}

func businessName() string {
	if name := os.Getenv("BUSINESS_NAME"); name != "" {
		return name
	}
	return "No Bhad Codes"
}

func businessEmail() string {
	if email := os.Getenv("BUSINESS_EMAIL"); email != "" {
		return email
	}
	return "hello@nobhadcodes.com"
}
