package handlers

import (
	"net/http"
	"time"

	"github.com/nobhad/no-bhad-codes-sub012/config"
	"github.com/nobhad/no-bhad-codes-sub012/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type LoginInput struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginHandler authenticates a staff or client-portal user and issues a
// JWT in the auth_token cookie.
func LoginHandler(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Login and password are required"})
		return
	}

	var user models.User
	if err := config.DB.Where("login = ? OR email = ?", input.Login, input.Login).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	claims := jwt.MapClaims{
		"user_id": user.ID,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(config.JwtKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not issue token"})
		return
	}

	c.SetCookie("auth_token", tokenStr, int((24 * time.Hour).Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"token": tokenStr,
		"user": gin.H{
			"id":       user.ID,
			"login":    user.Login,
			"email":    user.Email,
			"fullName": user.FullName,
		},
	})
}

func LogoutHandler(c *gin.Context) {
	c.SetCookie("auth_token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// MeHandler returns the authenticated user's identity and permissions as
// resolved by the auth middleware.
func MeHandler(c *gin.Context) {
	permissions, _ := c.Get("permissions")
	roles, _ := c.Get("roles")
	c.JSON(http.StatusOK, gin.H{
		"login":       c.GetString("login"),
		"email":       c.GetString("email"),
		"roles":       roles,
		"permissions": permissions,
	})
}
