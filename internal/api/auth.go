package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/trooptools/shiftwise/pkg/core/model"
)

const (
	ctxUserID   = "user_id"
	ctxUserRole = "user_role"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	userID, passwordHash, err := s.creds.GetUserCredentials(c.Request.Context(), req.Email)
	if err != nil {
		s.logger.Warn("Login failed", zap.String("email", req.Email))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)) != nil {
		s.logger.Warn("Login failed", zap.String("email", req.Email))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	user, err := s.store.GetUser(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	token, err := s.signToken(user)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID))
	c.JSON(http.StatusOK, loginResponse{Token: token, User: *user})
}

func (s *Server) signToken(user *model.User) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":  user.ID,
		"role": string(user.Role),
		"exp":  time.Now().Add(s.tokenTTL).Unix(),
	}).SignedString(s.jwtSecret)
}

// jwtAuth validates the bearer token and stashes the caller's id and role in
// the request context. Tokens past half their lifetime are renewed via the
// X-New-Token header.
func (s *Server) jwtAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		token, err := jwt.Parse(auth[7:], func(t *jwt.Token) (interface{}, error) {
			return s.jwtSecret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		uid, _ := claims["uid"].(string)
		role, _ := claims["role"].(string)
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxUserID, uid)
		c.Set(ctxUserRole, role)

		if exp, ok := claims["exp"].(float64); ok {
			if time.Until(time.Unix(int64(exp), 0)) < s.tokenTTL/2 {
				newToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
					"uid":  uid,
					"role": role,
					"exp":  time.Now().Add(s.tokenTTL).Unix(),
				}).SignedString(s.jwtSecret)
				if err == nil {
					c.Header("X-New-Token", newToken)
				}
			}
		}

		c.Next()
	}
}

// requireLeadership gates administrative routes on the role claim
func (s *Server) requireLeadership() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := model.UserRole(c.GetString(ctxUserRole))
		if !role.IsLeadership() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "leadership role required"})
			return
		}
		c.Next()
	}
}
