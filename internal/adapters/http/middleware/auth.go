// Package middleware - Authentication middleware.
//
// Production-ready auth middleware с поддержкой JWT (HS256).
// MockTokenValidator оставлен ТОЛЬКО для development/test.
package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Haleralex/wallethub/internal/application/ports"
	"github.com/Haleralex/wallethub/internal/domain/entities"
)

const (
	// AuthIssuerTypeKey - ключ для хранения типа издателя токена в контексте
	AuthIssuerTypeKey = "auth_issuer_type"
	// AuthUserIDKey - ключ для хранения User ID в контексте
	AuthUserIDKey = "auth_user_id"
	// AuthBusinessNameKey - ключ для хранения имени бизнеса в контексте
	AuthBusinessNameKey = "auth_business_name"
	// AuthDefaultCurrencyKey - ключ для хранения валюты бизнеса по умолчанию
	AuthDefaultCurrencyKey = "auth_default_currency"
	// AuthAppIDKey - ключ для хранения ID приложения-издателя
	AuthAppIDKey = "auth_app_id"
	// AuthScopesKey - ключ для хранения scopes токена
	AuthScopesKey = "auth_scopes"
)

// AuthConfig - конфигурация для authentication middleware.
type AuthConfig struct {
	// TokenValidator - функция для валидации токена
	// В production здесь будет JWT validator или вызов auth service
	TokenValidator func(token string) (*AuthClaims, error)
	// SkipPaths - пути, которые не требуют авторизации
	SkipPaths []string
}

// AuthClaims - данные из токена авторизации. Каждый токен выпущен от имени
// ровно одного бизнеса (tenant) и несёт тип издателя: пользователь,
// собственно бизнес, либо приложение, работающее от имени бизнеса.
type AuthClaims struct {
	IssuerType      entities.IssuerKind
	UserID          uuid.UUID
	BusinessName    string
	DefaultCurrency string
	AppID           *uuid.UUID
	Scopes          []string
	Exp             time.Time
}

// Auth middleware для проверки авторизации.
//
// Схема работы:
// 1. Извлекает токен из заголовка Authorization
// 2. Валидирует токен через TokenValidator
// 3. Добавляет данные издателя в контекст
// 4. Продолжает обработку или возвращает 401
func Auth(config *AuthConfig) gin.HandlerFunc {
	skipMap := make(map[string]bool)
	for _, path := range config.SkipPaths {
		skipMap[path] = true
	}

	return func(c *gin.Context) {
		if skipMap[c.Request.URL.Path] {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithUnauthorized(c, "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWithUnauthorized(c, "Invalid authorization header format")
			return
		}

		token := parts[1]
		if token == "" {
			abortWithUnauthorized(c, "Token is required")
			return
		}

		claims, err := config.TokenValidator(token)
		if err != nil {
			abortWithUnauthorized(c, "Invalid or expired token")
			return
		}

		if claims.Exp.Before(time.Now()) {
			abortWithUnauthorized(c, "Token has expired")
			return
		}

		c.Set(AuthIssuerTypeKey, claims.IssuerType)
		c.Set(AuthUserIDKey, claims.UserID)
		c.Set(AuthBusinessNameKey, claims.BusinessName)
		c.Set(AuthDefaultCurrencyKey, claims.DefaultCurrency)
		c.Set(AuthScopesKey, claims.Scopes)
		if claims.AppID != nil {
			c.Set(AuthAppIDKey, *claims.AppID)
		}

		c.Next()
	}
}

// abortWithUnauthorized отправляет 401 ответ.
func abortWithUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
		"request_id": GetRequestID(c),
		"timestamp":  time.Now().UTC(),
	})
}

// RequireIssuer middleware проверяет, что токен выпущен одним из
// перечисленных типов издателя (business/app), но не гейтит ничего, что
// use case и так проверяет через Authorization.IsUser() — это всего лишь
// ранний отказ на границе HTTP, чтобы не тратить транзакцию впустую.
func RequireIssuer(kinds ...entities.IssuerKind) gin.HandlerFunc {
	allowed := make(map[entities.IssuerKind]bool, len(kinds))
	for _, k := range kinds {
		allowed[k] = true
	}

	return func(c *gin.Context) {
		issuer := GetAuthIssuerType(c)
		if !allowed[issuer] {
			abortWithForbidden(c, "Insufficient permissions for this issuer type")
			return
		}
		c.Next()
	}
}

// abortWithForbidden отправляет 403 ответ.
func abortWithForbidden(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "FORBIDDEN",
			"message": message,
		},
		"request_id": GetRequestID(c),
		"timestamp":  time.Now().UTC(),
	})
}

// ============================================
// Helper functions для извлечения auth данных
// ============================================

// GetAuthIssuerType возвращает тип издателя токена.
func GetAuthIssuerType(c *gin.Context) entities.IssuerKind {
	if v, exists := c.Get(AuthIssuerTypeKey); exists {
		if kind, ok := v.(entities.IssuerKind); ok {
			return kind
		}
	}
	return ""
}

// GetAuthUserID возвращает ID авторизованного пользователя.
func GetAuthUserID(c *gin.Context) uuid.UUID {
	if id, exists := c.Get(AuthUserIDKey); exists {
		if uid, ok := id.(uuid.UUID); ok {
			return uid
		}
	}
	return uuid.Nil
}

// GetAuthBusinessName возвращает имя бизнеса, от имени которого выпущен токен.
func GetAuthBusinessName(c *gin.Context) string {
	if v, exists := c.Get(AuthBusinessNameKey); exists {
		if name, ok := v.(string); ok {
			return name
		}
	}
	return ""
}

// GetAuthAppID возвращает ID приложения-издателя, если токен выпущен приложению.
func GetAuthAppID(c *gin.Context) *uuid.UUID {
	if v, exists := c.Get(AuthAppIDKey); exists {
		if id, ok := v.(uuid.UUID); ok {
			return &id
		}
	}
	return nil
}

// GetAuthScopes возвращает scopes токена.
func GetAuthScopes(c *gin.Context) []string {
	if v, exists := c.Get(AuthScopesKey); exists {
		if scopes, ok := v.([]string); ok {
			return scopes
		}
	}
	return nil
}

// Authorization собирает ports.Authorization из claims, осевших в контексте
// после Auth middleware. Handlers передают результат напрямую в Execute
// каждого use case — вся проверка IsUser()/issuer остаётся на его стороне.
func Authorization(c *gin.Context) ports.Authorization {
	return ports.Authorization{
		IssuerType: GetAuthIssuerType(c),
		UserID:     GetAuthUserID(c),
		Business: ports.Business{
			Name:            GetAuthBusinessName(c),
			DefaultCurrency: getAuthDefaultCurrency(c),
		},
		AppID:  GetAuthAppID(c),
		Scopes: GetAuthScopes(c),
	}
}

func getAuthDefaultCurrency(c *gin.Context) string {
	if v, exists := c.Get(AuthDefaultCurrencyKey); exists {
		if cur, ok := v.(string); ok {
			return cur
		}
	}
	return ""
}

// ============================================
// JWT Token Validator (Production)
// ============================================

// NewJWTTokenValidator creates a production JWT token validator.
// Uses HS256 signing method with the provided secret.
func NewJWTTokenValidator(secret string, issuer string) func(token string) (*AuthClaims, error) {
	return func(tokenString string) (*AuthClaims, error) {
		parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to parse token: %w", err)
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok || !parsed.Valid {
			return nil, fmt.Errorf("invalid token claims")
		}

		if issuer != "" {
			if iss, _ := claims["iss"].(string); iss != issuer {
				return nil, fmt.Errorf("invalid token issuer")
			}
		}

		issuerType, _ := claims["issuer_type"].(string)
		if !entities.IssuerKind(issuerType).IsValid() {
			return nil, fmt.Errorf("missing or invalid issuer_type in token")
		}

		sub, _ := claims["sub"].(string)
		userID, err := uuid.Parse(sub)
		if err != nil {
			return nil, fmt.Errorf("missing or invalid user ID (sub) in token")
		}

		businessName, _ := claims["business_name"].(string)
		if businessName == "" {
			return nil, fmt.Errorf("missing business_name in token")
		}
		defaultCurrency, _ := claims["default_currency"].(string)

		var appID *uuid.UUID
		if appIDStr, ok := claims["app_id"].(string); ok && appIDStr != "" {
			parsedAppID, err := uuid.Parse(appIDStr)
			if err != nil {
				return nil, fmt.Errorf("invalid app_id in token")
			}
			appID = &parsedAppID
		}

		var scopes []string
		if rawScopes, ok := claims["scopes"].([]interface{}); ok {
			scopes = make([]string, 0, len(rawScopes))
			for _, s := range rawScopes {
				if str, ok := s.(string); ok {
					scopes = append(scopes, str)
				}
			}
		}

		exp := time.Time{}
		if expFloat, ok := claims["exp"].(float64); ok {
			exp = time.Unix(int64(expFloat), 0)
		}

		return &AuthClaims{
			IssuerType:      entities.IssuerKind(issuerType),
			UserID:          userID,
			BusinessName:    businessName,
			DefaultCurrency: defaultCurrency,
			AppID:           appID,
			Scopes:          scopes,
			Exp:             exp,
		}, nil
	}
}

// GenerateJWT creates a signed JWT token with HS256.
func GenerateJWT(secret, issuer string, claims AuthClaims, expiry time.Duration) (string, error) {
	now := time.Now()
	mapClaims := jwt.MapClaims{
		"sub":              claims.UserID.String(),
		"issuer_type":      string(claims.IssuerType),
		"business_name":    claims.BusinessName,
		"default_currency": claims.DefaultCurrency,
		"scopes":           claims.Scopes,
		"iss":              issuer,
		"iat":              now.Unix(),
		"exp":              now.Add(expiry).Unix(),
	}
	if claims.AppID != nil {
		mapClaims["app_id"] = claims.AppID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims)
	return token.SignedString([]byte(secret))
}

// ============================================
// Development/Testing Helpers
// ============================================

// MockTokenValidator - mock validator для development/testing.
//
// ВАЖНО: Использовать ТОЛЬКО для разработки!
// В production должен быть реальный JWT validator.
func MockTokenValidator(token string) (*AuthClaims, error) {
	userID, err := uuid.Parse(token)
	if err != nil {
		userID = uuid.New()
	}
	return &AuthClaims{
		IssuerType:      entities.IssuerUser,
		UserID:          userID,
		BusinessName:    "dev",
		DefaultCurrency: "USD",
		Exp:             time.Now().Add(24 * time.Hour),
	}, nil
}

// AdminMockTokenValidator - mock validator для бизнес-издателя.
func AdminMockTokenValidator(token string) (*AuthClaims, error) {
	userID, err := uuid.Parse(token)
	if err != nil {
		userID = uuid.New()
	}
	return &AuthClaims{
		IssuerType:      entities.IssuerBusiness,
		UserID:          userID,
		BusinessName:    "dev",
		DefaultCurrency: "USD",
		Scopes:          []string{"admin"},
		Exp:             time.Now().Add(24 * time.Hour),
	}, nil
}
