// Package middleware 提供 Gin 中间件：认证、角色、限流、熔断、缓存、指标与追踪.
package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yeisme/studyvault/pkg/configs"
	appctx "github.com/yeisme/studyvault/pkg/context"
)

// gin context 中的认证字段.
const (
	CtxUserIDKey = "user_id"
	CtxEmailKey  = "email"
	CtxRoleKey   = "role"
)

// AuthClaims 登录令牌的声明.
type AuthClaims struct {
	UserID uint   `json:"uid"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// RevokedTokenKey 注销令牌在 KV 黑名单中的键.
func RevokedTokenKey(token string) string {
	return fmt.Sprintf("auth:revoked:%016x", xxhash.Sum64String(token))
}

// ParseToken 解析并校验登录令牌.
func ParseToken(tokenString string, cfg *configs.AuthConfig) (*AuthClaims, error) {
	claims := &AuthClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return []byte(cfg.Secret), nil
	}, jwt.WithIssuer(cfg.Issuer))
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}

	return claims, nil
}

// AuthRequired 要求请求携带有效的 Bearer 令牌，校验通过后把用户身份写入 gin context.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "authorization header required",
			})

			return
		}

		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid authorization header format",
			})

			return
		}

		claims, err := ParseToken(tokenString, &configs.GetConfig().Auth)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid or expired token",
			})

			return
		}

		// 已注销的令牌在剩余有效期内命中 KV 黑名单
		if store := appctx.GetKVClient(c.Request.Context()); store != nil {
			if revoked, _ := store.Exists(c.Request.Context(), RevokedTokenKey(tokenString)); revoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"success": false,
					"error":   "token has been revoked",
				})

				return
			}
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxEmailKey, claims.Email)
		c.Set(CtxRoleKey, claims.Role)

		c.Next()
	}
}
