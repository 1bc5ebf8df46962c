package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultAuthSecret        = "studyvault-dev-secret" // 仅用于本地开发，生产环境必须覆盖
	DefaultAuthTokenTTLHours = 24 * 7                  // 登录令牌有效期（小时）
	DefaultAuthIssuer        = "studyvault"
)

// AuthConfig JWT 认证配置.
type AuthConfig struct {
	Secret        string `mapstructure:"secret"          rule:"required"`
	TokenTTLHours int    `mapstructure:"token_ttl_hours" rule:"min=1,max=8760"`
	Issuer        string `mapstructure:"issuer"`
}

// TokenTTL 返回令牌有效期.
func (c *AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.secret", DefaultAuthSecret)
	v.SetDefault("auth.token_ttl_hours", DefaultAuthTokenTTLHours)
	v.SetDefault("auth.issuer", DefaultAuthIssuer)
}
