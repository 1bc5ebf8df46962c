package configs

import "github.com/spf13/viper"

// RateLimitConfig HTTP 限流配置，默认关闭.
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// RPS 稳态放行速率，Burst 为瞬时突发上限
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`

	// Key 限流维度：global、ip 或 header:<Header-Name>
	Key string `mapstructure:"key"`
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.rps", 50.0)
	v.SetDefault("rate_limit.burst", 100)
	v.SetDefault("rate_limit.key", "ip")
}
