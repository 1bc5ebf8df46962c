package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultPort         = 8080                    // 监听端口
	DefaultHost         = "0.0.0.0"               // 监听地址
	DefaultReloadConfig = true                    // 是否启用配置热重载
	DefaultDebug        = false                   // 是否启用调试模式
	DefaultTimeout      = 30                      // 超时时间，单位秒
	DefaultFrontendURL  = "http://localhost:3000" // 下载链接指向的前端地址
	DefaultUploadDir    = "uploads"               // 本地附件存储目录
	DefaultMaxUploadMB  = 10                      // 单个附件上传上限（MB）
)

type (
	// ServerConfig 服务器配置.
	ServerConfig struct {
		Port         int    `mapstructure:"port"          rule:"min=1,max=65535"`
		Host         string `mapstructure:"host"          rule:"ip"`
		ReloadConfig bool   `mapstructure:"reload_config"`
		Debug        bool   `mapstructure:"debug"`
		Timeout      int    `mapstructure:"timeout"       rule:"min=1,max=300"`
		// FrontendURL 用于拼接邮件/WhatsApp 中的下载链接.
		FrontendURL string `mapstructure:"frontend_url" rule:"url"`
		// UploadDir 本地附件落盘目录（未配置 S3 时使用）.
		UploadDir string `mapstructure:"upload_dir"`
		// MaxUploadMB 附件大小上限（MB）.
		MaxUploadMB int `mapstructure:"max_upload_mb" rule:"min=1,max=1024"`
	}
)

// GetTimeoutDuration 返回超时时间作为time.Duration.
func (s *ServerConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// MaxUploadBytes 返回附件大小上限的字节数.
func (s *ServerConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}

// setDefaults 设置服务器配置的默认值.
func (s *ServerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.reload_config", DefaultReloadConfig)
	v.SetDefault("server.debug", DefaultDebug)
	v.SetDefault("server.timeout", DefaultTimeout)
	v.SetDefault("server.frontend_url", DefaultFrontendURL)
	v.SetDefault("server.upload_dir", DefaultUploadDir)
	v.SetDefault("server.max_upload_mb", DefaultMaxUploadMB)
}
