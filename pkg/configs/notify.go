package configs

import "github.com/spf13/viper"

// 通知渠道后端类型.
const (
	NotifyBackendSendGrid = "sendgrid"
	NotifyBackendTwilio   = "twilio"
	NotifyBackendConsole  = "console" // 开发模式：打印并记录，不真正外发
)

// NotifyConfig 投递通知渠道配置（邮件 + 短信/WhatsApp）.
type NotifyConfig struct {
	Email EmailNotifyConfig `mapstructure:"email"`
	SMS   SMSNotifyConfig   `mapstructure:"sms"`
}

// EmailNotifyConfig 邮件通道配置.
type EmailNotifyConfig struct {
	Backend  string `mapstructure:"backend"  rule:"oneof=sendgrid console"`
	APIKey   string `mapstructure:"api_key"`
	From     string `mapstructure:"from"     rule:"omitempty,email"`
	FromName string `mapstructure:"from_name"`
}

// SMSNotifyConfig 短信/WhatsApp 通道配置（Twilio）.
type SMSNotifyConfig struct {
	Backend    string `mapstructure:"backend"     rule:"oneof=twilio console"`
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	// From 普通短信发送号码（E.164）.
	From string `mapstructure:"from"`
	// WhatsAppFrom WhatsApp 发送号码（E.164，不含 whatsapp: 前缀）.
	WhatsAppFrom string `mapstructure:"whatsapp_from"`
}

func (c *NotifyConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("notify.email.backend", NotifyBackendConsole)
	v.SetDefault("notify.email.api_key", "")
	v.SetDefault("notify.email.from", "noreply@studyvault.local")
	v.SetDefault("notify.email.from_name", "StudyVault")

	v.SetDefault("notify.sms.backend", NotifyBackendConsole)
	v.SetDefault("notify.sms.account_sid", "")
	v.SetDefault("notify.sms.auth_token", "")
	v.SetDefault("notify.sms.from", "")
	v.SetDefault("notify.sms.whatsapp_from", "")
}
