// config/notification_config.go
package config

import "time"

// NotificationConfig holds configuration for outbound SMS and email
type NotificationConfig struct {
	// SMS configuration (Twilio)
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string

	// SMS dispatch pool
	SMSWorkers    int
	SMSQueueSize  int
	SMSMaxRetries int
	SMSRetryDelay time.Duration
	SMSLogTTL     time.Duration

	// Email configuration
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

// LoadNotificationConfig loads notification configuration from environment
func LoadNotificationConfig() NotificationConfig {
	return NotificationConfig{
		TwilioAccountSID:  getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:   getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioPhoneNumber: getEnv("TWILIO_PHONE_NUMBER", ""),

		SMSWorkers:    getEnvAsInt("SMS_WORKERS", 4),
		SMSQueueSize:  getEnvAsInt("SMS_QUEUE_SIZE", 500),
		SMSMaxRetries: getEnvAsInt("SMS_MAX_RETRIES", 3),
		SMSRetryDelay: getEnvAsDuration("SMS_RETRY_DELAY", 2*time.Second),
		SMSLogTTL:     getEnvAsDuration("SMS_LOG_RETENTION", 90*24*time.Hour),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		FromEmail:    getEnv("FROM_EMAIL", "noreply@disasterguardian.com"),
		FromName:     getEnv("FROM_NAME", "Disaster Guardian"),
	}
}

func (n NotificationConfig) TwilioEnabled() bool {
	return n.TwilioAccountSID != "" && n.TwilioAuthToken != "" && n.TwilioPhoneNumber != ""
}

func (n NotificationConfig) SMTPEnabled() bool {
	return n.SMTPHost != "" && n.SMTPUsername != "" && n.SMTPPassword != ""
}
