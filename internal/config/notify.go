package config

import "os"

// NotifyConfig holds credentials for customer notifications.  A channel
// is enabled only when all of its credentials are present.
type NotifyConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	TwilioSID      string
	TwilioToken    string
	TwilioFrom     string
	BookingLogDir  string
}

// LoadNotifyConfig reads SENDGRID_* and TWILIO_* variables.
func LoadNotifyConfig() NotifyConfig {
	return NotifyConfig{
		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		FromEmail:      os.Getenv("SENDGRID_FROM_EMAIL"),
		FromName:       envStr("SENDGRID_FROM_NAME", "Reserve My Spot"),
		TwilioSID:      os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioToken:    os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:     os.Getenv("TWILIO_FROM_NUMBER"),
		BookingLogDir:  envStr("BOOKING_LOG_DIR", "logs"),
	}
}

// EmailEnabled reports whether SendGrid is configured.
func (c NotifyConfig) EmailEnabled() bool { return c.SendGridAPIKey != "" && c.FromEmail != "" }

// SMSEnabled reports whether Twilio is configured.
func (c NotifyConfig) SMSEnabled() bool {
	return c.TwilioSID != "" && c.TwilioToken != "" && c.TwilioFrom != ""
}
