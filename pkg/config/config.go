// Package config holds validated runtime settings and the identity
// directory.
package config

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// SMTPSettings configures daily-code mail delivery. Empty settings
// disable delivery (codes are still issued and logged).
type SMTPSettings struct {
	Host     string `validate:"required_with=Username"`
	Port     int    `validate:"gte=0,lte=65535"`
	Username string
	Password string
	From     string `validate:"omitempty,email"`
}

// LLMSettings configures the chat-completions client used by
// LLM-backed workflow handlers.
type LLMSettings struct {
	APIKey  string
	BaseURL string        `validate:"required,url"`
	Model   string        `validate:"required"`
	Timeout time.Duration `validate:"gt=0"`
}

// Settings is the full service configuration.
type Settings struct {
	SMTP SMTPSettings
	LLM  LLMSettings
}

// DefaultSettings returns settings matching the documented defaults.
func DefaultSettings() Settings {
	return Settings{
		SMTP: SMTPSettings{
			Port: 587,
		},
		LLM: LLMSettings{
			BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1",
			Model:   "qwen-turbo",
			Timeout: 30 * time.Second,
		},
	}
}

// Validate checks the settings against their declared constraints.
func (s *Settings) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	return validate.Struct(s)
}

// MailEnabled reports whether SMTP delivery is configured.
func (s *Settings) MailEnabled() bool {
	return s.SMTP.Host != "" && s.SMTP.Username != ""
}
