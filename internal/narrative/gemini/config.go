package gemini

import "time"

type Config struct {
	Model   string // e.g. "gemini-1.5-flash"
	APIKey  string
	BaseURL string // default "https://generativelanguage.googleapis.com/v1beta"
	Timeout time.Duration

	// MaxInputChars caps how much extracted text is sent with the prompt.
	MaxInputChars int
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = "gemini-1.5-flash"
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxInputChars <= 0 {
		c.MaxInputChars = 8000
	}
	return c
}
