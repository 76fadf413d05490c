package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"server": map[string]interface{}{
			"port":             8080,
			"base_url":         "http://localhost:8080",
			"allowed_origins":  []string{},
			"shutdown_timeout": "10s",
		},
		"database": map[string]interface{}{
			"path": "tandem.db",
		},
		"log": map[string]interface{}{
			"level":  "info",
			"format": "text",
		},
		"auth": map[string]interface{}{
			"jwt_secret":       "",
			"issuer":           "tandem",
			"token_ttl":        "168h",
			"login_per_minute": 10,
		},
		"email": map[string]interface{}{
			"postmark_token": "",
			"from":           "",
		},
		"push": map[string]interface{}{
			"vapid_public_key":  "",
			"vapid_private_key": "",
			"subject":           "mailto:admin@tandem.local",
			"ttl":               86400,
		},
		"scheduler": map[string]interface{}{
			"enabled":  true,
			"timezone": "UTC",
			"daily_at": "08:00",
		},
		"dispatch": map[string]interface{}{
			"concurrency": 0,
		},
		"metrics": map[string]interface{}{
			"enabled": true,
		},
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}
