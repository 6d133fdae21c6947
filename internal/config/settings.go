package config

import (
	"strings"

	"github.com/spf13/viper"
)

const redacted = "********"

var secretKeys = []string{"password", "secret", "token", "uri"}

// Settings returns the merged settings of the last Load with secret values
// masked.
func Settings() map[string]interface{} {
	return redact(viper.AllSettings())
}

func redact(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case map[string]interface{}:
			out[k] = redact(val)
		default:
			if isSecret(k) && val != "" && val != nil {
				out[k] = redacted
			} else {
				out[k] = val
			}
		}
	}
	return out
}

func isSecret(key string) bool {
	key = strings.ToLower(key)
	for _, s := range secretKeys {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}
