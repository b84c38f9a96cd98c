package auth

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

// Normalizer turns one provider's raw claim map into an Identity.
// Implementations are pure; adding a provider means registering a new
// Normalizer, the reconciler stays untouched.
type Normalizer interface {
	Normalize(claims map[string]any) (Identity, error)
}

// normalizers is the registry of claim normalizers by provider name.
var normalizers = map[string]Normalizer{ //nolint:gochecknoglobals
	"github":  GitHubNormalizer{},
	"google":  GoogleNormalizer{},
	"discord": DiscordNormalizer{},
}

// Normalize runs the registered normalizer for the named provider.
func Normalize(provider string, claims map[string]any) (Identity, error) {
	n, ok := normalizers[provider]
	if !ok {
		return Identity{}, errors.Wrap(ErrUnsupportedProvider, provider)
	}

	return n.Normalize(claims)
}

// claimString reads a claim as string. Numeric ids arrive as float64
// from encoding/json, as json.Number when decoders use UseNumber.
func claimString(claims map[string]any, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}
