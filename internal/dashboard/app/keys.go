package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/devicelocator/pkg/cryptox"
	"github.com/aussiebroadwan/devicelocator/pkg/jwtx"
)

const (
	cookieKeyPurpose = "devicelocator/session-cookie/v1"
	sealerKeyPurpose = "devicelocator/token-at-rest/v1"
)

// Keys are the process secrets derived from SECRET_KEY.
type Keys struct {
	CookieKey []byte
	Sealer    *cryptox.Sealer
}

// InitKeys derives the cookie signing key and the token encryption key from
// secret. Without a secret a random one is generated, so cookies and stored
// tokens do not survive a restart.
func InitKeys(secret string, logger *slog.Logger) (Keys, error) {
	if secret == "" {
		logger.Warn("SECRET_KEY not set, generating a random key; sessions will not survive a restart")
		generated, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return Keys{}, fmt.Errorf("failed to generate secret: %w", err)
		}
		secret = generated
	}

	cookieKey, err := cryptox.DeriveKey([]byte(secret), cookieKeyPurpose, jwtx.MinHS256KeySize)
	if err != nil {
		return Keys{}, fmt.Errorf("failed to derive cookie key: %w", err)
	}

	sealerKey, err := cryptox.DeriveKey([]byte(secret), sealerKeyPurpose, cryptox.KeySize)
	if err != nil {
		return Keys{}, fmt.Errorf("failed to derive token key: %w", err)
	}
	sealer, err := cryptox.NewSealer(sealerKey)
	if err != nil {
		return Keys{}, err
	}

	return Keys{CookieKey: cookieKey, Sealer: sealer}, nil
}
