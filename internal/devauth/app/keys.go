package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/sdaportal/pkg/cryptox"
	"github.com/aussiebroadwan/sdaportal/pkg/idx"
	"github.com/aussiebroadwan/sdaportal/pkg/jwtx"
)

// initKeys loads the signing key from disk, or generates an in-memory one
// when no file is configured. Tokens minted with an in-memory key do not
// survive a restart.
func initKeys(cfg Config, logger *slog.Logger) (*jwtx.EdDSASigner, *jwtx.KeySet, error) {
	var (
		pem []byte
		err error
	)
	if cfg.SigningKeyFile != "" {
		pem, err = cryptox.LoadOrCreateEd25519Key(cfg.SigningKeyFile)
	} else {
		logger.Warn("no signing key file configured, using an ephemeral key")
		pem, err = cryptox.GenerateEd25519Key()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load signing key: %w", err)
	}

	signer, err := jwtx.NewSignerEdDSA(idx.New().String(), pem)
	if err != nil {
		return nil, nil, err
	}

	keys := jwtx.NewKeySet()
	keys.AddSigner(signer)
	logger.Info("signing key ready", "kid", signer.KID(), "alg", signer.Alg())
	return signer, keys, nil
}
