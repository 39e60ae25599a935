package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"go.uber.org/multierr"

	"github.com/saveblush/reraw-info/core/generic"
	"github.com/saveblush/reraw-info/core/utils/logger"
)

var (
	ErrInvalidRelayURL    = errors.New("invalid relay url")
	ErrInvalidPubkey      = errors.New("invalid public key")
	ErrInvalidMint        = errors.New("invalid mint url")
	ErrMissingCashuUnit   = errors.New("cashu unit is required")
	ErrMissingCashuMints  = errors.New("cashu requires at least one mint")
	ErrInvalidVerifyMode  = errors.New("invalid verified users mode")
	ErrInvalidUpstreamURL = errors.New("invalid upstream url")
	ErrInvalidRateLimit   = errors.New("invalid rate limit")
	ErrNegativeCost       = errors.New("cost must not be negative")
)

// Validate validate config, npub keys are rewritten to hex
func (cf *Configs) Validate() error {
	var err error

	if !generic.IsEmpty(cf.Info.RelayURL) && !nostr.IsValidRelayURL(cf.Info.RelayURL) {
		err = multierr.Append(err, fmt.Errorf("info.relay_url %q: %w", cf.Info.RelayURL, ErrInvalidRelayURL))
	}

	if !generic.IsEmpty(cf.Info.Pubkey) {
		pk, e := normalizePubkey(cf.Info.Pubkey)
		if e != nil {
			err = multierr.Append(err, fmt.Errorf("info.pubkey: %w", e))
		}
		cf.Info.Pubkey = pk
	}

	for i, v := range cf.Authorization.PubkeyWhitelist {
		pk, e := normalizePubkey(v)
		if e != nil {
			err = multierr.Append(err, fmt.Errorf("authorization.pubkey_whitelist[%d]: %w", i, e))
			continue
		}
		cf.Authorization.PubkeyWhitelist[i] = pk
	}

	if cf.PayToRelayByCashu.Enabled {
		if generic.IsEmpty(cf.PayToRelayByCashu.Unit) {
			err = multierr.Append(err, ErrMissingCashuUnit)
		}
		if len(cf.PayToRelayByCashu.Mints) == 0 {
			err = multierr.Append(err, ErrMissingCashuMints)
		}
		for i, v := range cf.PayToRelayByCashu.Mints {
			if !isHTTPURL(v) {
				err = multierr.Append(err, fmt.Errorf("pay_to_relay_by_cashu.mints[%d] %q: %w", i, v, ErrInvalidMint))
			}
		}
	}

	switch cf.VerifiedUsers.Mode {
	case "", VerifiedUsersEnabled, VerifiedUsersPassive, VerifiedUsersDisabled:
	default:
		err = multierr.Append(err, fmt.Errorf("verified_users.mode %q: %w", cf.VerifiedUsers.Mode, ErrInvalidVerifyMode))
	}

	if !generic.IsEmpty(cf.App.UpstreamURL) && !isUpstreamURL(cf.App.UpstreamURL) {
		err = multierr.Append(err, fmt.Errorf("app.upstream_url %q: %w", cf.App.UpstreamURL, ErrInvalidUpstreamURL))
	}

	if cf.App.RateLimit < 0 || cf.App.RateBurst < 0 {
		err = multierr.Append(err, ErrInvalidRateLimit)
	}

	if err == nil && cf.PayToRelay.Enabled && generic.IsEmpty(cf.Info.RelayURL) {
		logger.Log.Warn("pay to relay is enabled without info.relay_url, payment_url will not be published")
	}

	return err
}

// normalizePubkey accepts hex or npub, returns hex
func normalizePubkey(pk string) (string, error) {
	pk = strings.TrimSpace(pk)
	if strings.HasPrefix(pk, "npub1") {
		prefix, value, err := nip19.Decode(pk)
		if err != nil {
			return pk, fmt.Errorf("%q: %w", pk, err)
		}

		hex, ok := value.(string)
		if prefix != "npub" || !ok {
			return pk, fmt.Errorf("%q: %w", pk, ErrInvalidPubkey)
		}
		pk = hex
	}

	if !nostr.IsValidPublicKey(pk) {
		return pk, fmt.Errorf("%q: %w", pk, ErrInvalidPubkey)
	}

	return pk, nil
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func isUpstreamURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}

	switch u.Scheme {
	case "ws", "wss", "http", "https":
		return u.Host != ""
	}

	return false
}
