package infrastructure

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// TurnstileTestSecret is Cloudflare's always-pass secret. It is honored
	// without a network call only outside production.
	TurnstileTestSecret = "1x0000000000000000000000000000000AA"

	turnstileVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"
)

type TurnstileVerifier struct {
	Secret      string
	Development bool
	VerifyURL   string
	Client      *http.Client
	Metrics     *Metrics
}

func NewTurnstileVerifier(cfg *Config, metrics *Metrics) *TurnstileVerifier {
	secret := cfg.TurnstileSecret
	if secret == "" && !cfg.IsProduction() {
		log.Warn("TURNSTILE_SECRET_KEY not set, using the test secret")
		secret = TurnstileTestSecret
	}
	return &TurnstileVerifier{
		Secret:      secret,
		Development: !cfg.IsProduction(),
		VerifyURL:   turnstileVerifyURL,
		Client:      &http.Client{Timeout: 10 * time.Second},
		Metrics:     metrics,
	}
}

type turnstileResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify reports whether the challenge token is valid. Every failure mode,
// including transport errors and non-2xx answers, counts as not verified.
func (v *TurnstileVerifier) Verify(ctx context.Context, token, remoteIP string) bool {
	ok := v.verify(ctx, token, remoteIP)
	if ok {
		v.Metrics.Challenge("passed")
	} else {
		v.Metrics.Challenge("failed")
	}
	return ok
}

func (v *TurnstileVerifier) verify(ctx context.Context, token, remoteIP string) bool {
	if token == "" || v.Secret == "" {
		return false
	}
	if v.Development && v.Secret == TurnstileTestSecret {
		return true
	}

	form := url.Values{}
	form.Set("secret", v.Secret)
	form.Set("response", token)
	if remoteIP != "" && remoteIP != UnknownClientIP {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := v.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		log.WithError(err).Warn("turnstile verification request failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WithField("status", resp.StatusCode).Warn("turnstile verification returned non-2xx")
		return false
	}

	var result turnstileResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false
	}
	if !result.Success {
		log.WithField("error_codes", result.ErrorCodes).Debug("turnstile rejected token")
	}
	return result.Success
}
