package captcha

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danilwladich/2rnik/internal/apperr"
)

const verifyURL = "https://www.google.com/recaptcha/api/siteverify"

// Verifier checks an antibot token collected by the registration form.
type Verifier interface {
	Verify(ctx context.Context, token string) error
}

type HTTPVerifier struct {
	secret   string
	endpoint string
	http     *http.Client
}

func NewHTTP(secret string) *HTTPVerifier {
	return &HTTPVerifier{
		secret:   secret,
		endpoint: verifyURL,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *HTTPVerifier) Verify(ctx context.Context, token string) error {
	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return apperr.Upstream(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.http.Do(req)
	if err != nil {
		return apperr.Upstream(err)
	}
	defer resp.Body.Close()

	var result struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return apperr.Upstream(err)
	}
	if !result.Success {
		return apperr.Validation("antibot system not passed")
	}
	return nil
}

// Disabled skips verification; used when no secret is configured.
type Disabled struct{}

func (Disabled) Verify(context.Context, string) error { return nil }

// ForConfig picks the verifier matching the configured secret.
func ForConfig(secret string) Verifier {
	if secret == "" {
		return Disabled{}
	}
	return NewHTTP(secret)
}
