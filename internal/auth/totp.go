// internal/auth/totp.go
package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"microblog/internal/httpx"
	"microblog/internal/models"
	"microblog/internal/repo"
)

const totpIssuer = "microblog"

// GET /auth/mfa/totp/setup  -> returns { otpauth_url, secret }
// The enrollment is stored unconfirmed; login only enforces TOTP once the
// user proves possession via /auth/mfa/totp/verify.
func TOTPSetupBeginHandler(r repo.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		u, ok := UserFromContext(req.Context())
		if !ok {
			httpx.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		key, err := totp.Generate(totp.GenerateOpts{
			Issuer:      totpIssuer,
			AccountName: u.Username,
			Period:      30,
			Digits:      otp.DigitsSix,
			Algorithm:   otp.AlgorithmSHA1, // Google Authenticator-compatible
		})
		if err != nil {
			httpx.Error(w, http.StatusInternalServerError, "totp error")
			return
		}
		enrollment := models.TOTPEnrollment{
			UserID: u.ID,
			Secret: key.Secret(),
			Issuer: totpIssuer,
			Label:  u.Username,
		}
		if err := r.SetTOTPSecret(req.Context(), enrollment); err != nil {
			httpx.Error(w, http.StatusInternalServerError, "store totp error")
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{
			"otpauth_url": key.URL(),
			"secret":      key.Secret(),
		})
	}
}

// POST /auth/mfa/totp/verify  Body: { "code": "123456" }
func TOTPSetupVerifyHandler(r repo.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		u, ok := UserFromContext(req.Context())
		if !ok {
			httpx.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		var body struct {
			Code string `json:"code"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || strings.TrimSpace(body.Code) == "" {
			httpx.Error(w, http.StatusBadRequest, "bad json")
			return
		}
		enrollment, ok := r.GetTOTPSecret(req.Context(), u.ID)
		if !ok {
			httpx.Error(w, http.StatusBadRequest, "no totp setup")
			return
		}
		if !validateTOTP(enrollment.Secret, body.Code) {
			httpx.Error(w, http.StatusBadRequest, "invalid code")
			return
		}
		enrollment.Confirmed = true
		if err := r.SetTOTPSecret(req.Context(), enrollment); err != nil {
			httpx.Error(w, http.StatusInternalServerError, "store totp error")
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func validateTOTP(secret, code string) bool {
	// Quick check
	if totp.Validate(code, secret) {
		return true
	}
	// Allow small clock skew
	ok, _ := totp.ValidateCustom(code, secret, time.Now(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return ok
}
