// Package auth implements the optional login flow that turns a fresh browser
// session into an authenticated one.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/researchaccelerator-hub/page-scraper/browser"
	"github.com/researchaccelerator-hub/page-scraper/common"
	"github.com/researchaccelerator-hub/page-scraper/config"
	"github.com/researchaccelerator-hub/page-scraper/model"
	"github.com/rs/zerolog/log"
)

// locationTimeout bounds the read of the landing URL once the login budget
// has run out.
const locationTimeout = 5 * time.Second

// ErrRejected is the message of the AuthError returned when the session is
// still on a login or verification page after submitting credentials.
const ErrRejected = "credentials rejected or additional verification required"

// Authenticator logs a session in through the target's login form.
type Authenticator struct {
	cfg     config.AuthConfig
	timeout time.Duration
}

// NewAuthenticator creates a new Authenticator. timeout bounds the whole
// login flow.
func NewAuthenticator(cfg config.AuthConfig, timeout time.Duration) *Authenticator {
	return &Authenticator{cfg: cfg, timeout: timeout}
}

// Login runs the login flow. It mutates the session's cookies and storage.
// Verification challenges (2FA, CAPTCHA) are detected from the landing URL and
// reported as a terminal AuthError; they are never solved.
func (a *Authenticator) Login(ctx context.Context, session browser.Session, creds model.Credentials) error {
	if creds.Empty() {
		return common.InvalidRequest("credentials require both email and password")
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	logger := common.Logger(ctx).With().Str("login_url", a.cfg.LoginURL).Logger()
	logger.Info().Msg("Starting login")

	if err := session.Navigate(ctx, a.cfg.LoginURL); err != nil {
		return common.AuthError("failed to open login page", err)
	}
	if err := session.WaitIdle(ctx); err != nil {
		return common.AuthError("login page did not finish loading", err)
	}

	a.dismissConsent(ctx, session)

	if err := session.Type(ctx, a.cfg.EmailSelector, creds.Email); err != nil {
		return common.AuthError("failed to fill email field", err)
	}
	if err := session.Type(ctx, a.cfg.PasswordSelector, creds.Password); err != nil {
		return common.AuthError("failed to fill password field", err)
	}

	before, err := session.Location(ctx)
	if err != nil {
		return common.AuthError("failed to read login page location", err)
	}
	clicked, err := session.Click(ctx, a.cfg.SubmitSelector)
	if err != nil {
		return common.AuthError("failed to submit login form", err)
	}
	if !clicked {
		return common.AuthError("login submit control not found", nil)
	}

	// A timed out wait is not decisive on its own: a rejected login usually
	// stays on the login URL, which the classification below reports.
	navErr := session.WaitNavigation(ctx, before)

	landed, err := landedURL(ctx, session)
	if err != nil {
		return common.AuthError("failed to read post-login location", err)
	}
	if a.IsRejected(landed) {
		logger.Warn().Str("landed_url", landed).Msg("Login rejected or challenged")
		return common.AuthError(ErrRejected, nil)
	}
	if navErr != nil {
		return common.AuthError("navigation after login did not complete", navErr)
	}

	logger.Info().Str("landed_url", landed).Msg("Login succeeded")
	return nil
}

// landedURL reads the current location. An expired login budget still gets a
// short read so the landing page can be classified.
func landedURL(ctx context.Context, session browser.Session) (string, error) {
	if ctx.Err() == nil {
		return session.Location(ctx)
	}
	readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), locationTimeout)
	defer cancel()
	return session.Location(readCtx)
}

// IsRejected reports whether url still looks like a login or verification page.
func (a *Authenticator) IsRejected(url string) bool {
	lower := strings.ToLower(url)
	for _, p := range a.cfg.RejectPatterns {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// dismissConsent clicks the first cookie/consent control it finds. Absence or
// failure is not an error.
func (a *Authenticator) dismissConsent(ctx context.Context, session browser.Session) {
	for _, sel := range a.cfg.ConsentSelectors {
		clicked, err := session.Click(ctx, sel)
		if err != nil {
			log.Debug().Err(err).Str("selector", sel).Msg("Consent dismissal failed")
			continue
		}
		if clicked {
			log.Debug().Str("selector", sel).Msg("Consent dialog dismissed")
			return
		}
	}
}
