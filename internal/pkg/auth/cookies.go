package auth

import (
	"net/http"
	"time"
)

const (
	// AccessTokenCookie доступен клиентскому скрипту.
	AccessTokenCookie = "access_token"
	// RefreshTokenCookie — только HttpOnly.
	RefreshTokenCookie = "refresh_token"
)

// CookieOptions — атрибуты auth-кук, зависящие от окружения.
type CookieOptions struct {
	Domain string
	Secure bool
}

func (o CookieOptions) sameSite() http.SameSite {
	if o.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// SetAuthCookies выставляет обе auth-куки.
func SetAuthCookies(w http.ResponseWriter, accessToken, refreshToken string, accessTTL, refreshTTL time.Duration, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		Domain:   opts.Domain,
		MaxAge:   int(accessTTL.Seconds()),
		Secure:   opts.Secure,
		HttpOnly: false,
		SameSite: opts.sameSite(),
	})

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    refreshToken,
		Path:     "/",
		Domain:   opts.Domain,
		MaxAge:   int(refreshTTL.Seconds()),
		Secure:   opts.Secure,
		HttpOnly: true,
		SameSite: opts.sameSite(),
	})
}

// ClearAuthCookies снимает обе auth-куки (logout и самолечение
// клиента при невалидном токене).
func ClearAuthCookies(w http.ResponseWriter, opts CookieOptions) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   opts.Domain,
			MaxAge:   -1,
			Secure:   opts.Secure,
			HttpOnly: name == RefreshTokenCookie,
			SameSite: opts.sameSite(),
		})
	}
}
