package middleware

import (
	"log/slog"
	"net/http"

	"github.com/unrolled/secure"
)

// SecureHeaders добавляет стандартные заголовки безопасности.
// sslRedirect включает перенаправление на HTTPS (для продакшена).
func SecureHeaders(sslRedirect bool, logger *slog.Logger) func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		ReferrerPolicy:     "no-referrer",
		SSLRedirect:        sslRedirect,
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := secureMiddleware.Process(w, r); err != nil {
				logger.WarnContext(r.Context(), "Запрос заблокирован secure middleware", slog.Any("error", err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
