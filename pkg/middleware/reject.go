package middleware

import (
	"net/http"

	apperrors "tibacare/pkg/errors"
	httputil "tibacare/pkg/http"
)

const CodeRateLimited = "RATE_LIMITED"

// reject writes err in the same envelope handlers use, so clients parse
// middleware rejections and handler errors alike.
func reject(w http.ResponseWriter, err *apperrors.AppError) {
	_ = httputil.WriteError(w, err)
}
