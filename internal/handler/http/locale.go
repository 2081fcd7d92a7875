package http

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/utafrali/storefront/internal/locale"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/validator"
)

// LocaleSwitcher is the locale state exposed over the diagnostics server.
type LocaleSwitcher interface {
	Current() locale.Locale
	Supported() []locale.Locale
	Set(loc locale.Locale) bool
}

// LocaleHandler reads and switches the active locale.
type LocaleHandler struct {
	locales LocaleSwitcher
	logger  *slog.Logger
}

// NewLocaleHandler creates a new locale HTTP handler.
func NewLocaleHandler(locales LocaleSwitcher, logger *slog.Logger) *LocaleHandler {
	return &LocaleHandler{locales: locales, logger: logger}
}

// SetLocaleRequest is the body of PUT /locale.
type SetLocaleRequest struct {
	Locale string `json:"locale" validate:"required,max=35"`
}

type localeView struct {
	Current   locale.Locale   `json:"current"`
	Supported []locale.Locale `json:"supported"`
	RTL       bool            `json:"rtl"`
}

// GetLocale handles GET /locale.
func (h *LocaleHandler) GetLocale(w http.ResponseWriter, r *http.Request) {
	h.write(w)
}

// SetLocale handles PUT /locale. Switching to the active locale is a no-op.
func (h *LocaleHandler) SetLocale(w http.ResponseWriter, r *http.Request) {
	var req SetLocaleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	loc, err := locale.Parse(req.Locale)
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput(err.Error()), h.logger)
		return
	}
	if !slices.Contains(h.locales.Supported(), loc) {
		httputil.WriteError(w, r, apperrors.InvalidInput("unsupported locale: "+loc.String()), h.logger)
		return
	}

	if h.locales.Set(loc) {
		h.logger.InfoContext(r.Context(), "locale switched", slog.String("locale", loc.String()))
	}
	h.write(w)
}

func (h *LocaleHandler) write(w http.ResponseWriter) {
	cur := h.locales.Current()
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: localeView{Current: cur, Supported: h.locales.Supported(), RTL: cur.IsRTL()},
	})
}
