// Package frontend serves the HTML surface: the entry list and the submit
// form handler.
package frontend

import (
	"embed"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/guestbook/server/middleware"
	"github.com/hrygo/guestbook/server/service/guestbook"
)

//go:embed templates
var templateFS embed.FS

// submitPerMinute matches the original deployment's submit budget.
const submitPerMinute = 10

const flashCookieName = "guestbook_flash"

// Flash is a one-shot status message carried across the submit redirect.
type Flash struct {
	Category string // "success" or "error"
	Message  string
}

type FrontendService struct {
	service *guestbook.Service
	limiter *middleware.RateLimiter
}

func NewFrontendService(service *guestbook.Service) *FrontendService {
	return &FrontendService{
		service: service,
		limiter: middleware.NewRateLimiter(submitPerMinute),
	}
}

type templateRenderer struct {
	templates *template.Template
}

func (r *templateRenderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

func (s *FrontendService) Register(e *echo.Echo) error {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return errors.Wrap(err, "failed to parse templates")
	}
	e.Renderer = &templateRenderer{templates: tmpl}

	e.GET("/", s.indexHandler)
	e.POST("/submit", s.submitHandler, s.limiter.Middleware())
	return nil
}

func (s *FrontendService) indexHandler(c echo.Context) error {
	entries, err := s.service.List(c.Request().Context())
	if err != nil {
		slog.Error("failed to list entries", slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load entries")
	}

	return c.Render(http.StatusOK, "index.html", map[string]any{
		"Entries": entries,
		"Flash":   popFlash(c),
	})
}

func (s *FrontendService) submitHandler(c echo.Context) error {
	name := c.FormValue("name")
	message := c.FormValue("message")

	_, err := s.service.Submit(c.Request().Context(), name, message)
	var verr *guestbook.ValidationError
	switch {
	case errors.As(err, &verr):
		setFlash(c, "error", verr.Reason)
	case err != nil:
		slog.Error("failed to submit entry", slog.String("error", err.Error()))
		setFlash(c, "error", "Something went wrong, please try again.")
	default:
		setFlash(c, "success", "Thanks — your message was posted!")
	}

	return c.Redirect(http.StatusSeeOther, "/")
}

func setFlash(c echo.Context, category, message string) {
	c.SetCookie(&http.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(category + "|" + message),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads and clears the flash cookie.
func popFlash(c echo.Context) *Flash {
	ck, err := c.Cookie(flashCookieName)
	if err != nil || ck.Value == "" {
		return nil
	}
	c.SetCookie(&http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := url.QueryUnescape(ck.Value)
	if err != nil {
		return nil
	}
	category, message, ok := strings.Cut(raw, "|")
	if !ok {
		return nil
	}
	return &Flash{Category: category, Message: message}
}
