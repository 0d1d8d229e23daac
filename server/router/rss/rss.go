// Package rss exposes the recent entries as an RSS feed.
package rss

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"

	"github.com/hrygo/guestbook/server/service/guestbook"
)

type RSSService struct {
	service *guestbook.Service
}

func NewRSSService(service *guestbook.Service) *RSSService {
	return &RSSService{service: service}
}

func (s *RSSService) Register(e *echo.Echo) {
	e.GET("/feed.rss", s.feedHandler)
}

func (s *RSSService) feedHandler(c echo.Context) error {
	entries, err := s.service.List(c.Request().Context())
	if err != nil {
		slog.Error("failed to list entries for feed", slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to build feed")
	}

	baseURL := c.Scheme() + "://" + c.Request().Host
	feed := &feeds.Feed{
		Title:       "Guestbook",
		Link:        &feeds.Link{Href: baseURL + "/"},
		Description: "Recent guestbook entries",
		Created:     time.Now(),
	}
	for _, entry := range entries {
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          fmt.Sprintf("%s/#entry-%d", baseURL, entry.ID),
			Title:       fmt.Sprintf("%s signed the guestbook", entry.Name),
			Link:        &feeds.Link{Href: fmt.Sprintf("%s/#entry-%d", baseURL, entry.ID)},
			Description: entry.Message,
			Created:     entry.CreatedAt,
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		slog.Error("failed to render feed", slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to build feed")
	}

	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	return c.String(http.StatusOK, rss)
}
