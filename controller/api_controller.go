package controller

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/DyDxdYdX/portfolio-stats/config"
	"github.com/DyDxdYdX/portfolio-stats/model"
	"github.com/DyDxdYdX/portfolio-stats/service"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	log "github.com/sirupsen/logrus"
)

type APIController interface {
	GetLanguages(ctx *gin.Context)
	GetBadge(ctx *gin.Context)
	SubmitContact(ctx *gin.Context)
}

type apiController struct {
	statsService   service.StatsService
	badgeService   service.BadgeService
	contactService service.ContactService
	config         config.Config

	// rendered badges per theme, kept for the revalidation interval
	// nil when the interval is 0, badges are then rendered on every request
	badges *expirable.LRU[string, string]
}

type contactResponse struct {
	*model.ContactForm
	Dialog string `json:"dialog"`
}

func NewAPIController(config config.Config, statsService service.StatsService, badgeService service.BadgeService, contactService service.ContactService) APIController {
	ctrl := apiController{
		statsService:   statsService,
		badgeService:   badgeService,
		contactService: contactService,
		config:         config,
	}

	// a zero ttl makes the LRU keep entries forever
	if ttl := config.Badges.Revalidate(); ttl > 0 {
		ctrl.badges = expirable.NewLRU[string, string](16, nil, ttl)
	}

	return ctrl
}

// GetLanguages returns the language shares as whole percents, most used first
func (s apiController) GetLanguages(c *gin.Context) {
	var query model.LanguagesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, model.APIError{Code: "INVALID_QUERY", Message: err.Error()})
		return
	}

	stats := s.statsService.GetLanguageStats(c.Request.Context(), model.WidgetPolicy)
	c.JSON(http.StatusOK, stats.Top(query.Limit))
}

// GetBadge renders the stats card for the requested theme
func (s apiController) GetBadge(c *gin.Context) {
	var query model.BadgeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, model.APIError{Code: "INVALID_QUERY", Message: err.Error()})
		return
	}

	theme := query.ThemeOrDefault(s.config.Badges.PrimaryTheme)
	if _, known := model.ThemeByName(theme); !known {
		theme = model.ThemeRadical
	}

	var svg string
	var cached bool

	if s.badges != nil {
		svg, cached = s.badges.Get(theme)
	}

	if !cached {
		stats := s.statsService.GetLanguageStats(c.Request.Context(), s.config.Badges.Policy())

		var err error
		svg, err = s.badgeService.RenderBadge(stats, theme)
		if err != nil {
			log.WithError(err).WithField("theme", theme).Error("unable to render badge")
			c.JSON(http.StatusInternalServerError, model.NewAPIError(err))
			return
		}

		if s.badges != nil {
			s.badges.Add(theme, svg)
		}
	}

	if s.config.Badges.RevalidateSeconds > 0 {
		c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", s.config.Badges.RevalidateSeconds))
	} else {
		c.Header("Cache-Control", "no-cache")
	}
	c.Data(http.StatusOK, "image/svg+xml; charset=utf-8", []byte(svg))
}

// SubmitContact sends the contact form, the response tells which dialog to show
// and carries the form fields back, emptied when the message went out
func (s apiController) SubmitContact(c *gin.Context) {
	var msg model.ContactMessage
	if err := c.ShouldBind(&msg); err != nil {
		c.JSON(http.StatusBadRequest, model.NewAPIError(model.ErrInvalidForm))
		return
	}

	// a visitor can't send a second message while the first one is pending
	status, err := s.contactService.Submit(c.Request.Context(), c.ClientIP(), msg)
	if errors.Is(err, model.ErrSubmissionInFlight) {
		c.JSON(http.StatusConflict, model.NewAPIError(err))
		return
	}

	form := model.NewContactForm(msg)
	form.Begin()
	form.Resolve(status)

	httpStatus := http.StatusOK
	if !status.Delivered() {
		httpStatus = http.StatusBadGateway
	}

	c.JSON(httpStatus, contactResponse{ContactForm: form, Dialog: form.Dialog()})
}
