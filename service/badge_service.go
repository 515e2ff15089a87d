package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/DyDxdYdX/portfolio-stats/config"
	"github.com/DyDxdYdX/portfolio-stats/model"
	log "github.com/sirupsen/logrus"
)

// badge layout, in svg user units
const (
	BadgeWidth      = 300
	BadgeBaseHeight = 45
	BadgeRowHeight  = 40
	BadgeMaxEntries = 8
	badgeFirstRowY  = 50
	badgeTrackWidth = 280
	badgeBarSpan    = 250
)

var badgeTemplate = template.Must(template.New("badge").Funcs(template.FuncMap{
	"escape": html.EscapeString,
}).Parse(`<svg width="{{.Width}}" height="{{.Height}}" xmlns="http://www.w3.org/2000/svg">
  <style>
    .header {
      font: 600 18px 'Segoe UI', Ubuntu, sans-serif;
      fill: {{.Theme.Title}};
    }
    .lang-name {
      font: 400 12px 'Segoe UI', Ubuntu, sans-serif;
      fill: {{.Theme.Text}};
    }
    .lang-percent {
      font: 600 12px 'Segoe UI', Ubuntu, sans-serif;
      fill: {{.Theme.Text}};
    }
  </style>

  <rect width="{{.Width}}" height="{{.Height}}" fill="{{.Theme.Background}}" rx="4.5"/>
{{- if .Theme.Bordered}}
  <rect width="{{.Width}}" height="{{.Height}}" fill="none" stroke="{{.Theme.Border}}" stroke-width="1" rx="4.5"/>
{{- end}}

  <text x="10" y="30" class="header">Most Used Languages</text>
{{range .Rows}}
  <g transform="translate(0, {{.Y}})">
    <text x="10" y="0" class="lang-name">{{escape .Language}}</text>
    <text x="290" y="0" text-anchor="end" class="lang-percent">{{.Percentage}}%</text>
    <rect x="10" y="5" width="{{$.TrackWidth}}" height="8" rx="4" fill="{{$.Theme.Background}}" opacity="0.3"/>
    <rect x="10" y="5" width="{{.FillWidth}}" height="8" rx="4" fill="{{.Color}}"/>
  </g>
{{- end}}
</svg>
`))

type badgeRow struct {
	Y          int
	Language   string
	Percentage string
	FillWidth  string
	Color      string
}

type badgeDocument struct {
	Width      int
	Height     int
	TrackWidth int
	Theme      model.DisplayTheme
	Rows       []badgeRow
}

type BadgeService interface {
	RenderBadge(stats model.PercentageStats, themeName string) (string, error)
	BadgeFileName(themeName string) string
	GenerateBadges(ctx context.Context) ([]string, error)
}

type badgeService struct {
	statsService StatsService
	config       config.Config
}

func NewBadgeService(config config.Config, statsService StatsService) BadgeService {
	return badgeService{
		statsService: statsService,
		config:       config,
	}
}

// BadgeHeight is the card height for the given number of rendered languages
func BadgeHeight(entries int) int {
	return BadgeBaseHeight + entries*BadgeRowHeight
}

// RenderBadge builds the svg card for the highest shares of stats
// unknown themes are rendered with the radical palette
func (s badgeService) RenderBadge(stats model.PercentageStats, themeName string) (string, error) {
	theme, _ := model.ThemeByName(themeName)

	sorted := make(model.PercentageStats, len(stats))
	copy(sorted, stats)
	sorted.Sort()
	entries := sorted.Top(BadgeMaxEntries)

	rows := make([]badgeRow, 0, len(entries))
	for i, share := range entries {
		barWidth := share.Percentage / 100 * badgeBarSpan

		rows = append(rows, badgeRow{
			Y:          badgeFirstRowY + i*BadgeRowHeight,
			Language:   share.Language,
			Percentage: formatNumber(share.Percentage),
			FillWidth:  formatNumber(barWidth * badgeTrackWidth / badgeBarSpan),
			Color:      model.LanguageColor(share.Language),
		})
	}

	var out strings.Builder
	err := badgeTemplate.Execute(&out, badgeDocument{
		Width:      BadgeWidth,
		Height:     BadgeHeight(len(rows)),
		TrackWidth: badgeTrackWidth,
		Theme:      theme,
		Rows:       rows,
	})

	if err != nil {
		return "", fmt.Errorf("render badge %s: %w", theme.Name, err)
	}

	return out.String(), nil
}

// BadgeFileName the primary theme is the canonical stats.svg, others are suffixed
func (s badgeService) BadgeFileName(themeName string) string {
	if themeName == s.config.Badges.PrimaryTheme {
		return "stats.svg"
	}

	return "stats-" + themeName + ".svg"
}

// GenerateBadges writes one badge per configured theme in the output directory
// stats never fail (fallback data is used), a failed theme is logged and the next ones are still written
func (s badgeService) GenerateBadges(ctx context.Context) ([]string, error) {
	stats := s.statsService.GetLanguageStats(ctx, s.config.Badges.Policy())

	log.WithField("languages", strings.Join(stats.Languages(), ", ")).Info("language stats fetched")

	outputDir := s.config.Badges.OutputDir
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", outputDir, err)
	}

	written := make([]string, 0, len(s.config.Badges.Themes))
	var errs []error

	for _, theme := range s.config.Badges.Themes {
		if _, known := model.ThemeByName(theme); !known {
			log.WithField("theme", theme).Warning("unknown theme, the radical palette will be used")
		}

		svg, err := s.RenderBadge(stats, theme)
		if err != nil {
			log.WithError(err).WithField("theme", theme).Error("unable to render badge")
			errs = append(errs, err)
			continue
		}

		path := filepath.Join(outputDir, s.BadgeFileName(theme))
		if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
			log.WithError(err).WithField("path", path).Error("unable to write badge")
			errs = append(errs, fmt.Errorf("write badge %s: %w", path, err))
			continue
		}

		log.WithField("path", path).Info("badge generated")
		written = append(written, path)
	}

	return written, errors.Join(errs...)
}

// formatNumber prints the shortest representation, 35 and 20.5 rather than 35.0 and 20.50
func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
