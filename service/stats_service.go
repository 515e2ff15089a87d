package service

import (
	"context"

	"github.com/DyDxdYdX/portfolio-stats/config"
	"github.com/DyDxdYdX/portfolio-stats/model"
	log "github.com/sirupsen/logrus"
)

type StatsService interface {
	GetLanguageStats(ctx context.Context, policy model.PercentagePolicy) model.PercentageStats
}

type statsService struct {
	githubService GithubService
	config        config.Config
}

func NewStatsService(config config.Config, githubService GithubService) StatsService {
	return statsService{
		githubService: githubService,
		config:        config,
	}
}

// GetLanguageStats computes the share of each language over all the user repositories
// it never fails: any error, or the lack of data, returns the static fallback dataset
func (s statsService) GetLanguageStats(ctx context.Context, policy model.PercentagePolicy) model.PercentageStats {
	username := s.config.Github.Username

	repos, err := s.githubService.FetchUserRepositories(ctx, username)
	if err != nil {
		log.WithError(err).WithField("username", username).Warning("unable to list repositories, using fallback languages")
		return model.Fallback()
	}

	results := s.githubService.GetRepositoriesLanguages(ctx, repos)

	maps := make([]model.LanguageByteMap, 0, len(results))
	for _, result := range results {
		maps = append(maps, result.Languages)
	}

	stats := model.Merge(maps...).Percentages(policy)
	if len(stats) == 0 {
		log.WithField("username", username).Warning("no language data found, using fallback languages")
		return model.Fallback()
	}

	log.WithFields(log.Fields{
		"username":  username,
		"languages": len(stats),
	}).Debug("language stats computed")

	return stats
}
