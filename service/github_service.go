package service

import (
	"context"
	"errors"
	"time"

	"github.com/DyDxdYdX/portfolio-stats/config"
	"github.com/DyDxdYdX/portfolio-stats/model"
	"github.com/google/go-github/v66/github"

	"github.com/remeh/sizedwaitgroup"
	log "github.com/sirupsen/logrus"

	"golang.org/x/time/rate"
)

type GithubService interface {
	FetchUserRepositories(ctx context.Context, username string) ([]model.GithubRepository, error)
	GetRepositoriesLanguages(ctx context.Context, repos []model.GithubRepository) []model.GithubRepositoryLanguages
	FetchLanguagesForSingleRepository(ctx context.Context, r model.GithubRepository, swg *sizedwaitgroup.SizedWaitGroup, ch chan<- model.GithubRepositoryLanguages) error

	HandleRequestErrors(err error) error
}

type githubService struct {
	githubClient      *github.Client
	githubRateLimiter *rate.Limiter
	config            config.Config
}

// ListLanguages rate limit = 60 calls per hour for non-authenticated and 5000 calls for authenticated
// the listing and each language breakdown consume one token of the same local limiter
func NewGithubService(config config.Config, githubClient *github.Client, rateLimiter *rate.Limiter) GithubService {
	return githubService{
		githubClient:      githubClient,
		githubRateLimiter: rateLimiter,
		config:            config,
	}
}

// FetchUserRepositories lists every public repository owned by the user
// and reserves enough requests on the rate limiter to load all their languages
func (s githubService) FetchUserRepositories(ctx context.Context, username string) ([]model.GithubRepository, error) {
	log.WithField("username", username).Info("fetch repositories from github")

	opts := &github.RepositoryListByUserOptions{
		Type: "owner",
		ListOptions: github.ListOptions{
			PerPage: 100,
		},
	}

	repositories := make([]model.GithubRepository, 0)

	for {
		if !s.githubRateLimiter.Allow() {
			log.Warning("the Github rate limit has been reached. Use a token or wait until the limit reset")
			return []model.GithubRepository{}, model.ErrRateLimitReached
		}

		repos, res, err := s.githubClient.Repositories.ListByUser(ctx, username, opts)
		if err != nil {
			return []model.GithubRepository{}, s.HandleRequestErrors(err)
		}

		for _, r := range repos {
			if r == nil || r.ID == nil || r.Owner == nil || r.Owner.Login == nil || r.Name == nil {
				log.WithField("username", username).Debug("repository found with invalid information. skipped")
				continue
			}

			repositories = append(repositories, model.GithubRepository{
				ID:               r.GetID(),
				FullName:         r.GetFullName(),
				Owner:            r.GetOwner().GetLogin(),
				Repository:       r.GetName(),
				LanguagesURL:     r.GetLanguagesURL(),
				MostUsedLanguage: r.Language,
			})
		}

		if res == nil || res.NextPage == 0 {
			break
		}

		opts.Page = res.NextPage
	}

	// count number of repositories where the languages are available for loading
	// if there is not enough request on rate limiter to load all of them, return an error here
	// this avoid building stats from a part of the repositories only
	reposWithLanguagesToLoad := 0

	for _, r := range repositories {
		if r.MostUsedLanguage != nil {
			reposWithLanguagesToLoad += 1
		}
	}

	// the reservation can never succeed when it exceeds the whole rate limit window
	if burst := s.githubRateLimiter.Burst(); reposWithLanguagesToLoad > burst {
		log.WithFields(log.Fields{
			"repositoriesToLoad": reposWithLanguagesToLoad,
			"rateLimit":          burst,
		}).Warning("more repositories to load than the github rate limit allows, configure a github token to get live stats")
		return []model.GithubRepository{}, model.ErrRateLimitReached
	}

	if !s.githubRateLimiter.AllowN(time.Now(), reposWithLanguagesToLoad) {
		log.WithField("repositoriesToLoad", reposWithLanguagesToLoad).Warning("not enough requests in rate limiter to load languages for all repositories")
		return []model.GithubRepository{}, model.ErrRateLimitReached
	}

	log.WithFields(log.Fields{
		"numberOfRepositories": len(repositories),
		"repositoriesToLoad":   reposWithLanguagesToLoad,
	}).Debug("repositories listed")

	return repositories, nil
}

// GetRepositoriesLanguages fetch the languages used by each repository in parameters
// requests are parallelized with a sized wait group, a failed request yields an empty map
// and never aborts the others
func (s githubService) GetRepositoriesLanguages(ctx context.Context, repos []model.GithubRepository) []model.GithubRepositoryLanguages {

	// create a group to wait for all goroutines to finish
	swg := sizedwaitgroup.New(s.config.Tasks.MaxParallelTasksAllowed)

	// every repository sends exactly one result, so the buffer never blocks a worker
	results := make(chan model.GithubRepositoryLanguages, len(repos))

	for _, r := range repos {

		// a repository without most used language has no language at all for github
		// skip the request, this will save some requests regarding to the rate limit
		if r.MostUsedLanguage == nil {
			log.WithFields(log.Fields{
				"repositoryID": r.ID,
			}).Debug("repository without most used language. skipped from loading languages list")

			results <- model.GithubRepositoryLanguages{RepositoryID: r.ID, Languages: model.LanguageByteMap{}}
			continue
		}

		swg.Add()
		go func(r model.GithubRepository) {
			if err := s.FetchLanguagesForSingleRepository(ctx, r, &swg, results); err != nil {
				log.WithError(err).WithField("repository", r.FullName).Warning("languages not loaded, repository counted as empty")
			}
		}(r)
	}

	// wait for all tasks to be finished
	log.Debug("waiting for all threads for loading repositories languages to be finished")
	swg.Wait()
	log.Debug("all threads for loading repositories languages finished")

	close(results)

	languages := make([]model.GithubRepositoryLanguages, 0, len(repos))
	for result := range results {
		languages = append(languages, result)
	}

	return languages
}

// FetchLanguagesForSingleRepository get the languages for a specific repository
// the result is always sent to the channel, with an empty map when the request failed
// note: we are not checking the rate limit in this function, because done when listing
func (s githubService) FetchLanguagesForSingleRepository(ctx context.Context, r model.GithubRepository, swg *sizedwaitgroup.SizedWaitGroup, ch chan<- model.GithubRepositoryLanguages) error {
	defer swg.Done()

	log.WithFields(log.Fields{
		"repositoryID":     r.ID,
		"mostUsedLanguage": r.MostUsedLanguage,
		"languagesURL":     r.LanguagesURL,
	}).Debug("fetch languages for repository")

	res, _, err := s.githubClient.Repositories.ListLanguages(ctx, r.Owner, r.Repository)

	if err != nil {
		ch <- model.GithubRepositoryLanguages{RepositoryID: r.ID, Languages: model.LanguageByteMap{}}
		return s.HandleRequestErrors(err)
	}

	ch <- model.GithubRepositoryLanguages{RepositoryID: r.ID, Languages: res}
	return nil
}

// HandleRequestErrors manage errors including github rate limit errors at the same location
// If error is a rate limit error, this function will update the local rate limiter to consume all available requests
// this can help us to keep the local rate limiter up to date
func (s githubService) HandleRequestErrors(err error) error {
	var rateLimitErr *github.RateLimitError

	if errors.As(err, &rateLimitErr) {
		if remaining := int(s.githubRateLimiter.Tokens()); remaining > 0 {
			s.githubRateLimiter.AllowN(time.Now(), remaining)
		}

		log.Warning("the Github rate limit has been reached. Use a token or wait until the limit reset")
		return model.ErrRateLimitReached
	}

	log.WithError(err).Error("error catched when fetching data from github")
	return model.ErrFetch
}
