package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/DyDxdYdX/portfolio-stats/config"
	"github.com/DyDxdYdX/portfolio-stats/model"
	"github.com/DyDxdYdX/portfolio-stats/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatsService struct {
	calls    int
	policies []model.PercentagePolicy
}

func (s *fakeStatsService) GetLanguageStats(_ context.Context, policy model.PercentagePolicy) model.PercentageStats {
	s.calls++
	s.policies = append(s.policies, policy)
	return model.Fallback()
}

type fakeContactService struct {
	status     model.DeliveryStatus
	err        error
	got        []model.ContactMessage
	submitters []string
}

func (s *fakeContactService) Submit(_ context.Context, submitterID string, msg model.ContactMessage) (model.DeliveryStatus, error) {
	s.got = append(s.got, msg)
	s.submitters = append(s.submitters, submitterID)
	return s.status, s.err
}

func setupRouter(stats *fakeStatsService, contact *fakeContactService) *gin.Engine {
	return setupRouterWithConfig(config.GetDefault(), stats, contact)
}

func setupRouterWithConfig(conf *config.Config, stats *fakeStatsService, contact *fakeContactService) *gin.Engine {
	gin.SetMode(gin.TestMode)

	badgeService := service.NewBadgeService(*conf, stats)
	apiController := NewAPIController(*conf, stats, badgeService, contact)

	router := gin.New()
	router.GET("/stats/languages", apiController.GetLanguages)
	router.GET("/stats/badge.svg", apiController.GetBadge)
	router.POST("/contact", apiController.SubmitContact)

	return router
}

func TestGetLanguages(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedLen    int
	}{
		{name: "All languages", query: "", expectedStatus: http.StatusOK, expectedLen: 8},
		{name: "Limited", query: "?limit=3", expectedStatus: http.StatusOK, expectedLen: 3},
		{name: "Invalid limit", query: "?limit=-1", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(&fakeStatsService{}, &fakeContactService{})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats/languages"+tt.query, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusOK {
				var stats model.PercentageStats
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
				assert.Len(t, stats, tt.expectedLen)
				assert.Equal(t, "PHP", stats[0].Language)
			}
		})
	}
}

func TestGetBadge(t *testing.T) {
	stats := &fakeStatsService{}
	router := setupRouter(stats, &fakeContactService{})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats/badge.svg?theme=dark", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/svg+xml; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, "public, max-age=3600", w.Header().Get("Cache-Control"))
		assert.Contains(t, w.Body.String(), "#0d1117")
	}

	// second request is served from the cache
	assert.Equal(t, 1, stats.calls)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats/badge.svg?theme=unknown", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "#141321")
}

func TestGetBadgeWithoutRevalidation(t *testing.T) {
	conf := config.GetDefault()
	conf.Badges.RevalidateSeconds = 0

	stats := &fakeStatsService{}
	router := setupRouterWithConfig(conf, stats, &fakeContactService{})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats/badge.svg", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
	}

	// every request renders a fresh badge
	assert.Equal(t, 3, stats.calls)
}

func TestGetBadgeUsesConfiguredPolicy(t *testing.T) {
	conf := config.GetDefault()
	conf.Badges.Decimals = 2
	conf.Badges.MinPercent = 5

	stats := &fakeStatsService{}
	router := setupRouterWithConfig(conf, stats, &fakeContactService{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats/badge.svg", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []model.PercentagePolicy{{Decimals: 2, MinPercent: 5}}, stats.policies)
}

func postForm(router *gin.Engine, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSubmitContact(t *testing.T) {
	validForm := url.Values{
		"Name":    {"Ada"},
		"Email":   {"ada@example.com"},
		"Message": {"Hello there"},
	}

	tests := []struct {
		name           string
		form           url.Values
		contact        *fakeContactService
		expectedStatus int
		expectedState  model.FormState
		expectedDialog string
		expectedFields model.ContactMessage
		expectedCode   string
	}{
		{
			name:           "Confirmed delivery",
			form:           validForm,
			contact:        &fakeContactService{status: model.DeliveryConfirmed},
			expectedStatus: http.StatusOK,
			expectedState:  model.FormSuccess,
			expectedDialog: "success",
		},
		{
			name:           "Unconfirmed delivery",
			form:           validForm,
			contact:        &fakeContactService{status: model.DeliveryUnconfirmed},
			expectedStatus: http.StatusOK,
			expectedState:  model.FormSuccess,
			expectedDialog: "success",
		},
		{
			name:           "Failed delivery keeps the form",
			form:           validForm,
			contact:        &fakeContactService{status: model.DeliveryFailed, err: model.ErrDeliveryFailed},
			expectedStatus: http.StatusBadGateway,
			expectedState:  model.FormError,
			expectedDialog: "error",
			expectedFields: model.ContactMessage{Name: "Ada", Email: "ada@example.com", Message: "Hello there"},
		},
		{
			name:           "Submission already in flight",
			form:           validForm,
			contact:        &fakeContactService{status: model.DeliveryFailed, err: model.ErrSubmissionInFlight},
			expectedStatus: http.StatusConflict,
			expectedCode:   "SUBMISSION_IN_FLIGHT",
		},
		{
			name:           "Email is not checked for an address format",
			form:           url.Values{"Name": {"Ada"}, "Email": {"ada at home"}, "Message": {"Hello there"}},
			contact:        &fakeContactService{status: model.DeliveryConfirmed},
			expectedStatus: http.StatusOK,
			expectedState:  model.FormSuccess,
			expectedDialog: "success",
		},
		{
			name:           "Missing message",
			form:           url.Values{"Name": {"Ada"}, "Email": {"ada@example.com"}},
			contact:        &fakeContactService{},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_FORM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(&fakeStatsService{}, tt.contact)
			w := postForm(router, tt.form)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedCode != "" {
				var apiErr model.APIError
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
				assert.Equal(t, tt.expectedCode, apiErr.Code)
				return
			}

			var res struct {
				State  model.FormState      `json:"state"`
				Status model.DeliveryStatus `json:"status"`
				Dialog string               `json:"dialog"`
				Form   model.ContactMessage `json:"form"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))

			assert.Equal(t, tt.expectedState, res.State)
			assert.Equal(t, tt.expectedDialog, res.Dialog)
			assert.Equal(t, tt.contact.status, res.Status)
			assert.Equal(t, tt.expectedFields, res.Form)
			assert.Len(t, tt.contact.got, 1)
		})
	}
}

func TestSubmitContactKeysSubmissionsByClient(t *testing.T) {
	contact := &fakeContactService{status: model.DeliveryConfirmed}
	router := setupRouter(&fakeStatsService{}, contact)

	form := url.Values{"Name": {"Ada"}, "Email": {"ada@example.com"}, "Message": {"Hello there"}}

	for _, remoteAddr := range []string{"203.0.113.7:41000", "198.51.100.4:52000"} {
		req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.RemoteAddr = remoteAddr

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, []string{"203.0.113.7", "198.51.100.4"}, contact.submitters)
}
