package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/DyDxdYdX/portfolio-stats/config"
	"github.com/DyDxdYdX/portfolio-stats/model"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type ContactService interface {
	Submit(ctx context.Context, submitterID string, msg model.ContactMessage) (model.DeliveryStatus, error)
}

type contactService struct {
	httpClient *http.Client
	config     config.Config

	// submitter id -> submission id of the message being sent
	inFlight sync.Map
}

// contactResponse is the body returned by the form backend on the primary transport
type contactResponse struct {
	Result string `json:"result"`
}

// NewContactService the form backend is reached through httpClient for both transports
func NewContactService(config config.Config, httpClient *http.Client) ContactService {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &contactService{
		httpClient: httpClient,
		config:     config,
	}
}

// Submit delivers the message to the form backend
// the primary transport reads the backend answer, when it fails a single fallback request is sent
// and its answer is ignored: the message is then reported as unconfirmed rather than confirmed
// a submitter can only have one submission in flight, the next ones are rejected with ErrSubmissionInFlight
func (s *contactService) Submit(ctx context.Context, submitterID string, msg model.ContactMessage) (model.DeliveryStatus, error) {
	submissionID := uuid.NewString()

	if pending, loaded := s.inFlight.LoadOrStore(submitterID, submissionID); loaded {
		log.WithFields(log.Fields{
			"submitterID":  submitterID,
			"submissionID": pending,
		}).Debug("submission already in flight for this submitter")

		return model.DeliveryFailed, model.ErrSubmissionInFlight
	}
	defer s.inFlight.Delete(submitterID)

	logger := log.WithFields(log.Fields{
		"submitterID":  submitterID,
		"submissionID": submissionID,
	})

	form := url.Values{}
	form.Set("Name", msg.Name)
	form.Set("Email", msg.Email)
	form.Set("Message", msg.Message)

	err := s.sendPrimary(ctx, form)
	if err == nil {
		logger.Info("contact message delivered")
		return model.DeliveryConfirmed, nil
	}

	logger.WithError(err).Warning("primary transport failed, trying fallback transport")

	if err := s.sendFallback(ctx, form); err != nil {
		logger.WithError(err).Error("fallback transport failed, contact message not delivered")
		return model.DeliveryFailed, fmt.Errorf("%w: %v", model.ErrDeliveryFailed, err)
	}

	logger.Info("contact message sent with fallback transport, delivery can't be confirmed")
	return model.DeliveryUnconfirmed, nil
}

// sendPrimary succeeds on a 2xx answer whose result is success
// a 2xx answer with a body we can't parse is also a success, the backend shape is not guaranteed
func (s *contactService) sendPrimary(ctx context.Context, form url.Values) error {
	status, payload, err := s.post(ctx, s.config.Contact.Endpoint, form)
	if err != nil {
		return err
	}

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return fmt.Errorf("form backend answered with status %d", status)
	}

	var body contactResponse
	if err := json.Unmarshal(payload, &body); err != nil {
		log.WithError(err).Debug("unable to parse form backend answer, considered as delivered")
		return nil
	}

	if body.Result != "success" {
		return fmt.Errorf("form backend answered with result %q", body.Result)
	}

	return nil
}

// sendFallback only fails when the request can't be sent, status and body are not looked at
func (s *contactService) sendFallback(ctx context.Context, form url.Values) error {
	status, _, err := s.post(ctx, s.config.Contact.FallbackURL(), form)
	if err != nil && status == 0 {
		return err
	}

	return nil
}

// post sends the form and reads the whole answer before the attempt timeout expires
func (s *contactService) post(ctx context.Context, endpoint string, form url.Values) (int, []byte, error) {
	if timeout := s.config.Contact.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := s.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, err
	}

	return res.StatusCode, payload, nil
}
