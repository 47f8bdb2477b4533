package services

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net/http"
	"time"

	"booking-service/domain"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type AuthGatewayImpl struct {
	baseURL        string
	client         *http.Client
	CircuitBreaker *gobreaker.CircuitBreaker
	Tracer         trace.Tracer
	logger         *logrus.Logger
}

func NewAuthGateway(baseURL string, tracer trace.Tracer, logger *logrus.Logger) *AuthGatewayImpl {
	circuitBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "AuthServiceRequest",
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{"path": "services/auth"}).Infof("Circuit Breaker %s changed from %s to %s", name, from, to)
		},
	})
	tr := &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	return &AuthGatewayImpl{
		baseURL:        baseURL,
		client:         &http.Client{Transport: tr, Timeout: 5 * time.Second},
		CircuitBreaker: circuitBreaker,
		Tracer:         tracer,
		logger:         logger,
	}
}

func (ag *AuthGatewayImpl) CurrentUser(ctx context.Context, token string) (*domain.Actor, error) {
	ctx, span := ag.Tracer.Start(ctx, "AuthGateway.CurrentUser")
	defer span.End()

	if token == "" {
		return nil, domain.NewAuthorizationError("Missing authorization token")
	}

	url := ag.baseURL + "/api/users/currentUser"
	result, err := ag.CircuitBreaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", token)
		otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
		return ag.client.Do(req)
	})
	if err != nil {
		span.SetStatus(codes.Error, "Auth service is not available")
		ag.logger.WithFields(logrus.Fields{"path": "services/auth"}).Error("Auth service request failed: ", err)
		return nil, domain.NewAuthorizationError("Failed to obtain current user information. Try again later")
	}

	resp := result.(*http.Response)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewAuthorizationError("Unauthorized")
	}

	var response struct {
		LoggedInUser domain.Actor `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, domain.NewAuthorizationError("Unauthorized")
	}
	if response.LoggedInUser.ID == "" {
		return nil, domain.NewAuthorizationError("Unauthorized")
	}
	return &response.LoggedInUser, nil
}
