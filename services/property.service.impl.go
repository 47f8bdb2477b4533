package services

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"booking-service/domain"

	"github.com/go-redis/redis"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const propertyCacheTTL = 5 * time.Minute

type PropertyCatalogImpl struct {
	baseURL        string
	client         *http.Client
	cache          *redis.Client
	CircuitBreaker *gobreaker.CircuitBreaker
	Tracer         trace.Tracer
	logger         *logrus.Logger
}

// NewPropertyCatalog builds the HTTP client towards the property service.
// cache may be nil, in which case every lookup goes to the wire.
func NewPropertyCatalog(baseURL string, cache *redis.Client, tracer trace.Tracer, logger *logrus.Logger) *PropertyCatalogImpl {
	circuitBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "PropertyServiceRequest",
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{"path": "services/property"}).Infof("Circuit Breaker %s changed from %s to %s", name, from, to)
		},
	})
	tr := &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	return &PropertyCatalogImpl{
		baseURL:        baseURL,
		client:         &http.Client{Transport: tr, Timeout: 5 * time.Second},
		cache:          cache,
		CircuitBreaker: circuitBreaker,
		Tracer:         tracer,
		logger:         logger,
	}
}

func (pc *PropertyCatalogImpl) GetProperty(ctx context.Context, id string) (*domain.Property, error) {
	ctx, span := pc.Tracer.Start(ctx, "PropertyCatalog.GetProperty")
	defer span.End()

	if property := pc.fromCache(id); property != nil {
		return property, nil
	}

	url := pc.baseURL + "/api/properties/get/" + id
	result, err := pc.CircuitBreaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
		return pc.client.Do(req)
	})
	if err != nil {
		span.SetStatus(codes.Error, "Property service is not available")
		pc.logger.WithFields(logrus.Fields{"path": "services/property"}).Error("Property service request failed: ", err)
		return nil, fmt.Errorf("property service request failed: %w", err)
	}

	resp := result.(*http.Response)
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.NewNotFoundError("Property not found")
	}
	if resp.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, "Unexpected property service status")
		return nil, fmt.Errorf("property service returned status %d", resp.StatusCode)
	}

	var property domain.Property
	if err := json.NewDecoder(resp.Body).Decode(&property); err != nil {
		return nil, fmt.Errorf("error decoding property response: %w", err)
	}

	pc.toCache(&property)
	return &property, nil
}

func (pc *PropertyCatalogImpl) fromCache(id string) *domain.Property {
	if pc.cache == nil {
		return nil
	}
	payload, err := pc.cache.Get(propertyCacheKey(id)).Bytes()
	if err != nil {
		return nil
	}
	var property domain.Property
	if err := json.Unmarshal(payload, &property); err != nil {
		return nil
	}
	return &property
}

func (pc *PropertyCatalogImpl) toCache(property *domain.Property) {
	if pc.cache == nil {
		return
	}
	payload, err := json.Marshal(property)
	if err != nil {
		return
	}
	if err := pc.cache.Set(propertyCacheKey(property.ID), payload, propertyCacheTTL).Err(); err != nil {
		pc.logger.WithFields(logrus.Fields{"path": "services/property"}).Error("Property cache write failed: ", err)
	}
}

func propertyCacheKey(id string) string {
	return fmt.Sprintf("properties:%s", id)
}
