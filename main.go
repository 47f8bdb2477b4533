package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"booking-service/config"
	"booking-service/handlers"
	"booking-service/repository"
	"booking-service/routes"
	"booking-service/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	server      *gin.Engine
	ctx         context.Context
	mongoclient *mongo.Client

	bookingService services.BookingService
	BookingHandler handlers.BookingHandler
	BookingRoutes  routes.BookingRouteHandler

	reviewService services.ReviewService
	ReviewHandler handlers.ReviewHandler
	ReviewRoutes  routes.ReviewRouteHandler

	appLogger *logrus.Logger
)

func init() {
	ctx = context.TODO()
	cfg := config.LoadConfig()

	appLogger = logrus.New()
	appLogger.SetLevel(logrus.InfoLevel)
	if logDir := os.Getenv("LOG_DIR"); logDir != "" {
		appLogger.SetOutput(&lumberjack.Logger{
			Filename:  logDir + "/logfile.log",
			MaxSize:   1,
			LocalTime: true,
		})
	}

	mongoconn := options.Client().ApplyURI(cfg.MongoURI)
	var err error
	mongoclient, err = mongo.Connect(ctx, mongoconn)
	if err != nil {
		panic(err)
	}
	if err := mongoclient.Ping(ctx, readpref.Primary()); err != nil {
		panic(err)
	}
	appLogger.Info("MongoDB successfully connected...")

	tracerProvider, err := NewTracerProvider(cfg.ServiceName, cfg.JaegerAddress)
	if err != nil {
		appLogger.Fatalf("JaegerTraceProvider failed to Initialize. Error: %s", err)
	}
	tracer := tracerProvider.Tracer(cfg.ServiceName)

	var cache *redis.Client
	if cfg.RedisURL != "" {
		cache = redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
		if _, err := cache.Ping().Result(); err != nil {
			appLogger.WithFields(logrus.Fields{"path": "main"}).Error("Redis unavailable, catalog cache disabled: ", err)
			cache = nil
		}
	}

	bookingCollection := mongoclient.Database("Rentio").Collection("bookings")
	reviewCollection := mongoclient.Database("Rentio").Collection("reviews")

	bookingRepo := repository.NewBookingRepo(bookingCollection, appLogger, tracer)
	if err := bookingRepo.EnsureIndexes(ctx); err != nil {
		appLogger.WithFields(logrus.Fields{"path": "main"}).Error("Booking index creation failed: ", err)
	}
	reviewRepo := repository.NewReviewRepo(reviewCollection, appLogger, tracer)
	if err := reviewRepo.EnsureIndexes(ctx); err != nil {
		appLogger.WithFields(logrus.Fields{"path": "main"}).Error("Review index creation failed: ", err)
	}

	policy, err := services.NewTransitionPolicy(cfg.CasbinModelPath, cfg.CasbinPolicyPath)
	if err != nil {
		appLogger.Fatalf("Transition policy failed to load. Error: %s", err)
	}

	var notifier services.Notifier = services.NoopNotifier{}
	if cfg.SMTPHost != "" {
		notifier = services.NewEmailNotifier(cfg, appLogger)
	}

	catalog := services.NewPropertyCatalog(cfg.PropertyServiceURL, cache, tracer, appLogger)
	authGateway := services.NewAuthGateway(cfg.AuthServiceURL, tracer, appLogger)

	bookingService = services.NewBookingService(bookingRepo, catalog, policy, notifier, cfg.CancellationLead, tracer, appLogger)
	BookingHandler = handlers.NewBookingHandler(bookingService, authGateway, tracer, appLogger)
	BookingRoutes = routes.NewBookingRouteHandler(BookingHandler)

	reviewService = services.NewReviewService(reviewRepo, bookingRepo, tracer, appLogger)
	ReviewHandler = handlers.NewReviewHandler(reviewService, authGateway, tracer, appLogger)
	ReviewRoutes = routes.NewReviewRouteHandler(ReviewHandler)

	server = gin.Default()
	server.Use(handlers.RequestIDMiddleware(appLogger))
}

func main() {
	defer mongoclient.Disconnect(ctx)
	cfg := config.LoadConfig()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"https://localhost:4200"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	server.Use(cors.New(corsConfig))

	router := server.Group("/api")
	router.GET("/healthchecker", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "success", "message": "booking-service up"})
	})

	BookingRoutes.BookingRoute(router)
	ReviewRoutes.ReviewRoute(router)

	appLogger.Info("Server listening on port ", cfg.Port)
	if err := server.Run(":" + cfg.Port); err != nil {
		fmt.Println(err)
	}
}

func NewTracerProvider(serviceName, collectorEndpoint string) (*sdktrace.TracerProvider, error) {
	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(collectorEndpoint)))
	if err != nil {
		return nil, fmt.Errorf("unable to initialize exporter due: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			semconv.DeploymentEnvironmentKey.String("development"),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, nil
}
