package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	cloudstorage "cloud.google.com/go/storage"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/fotoescola/api/internal/handlers"
	"github.com/fotoescola/api/internal/notifications"
	"github.com/fotoescola/api/internal/payments"
	"github.com/fotoescola/api/internal/platform/auth"
	"github.com/fotoescola/api/internal/platform/config"
	pfirestore "github.com/fotoescola/api/internal/platform/firestore"
	"github.com/fotoescola/api/internal/platform/idempotency"
	"github.com/fotoescola/api/internal/platform/observability"
	"github.com/fotoescola/api/internal/platform/secrets"
	platformstorage "github.com/fotoescola/api/internal/platform/storage"
	"github.com/fotoescola/api/internal/repositories"
	firestoreRepo "github.com/fotoescola/api/internal/repositories/firestore"
	"github.com/fotoescola/api/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	envValues, err := config.EnvironmentValues()
	if err != nil {
		logger.Fatal("failed to read environment values", zap.Error(err))
	}

	fetcher, err := newSecretFetcher(ctx, logger, envValues)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx,
		config.WithSecretResolver(config.SecretResolverFunc(fetcher.Resolve)),
		config.WithRequiredSecrets(
			"Gallery.SessionSecret",
			"PSP.StripeAPIKey",
			"PSP.StripeWebhookSecret",
			"PSP.EupagoAPIKey",
		),
	)
	if err != nil {
		var missing *config.MissingSecretsError
		if errors.As(err, &missing) {
			logger.Fatal("missing required secrets", zap.Strings("secrets", missing.RedactedNames()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	buildInfo := buildInfoFromEnv(envValues, startedAt)

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	firestoreClient, err := firestoreProvider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	storageClient, err := cloudstorage.NewClient(ctx)
	if err != nil {
		logger.Fatal("failed to initialise storage client", zap.Error(err))
	}
	defer func() {
		if err := storageClient.Close(); err != nil {
			logger.Warn("storage close error", zap.Error(err))
		}
	}()

	photoUploader, err := platformstorage.NewUploader(storageClient, cfg.Storage.PhotosBucket,
		platformstorage.WithPublicBaseURL(cfg.Storage.PublicBaseURL),
	)
	if err != nil {
		logger.Fatal("failed to initialise photo uploader", zap.Error(err))
	}

	var emailTopic *pubsub.Topic
	var emailPublisher *notifications.Publisher
	if strings.TrimSpace(cfg.Email.Topic) != "" {
		pubsubClient, err := pubsub.NewClient(ctx, pubsubProjectID(cfg))
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()
		emailTopic = pubsubClient.Topic(cfg.Email.Topic)
		defer emailTopic.Stop()

		emailPublisher, err = notifications.NewPublisher(emailTopic,
			notifications.WithAdminCopy(cfg.Email.AdminAddress),
		)
		if err != nil {
			logger.Fatal("failed to initialise email publisher", zap.Error(err))
		}
	} else {
		logger.Warn("email topic not configured; order confirmations disabled")
	}

	schoolRepo, err := firestoreRepo.NewSchoolRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise school repository", zap.Error(err))
	}
	classRepo, err := firestoreRepo.NewClassRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise class repository", zap.Error(err))
	}
	studentRepo, err := firestoreRepo.NewStudentRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise student repository", zap.Error(err))
	}
	photoRepo, err := firestoreRepo.NewPhotoRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise photo repository", zap.Error(err))
	}
	productRepo, err := firestoreRepo.NewProductRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise product repository", zap.Error(err))
	}
	shippingMethodRepo, err := firestoreRepo.NewShippingMethodRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise shipping method repository", zap.Error(err))
	}
	orderRepo, err := firestoreRepo.NewOrderRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise order repository", zap.Error(err))
	}
	paymentEventRepo, err := firestoreRepo.NewPaymentEventRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise payment event repository", zap.Error(err))
	}

	sessionManager, err := auth.NewSessionManager(cfg.Gallery.SessionSecret, cfg.Gallery.SessionTTL)
	if err != nil {
		logger.Fatal("failed to initialise gallery session manager", zap.Error(err))
	}

	firebaseVerifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase)
	if err != nil {
		logger.Fatal("failed to initialise firebase verifier", zap.Error(err))
	}
	authenticator := auth.NewAuthenticator(firebaseVerifier, auth.WithUserGetter(firebaseVerifier))

	paymentsLogger := logger.Named("payments")
	eupagoClient, err := payments.NewEupagoClient(payments.EupagoClientConfig{
		APIKey:  cfg.PSP.EupagoAPIKey,
		BaseURL: cfg.PSP.EupagoBaseURL,
		Timeout: cfg.PSP.EupagoTimeout,
		Logger:  eventLogger(paymentsLogger),
	})
	if err != nil {
		logger.Fatal("failed to initialise eupago client", zap.Error(err))
	}
	cardProvider, err := payments.NewCardProvider(payments.CardProviderConfig{
		APIKey:     cfg.PSP.StripeAPIKey,
		SuccessURL: cfg.Checkout.SuccessURL,
		CancelURL:  cfg.Checkout.CancelURL,
		Logger:     eventLogger(paymentsLogger),
	})
	if err != nil {
		logger.Fatal("failed to initialise card provider", zap.Error(err))
	}
	mbwayProvider, err := payments.NewMBWayProvider(payments.MBWayProviderConfig{
		Client:     eupagoClient,
		SuccessURL: cfg.Checkout.SuccessURL,
		FailURL:    cfg.Checkout.FailURL,
		BackURL:    cfg.Checkout.BackURL,
	})
	if err != nil {
		logger.Fatal("failed to initialise mbway provider", zap.Error(err))
	}
	multibancoProvider, err := payments.NewMultibancoProvider(eupagoClient)
	if err != nil {
		logger.Fatal("failed to initialise multibanco provider", zap.Error(err))
	}
	paymentManager, err := payments.NewManager(cardProvider, mbwayProvider, multibancoProvider)
	if err != nil {
		logger.Fatal("failed to initialise payment manager", zap.Error(err))
	}

	photoResolver, err := services.NewPhotoResolver(services.PhotoResolverDeps{
		Photos:   photoRepo,
		Products: productRepo,
		Logger:   eventLogger(logger.Named("photos")),
	})
	if err != nil {
		logger.Fatal("failed to initialise photo resolver", zap.Error(err))
	}
	galleryService, err := services.NewGalleryService(services.GalleryServiceDeps{
		Students:        studentRepo,
		Photos:          photoRepo,
		Products:        productRepo,
		ShippingMethods: shippingMethodRepo,
		Sessions:        sessionManager,
		Logger:          eventLogger(logger.Named("gallery")),
	})
	if err != nil {
		logger.Fatal("failed to initialise gallery service", zap.Error(err))
	}
	catalogService, err := services.NewCatalogService(services.CatalogServiceDeps{
		Products:        productRepo,
		ShippingMethods: shippingMethodRepo,
		Logger:          eventLogger(logger.Named("catalog")),
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog service", zap.Error(err))
	}
	rosterService, err := services.NewRosterService(services.RosterServiceDeps{
		Schools:  schoolRepo,
		Classes:  classRepo,
		Students: studentRepo,
		Photos:   photoRepo,
		Storage:  photoUploader,
		Logger:   eventLogger(logger.Named("roster")),
	})
	if err != nil {
		logger.Fatal("failed to initialise roster service", zap.Error(err))
	}
	checkoutService, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Orders:          orderRepo,
		Products:        productRepo,
		ShippingMethods: shippingMethodRepo,
		Resolver:        photoResolver,
		Payments:        paymentManager,
		Logger:          eventLogger(logger.Named("checkout")),
	})
	if err != nil {
		logger.Fatal("failed to initialise checkout service", zap.Error(err))
	}
	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Orders: orderRepo,
		Logger: eventLogger(logger.Named("orders")),
	})
	if err != nil {
		logger.Fatal("failed to initialise order service", zap.Error(err))
	}
	webhookDeps := services.WebhookServiceDeps{
		Orders:   orderRepo,
		Events:   paymentEventRepo,
		Products: productRepo,
		Students: studentRepo,
		Methods:  shippingMethodRepo,
		Logger:   eventLogger(logger.Named("webhooks")),
	}
	if emailPublisher != nil {
		webhookDeps.Publisher = emailPublisher
	}
	webhookService, err := services.NewWebhookService(webhookDeps)
	if err != nil {
		logger.Fatal("failed to initialise webhook service", zap.Error(err))
	}

	systemService, err := newSystemService(firestoreClient, emailTopic, storageClient, cfg)
	if err != nil {
		logger.Warn("health: system service init failed", zap.Error(err))
	}

	idempotencyStore := idempotency.NewFirestoreStore(firestoreClient)
	idempotencyMiddleware := idempotency.Middleware(
		idempotencyStore,
		idempotency.WithHeader(cfg.Idempotency.Header),
		idempotency.WithTTL(cfg.Idempotency.TTL),
		idempotency.WithLogger(observability.NewPrintfAdapter(logger.Named("idempotency"))),
	)

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	var cleanupWG sync.WaitGroup
	var cleanupTicker *time.Ticker
	if cfg.Idempotency.CleanupInterval > 0 {
		cleanupTicker = time.NewTicker(cfg.Idempotency.CleanupInterval)
		cleanupWG.Add(1)
		go func() {
			defer cleanupWG.Done()
			cleanupLogger := logger.Named("idempotency")
			for {
				select {
				case <-cleanupTicker.C:
					runCtx, cancel := context.WithTimeout(cleanupCtx, time.Minute)
					removed, err := idempotencyStore.CleanupExpired(runCtx, time.Now().UTC(), cfg.Idempotency.CleanupBatchSize)
					cancel()
					if err != nil {
						cleanupLogger.Error("idempotency cleanup error", zap.Error(err))
						continue
					}
					if removed > 0 {
						cleanupLogger.Info("idempotency cleanup removed records", zap.Int("count", removed))
					}
				case <-cleanupCtx.Done():
					return
				}
			}
		}()
	}

	projectID := traceProjectID(cfg)
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(projectID),
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfo),
		handlers.WithHealthSystemService(systemService),
	)
	galleryHandlers := handlers.NewGalleryHandlers(handlers.GalleryHandlersConfig{
		Sessions: sessionManager,
		Gallery:  galleryService,
	})
	catalogHandlers := handlers.NewCatalogHandlers(catalogService)
	checkoutHandlers := handlers.NewCheckoutHandlers(checkoutService)
	webhookHandlers := handlers.NewWebhookHandlers(handlers.WebhookHandlersConfig{
		Webhooks:            webhookService,
		StripeWebhookSecret: cfg.PSP.StripeWebhookSecret,
	})
	adminRosterHandlers := handlers.NewAdminRosterHandlers(rosterService)
	adminCatalogHandlers := handlers.NewAdminCatalogHandlers(catalogService)
	adminOrderHandlers := handlers.NewAdminOrderHandlers(orderService)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithGalleryRoutes(galleryHandlers.Routes),
		handlers.WithCatalogRoutes(catalogHandlers.Routes),
		handlers.WithCheckoutRoutes(checkoutHandlers.Routes),
		handlers.WithCheckoutMiddlewares(
			sessionManager.RequireGallerySession(),
			idempotencyMiddleware,
		),
		handlers.WithWebhookRoutes(webhookHandlers.Routes),
		handlers.WithAdminRoutes(func(r chi.Router) {
			adminRosterHandlers.Routes(r)
			adminCatalogHandlers.Routes(r)
			adminOrderHandlers.Routes(r)
		}),
		handlers.WithAdminMiddlewares(authenticator.RequireFirebaseAuth(auth.RoleAdmin, auth.RoleStaff)),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("fotoescola api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	if cleanupTicker != nil {
		cleanupTicker.Stop()
	}
	cleanupCancel()
	cleanupWG.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// eventLogger adapts a zap logger to the map-based logging contract the
// services and payment providers expect.
func eventLogger(logger *zap.Logger) func(ctx context.Context, event string, fields map[string]any) {
	return func(_ context.Context, event string, fields map[string]any) {
		zFields := make([]zap.Field, 0, len(fields))
		for k, v := range fields {
			zFields = append(zFields, zap.Any(k, v))
		}
		logger.Debug(event, zFields...)
	}
}

func buildInfoFromEnv(env map[string]string, started time.Time) handlers.BuildInfo {
	lookup := func(key string) string {
		if env == nil {
			return ""
		}
		return strings.TrimSpace(env[key])
	}
	version := lookup("API_BUILD_VERSION")
	if version == "" {
		version = "dev"
	}
	commit := lookup("API_BUILD_COMMIT_SHA")
	if commit == "" {
		commit = "unknown"
	}
	environment := lookup("API_ENVIRONMENT")
	if environment == "" {
		environment = "local"
	}
	return handlers.BuildInfo{
		Version:     version,
		CommitSHA:   commit,
		Environment: environment,
		StartedAt:   started,
	}
}

func newSystemService(client *firestore.Client, topic *pubsub.Topic, storageClient *cloudstorage.Client, cfg config.Config) (services.SystemService, error) {
	checks := make([]repositories.DependencyCheck, 0, 3)
	if client != nil {
		c := client
		checks = append(checks, repositories.DependencyCheck{
			Name:    "firestore",
			Timeout: 1500 * time.Millisecond,
			Check: func(ctx context.Context) error {
				iter := c.Collections(ctx)
				_, err := iter.Next()
				if errors.Is(err, iterator.Done) {
					return nil
				}
				return err
			},
		})
	}
	if topic != nil {
		t := topic
		checks = append(checks, repositories.DependencyCheck{
			Name:    "pubsub",
			Timeout: 2 * time.Second,
			Check: func(ctx context.Context) error {
				exists, err := t.Exists(ctx)
				if err != nil {
					return err
				}
				if !exists {
					return fmt.Errorf("topic %q not found", t.ID())
				}
				return nil
			},
		})
	}
	if storageClient != nil && strings.TrimSpace(cfg.Storage.PhotosBucket) != "" {
		bucket := storageClient.Bucket(cfg.Storage.PhotosBucket)
		checks = append(checks, repositories.DependencyCheck{
			Name:    "storage",
			Timeout: 2 * time.Second,
			Check: func(ctx context.Context) error {
				_, err := bucket.Attrs(ctx)
				return err
			},
		})
	}
	if len(checks) == 0 {
		return nil, errors.New("health: no dependency checks configured")
	}
	repo, err := repositories.NewDependencyHealthRepository(checks)
	if err != nil {
		return nil, err
	}
	return services.NewSystemService(services.SystemServiceDeps{Health: repo})
}

func traceProjectID(cfg config.Config) string {
	if id := strings.TrimSpace(cfg.Firebase.ProjectID); id != "" {
		return id
	}
	return strings.TrimSpace(cfg.Firestore.ProjectID)
}

func pubsubProjectID(cfg config.Config) string {
	if id := strings.TrimSpace(cfg.Firestore.ProjectID); id != "" {
		return id
	}
	return strings.TrimSpace(cfg.Firebase.ProjectID)
}

func newSecretFetcher(ctx context.Context, logger *zap.Logger, env map[string]string) (*secrets.Fetcher, error) {
	lookup := func(key string) string {
		if env == nil {
			return ""
		}
		if value, ok := env[key]; ok {
			return strings.TrimSpace(value)
		}
		return ""
	}

	envLabel := strings.ToLower(lookup("API_ENVIRONMENT"))
	if envLabel == "" {
		envLabel = "local"
	}
	projectMap := secretProjectMapFromEnv(env)
	defaultProject := lookup("API_SECRET_DEFAULT_PROJECT_ID")
	if defaultProject == "" {
		defaultProject = lookup("API_FIREBASE_PROJECT_ID")
	}
	fallbackPath := lookup("API_SECRET_FALLBACK_FILE")
	if fallbackPath == "" {
		fallbackPath = ".secrets.local"
	}
	credentialsFile := lookup("API_FIREBASE_CREDENTIALS_FILE")

	opts := []secrets.Option{
		secrets.WithEnvironment(envLabel),
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithFallbackFile(fallbackPath),
	}
	if len(projectMap) > 0 {
		opts = append(opts, secrets.WithProjectMap(projectMap))
	}
	if defaultProject != "" {
		opts = append(opts, secrets.WithDefaultProject(defaultProject))
	}
	if credentialsFile != "" {
		opts = append(opts, secrets.WithClientOptions(option.WithCredentialsFile(credentialsFile)))
	}

	return secrets.NewFetcher(ctx, opts...)
}

func secretProjectMapFromEnv(env map[string]string) map[string]string {
	raw := ""
	if env != nil {
		raw = env["API_SECRET_PROJECT_IDS"]
	}
	raw = strings.TrimSpace(raw)
	projects := make(map[string]string)
	if raw == "" {
		return projects
	}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		envLabel := strings.ToLower(strings.TrimSpace(parts[0]))
		project := strings.TrimSpace(parts[1])
		if envLabel == "" || project == "" {
			continue
		}
		projects[envLabel] = project
	}
	return projects
}
