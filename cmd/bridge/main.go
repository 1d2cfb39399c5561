// Command bridge runs one eIDAS specific-communication node in either
// the connector or the proxy-service role.
package main

import (
	"context"
	"crypto/x509"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vrk-kpa/eidas-bridge/internal/adapters/driven/assertion"
	"github.com/vrk-kpa/eidas-bridge/internal/adapters/driven/metrics"
	"github.com/vrk-kpa/eidas-bridge/internal/adapters/driven/storage"
	"github.com/vrk-kpa/eidas-bridge/internal/adapters/driving/httpserver"
	"github.com/vrk-kpa/eidas-bridge/internal/config"
	"github.com/vrk-kpa/eidas-bridge/internal/core/ports"
	"github.com/vrk-kpa/eidas-bridge/internal/core/service"
)

func main() {
	configPath := flag.String("config", "bridge.yaml", "Path to the configuration file")
	devLogging := flag.Bool("dev", false, "Use human-readable development logging")
	flag.Parse()

	logger, err := newLogger(*devLogging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(*configPath, logger); err != nil {
		logger.Fatal("bridge failed", zap.Error(err))
	}
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(configPath string, logger *zap.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, closeStore, err := openStorage(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	recorder := metrics.NewPrometheusMetricsRecorder()
	adapter := assertion.New()

	requests, responses, err := buildHandlers(cfg, adapter, store, logger, recorder)
	if err != nil {
		return err
	}

	metadataBytes, err := renderMetadata(cfg)
	if err != nil {
		return err
	}

	server, err := httpserver.New(httpserver.Config{
		Role:                     cfg.Role,
		RequestTokenParameter:    cfg.RequestToken.ParameterName,
		ResponseTokenParameter:   cfg.ResponseToken.ParameterName,
		CountryParameter:         cfg.CountryParameter,
		NodeRequestURL:           cfg.EidasNode.RequestURL,
		NodeResponseURL:          cfg.EidasNode.ResponseURL,
		ServiceProviderEndpoint:  cfg.ServiceProvider.Endpoint,
		IdentityProviderEndpoint: cfg.IdentityProvider.Endpoint,
		Metadata:                 metadataBytes,
	}, requests, responses, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("bridge listening",
			zap.String("role", cfg.Role),
			zap.String("addr", cfg.Listen),
			zap.String("storage", cfg.Storage.Backend))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func openStorage(cfg config.StorageConfig) (ports.LightStorage, func(), error) {
	switch cfg.Backend {
	case "sqlite":
		store, err := storage.OpenSQLiteStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		return storage.NewMemoryStore(), func() {}, nil
	}
}

// buildHandlers wires both handlers for the configured role. The
// connector issues request tokens and redeems response tokens; the
// proxy service does the opposite.
func buildHandlers(cfg *config.Config, adapter ports.AssertionAdapter, store ports.LightStorage, logger *zap.Logger, recorder ports.MetricsRecorder) (*service.RequestHandler, *service.ResponseHandler, error) {
	party := cfg.LocalParty()

	verifyCert, err := loadOptionalCertificate(party.Certificate)
	if err != nil {
		return nil, nil, err
	}
	signature, err := loadSignature(party)
	if err != nil {
		return nil, nil, err
	}
	encryption, err := loadEncryption(party)
	if err != nil {
		return nil, nil, err
	}

	requestCfg := service.RequestHandlerConfig{
		ExpectedIssuer:    party.Issuer,
		VerifyCertificate: verifyCert,
		LightIssuer:       cfg.LightIssuer,
		AllowedAttributes: allowedAttributeSet(cfg.AllowedAttributes),
		IssueToken:        tokenSettings(cfg.RequestToken),
		RedeemToken:       tokenSettings(cfg.RequestToken),
		AssertionIssuer:   assertionIssuer(cfg),
		Destination:       cfg.IdentityProvider.Endpoint,
	}
	responseCfg := service.ResponseHandlerConfig{
		VerifyCertificate: verifyCert,
		LightIssuer:       cfg.LightIssuer,
		IssueToken:        tokenSettings(cfg.ResponseToken),
		RedeemToken:       tokenSettings(cfg.ResponseToken),
		AssertionIssuer:   assertionIssuer(cfg),
		Audience:          cfg.ServiceProvider.Issuer,
		Destination:       cfg.ServiceProvider.Endpoint,
		Validity:          party.ResponseValidity(),
		Signature:         signature,
		Encryption:        encryption,
	}

	requests := service.NewRequestHandler(requestCfg, adapter, store, logger, recorder)
	responses := service.NewResponseHandler(responseCfg, adapter, store, logger, recorder)
	return requests, responses, nil
}

// assertionIssuer is the issuer written into documents this node
// builds. It defaults to the published metadata entity id.
func assertionIssuer(cfg *config.Config) string {
	if cfg.Metadata.EntityID != "" {
		return cfg.Metadata.EntityID
	}
	return cfg.LightIssuer
}

func tokenSettings(cfg config.TokenConfig) service.TokenSettings {
	return service.TokenSettings{
		Issuer:        cfg.Issuer,
		HashAlgorithm: cfg.HashAlgorithm,
		Secret:        cfg.Secret,
		Lifetime:      cfg.Lifetime(),
	}
}

func allowedAttributeSet(names []string) map[string]bool {
	if len(names) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(names))
	for _, name := range names {
		allowed[name] = true
	}
	return allowed
}

func loadOptionalCertificate(path string) (*x509.Certificate, error) {
	if path == "" {
		return nil, nil
	}
	return assertion.LoadCertificate(path)
}

func loadSignature(party config.PartyConfig) (*ports.SignatureOptions, error) {
	if party.SigningKey == "" {
		return nil, nil
	}
	key, err := assertion.LoadPrivateKey(party.SigningKey)
	if err != nil {
		return nil, err
	}
	cert, err := assertion.LoadCertificate(party.SigningCertificate)
	if err != nil {
		return nil, err
	}
	return &ports.SignatureOptions{
		Key:             key,
		Certificate:     cert,
		SignatureMethod: party.SignatureMethod,
	}, nil
}

func loadEncryption(party config.PartyConfig) (*ports.EncryptionOptions, error) {
	if party.EncryptionCertificate == "" {
		return nil, nil
	}
	cert, err := assertion.LoadCertificate(party.EncryptionCertificate)
	if err != nil {
		return nil, err
	}
	return &ports.EncryptionOptions{Certificate: cert}, nil
}

func renderMetadata(cfg *config.Config) ([]byte, error) {
	if cfg.Metadata.EntityID == "" {
		return nil, nil
	}
	party := cfg.LocalParty()
	signingCert, err := loadOptionalCertificate(party.SigningCertificate)
	if err != nil {
		return nil, err
	}
	encryptionCert, err := loadOptionalCertificate(party.EncryptionCertificate)
	if err != nil {
		return nil, err
	}
	consumer := httpserver.PathConnectorResponse
	if cfg.Role == config.RoleProxyService {
		consumer = httpserver.PathIdentityProviderResponse
	}
	return assertion.BuildMetadata(assertion.MetadataOptions{
		EntityID:          cfg.Metadata.EntityID,
		AssertionConsumer: consumer,
		SigningCert:       signingCert,
		EncryptionCert:    encryptionCert,
		ValidUntil:        time.Now().UTC().Add(time.Duration(cfg.Metadata.ValidDays) * 24 * time.Hour),
	})
}
