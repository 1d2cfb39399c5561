// Package config loads and validates the bridge configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Node roles. A connector bridges local service providers toward the
// federation; a proxy service bridges the federation toward the local
// identity provider.
const (
	RoleConnector    = "connector"
	RoleProxyService = "proxy-service"
)

var supportedHashAlgorithms = map[string]bool{
	"sha1":   true,
	"sha256": true,
	"sha384": true,
	"sha512": true,
}

// Config is the top-level configuration for one bridge node.
type Config struct {
	// Role selects which half of the federation hop this node serves:
	// "connector" or "proxy-service".
	Role string `yaml:"role"`

	// Listen is the HTTP listen address. Defaults to ":8080".
	Listen string `yaml:"listen"`

	// LightIssuer is the issuer written into stored light requests and
	// responses, identifying this specific-communication endpoint.
	LightIssuer string `yaml:"light_issuer"`

	// CountryParameter is the form field carrying the citizen country
	// on inbound service provider requests. Defaults to "country".
	CountryParameter string `yaml:"country_parameter"`

	// RequestToken configures light tokens on the request flow.
	RequestToken TokenConfig `yaml:"request_token"`

	// ResponseToken configures light tokens on the response flow.
	ResponseToken TokenConfig `yaml:"response_token"`

	// ServiceProvider is the local relying party (connector role).
	ServiceProvider PartyConfig `yaml:"service_provider"`

	// IdentityProvider is the local authentication party (proxy-service
	// role).
	IdentityProvider PartyConfig `yaml:"identity_provider"`

	// EidasNode locates the counterpart federation node.
	EidasNode NodeConfig `yaml:"eidas_node"`

	// Storage selects the light storage backend.
	Storage StorageConfig `yaml:"storage"`

	// Metadata configures the published node metadata.
	Metadata MetadataConfig `yaml:"metadata"`

	// AllowedAttributes restricts which requested attributes pass
	// through. Empty means all registered eIDAS attributes.
	AllowedAttributes []string `yaml:"allowed_attributes"`
}

// TokenConfig configures one light token direction.
type TokenConfig struct {
	// Issuer names the token issuer shared with the federation node.
	Issuer string `yaml:"issuer"`

	// Secret is the shared digest secret.
	Secret string `yaml:"secret"`

	// HashAlgorithm selects the digest hash: sha1, sha256, sha384 or
	// sha512. Defaults to sha256.
	HashAlgorithm string `yaml:"hash_algorithm"`

	// ParameterName is the form field carrying the encoded token.
	// Defaults to "token".
	ParameterName string `yaml:"parameter_name"`

	// LifetimeMinutes bounds token age at redemption. Zero disables
	// the expiry check; defaults to 10.
	LifetimeMinutes int `yaml:"lifetime_minutes"`
}

// Lifetime returns the configured token lifetime.
func (t TokenConfig) Lifetime() time.Duration {
	return time.Duration(t.LifetimeMinutes) * time.Minute
}

// PartyConfig describes one local SAML party and the key material used
// on its hop.
type PartyConfig struct {
	// Issuer is the party's entity id. Inbound documents must carry
	// it; outbound documents are issued under this node's own issuer
	// toward the party.
	Issuer string `yaml:"issuer"`

	// Endpoint is the party URL documents are posted to.
	Endpoint string `yaml:"endpoint"`

	// Certificate is a PEM file with the party's signing certificate,
	// used to verify inbound document signatures. Empty disables
	// verification.
	Certificate string `yaml:"certificate"`

	// SigningKey and SigningCertificate form the key pair for signing
	// outbound documents. Both or neither must be set.
	SigningKey         string `yaml:"signing_key"`
	SigningCertificate string `yaml:"signing_certificate"`

	// SignatureMethod selects the outbound signature algorithm:
	// rsa-sha256 (default), rsa-sha384 or rsa-sha512.
	SignatureMethod string `yaml:"signature_method"`

	// EncryptionCertificate is a PEM file with the party's encryption
	// certificate. When set, outbound assertions are encrypted to it.
	EncryptionCertificate string `yaml:"encryption_certificate"`

	// ResponseValidityMinutes is the validity window of outbound
	// responses. Defaults to 10.
	ResponseValidityMinutes int `yaml:"response_validity_minutes"`
}

// ResponseValidity returns the configured response validity window.
func (p PartyConfig) ResponseValidity() time.Duration {
	return time.Duration(p.ResponseValidityMinutes) * time.Minute
}

// NodeConfig locates the counterpart eIDAS node.
type NodeConfig struct {
	// RequestURL receives request tokens (connector role).
	RequestURL string `yaml:"request_url"`

	// ResponseURL receives response tokens (proxy-service role).
	ResponseURL string `yaml:"response_url"`

	// Issuer is the assertion issuer used on documents built for the
	// node side of the hop.
	Issuer string `yaml:"issuer"`
}

// StorageConfig selects the light storage backend.
type StorageConfig struct {
	// Backend is "memory" (default) or "sqlite".
	Backend string `yaml:"backend"`

	// Path is the database file for the sqlite backend.
	Path string `yaml:"path"`
}

// MetadataConfig configures the published node metadata.
type MetadataConfig struct {
	// EntityID of the published metadata. Empty disables the metadata
	// endpoint.
	EntityID string `yaml:"entity_id"`

	// ValidDays is the metadata validity. Defaults to 7.
	ValidDays int `yaml:"valid_days"`
}

// Load reads, defaults and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse defaults and validates raw configuration bytes.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.CountryParameter == "" {
		c.CountryParameter = "country"
	}
	c.RequestToken.applyDefaults()
	c.ResponseToken.applyDefaults()
	c.ServiceProvider.applyDefaults()
	c.IdentityProvider.applyDefaults()
	if c.Storage.Backend == "" {
		c.Storage.Backend = "memory"
	}
	if c.Metadata.ValidDays == 0 {
		c.Metadata.ValidDays = 7
	}
}

func (t *TokenConfig) applyDefaults() {
	if t.HashAlgorithm == "" {
		t.HashAlgorithm = "sha256"
	}
	if t.ParameterName == "" {
		t.ParameterName = "token"
	}
	if t.LifetimeMinutes == 0 {
		t.LifetimeMinutes = 10
	}
}

func (p *PartyConfig) applyDefaults() {
	if p.SignatureMethod == "" {
		p.SignatureMethod = "rsa-sha256"
	}
	if p.ResponseValidityMinutes == 0 {
		p.ResponseValidityMinutes = 10
	}
}

// Validate checks the configuration for the selected role.
func (c *Config) Validate() error {
	switch c.Role {
	case RoleConnector, RoleProxyService:
	case "":
		return fmt.Errorf("role is required")
	default:
		return fmt.Errorf("unknown role %q", c.Role)
	}
	if c.LightIssuer == "" {
		return fmt.Errorf("light_issuer is required")
	}
	if err := c.RequestToken.validate("request_token"); err != nil {
		return err
	}
	if err := c.ResponseToken.validate("response_token"); err != nil {
		return err
	}
	party, section := c.localParty()
	if err := party.validate(section); err != nil {
		return err
	}
	switch c.Storage.Backend {
	case "memory":
	case "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Role == RoleConnector && c.EidasNode.RequestURL == "" {
		return fmt.Errorf("eidas_node.request_url is required for the connector role")
	}
	if c.Role == RoleProxyService && c.EidasNode.ResponseURL == "" {
		return fmt.Errorf("eidas_node.response_url is required for the proxy-service role")
	}
	return nil
}

// LocalParty returns the party configuration for the configured role.
func (c *Config) LocalParty() PartyConfig {
	party, _ := c.localParty()
	return *party
}

func (c *Config) localParty() (*PartyConfig, string) {
	if c.Role == RoleProxyService {
		return &c.IdentityProvider, "identity_provider"
	}
	return &c.ServiceProvider, "service_provider"
}

func (t TokenConfig) validate(section string) error {
	if t.Issuer == "" {
		return fmt.Errorf("%s.issuer is required", section)
	}
	if t.Secret == "" {
		return fmt.Errorf("%s.secret is required", section)
	}
	if !supportedHashAlgorithms[t.HashAlgorithm] {
		return fmt.Errorf("%s.hash_algorithm %q is not supported", section, t.HashAlgorithm)
	}
	if t.LifetimeMinutes < 0 {
		return fmt.Errorf("%s.lifetime_minutes must not be negative", section)
	}
	return nil
}

func (p PartyConfig) validate(section string) error {
	if p.Issuer == "" {
		return fmt.Errorf("%s.issuer is required", section)
	}
	if p.Endpoint == "" {
		return fmt.Errorf("%s.endpoint is required", section)
	}
	if (p.SigningKey == "") != (p.SigningCertificate == "") {
		return fmt.Errorf("%s: signing_key and signing_certificate must be set together", section)
	}
	switch p.SignatureMethod {
	case "rsa-sha256", "rsa-sha384", "rsa-sha512":
	default:
		return fmt.Errorf("%s.signature_method %q is not supported", section, p.SignatureMethod)
	}
	return nil
}
