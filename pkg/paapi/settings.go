package paapi

import (
	"fmt"
	"strings"
)

// Settings holds the PA-API credentials and marketplace selection. Access
// key, secret key and partner tag have no defaults and must come from the
// config file or environment.
type Settings struct {
	AccessKey   string
	SecretKey   string
	PartnerTag  string
	PartnerType string
	Marketplace string
	Host        string
	Region      string

	// Endpoint overrides the default https://Host base URL. Tests point it
	// at a local server.
	Endpoint string
}

// ApplyDefaults fills the optional marketplace fields.
func (s *Settings) ApplyDefaults() {
	if s.PartnerType == "" {
		s.PartnerType = "Associates"
	}
	if s.Marketplace == "" {
		s.Marketplace = "www.amazon.sa"
	}
	if s.Host == "" {
		s.Host = "webservices.amazon.sa"
	}
	if s.Region == "" {
		s.Region = "eu-west-1"
	}
}

// Validate reports the required keys that are missing, before any remote
// call is attempted.
func (s Settings) Validate() error {
	var missing []string
	if s.AccessKey == "" {
		missing = append(missing, "access_key")
	}
	if s.SecretKey == "" {
		missing = append(missing, "secret_key")
	}
	if s.PartnerTag == "" {
		missing = append(missing, "partner_tag")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing configuration keys: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (s Settings) baseURL() string {
	if s.Endpoint != "" {
		return s.Endpoint
	}
	return "https://" + s.Host
}
