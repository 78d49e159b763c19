package kafka

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"

	"github.com/turtacn/ExpTrack/pkg/errors"
)

// SecurityConfig is shared by producers and consumers.
type SecurityConfig struct {
	SASLEnabled   bool   `mapstructure:"sasl_enabled"`
	SASLMechanism string `mapstructure:"sasl_mechanism"`
	SASLUsername  string `mapstructure:"sasl_username"`
	SASLPassword  string `mapstructure:"sasl_password"`
	TLSEnabled    bool   `mapstructure:"tls_enabled"`
	TLSCertPath   string `mapstructure:"tls_cert_path"`
}

func (s SecurityConfig) tlsConfig() (*tls.Config, error) {
	if !s.TLSEnabled {
		return nil, nil
	}
	cfg := &tls.Config{}
	if s.TLSCertPath != "" {
		caCert, err := os.ReadFile(s.TLSCertPath)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to read kafka ca cert")
		}
		pool := x509.NewCertPool()
		pool.AppendCertsFromPEM(caCert)
		cfg.RootCAs = pool
	}
	return cfg, nil
}

func (s SecurityConfig) mechanism() (sasl.Mechanism, error) {
	if !s.SASLEnabled {
		return nil, nil
	}
	switch s.SASLMechanism {
	case "PLAIN":
		return plain.Mechanism{Username: s.SASLUsername, Password: s.SASLPassword}, nil
	case "SCRAM-SHA-256":
		m, err := scram.Mechanism(scram.SHA256, s.SASLUsername, s.SASLPassword)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create SASL mechanism")
		}
		return m, nil
	case "SCRAM-SHA-512":
		m, err := scram.Mechanism(scram.SHA512, s.SASLUsername, s.SASLPassword)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create SASL mechanism")
		}
		return m, nil
	default:
		return nil, errors.New(errors.ErrCodeValidation, "unsupported SASL mechanism").WithDetail(s.SASLMechanism)
	}
}

func (s SecurityConfig) validate() error {
	if s.SASLEnabled {
		if s.SASLMechanism == "" {
			return errors.New(errors.ErrCodeValidation, "SASLMechanism required")
		}
		if s.SASLUsername == "" || s.SASLPassword == "" {
			return errors.New(errors.ErrCodeValidation, "SASL credentials required")
		}
	}
	return nil
}

//Personal.AI order the ending
