package ngrok

import (
	"context"
	"fmt"
	"os"

	"genremap/internal/config"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.ngrok.com/ngrok/v2"
)

// Service shares the explorer through an ngrok endpoint
type Service struct {
	config *config.NgrokConfig
	logger *logrus.Logger
	agent  ngrok.Agent
	tunnel ngrok.EndpointForwarder
}

// NewService creates a new ngrok service instance. It returns nil, nil when
// the tunnel is disabled; every method is safe on a nil *Service.
func NewService(cfg *config.NgrokConfig, logger *logrus.Logger) (*Service, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	authToken, err := ResolveAuthToken(cfg, ".env")
	if err != nil {
		return nil, err
	}

	agent, err := ngrok.NewAgent(ngrok.WithAuthtoken(authToken))
	if err != nil {
		return nil, fmt.Errorf("failed to create ngrok agent: %w", err)
	}

	return &Service{
		config: cfg,
		logger: logger,
		agent:  agent,
	}, nil
}

// ResolveAuthToken returns the configured token, falling back to
// NGROK_AUTHTOKEN from the environment or the given .env file.
func ResolveAuthToken(cfg *config.NgrokConfig, envFile string) (string, error) {
	if cfg.AuthToken != "" {
		return cfg.AuthToken, nil
	}

	if _, err := os.Stat(envFile); err == nil {
		env, err := godotenv.Read(envFile)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", envFile, err)
		}
		if token := env["NGROK_AUTHTOKEN"]; token != "" {
			return token, nil
		}
	}

	if token := os.Getenv("NGROK_AUTHTOKEN"); token != "" {
		return token, nil
	}

	return "", fmt.Errorf("ngrok auth token not found. Set NGROK_AUTHTOKEN in .env file or config")
}

// TrafficPolicy returns the OAuth policy document, or "" when auth is off
func TrafficPolicy(cfg *config.NgrokConfig) string {
	if !cfg.EnableAuth {
		return ""
	}
	return fmt.Sprintf(`
on_http_request:
  - actions:
      - type: oauth
        config:
          provider: %s
`, cfg.AuthProvider)
}

// StartTunnel starts the ngrok tunnel
func (s *Service) StartTunnel(ctx context.Context, localAddress string) error {
	if s == nil {
		return nil // Service is disabled
	}

	s.logger.Info("Starting ngrok tunnel")

	var endpointOpts []ngrok.EndpointOption
	if s.config.Domain != "" {
		endpointOpts = append(endpointOpts, ngrok.WithURL(s.config.Domain))
	}
	if policy := TrafficPolicy(s.config); policy != "" {
		endpointOpts = append(endpointOpts, ngrok.WithTrafficPolicy(policy))
	}

	tunnel, err := s.agent.Forward(ctx, ngrok.WithUpstream(localAddress), endpointOpts...)
	if err != nil {
		return fmt.Errorf("failed to create ngrok tunnel: %w", err)
	}
	s.tunnel = tunnel

	s.logger.WithFields(logrus.Fields{
		"public_url": tunnel.URL().String(),
		"upstream":   localAddress,
		"oauth":      s.config.EnableAuth,
	}).Info("Ngrok tunnel active")

	return nil
}

// GetPublicURL returns the public URL of the tunnel
func (s *Service) GetPublicURL() string {
	if s == nil || s.tunnel == nil {
		return ""
	}
	return s.tunnel.URL().String()
}

// Stop stops the ngrok tunnel
func (s *Service) Stop() error {
	if s == nil || s.tunnel == nil {
		return nil
	}

	s.logger.Info("Stopping ngrok tunnel")
	return s.tunnel.Close()
}
