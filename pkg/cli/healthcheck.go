package cli

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/michalszc/library-api/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const defaultHealthcheckTimeout = 5 * time.Second

func newHealthcheckCommand(loadConfig func(*pflag.FlagSet) (*config.Config, error)) *cobra.Command {
	var (
		target  string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check the readiness endpoint of a running instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			client, url, err := readinessTarget(cfg.Management, target, timeout)
			if err != nil {
				return err
			}
			body, err := fetchReadiness(cmd, client, url)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), body)
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "url", "", "readiness URL (defaults to the local management server)")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultHealthcheckTimeout, "request timeout")
	return cmd
}

// readinessTarget resolves the URL and client used to reach /ready. With mTLS
// enabled the management certificate doubles as the client certificate.
func readinessTarget(cfg config.ManagementConfig, target string, timeout time.Duration) (*http.Client, string, error) {
	client := &http.Client{Timeout: timeout}
	if target != "" {
		return client, target, nil
	}
	if !cfg.Enabled {
		return nil, "", errors.New("management server is disabled; pass --url")
	}

	scheme := "http"
	if cfg.MTLSEnabled {
		tlsConfig, err := clientTLSConfig(cfg.TLSCertFile, cfg.TLSKeyFile, cfg.TLSCAFile)
		if err != nil {
			return nil, "", err
		}
		client.Transport = &http.Transport{TLSClientConfig: tlsConfig}
		scheme = "https"
	}
	return client, scheme + "://localhost:" + strconv.Itoa(cfg.Port) + "/ready", nil
}

func clientTLSConfig(certFile, keyFile, caFile string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("load client certificate/key: %w", err)
	}
	pem, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("read CA certificate: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", caFile)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func fetchReadiness(cmd *cobra.Command, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(commandContext(cmd), http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build readiness request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("readiness request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("read readiness response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("service not ready: status %d: %s", resp.StatusCode, body)
	}
	return string(body), nil
}
