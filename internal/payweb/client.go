package payweb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultInitiateURL = "https://secure.paygate.co.za/payweb3/initiate.trans"
	DefaultProcessURL  = "https://secure.paygate.co.za/payweb3/process.trans"
	DefaultQueryURL    = "https://secure.paygate.co.za/payweb3/query.trans"
)

type Config struct {
	InitiateURL string
	ProcessURL  string
	QueryURL    string
	Timeout     time.Duration
	// Debug logs outgoing field strings and raw responses. The merchant
	// encryption key is never part of either, only the checksum derived
	// from it.
	Debug bool
}

// Client performs the two outbound calls against the PayWeb3 gateway. The
// default http.Transport verifies the peer certificate and hostname; there is
// deliberately no knob to turn that off. No retries happen here: a duplicate
// initiate would register a second pending transaction, so retry decisions
// belong to the caller.
type Client struct {
	httpClient *http.Client
	cfg        Config
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.InitiateURL == "" {
		cfg.InitiateURL = DefaultInitiateURL
	}
	if cfg.ProcessURL == "" {
		cfg.ProcessURL = DefaultProcessURL
	}
	if cfg.QueryURL == "" {
		cfg.QueryURL = DefaultQueryURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		logger:     logger,
	}
}

// ProcessURL is the hosted payment page the shopper's browser posts the
// hand-off payload to.
func (c *Client) ProcessURL() string {
	return c.cfg.ProcessURL
}

// Initiate registers a pending transaction. The request must already carry
// its CHECKSUM. A provider ERROR response comes back as *ProviderRejected,
// transport failures as *TransportError.
func (c *Client) Initiate(ctx context.Context, request Fields) (Fields, error) {
	return c.post(ctx, "initiate", c.cfg.InitiateURL, request)
}

// Query fetches the authoritative status of a previously initiated
// transaction by merchant id, PAY_REQUEST_ID and REFERENCE.
func (c *Client) Query(ctx context.Context, request Fields) (Fields, error) {
	return c.post(ctx, "query", c.cfg.QueryURL, request)
}

func (c *Client) post(ctx context.Context, op, endpoint string, request Fields) (Fields, error) {
	body := request.Encode()

	if c.cfg.Debug {
		c.logger.Debug("payweb outgoing request", "op", op, "url", endpoint, "body", body)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return Fields{}, &TransportError{Op: op, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("payweb request failed", "op", op, "error", err)
		return Fields{}, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Fields{}, &TransportError{Op: op, Err: err}
	}

	if c.cfg.Debug {
		c.logger.Debug("payweb raw response", "op", op, "status", resp.StatusCode, "body", string(raw))
	}

	if resp.StatusCode != http.StatusOK {
		return Fields{}, &TransportError{Op: op, Err: fmt.Errorf("gateway returned status %d", resp.StatusCode)}
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		// An empty body is a transport-level failure, not a declined
		// payment.
		return Fields{}, &TransportError{Op: op}
	}

	fields, err := ParseFields(string(raw))
	if err != nil {
		return Fields{}, &TransportError{Op: op, Err: err}
	}

	if code, ok := fields.Lookup(FieldError); ok {
		c.logger.Warn("payweb gateway error", "op", op, "code", code)
		return Fields{}, &ProviderRejected{Code: code}
	}

	return fields, nil
}
