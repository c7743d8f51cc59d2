// Package sdk implements the low-level, rate-limited, RSA-PSS-signed HTTP
// client for the Kalshi-style exchange API.
package sdk

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	rateLimitDelay   = 350 * time.Millisecond // exchange's published per-IP budget for authenticated calls
	requestQueueSize = 200
)

type requestJob struct {
	method   string
	path     string // path including query string, used for the request itself
	signPath string // path WITHOUT query string, used in the signature base string
	body     []byte
	resultCh chan requestResult
}

type requestResult struct {
	status int
	data   []byte
	err    error
}

// Client is the signed, rate-limited HTTP client for the exchange's REST API.
type Client struct {
	apiKeyID   string
	privateKey *rsa.PrivateKey
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger

	requestQueue chan requestJob
	stopChan     chan struct{}
	workerDone   chan struct{}
	once         sync.Once
}

// NewClient builds a client authenticated with apiKeyID and the PEM-encoded
// RSA private key at privateKeyPath.
func NewClient(apiKeyID, privateKeyPath, baseURL string, log zerolog.Logger) (*Client, error) {
	key, err := loadPrivateKey(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("loading kalshi private key: %w", err)
	}

	c := &Client{
		apiKeyID:     apiKeyID,
		privateKey:   key,
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		log:          log.With().Str("component", "kalshi-sdk").Logger(),
		requestQueue: make(chan requestJob, requestQueueSize),
		stopChan:     make(chan struct{}),
		workerDone:   make(chan struct{}),
	}

	go c.worker()

	return c, nil
}

func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	raw, err := readFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in %s", path)
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	rsaKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key at %s is not an RSA key", path)
	}
	return rsaKey, nil
}

// Do sends a signed request through the rate-limiting queue and blocks
// until the result is available.
func (c *Client) Do(method, path string, body []byte) (int, []byte, error) {
	resultCh := make(chan requestResult, 1)
	signPath := stripQuery(path)

	job := requestJob{method: method, path: path, signPath: signPath, body: body, resultCh: resultCh}

	select {
	case c.requestQueue <- job:
	case <-c.stopChan:
		return 0, nil, fmt.Errorf("client is closed")
	default:
		return 0, nil, fmt.Errorf("request queue is full")
	}

	result := <-resultCh
	return result.status, result.data, result.err
}

func (c *Client) worker() {
	defer close(c.workerDone)

	var lastRequestTime time.Time
	firstRequest := true

	processJob := func(job requestJob) {
		if !firstRequest {
			elapsed := time.Since(lastRequestTime)
			if elapsed < rateLimitDelay {
				time.Sleep(rateLimitDelay - elapsed)
			}
		}
		firstRequest = false

		status, data, err := c.doInternal(job.method, job.path, job.signPath, job.body)
		lastRequestTime = time.Now()
		job.resultCh <- requestResult{status: status, data: data, err: err}
	}

	for {
		select {
		case <-c.stopChan:
			for {
				select {
				case job, ok := <-c.requestQueue:
					if !ok {
						return
					}
					processJob(job)
				default:
					return
				}
			}
		case job, ok := <-c.requestQueue:
			if !ok {
				return
			}
			processJob(job)
		}
	}
}

// Close drains the request queue and stops the worker goroutine.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.stopChan)
		close(c.requestQueue)
		<-c.workerDone
	})
}

func (c *Client) doInternal(method, path, signPath string, body []byte) (int, []byte, error) {
	timestampMs := strconv.FormatInt(time.Now().UnixMilli(), 10)

	message := timestampMs + method + signPath
	signature, err := c.sign(message)
	if err != nil {
		return 0, nil, fmt.Errorf("signing request: %w", err)
	}

	url := c.baseURL + path
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("KALSHI-ACCESS-KEY", c.apiKeyID)
	req.Header.Set("KALSHI-ACCESS-SIGNATURE", signature)
	req.Header.Set("KALSHI-ACCESS-TIMESTAMP", timestampMs)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		truncated := string(respBody)
		if len(truncated) > 500 {
			truncated = truncated[:500] + "..."
		}
		c.log.Error().
			Int("status", resp.StatusCode).
			Str("path", path).
			Str("body", truncated).
			Msg("exchange returned error status")
		return resp.StatusCode, respBody, fmt.Errorf("exchange returned status %d: %s", resp.StatusCode, truncated)
	}

	return resp.StatusCode, respBody, nil
}

// sign computes RSA-PSS-SHA256 over message, salt length equal to the digest
// length, matching the exchange's documented request signature scheme.
func (c *Client) sign(message string) (string, error) {
	digest := sha256.Sum256([]byte(message))
	sig, err := rsa.SignPSS(rand.Reader, c.privateKey, crypto.SHA256, digest[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
		Hash:       crypto.SHA256,
	})
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// DecodeJSON unmarshals data into v, wrapping any error with the raw body
// (truncated to 500 chars) for diagnosability.
func DecodeJSON(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		truncated := string(data)
		if len(truncated) > 500 {
			truncated = truncated[:500] + "..."
		}
		return fmt.Errorf("decoding response: %w (body: %s)", err, truncated)
	}
	return nil
}
