/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ca

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperledger-labs/fabric-asset-client/asset/services/identity"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/logging"
	"github.com/hyperledger-labs/fabric-asset-client/asset/services/metrics"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("asset", "identity", "ca")

const (
	apiPrefix       = "/api/v1/"
	applicationJSON = "application/json"

	DefaultTimeout = 10 * time.Second
)

// Config locates a Fabric CA server.
type Config struct {
	URL string
	// CAName selects the CA when the server hosts more than one
	CAName string
	// TLSRootCerts are PEM encoded roots trusted for https endpoints
	TLSRootCerts [][]byte
	// VerifyTLS enables server certificate verification
	VerifyTLS bool
	Timeout   time.Duration
}

// Client speaks the Fabric CA REST protocol.
type Client struct {
	url        string
	caName     string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// New returns a client for the configured server. The passed metrics may be nil.
func New(c Config, m *metrics.Metrics) (*Client, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid certificate authority url [%s]", c.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("invalid certificate authority url [%s]: unsupported scheme", c.URL)
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if u.Scheme == "https" {
		pool := x509.NewCertPool()
		for _, pem := range c.TLSRootCerts {
			if !pool.AppendCertsFromPEM(pem) {
				return nil, errors.Errorf("invalid tls root certificate for [%s]", c.URL)
			}
		}
		transport.TLSClientConfig = &tls.Config{
			RootCAs:            pool,
			InsecureSkipVerify: !c.VerifyTLS, //nolint:gosec
			MinVersion:         tls.VersionTLS12,
		}
	}
	return &Client{
		url:        strings.TrimSuffix(c.URL, "/"),
		caName:     c.CAName,
		httpClient: &http.Client{Transport: transport, Timeout: timeout},
		metrics:    m,
	}, nil
}

type response struct {
	Success  bool        `json:"success"`
	Result   interface{} `json:"result"`
	Errors   []Message   `json:"errors"`
	Messages []Message   `json:"messages"`
}

type enrollRequest struct {
	CertificateRequest string `json:"certificate_request"`
	Profile            string `json:"profile,omitempty"`
	CAName             string `json:"caname,omitempty"`
}

type serverInfo struct {
	CAName  string `mapstructure:"CAName"`
	CAChain string `mapstructure:"CAChain"`
	Version string `mapstructure:"Version"`
}

type enrollResult struct {
	Cert       string     `mapstructure:"Cert"`
	ServerInfo serverInfo `mapstructure:"ServerInfo"`
}

type registerRequest struct {
	ID             string      `json:"id"`
	Type           string      `json:"type,omitempty"`
	Secret         string      `json:"secret,omitempty"`
	MaxEnrollments int         `json:"max_enrollments,omitempty"`
	Affiliation    string      `json:"affiliation"`
	Attributes     []Attribute `json:"attrs"`
	CAName         string      `json:"caname,omitempty"`
}

type registerResult struct {
	Secret string `mapstructure:"secret"`
}

type infoRequest struct {
	CAName string `json:"caname,omitempty"`
}

// Enroll generates a key pair and obtains a certificate for it, authenticating with the enrollment secret.
func (c *Client) Enroll(ctx context.Context, req EnrollmentRequest) (*Enrollment, error) {
	key, keyPEM, err := identity.NewKey()
	if err != nil {
		return nil, err
	}
	csr, err := identity.NewCSR(key, req.EnrollID)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(&enrollRequest{CertificateRequest: string(csr), Profile: req.Profile, CAName: c.caName})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal enrollment request")
	}
	httpReq, err := c.newPost(ctx, "enroll", body)
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(req.EnrollID, req.Secret)

	logger.Infof("enrolling [%s] at [%s]", req.EnrollID, c.url)
	result := &enrollResult{}
	if err := c.do(httpReq, metrics.Enroll, result); err != nil {
		return nil, errors.WithMessagef(err, "failed to enroll [%s]", req.EnrollID)
	}
	cert, err := base64.StdEncoding.DecodeString(result.Cert)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid certificate returned for [%s]", req.EnrollID)
	}
	chain, err := base64.StdEncoding.DecodeString(result.ServerInfo.CAChain)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid ca chain returned for [%s]", req.EnrollID)
	}
	return &Enrollment{Certificate: cert, PrivateKey: keyPEM, CAChain: chain}, nil
}

// Register registers a new identity on behalf of the registrar and returns its enrollment secret.
func (c *Client) Register(ctx context.Context, registrar *identity.Identity, req RegistrationRequest) (string, error) {
	if registrar == nil {
		return "", errors.New("registrar identity is required")
	}
	body, err := json.Marshal(&registerRequest{
		ID:             req.Name,
		Type:           req.Type,
		Secret:         req.Secret,
		MaxEnrollments: req.MaxEnrollments,
		Affiliation:    req.Affiliation,
		Attributes:     req.Attributes,
		CAName:         c.caName,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal registration request")
	}
	httpReq, err := c.newPost(ctx, "register", body)
	if err != nil {
		return "", err
	}
	token, err := AuthToken(registrar, httpReq.Method, httpReq.URL.RequestURI(), body)
	if err != nil {
		return "", errors.WithMessagef(err, "failed to create token for registrar [%s]", registrar.Label)
	}
	httpReq.Header.Set("Authorization", token)

	logger.Infof("registering [%s] in [%s] by [%s]", req.Name, req.Affiliation, registrar.Label)
	result := &registerResult{}
	if err := c.do(httpReq, metrics.Register, result); err != nil {
		return "", errors.WithMessagef(err, "failed to register [%s]", req.Name)
	}
	return result.Secret, nil
}

// Info returns the certificate authority description.
func (c *Client) Info(ctx context.Context) (*Info, error) {
	body, err := json.Marshal(&infoRequest{CAName: c.caName})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal info request")
	}
	httpReq, err := c.newPost(ctx, "cainfo", body)
	if err != nil {
		return nil, err
	}
	result := &serverInfo{}
	if err := c.do(httpReq, "cainfo", result); err != nil {
		return nil, errors.WithMessage(err, "failed to get certificate authority info")
	}
	chain, err := base64.StdEncoding.DecodeString(result.CAChain)
	if err != nil {
		return nil, errors.Wrap(err, "invalid ca chain")
	}
	return &Info{CAName: result.CAName, CAChain: chain, Version: result.Version}, nil
}

// AuthToken computes the token authenticating a request on behalf of the identity:
// base64(cert) "." base64(sign(method "." base64(uri) "." base64(body) "." base64(cert))).
func AuthToken(id *identity.Identity, method, uri string, body []byte) (string, error) {
	b64cert := base64.StdEncoding.EncodeToString(id.Certificate)
	payload := method + "." +
		base64.StdEncoding.EncodeToString([]byte(uri)) + "." +
		base64.StdEncoding.EncodeToString(body) + "." +
		b64cert
	sig, err := id.SignMessage([]byte(payload))
	if err != nil {
		return "", err
	}
	return b64cert + "." + base64.StdEncoding.EncodeToString(sig), nil
}

func (c *Client) newPost(ctx context.Context, endpoint string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+apiPrefix+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create %s request", endpoint)
	}
	req.Header.Set("Content-Type", applicationJSON)
	return req, nil
}

func (c *Client) do(req *http.Request, operation string, out interface{}) (err error) {
	done := c.metrics.Track(operation, operation)
	defer func() { done(err) }()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(ErrUnreachable, "%s [%s]: %s", operation, c.url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(ErrUnreachable, "%s [%s]: failed reading response: %s", operation, c.url, err)
	}
	r := &response{}
	if err := json.Unmarshal(raw, r); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &Error{StatusCode: resp.StatusCode, Operation: operation, Errors: []Message{{Message: string(raw)}}}
		}
		return errors.Wrapf(err, "%s: invalid response [%s]", operation, string(raw))
	}
	if resp.StatusCode >= http.StatusBadRequest || !r.Success {
		logger.Debugf("%s rejected with status %d: %v", operation, resp.StatusCode, r.Errors)
		return &Error{StatusCode: resp.StatusCode, Operation: operation, Errors: r.Errors}
	}
	if err := mapstructure.Decode(r.Result, out); err != nil {
		return errors.Wrapf(err, "%s: invalid result", operation)
	}
	return nil
}
