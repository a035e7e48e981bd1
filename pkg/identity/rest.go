package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2/clientcredentials"
)

// RESTConfig configures the REST provider client.
type RESTConfig struct {
	// BaseURL of the provider admin API, e.g. https://id.trefle.example/admin
	BaseURL string

	// OAuth2 client-credentials used to authenticate against the admin API.
	TokenURL     string
	ClientID     string
	ClientSecret string

	// RequestTimeout bounds every provider call. Defaults to 10s.
	RequestTimeout time.Duration
}

// RESTProvider talks to the external identity provider over its admin REST
// API. Requests carry an OAuth2 client-credentials bearer token and are
// bounded by RequestTimeout on top of whatever deadline the caller's context
// imposes.
type RESTProvider struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	log     *logrus.Entry
}

// NewRESTProvider creates a provider client from the given config.
func NewRESTProvider(cfg RESTConfig) *RESTProvider {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	oauthCfg := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}

	return &RESTProvider{
		baseURL: cfg.BaseURL,
		client:  oauthCfg.Client(context.Background()),
		timeout: timeout,
		log:     logrus.WithField("component", "identity-provider"),
	}
}

// wireIdentity is the provider's wire format for an identity record.
type wireIdentity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Metadata  Metadata  `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}

// wireMetadata is the metadata projection sent on writes. The legacy "role"
// key carries the same value as "roleId" for consumers that predate the
// rename; reads only ever look at "roleId".
func wireMetadata(meta Metadata) map[string]interface{} {
	return map[string]interface{}{
		"roleId":            meta.RoleID,
		"role":              meta.RoleID,
		"mustResetPassword": meta.MustResetPassword,
	}
}

func (w *wireIdentity) toIdentity() *Identity {
	return &Identity{
		ID:        w.ID,
		Email:     w.Email,
		FirstName: w.FirstName,
		LastName:  w.LastName,
		Metadata:  w.Metadata,
		CreatedAt: w.CreatedAt,
	}
}

// FindByEmail looks up an identity by email. Returns (nil, nil) when the
// provider holds no identity for the address.
func (p *RESTProvider) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	endpoint := fmt.Sprintf("%s/identities?email=%s", p.baseURL, url.QueryEscape(email))

	var results []wireIdentity
	if err := p.do(ctx, http.MethodGet, endpoint, nil, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0].toIdentity(), nil
}

// Create creates a new identity with the given credential and metadata.
func (p *RESTProvider) Create(ctx context.Context, email, password, firstName, lastName string, meta Metadata) (*Identity, error) {
	body := map[string]interface{}{
		"email":      email,
		"password":   password,
		"first_name": firstName,
		"last_name":  lastName,
		"metadata":   wireMetadata(meta),
	}

	var created wireIdentity
	if err := p.do(ctx, http.MethodPost, p.baseURL+"/identities", body, &created); err != nil {
		return nil, err
	}

	p.log.WithFields(logrus.Fields{
		"identity_id": created.ID,
		"role":        meta.RoleID,
	}).Info("identity created")

	return created.toIdentity(), nil
}

// Update replaces the identity's metadata projection.
func (p *RESTProvider) Update(ctx context.Context, identityID string, meta Metadata) error {
	endpoint := fmt.Sprintf("%s/identities/%s", p.baseURL, url.PathEscape(identityID))
	body := map[string]interface{}{"metadata": wireMetadata(meta)}
	return p.do(ctx, http.MethodPatch, endpoint, body, nil)
}

// Delete removes the identity from the provider.
func (p *RESTProvider) Delete(ctx context.Context, identityID string) error {
	endpoint := fmt.Sprintf("%s/identities/%s", p.baseURL, url.PathEscape(identityID))
	return p.do(ctx, http.MethodDelete, endpoint, nil, nil)
}

// Get retrieves an identity by id.
func (p *RESTProvider) Get(ctx context.Context, identityID string) (*Identity, error) {
	endpoint := fmt.Sprintf("%s/identities/%s", p.baseURL, url.PathEscape(identityID))

	var result wireIdentity
	if err := p.do(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, err
	}
	return result.toIdentity(), nil
}

// ListByRole returns every identity holding the given role id.
func (p *RESTProvider) ListByRole(ctx context.Context, roleID string) ([]*Identity, error) {
	endpoint := fmt.Sprintf("%s/identities?role=%s", p.baseURL, url.QueryEscape(roleID))

	var results []wireIdentity
	if err := p.do(ctx, http.MethodGet, endpoint, nil, &results); err != nil {
		return nil, err
	}

	identities := make([]*Identity, 0, len(results))
	for i := range results {
		identities = append(identities, results[i].toIdentity())
	}
	return identities, nil
}

// do executes a single provider request with the client timeout applied and
// decodes the response into out when out is non-nil.
func (p *RESTProvider) do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build provider request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		p.log.WithError(err).WithFields(logrus.Fields{
			"method":   method,
			"duration": time.Since(start),
		}).Warn("identity provider request failed")
		return fmt.Errorf("identity provider request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return ErrEmailTaken
	case resp.StatusCode >= 400:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("identity provider returned %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode provider response: %w", err)
		}
	}
	return nil
}
