package proxies

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tutorify/tutor-query/models"
)

// AuthProxy fetches full user profiles from the auth service. Events carry
// partial payloads only, so the projection always re-reads the profile.
type AuthProxy struct {
	baseURL string
	client  *http.Client
}

func NewAuthProxy(baseURL string) *AuthProxy {
	return &AuthProxy{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (p *AuthProxy) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.Tutor, error) {
	url := fmt.Sprintf("%s/users/%s", p.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("user %s not found in auth service", userID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth service returned status %d", resp.StatusCode)
	}

	var tutor models.Tutor
	if err := json.NewDecoder(resp.Body).Decode(&tutor); err != nil {
		return nil, err
	}
	return &tutor, nil
}
