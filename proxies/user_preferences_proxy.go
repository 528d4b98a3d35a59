package proxies

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tutorify/tutor-query/dtos"
)

// preferencesTimeout bounds the preference lookup so a slow collaborator
// cannot hold up the whole tutor query.
const preferencesTimeout = 1 * time.Second

type UserPreferencesProxy struct {
	baseURL string
	client  *http.Client
}

func NewUserPreferencesProxy(baseURL string) *UserPreferencesProxy {
	return &UserPreferencesProxy{
		baseURL: baseURL,
		client:  &http.Client{Timeout: preferencesTimeout},
	}
}

// GetUserPreferences returns nil on timeout or any other failure; the
// caller proceeds without the enrichment.
func (p *UserPreferencesProxy) GetUserPreferences(ctx context.Context, userID uuid.UUID) *dtos.UserPreferences {
	url := fmt.Sprintf("%s/users/%s/preferences", p.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}

	resp, err := p.client.Do(req)
	if err != nil {
		log.Printf("Error fetching user preferences: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("User preferences service returned status %d", resp.StatusCode)
		return nil
	}

	var payload struct {
		UserID      uuid.UUID            `json:"userId"`
		Preferences dtos.UserPreferences `json:"preferences"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Printf("Error decoding user preferences: %v", err)
		return nil
	}
	return &payload.Preferences
}
