package proxies

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/tutorify/tutor-query/dtos"
)

// AddressProxy resolves ward/district/province references to coordinates.
// Every lookup degrades to nil on failure; geocoding only re-ranks
// results, it never decides whether a query succeeds.
type AddressProxy struct {
	baseURL string
	client  *http.Client
}

func NewAddressProxy(baseURL string) *AddressProxy {
	return &AddressProxy{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 1 * time.Second},
	}
}

func (p *AddressProxy) GetGeocodeFromWardID(ctx context.Context, id string) *dtos.Geocode {
	return p.fetch(ctx, "/geocode/ward/"+id)
}

func (p *AddressProxy) GetGeocodeFromWardSlug(ctx context.Context, slug string) *dtos.Geocode {
	return p.fetch(ctx, "/geocode/ward/slug/"+slug)
}

func (p *AddressProxy) GetGeocodeFromDistrictID(ctx context.Context, id string) *dtos.Geocode {
	return p.fetch(ctx, "/geocode/district/"+id)
}

func (p *AddressProxy) GetGeocodeFromDistrictSlug(ctx context.Context, slug string) *dtos.Geocode {
	return p.fetch(ctx, "/geocode/district/slug/"+slug)
}

func (p *AddressProxy) GetGeocodeFromProvinceID(ctx context.Context, id string) *dtos.Geocode {
	return p.fetch(ctx, "/geocode/province/"+id)
}

func (p *AddressProxy) GetGeocodeFromProvinceSlug(ctx context.Context, slug string) *dtos.Geocode {
	return p.fetch(ctx, "/geocode/province/slug/"+slug)
}

func (p *AddressProxy) fetch(ctx context.Context, path string) *dtos.Geocode {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return nil
	}

	resp, err := p.client.Do(req)
	if err != nil {
		log.Printf("Error resolving geocode for %s: %v", path, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Address service returned status %d for %s", resp.StatusCode, path)
		return nil
	}

	var geocode dtos.Geocode
	if err := json.NewDecoder(resp.Body).Decode(&geocode); err != nil {
		log.Printf("Error decoding geocode response: %v", err)
		return nil
	}
	return &geocode
}
