package jobs

import (
	"context"
	"log"

	"github.com/tutorify/tutor-query/dtos"
	"github.com/tutorify/tutor-query/repositories"
	"github.com/tutorify/tutor-query/services"
)

const backfillBatchSize = 100

// LocationBackfillJob periodically geocodes tutors whose ward reference
// never resolved, e.g. because the address service was unreachable when
// their profile was projected.
type LocationBackfillJob struct {
	tutors  *repositories.TutorRepository
	service *services.TutorQueryService
	address services.AddressAPI
}

func NewLocationBackfillJob(tutors *repositories.TutorRepository, service *services.TutorQueryService, address services.AddressAPI) *LocationBackfillJob {
	return &LocationBackfillJob{tutors: tutors, service: service, address: address}
}

func (j *LocationBackfillJob) Run() {
	log.Println("Running job: BackfillTutorLocations...")

	tutors, err := j.tutors.FindWithUnresolvedLocation(backfillBatchSize)
	if err != nil {
		log.Printf("Error loading tutors with unresolved locations: %v", err)
		return
	}

	resolved := 0
	for i := range tutors {
		tutor := &tutors[i]
		if tutor.WardID == nil {
			continue
		}

		geocode := j.address.GetGeocodeFromWardID(context.Background(), *tutor.WardID)
		if geocode == nil {
			continue
		}

		// The write goes through the service so it is serialized with any
		// concurrently arriving events for the same tutor.
		patch := dtos.TutorPatch{Latitude: &geocode.Lat, Longitude: &geocode.Lon}
		if err := j.service.UpdateTutor(context.Background(), tutor.ID, patch); err != nil {
			log.Printf("Error saving resolved location for tutor %s: %v", tutor.ID, err)
			continue
		}
		resolved++
	}

	if resolved > 0 {
		log.Printf("Resolved locations for %d tutors", resolved)
	}
}
