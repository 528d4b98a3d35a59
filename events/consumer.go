package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/tutorify/tutor-query/metrics"
	"github.com/tutorify/tutor-query/models"
	"github.com/tutorify/tutor-query/repositories"
	"github.com/tutorify/tutor-query/services"
)

// Consumer reads the domain-event topic and applies each event to the
// projection. Delivery is at least once and may be out of order; every
// handler is idempotent, so redelivery is safe.
type Consumer struct {
	reader  *kafka.Reader
	service *services.TutorQueryService
}

func NewConsumer(brokers []string, topic, groupID string, service *services.TutorQueryService) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10 << 20,
		MaxWait:  time.Second,
	})
	return &Consumer{reader: reader, service: service}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// Run consumes until the context is cancelled. A failing event is logged
// and skipped; one bad message must never wedge the stream.
func (c *Consumer) Run(ctx context.Context) error {
	log.Printf("✅ Event consumer started on topic %s", c.reader.Config().Topic)

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		var envelope Envelope
		if err := json.Unmarshal(msg.Value, &envelope); err != nil {
			log.Printf("Bad event payload at offset %d: %v", msg.Offset, err)
			continue
		}

		if err := c.Dispatch(ctx, envelope); err != nil {
			metrics.EventFailures.WithLabelValues(envelope.Event).Inc()
			log.Printf("Error handling %s event: %v", envelope.Event, err)
			continue
		}
		metrics.EventsProcessed.WithLabelValues(envelope.Event).Inc()
	}
}

// Dispatch routes one envelope to its applier. A missing tutor is treated
// as handled: the record may simply not exist yet, and upstream redelivery
// covers the gap once it does.
func (c *Consumer) Dispatch(ctx context.Context, envelope Envelope) error {
	var err error

	switch envelope.Event {
	case EventUserCreated, EventUserUpdated:
		var payload UserPayload
		if err = json.Unmarshal(envelope.Data, &payload); err != nil {
			return err
		}
		if payload.Role != RoleTutor {
			log.Printf("Ignoring %s event for role %q", envelope.Event, payload.Role)
			return nil
		}
		err = c.service.HandleTutorCreatedOrUpdated(ctx, payload.UserID)

	case EventUserDeleted:
		var payload UserPayload
		if err = json.Unmarshal(envelope.Data, &payload); err != nil {
			return err
		}
		if payload.Role != RoleTutor {
			return nil
		}
		err = c.service.HandleTutorDeleted(ctx, payload.UserID)

	case EventUserEmailVerified:
		var payload UserPayload
		if err = json.Unmarshal(envelope.Data, &payload); err != nil {
			return err
		}
		err = c.service.HandleUserEmailVerified(ctx, payload.UserID)

	case EventUserBlocked, EventUserUnblocked:
		var payload UserPayload
		if err = json.Unmarshal(envelope.Data, &payload); err != nil {
			return err
		}
		err = c.service.HandleUserBlocked(ctx, payload.UserID, envelope.Event == EventUserBlocked)

	case EventTutorApproved:
		var payload TutorApprovedPayload
		if err = json.Unmarshal(envelope.Data, &payload); err != nil {
			return err
		}
		err = c.service.HandleTutorApproved(ctx, payload.TutorID)

	case EventClassCategoryCreated:
		var payload ClassCategoryCreatedPayload
		if err = json.Unmarshal(envelope.Data, &payload); err != nil {
			return err
		}
		subject := models.Subject{ID: payload.Subject.ID, Name: payload.Subject.Name}
		level := models.Level{ID: payload.Level.ID, Name: payload.Level.Name}
		err = c.service.HandleClassCategoryCreated(ctx, payload.ClassCategoryID, payload.Slug, subject, level)

	case EventFeedbackCreated:
		var payload FeedbackPayload
		if err = json.Unmarshal(envelope.Data, &payload); err != nil {
			return err
		}
		err = c.service.HandleFeedbackCreated(ctx, payload.TutorID, payload.Rate)

	case EventFeedbackDeleted:
		var payload FeedbackPayload
		if err = json.Unmarshal(envelope.Data, &payload); err != nil {
			return err
		}
		err = c.service.HandleFeedbackDeleted(ctx, payload.TutorID, payload.Rate)

	case EventClassApplicationUpdated:
		var payload ClassApplicationPayload
		if err = json.Unmarshal(envelope.Data, &payload); err != nil {
			return err
		}
		err = c.service.HandleClassApplicationUpdated(ctx, payload.TutorID, payload.NewStatus)

	case EventTutorProficiencyCreated:
		var payload TutorProficiencyPayload
		if err = json.Unmarshal(envelope.Data, &payload); err != nil {
			return err
		}
		err = c.service.AddTutorProficiencies(ctx, payload.TutorID, payload.ClassCategoryIDs)

	case EventTutorProficiencyDeleted:
		var payload TutorProficiencyPayload
		if err = json.Unmarshal(envelope.Data, &payload); err != nil {
			return err
		}
		err = c.service.DeleteTutorProficiencies(ctx, payload.TutorID, payload.ClassCategoryIDs)

	default:
		return fmt.Errorf("unknown event type %q", envelope.Event)
	}

	if errors.Is(err, repositories.ErrTutorNotFound) {
		log.Printf("Tutor not found handling %s, treating event as handled", envelope.Event)
		return nil
	}
	return err
}
