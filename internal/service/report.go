package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/safestreets/safemap/internal/alert"
	"github.com/safestreets/safemap/internal/geocode"
	"github.com/safestreets/safemap/internal/models"
)

//go:generate mockgen -source=report.go -destination=mocks/mock_report.go -package=mocks

var (
	// ErrPostcodeRequired rejects a submission before any geocode call is made.
	ErrPostcodeRequired = errors.New("postcode is required")
	// ErrUnknownCategory rejects a submission whose type is outside the fixed
	// category set.
	ErrUnknownCategory = errors.New("unknown incident category")
)

// IncidentStore is the contract the workflow writes through. Both the
// in-memory and the postgres store satisfy it.
type IncidentStore interface {
	Insert(ctx context.Context, draft *models.Incident) (*models.Incident, error)
	Update(ctx context.Context, id int, patch *models.Incident) (*models.Incident, error)
	Delete(ctx context.Context, id int) error
	List(ctx context.Context) ([]*models.Incident, error)
}

// Geocoder resolves a postcode to coordinates. See internal/geocode.
type Geocoder interface {
	Geocode(ctx context.Context, postcode string) (models.Coordinates, error)
}

// ReportService is the business-logic contract for reporting and browsing
// incidents.
type ReportService interface {
	SubmitReport(ctx context.Context, draft models.IncidentDraft) (*models.Incident, error)
	UpdateReport(ctx context.Context, id int, draft models.IncidentDraft) (*models.Incident, error)
	DeleteIncident(ctx context.Context, id int) error
	ListIncidents(ctx context.Context, selectedTypes []string, query string) ([]*models.Incident, error)
	CountsByType(ctx context.Context) (map[string]int, error)
	HeatmapPoints(ctx context.Context, selectedTypes []string, query string) ([]models.HeatmapPoint, error)
}

type reportService struct {
	store    IncidentStore
	geocoder Geocoder
	alerts   alert.Publisher // nil disables alert fan-out
	logger   *logrus.Logger
}

// NewReportService wires the report workflow to its store, geocoder and
// optional alert publisher.
func NewReportService(store IncidentStore, geocoder Geocoder, alerts alert.Publisher, logger *logrus.Logger) ReportService {
	return &reportService{
		store:    store,
		geocoder: geocoder,
		alerts:   alerts,
		logger:   logger,
	}
}

// resolveDraft runs the shared validation pipeline: required postcode, known
// category, then the geocode lookup. No store write happens before it
// succeeds.
func (s *reportService) resolveDraft(ctx context.Context, draft models.IncidentDraft) (*models.Incident, error) {
	postcode := geocode.Normalize(draft.Postcode)
	if postcode == "" {
		return nil, ErrPostcodeRequired
	}
	if !models.IsValidCategory(draft.Type) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, draft.Type)
	}

	coords, err := s.geocoder.Geocode(ctx, postcode)
	if err != nil {
		return nil, fmt.Errorf("service: could not resolve postcode: %w", err)
	}

	return &models.Incident{
		Type:        draft.Type,
		Location:    draft.Location,
		Description: draft.Description,
		Postcode:    postcode,
		Coordinates: coords,
	}, nil
}

// SubmitReport validates a new report and writes it through to the store.
func (s *reportService) SubmitReport(ctx context.Context, draft models.IncidentDraft) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "report",
		"method":  "SubmitReport",
		"type":    draft.Type,
	})
	log.Info("Submitting incident report")

	inc, err := s.resolveDraft(ctx, draft)
	if err != nil {
		log.WithError(err).Warn("Report rejected")
		return nil, err
	}

	created, err := s.store.Insert(ctx, inc)
	if err != nil {
		log.WithError(err).Error("Failed to insert incident in store")
		return nil, fmt.Errorf("service: could not create incident: %w", err)
	}
	log.WithField("incident_id", created.ID).Info("Incident created successfully")

	if s.alerts != nil {
		event := alert.IncidentEvent{Incident: created, ReportedAt: created.Date}
		if err := s.alerts.Publish(ctx, event); err != nil {
			// Alert delivery is best-effort; the report itself is committed.
			log.WithError(err).Error("Failed to publish incident alert")
		}
	}

	return created, nil
}

// UpdateReport validates an edited report and writes it through to the store.
// The id and creation date of the incident never change.
func (s *reportService) UpdateReport(ctx context.Context, id int, draft models.IncidentDraft) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "report",
		"method":      "UpdateReport",
		"incident_id": id,
	})
	log.Info("Updating incident report")

	inc, err := s.resolveDraft(ctx, draft)
	if err != nil {
		log.WithError(err).Warn("Edit rejected")
		return nil, err
	}

	updated, err := s.store.Update(ctx, id, inc)
	if err != nil {
		log.WithError(err).Warn("Failed to update incident in store")
		return nil, fmt.Errorf("service: could not update incident: %w", err)
	}
	log.Info("Incident updated successfully")
	return updated, nil
}

// DeleteIncident removes an incident. Deleting an id that no longer exists is
// a no-op.
func (s *reportService) DeleteIncident(ctx context.Context, id int) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "report",
		"method":      "DeleteIncident",
		"incident_id": id,
	})
	log.Info("Deleting incident")

	if err := s.store.Delete(ctx, id); err != nil {
		log.WithError(err).Error("Failed to delete incident in store")
		return fmt.Errorf("service: could not delete incident: %w", err)
	}
	log.Info("Incident deleted")
	return nil
}

// ListIncidents returns the filtered view of the store for the given category
// selection and free-text query.
func (s *reportService) ListIncidents(ctx context.Context, selectedTypes []string, query string) ([]*models.Incident, error) {
	incidents, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: could not list incidents: %w", err)
	}
	return FilterIncidents(incidents, selectedTypes, query), nil
}

// CountsByType returns per-category counts over the full store, independent
// of any active filter.
func (s *reportService) CountsByType(ctx context.Context) (map[string]int, error) {
	incidents, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: could not list incidents: %w", err)
	}
	return CountsByType(incidents), nil
}

// HeatmapPoints returns the weighted points for the current filtered view.
func (s *reportService) HeatmapPoints(ctx context.Context, selectedTypes []string, query string) ([]models.HeatmapPoint, error) {
	incidents, err := s.ListIncidents(ctx, selectedTypes, query)
	if err != nil {
		return nil, err
	}
	return ToHeatmapPoints(incidents), nil
}
