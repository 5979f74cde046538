package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	alertmocks "github.com/safestreets/safemap/internal/alert/mocks"
	"github.com/safestreets/safemap/internal/geocode"
	"github.com/safestreets/safemap/internal/models"
	"github.com/safestreets/safemap/internal/service/mocks"
	"github.com/safestreets/safemap/internal/store"
)

// newTestReportService builds a service instance wired to mocks.
func newTestReportService(t *testing.T) (*reportService, *mocks.MockIncidentStore, *mocks.MockGeocoder, *alertmocks.MockPublisher) {
	ctrl := gomock.NewController(t)
	storeMock := mocks.NewMockIncidentStore(ctrl)
	geocoderMock := mocks.NewMockGeocoder(ctrl)
	alertsMock := alertmocks.NewMockPublisher(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	svc := NewReportService(storeMock, geocoderMock, alertsMock, logger)
	return svc.(*reportService), storeMock, geocoderMock, alertsMock
}

func validDraft() models.IncidentDraft {
	return models.IncidentDraft{
		Type:        "Harassment",
		Location:    "Oxford Street",
		Description: "Verbal harassment near station",
		Postcode:    "W1C 1JH",
	}
}

func TestSubmitReport_Success(t *testing.T) {
	svc, storeMock, geocoderMock, alertsMock := newTestReportService(t)
	ctx := context.Background()
	coords := models.Coordinates{Latitude: 51.5152, Longitude: -0.1418}

	geocoderMock.EXPECT().
		Geocode(ctx, "W1C 1JH").
		Return(coords, nil).
		Times(1)

	storeMock.EXPECT().
		Insert(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, inc *models.Incident) (*models.Incident, error) {
			assert.Equal(t, coords, inc.Coordinates)
			created := *inc
			created.ID = 1
			created.Date = time.Now().UTC()
			return &created, nil
		}).Times(1)

	alertsMock.EXPECT().
		Publish(ctx, gomock.Any()).
		Return(nil).
		Times(1)

	created, err := svc.SubmitReport(ctx, validDraft())

	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)
	assert.Equal(t, coords, created.Coordinates)
	assert.False(t, created.Date.IsZero())
}

func TestSubmitReport_NormalizesPostcode(t *testing.T) {
	svc, storeMock, geocoderMock, alertsMock := newTestReportService(t)
	ctx := context.Background()

	draft := validDraft()
	draft.Postcode = "  w1c 1jh "

	geocoderMock.EXPECT().
		Geocode(ctx, "W1C 1JH").
		Return(models.Coordinates{Latitude: 51.5152, Longitude: -0.1418}, nil).
		Times(1)

	storeMock.EXPECT().
		Insert(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, inc *models.Incident) (*models.Incident, error) {
			assert.Equal(t, "W1C 1JH", inc.Postcode)
			return inc, nil
		}).Times(1)

	alertsMock.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	_, err := svc.SubmitReport(ctx, draft)
	require.NoError(t, err)
}

func TestSubmitReport_PostcodeRequired(t *testing.T) {
	svc, storeMock, geocoderMock, alertsMock := newTestReportService(t)

	draft := validDraft()
	draft.Postcode = "   "

	// The submission is rejected before any geocode call or store write.
	geocoderMock.EXPECT().Geocode(gomock.Any(), gomock.Any()).Times(0)
	storeMock.EXPECT().Insert(gomock.Any(), gomock.Any()).Times(0)
	alertsMock.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

	_, err := svc.SubmitReport(context.Background(), draft)

	assert.ErrorIs(t, err, ErrPostcodeRequired)
}

func TestSubmitReport_UnknownCategory(t *testing.T) {
	svc, storeMock, geocoderMock, _ := newTestReportService(t)

	draft := validDraft()
	draft.Type = "Jaywalking"

	geocoderMock.EXPECT().Geocode(gomock.Any(), gomock.Any()).Times(0)
	storeMock.EXPECT().Insert(gomock.Any(), gomock.Any()).Times(0)

	_, err := svc.SubmitReport(context.Background(), draft)

	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestSubmitReport_InvalidPostcode(t *testing.T) {
	svc, storeMock, geocoderMock, _ := newTestReportService(t)
	ctx := context.Background()

	geocoderMock.EXPECT().
		Geocode(ctx, "W1C 1JH").
		Return(models.Coordinates{}, geocode.ErrInvalidPostcode).
		Times(1)

	// No partial write happens on a failed geocode.
	storeMock.EXPECT().Insert(gomock.Any(), gomock.Any()).Times(0)

	_, err := svc.SubmitReport(ctx, validDraft())

	assert.ErrorIs(t, err, geocode.ErrInvalidPostcode)
}

func TestSubmitReport_AlertFailureIsNonFatal(t *testing.T) {
	svc, storeMock, geocoderMock, alertsMock := newTestReportService(t)
	ctx := context.Background()

	geocoderMock.EXPECT().
		Geocode(ctx, gomock.Any()).
		Return(models.Coordinates{Latitude: 51.5, Longitude: -0.12}, nil).
		Times(1)

	storeMock.EXPECT().
		Insert(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, inc *models.Incident) (*models.Incident, error) {
			created := *inc
			created.ID = 7
			return &created, nil
		}).Times(1)

	alertsMock.EXPECT().
		Publish(ctx, gomock.Any()).
		Return(assert.AnError).
		Times(1)

	created, err := svc.SubmitReport(ctx, validDraft())

	require.NoError(t, err)
	assert.Equal(t, 7, created.ID)
}

func TestUpdateReport_Success(t *testing.T) {
	svc, storeMock, geocoderMock, alertsMock := newTestReportService(t)
	ctx := context.Background()
	coords := models.Coordinates{Latitude: 51.5099, Longitude: -0.1337}

	draft := validDraft()
	draft.Postcode = "W1J 9HP"

	geocoderMock.EXPECT().
		Geocode(ctx, "W1J 9HP").
		Return(coords, nil).
		Times(1)

	storeMock.EXPECT().
		Update(ctx, 1, gomock.Any()).
		DoAndReturn(func(_ context.Context, id int, patch *models.Incident) (*models.Incident, error) {
			assert.Equal(t, coords, patch.Coordinates)
			updated := *patch
			updated.ID = id
			return &updated, nil
		}).Times(1)

	// Edits never publish alerts.
	alertsMock.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

	updated, err := svc.UpdateReport(ctx, 1, draft)

	require.NoError(t, err)
	assert.Equal(t, 1, updated.ID)
	assert.Equal(t, coords, updated.Coordinates)
}

func TestUpdateReport_NotFound(t *testing.T) {
	svc, storeMock, geocoderMock, _ := newTestReportService(t)
	ctx := context.Background()

	geocoderMock.EXPECT().
		Geocode(ctx, gomock.Any()).
		Return(models.Coordinates{Latitude: 51.5, Longitude: -0.12}, nil).
		Times(1)

	storeMock.EXPECT().
		Update(ctx, 42, gomock.Any()).
		Return(nil, store.ErrNotFound).
		Times(1)

	_, err := svc.UpdateReport(ctx, 42, validDraft())

	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteIncident_Success(t *testing.T) {
	svc, storeMock, _, _ := newTestReportService(t)
	ctx := context.Background()

	storeMock.EXPECT().Delete(ctx, 3).Return(nil).Times(1)

	require.NoError(t, svc.DeleteIncident(ctx, 3))
}

func TestListIncidents_AppliesFilter(t *testing.T) {
	svc, storeMock, _, _ := newTestReportService(t)
	ctx := context.Background()

	storeMock.EXPECT().List(ctx).Return(fixtureIncidents(), nil).Times(1)

	incidents, err := svc.ListIncidents(ctx, []string{"Harassment"}, "camden")

	require.NoError(t, err)
	require.Len(t, incidents, 1)
	assert.Equal(t, 4, incidents[0].ID)
}

func TestCountsByTypeService_UsesFullStore(t *testing.T) {
	svc, storeMock, _, _ := newTestReportService(t)
	ctx := context.Background()

	storeMock.EXPECT().List(ctx).Return(fixtureIncidents(), nil).Times(1)

	counts, err := svc.CountsByType(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, counts["Harassment"])
	assert.Equal(t, 0, counts["Kidnapping"])
}

func TestHeatmapPoints_FollowsFilteredView(t *testing.T) {
	svc, storeMock, _, _ := newTestReportService(t)
	ctx := context.Background()

	storeMock.EXPECT().List(ctx).Return(fixtureIncidents(), nil).Times(1)

	points, err := svc.HeatmapPoints(ctx, []string{"Harassment"}, "")

	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 0.5, points[0].Weight)
}
