package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arguscam/argus/pkg/labels"
	"github.com/arguscam/argus/server/config"
	"github.com/arguscam/argus/server/detector"
	"github.com/arguscam/argus/server/eventdb"
	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
)

var errFake = errors.New("rekognition unavailable")

type fakeRekognition struct {
	response *labels.DetectionResult
	err      error
}

func (f *fakeRekognition) DetectLabels(image []byte) (*labels.DetectionResult, error) {
	return f.response, f.err
}

func personResponse() *labels.DetectionResult {
	return &labels.DetectionResult{
		Labels: []labels.Label{
			{
				Name:       "Person",
				Confidence: 98.2,
				Instances: []labels.Instance{
					{Confidence: 98.2, Box: labels.BoundingBox{Left: 0.1, Top: 0.1, Width: 0.2, Height: 0.3}},
				},
			},
		},
	}
}

// newTestServer builds a server on a fake Rekognition backend, skipping NewServer
// so that we don't need AWS credentials.
func newTestServer(t *testing.T, client *fakeRekognition) *Server {
	t.Helper()
	logger := logs.NewTestingLog(t)
	manager := detector.NewManager(logger)
	require.NoError(t, manager.Add(detector.NewDetector(logger, client, detector.Options{
		CameraEntity: "camera.front_door",
		Name:         "rekognition_front_door",
		Targets:      []string{"person"},
		Confidence:   80,
	})))
	events, err := eventdb.Open(logger, t.TempDir())
	require.NoError(t, err)
	s := &Server{
		Log:       logger,
		Config:    &config.Config{},
		Detectors: manager,
		Events:    events,
	}
	s.setupHttpRoutes()
	return s
}

func fetch(t *testing.T, s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	s.httpRouter.ServeHTTP(w, req)
	return w
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestPing(t *testing.T) {
	s := newTestServer(t, &fakeRekognition{response: personResponse()})
	w := fetch(t, s, "GET", "/api/ping", nil)
	require.Equal(t, http.StatusOK, w.Code)
	ping := decodeJSON[map[string]int64](t, w)
	require.NotZero(t, ping["time"])
}

func TestDetectorList(t *testing.T) {
	s := newTestServer(t, &fakeRekognition{response: personResponse()})
	w := fetch(t, s, "GET", "/api/detectors", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeJSON[[]*detectorJSON](t, w)
	require.Len(t, list, 1)
	require.Equal(t, "rekognition_front_door", list[0].Name)
	require.Equal(t, "camera.front_door", list[0].CameraEntity)
	// No image processed yet, so state is null
	require.Nil(t, list[0].State)
}

func TestDetectorNotFound(t *testing.T) {
	s := newTestServer(t, &fakeRekognition{response: personResponse()})
	require.Equal(t, http.StatusNotFound, fetch(t, s, "GET", "/api/detector/nope", nil).Code)
	require.Equal(t, http.StatusNotFound, fetch(t, s, "POST", "/api/detector/nope/image", []byte("x")).Code)
	require.Equal(t, http.StatusNotFound, fetch(t, s, "GET", "/api/detector/nope/history", nil).Code)
	require.Equal(t, http.StatusNotFound, fetch(t, s, "GET", "/api/events?detector=nope", nil).Code)
}

func TestProcessImageAPI(t *testing.T) {
	s := newTestServer(t, &fakeRekognition{response: personResponse()})

	// Empty body is a client error
	w := fetch(t, s, "POST", "/api/detector/rekognition_front_door/image", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = fetch(t, s, "POST", "/api/detector/rekognition_front_door/image", []byte("jpeg bytes"))
	require.Equal(t, http.StatusOK, w.Code)
	result := decodeJSON[*detector.Result](t, w)
	require.Equal(t, 1, result.Total)
	require.Equal(t, 98.2, result.Objects["person"])

	// State is now visible on the detector
	w = fetch(t, s, "GET", "/api/detector/rekognition_front_door", nil)
	require.Equal(t, http.StatusOK, w.Code)
	det := decodeJSON[*detectorJSON](t, w)
	require.NotNil(t, det.State)
	require.Equal(t, 1, *det.State)

	// A positive detection is recorded in the event DB
	w = fetch(t, s, "GET", "/api/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	events := decodeJSON[[]*eventdb.Event](t, w)
	require.Len(t, events, 1)
	require.Equal(t, "rekognition_front_door", events[0].Detector)
	require.Equal(t, 1, events[0].Total)

	// And it shows up in the in-memory history
	w = fetch(t, s, "GET", "/api/detector/rekognition_front_door/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decodeJSON[[]*detector.Result](t, w)
	require.Len(t, history, 1)
}

func TestProcessImageUpstreamFailure(t *testing.T) {
	client := &fakeRekognition{err: errFake}
	s := newTestServer(t, client)
	w := fetch(t, s, "POST", "/api/detector/rekognition_front_door/image", []byte("jpeg bytes"))
	require.Equal(t, http.StatusBadGateway, w.Code)

	// No event was written
	events, err := s.Events.RecentEvents("", 0)
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestEventsLimit(t *testing.T) {
	s := newTestServer(t, &fakeRekognition{response: personResponse()})
	for i := 0; i < 3; i++ {
		w := fetch(t, s, "POST", "/api/detector/rekognition_front_door/image", []byte("jpeg bytes"))
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := fetch(t, s, "GET", "/api/events?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	events := decodeJSON[[]*eventdb.Event](t, w)
	require.Len(t, events, 2)
}
