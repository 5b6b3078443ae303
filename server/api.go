package server

import (
	"net/http"
	"time"

	"github.com/arguscam/argus/pkg/www"
	"github.com/arguscam/argus/server/detector"
	"github.com/arguscam/argus/server/eventdb"
	"github.com/julienschmidt/httprouter"
)

// Largest image we'll accept for processing
const maxImageBytes = 16 * 1024 * 1024

func (s *Server) setupHttpRoutes() {
	router := httprouter.New()

	get := func(route string, handle httprouter.Handle) {
		www.Handle(s.Log, router, "GET", route, handle)
	}
	post := func(route string, handle httprouter.Handle) {
		www.Handle(s.Log, router, "POST", route, handle)
	}

	get("/api/ping", s.httpPing)
	get("/api/detectors", s.httpDetectorList)
	get("/api/detector/:name", s.httpDetectorGet)
	post("/api/detector/:name/image", s.httpDetectorProcessImage)
	get("/api/detector/:name/history", s.httpDetectorHistory)
	get("/api/detector/:name/ws", s.httpDetectorWebSocket)
	get("/api/ws", s.httpAllWebSocket)
	get("/api/events", s.httpEvents)

	s.httpRouter = router
}

// detectorJSON is the wire form of a detector entity's current state
type detectorJSON struct {
	Name         string         `json:"name"`
	CameraEntity string         `json:"cameraEntity"`
	State        *int           `json:"state"` // null until the first image is processed
	Attributes   map[string]any `json:"attributes"`
}

func toDetectorJSON(d *detector.Detector) *detectorJSON {
	j := &detectorJSON{
		Name:         d.Name(),
		CameraEntity: d.CameraEntity(),
		Attributes:   d.Attributes(),
	}
	if state, ok := d.State(); ok {
		j.State = &state
	}
	return j
}

// getDetector returns the named detector, or panics with a 404
func (s *Server) getDetector(params httprouter.Params) *detector.Detector {
	name := params.ByName("name")
	d := s.Detectors.Get(name)
	if d == nil {
		www.PanicNotFound()
	}
	return d
}

func (s *Server) httpPing(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	type pingJSON struct {
		Time int64 `json:"time"`
	}
	www.SendJSON(w, &pingJSON{
		Time: time.Now().Unix(),
	})
}

func (s *Server) httpDetectorList(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	all := s.Detectors.All()
	list := make([]*detectorJSON, 0, len(all))
	for _, d := range all {
		list = append(list, toDetectorJSON(d))
	}
	www.SendJSON(w, list)
}

func (s *Server) httpDetectorGet(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendJSON(w, toDetectorJSON(s.getDetector(params)))
}

func (s *Server) httpDetectorProcessImage(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	d := s.getDetector(params)
	image := www.ReadLimited(w, r, maxImageBytes)
	if len(image) == 0 {
		www.PanicBadRequestf("Empty request body. Expected image bytes")
	}
	result, err := s.Detectors.ProcessImage(d.Name(), image)
	if err != nil {
		// The Rekognition call failed, not the caller's request
		www.PanicBadGatewayf("Image processing failed: %v", err)
	}
	if result.Total > 0 {
		if err := s.Events.AddDetection(result.Detector, result.CameraEntity, result.Total, result.Objects); err != nil {
			s.Log.Errorf("Failed to record detection event: %v", err)
		}
	}
	www.SendJSON(w, result)
}

func (s *Server) httpDetectorHistory(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendJSON(w, s.getDetector(params).History())
}

func (s *Server) httpEvents(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	name := www.QueryValue(r, "detector")
	limit := www.QueryInt(r, "limit")
	if name != "" && s.Detectors.Get(name) == nil {
		www.PanicNotFound()
	}
	events, err := s.Events.RecentEvents(name, limit)
	www.Check(err)
	// Empty list, not null
	if events == nil {
		events = []*eventdb.Event{}
	}
	www.SendJSON(w, events)
}
