package server

import (
	"net/http"

	"github.com/arguscam/argus/server/detector"
	"github.com/julienschmidt/httprouter"
)

// httpDetectorWebSocket streams detection results for one detector entity.
// Every processed image produces one JSON message.
func (s *Server) httpDetectorWebSocket(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	d := s.getDetector(params)
	results := s.Detectors.AddWatcher(d.Name())
	defer s.Detectors.RemoveWatcher(d.Name(), results)
	s.streamResults(w, r, d.Name(), results)
}

// httpAllWebSocket streams detection results for every detector entity.
func (s *Server) httpAllWebSocket(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	results := s.Detectors.AddWatcherAll()
	defer s.Detectors.RemoveWatcherAll(results)
	s.streamResults(w, r, "all", results)
}

func (s *Server) streamResults(w http.ResponseWriter, r *http.Request, name string, results chan *detector.Result) {
	c, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	defer c.Close()
	s.Log.Infof("WebSocket watcher attached to '%v'", name)

	// We don't expect the client to send anything, but we must keep reading
	// so that we notice when the connection dies.
	closed := make(chan struct{})
	go func() {
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				close(closed)
				return
			}
		}
	}()

	for {
		select {
		case result := <-results:
			if err := c.WriteJSON(result); err != nil {
				s.Log.Infof("WebSocket watcher on '%v' write failed: %v", name, err)
				return
			}
		case <-closed:
			s.Log.Infof("WebSocket watcher on '%v' disconnected", name)
			return
		}
	}
}
