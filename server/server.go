// Package server is the top-level object that wires the Rekognition client,
// the detector entities, the event database, and the HTTP API together.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arguscam/argus/pkg/rekog"
	"github.com/arguscam/argus/server/config"
	"github.com/arguscam/argus/server/detector"
	"github.com/arguscam/argus/server/eventdb"
	"github.com/cyclopcam/logs"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

type Server struct {
	Log         logs.Log
	Config      *config.Config
	Rekognition *rekog.Client
	Detectors   *detector.Manager
	Events      *eventdb.EventDB

	signalIn   chan os.Signal
	httpServer *http.Server
	httpRouter *httprouter.Router
	wsUpgrader websocket.Upgrader
}

func NewServer(logger logs.Log, cfg *config.Config) (*Server, error) {
	client, err := rekog.NewClient(logger, rekog.Options{
		Region:          cfg.RegionName,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		Retries:         cfg.ClientRetries,
	})
	if err != nil {
		return nil, err
	}

	manager := detector.NewManager(logger)
	for _, src := range cfg.Sources {
		det := detector.NewDetector(logger, client, detector.Options{
			CameraEntity:        src.CameraEntity,
			Name:                src.EntityName(),
			Targets:             cfg.Targets,
			Confidence:          cfg.Confidence,
			SaveFileFolder:      cfg.SaveFileFolder,
			SaveTimestampedFile: cfg.SaveTimestampedFile,
		})
		if err := manager.Add(det); err != nil {
			return nil, err
		}
	}

	events, err := eventdb.Open(logger, cfg.StoragePath)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Log:         logger,
		Config:      cfg,
		Rekognition: client,
		Detectors:   manager,
		Events:      events,
	}
	s.setupHttpRoutes()
	return s, nil
}

// port example: ":8080"
func (s *Server) ListenHTTP(port string) error {
	s.Log.Infof("Listening on %v", port)
	s.httpServer = &http.Server{
		Addr:    port,
		Handler: s.httpRouter,
	}
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) ListenForKillSignals() {
	s.signalIn = make(chan os.Signal, 1)
	signal.Notify(s.signalIn, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig, ok := <-s.signalIn
		if ok {
			s.Log.Infof("Received OS signal '%v'. Will exit after shutdown", sig.String())
			s.Shutdown()
		} else {
			// Shutdown() was called by something other than ourselves, and closed signalIn.
			s.Log.Infof("signalIn closed")
		}
	}()
}

func (s *Server) Shutdown() {
	s.Log.Infof("Shutdown")
	signal.Stop(s.signalIn)
	close(s.signalIn)
	s.Log.Infof("Closing HTTP server")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.Log.Warnf("Shutdown complete, with error: %v", err)
	} else {
		s.Log.Infof("Shutdown complete")
	}
	s.Log.Close()
}

// PortString turns the configured port into a net/http listen address
func PortString(port int) string {
	return fmt.Sprintf(":%v", port)
}
