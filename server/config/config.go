package config

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/arguscam/argus/pkg/gen"
)

const (
	DefaultRegion        = "us-east-1"
	DefaultConfidence    = 80 // Label confidence threshold, percent
	DefaultClientRetries = 5  // Rekognition client creation retries
	DefaultPort          = 8080
)

var DefaultTargets = []string{"person"}

// Rekognition service regions
var SupportedRegions = []string{
	"us-east-1",
	"us-east-2",
	"us-west-1",
	"us-west-2",
	"ca-central-1",
	"eu-west-1",
	"eu-central-1",
	"eu-west-2",
	"eu-west-3",
	"ap-southeast-1",
	"ap-southeast-2",
	"ap-northeast-2",
	"ap-northeast-1",
	"ap-south-1",
	"sa-east-1",
}

// Source is one camera that we create a detector entity for
type Source struct {
	CameraEntity string `json:"cameraEntity"` // Host framework camera id, eg "camera.front_door"
	Name         string `json:"name"`         // Friendly entity name. Default is "rekognition_<camera>"
}

// EntityName returns the detector entity name for this source
func (s *Source) EntityName() string {
	if s.Name != "" {
		return s.Name
	}
	// "camera.front_door" -> "front_door"
	entity := s.CameraEntity
	if i := strings.IndexByte(entity, '.'); i >= 0 {
		entity = entity[i+1:]
	}
	return "rekognition_" + entity
}

type Config struct {
	Port                int      `json:"port"`                // HTTP listen port
	RegionName          string   `json:"regionName"`          // AWS region, one of SupportedRegions
	AWSAccessKeyID      string   `json:"awsAccessKeyId"`      // Required
	AWSSecretAccessKey  string   `json:"awsSecretAccessKey"`  // Required
	Targets             []string `json:"targets"`             // Object classes that we count. Default ["person"]
	Confidence          float64  `json:"confidence"`          // Confidence threshold, 0..100
	SaveFileFolder      string   `json:"saveFileFolder"`      // If set, annotated images are written here. Must be an existing directory
	SaveTimestampedFile bool     `json:"saveTimestampedFile"` // Also write a timestamped copy of each annotated image
	ClientRetries       int      `json:"clientRetries"`       // Rekognition client creation retries (after the initial attempt)
	StoragePath         string   `json:"storagePath"`         // Event database location. Default $HOME/argus
	Sources             []Source `json:"sources"`             // Cameras to create detector entities for
}

// Load reads the JSON config file, applies defaults, and validates.
func Load(filename string) (*Config, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("Error loading %v: %w", filename, err)
	}
	// Defaults are set before unmarshal, so that an absent key gets the
	// default, but an explicit zero (eg clientRetries: 0) is respected.
	cfg := &Config{
		Port:          DefaultPort,
		RegionName:    DefaultRegion,
		Confidence:    DefaultConfidence,
		ClientRetries: DefaultClientRetries,
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("Error loading %v as JSON: %w", filename, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("Invalid config %v: %w", filename, err)
	}
	return cfg, nil
}

// Validate checks the config, and normalizes targets to lowercase.
func (c *Config) Validate() error {
	if !slices.Contains(SupportedRegions, c.RegionName) {
		return fmt.Errorf("Unsupported region '%v'", c.RegionName)
	}
	if c.AWSAccessKeyID == "" {
		return fmt.Errorf("awsAccessKeyId is required")
	}
	if c.AWSSecretAccessKey == "" {
		return fmt.Errorf("awsSecretAccessKey is required")
	}
	if c.Confidence < 0 || c.Confidence > 100 {
		return fmt.Errorf("confidence must be between 0 and 100 (got %v)", c.Confidence)
	}
	if c.ClientRetries < 0 {
		return fmt.Errorf("clientRetries must not be negative (got %v)", c.ClientRetries)
	}
	if len(c.Targets) == 0 {
		c.Targets = gen.CopySlice(DefaultTargets)
	}
	for i, t := range c.Targets {
		c.Targets[i] = strings.ToLower(t)
	}
	if c.SaveFileFolder != "" {
		st, err := os.Stat(c.SaveFileFolder)
		if err != nil {
			return fmt.Errorf("saveFileFolder '%v' is not accessible: %w", c.SaveFileFolder, err)
		}
		if !st.IsDir() {
			return fmt.Errorf("saveFileFolder '%v' is not a directory", c.SaveFileFolder)
		}
	} else if c.SaveTimestampedFile {
		return fmt.Errorf("saveTimestampedFile requires saveFileFolder")
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one camera source is required")
	}
	seen := map[string]bool{}
	for _, s := range c.Sources {
		if s.CameraEntity == "" {
			return fmt.Errorf("every source needs a cameraEntity")
		}
		name := s.EntityName()
		if seen[name] {
			return fmt.Errorf("duplicate detector entity name '%v'", name)
		}
		seen[name] = true
	}
	return nil
}
