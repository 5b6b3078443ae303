// Package detector holds the per-camera detector entities.
// A detector receives images (the host framework decides when), runs them
// through the cloud label-detection client, and exposes the resulting counts
// as entity state.
package detector

import (
	"sync"
	"time"

	"github.com/bmharper/ringbuffer"
	"github.com/cyclopcam/logs"

	"github.com/arguscam/argus/pkg/annotate"
	"github.com/arguscam/argus/pkg/labels"
	"github.com/arguscam/argus/pkg/rekog"
)

// Number of recent results that each detector keeps in memory
const historySize = 64

// Result of processing one image
type Result struct {
	Detector      string             `json:"detector"`
	CameraEntity  string             `json:"cameraEntity"`
	Total         int                `json:"total"`                   // Confident instances summed over all targets
	TargetCounts  map[string]int     `json:"targetCounts"`            // Per-target confident instance counts
	Objects       map[string]float64 `json:"objects"`                 // All detected objects, name -> confidence
	LastDetection string             `json:"lastDetection,omitempty"` // Formatted time of the last positive detection
	Time          time.Time          `json:"time"`
}

// Options for creating a detector entity
type Options struct {
	CameraEntity        string   // Host framework camera id, eg "camera.front_door"
	Name                string   // Entity name
	Targets             []string // Lowercase object classes to count
	Confidence          float64  // Confidence threshold, 0..100
	SaveFileFolder      string   // If set, annotated images are written here on positive detections
	SaveTimestampedFile bool     // Also write a timestamped copy
}

// Detector is one detector entity.
// The host framework serializes image submissions per entity, but our HTTP
// surface can't enforce that, so we guard state with a mutex anyway.
type Detector struct {
	log    logs.Log
	client rekog.LabelDetector
	opt    Options

	lock          sync.Mutex
	total         int
	haveState     bool // False until the first image has been processed successfully
	objects       map[string]float64
	lastDetection string
	history       ringbuffer.RingP[*Result]
}

func NewDetector(logger logs.Log, client rekog.LabelDetector, opt Options) *Detector {
	return &Detector{
		log:     logger,
		client:  client,
		opt:     opt,
		history: ringbuffer.NewRingP[*Result](historySize),
	}
}

func (d *Detector) Name() string {
	return d.opt.Name
}

func (d *Detector) CameraEntity() string {
	return d.opt.CameraEntity
}

// ProcessImage submits one image to the detection service and updates entity
// state. Errors from the service are returned untouched, and leave the entity
// with no state (the host surfaces such errors itself).
func (d *Detector) ProcessImage(image []byte) (*Result, error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	// Reset per-call state before talking to the service
	d.total = 0
	d.haveState = false

	response, err := d.client.DetectLabels(image)
	if err != nil {
		return nil, err
	}

	d.objects = labels.DetectedObjects(response)
	counts := map[string]int{}
	total := 0
	for _, target := range d.opt.Targets {
		n := labels.CountConfidentInstances(response, target, d.opt.Confidence)
		counts[target] = n
		total += n
	}
	d.total = total
	d.haveState = true

	if total > 0 {
		d.lastDetection = time.Now().Format(annotate.TimestampFormat)
	}

	if d.opt.SaveFileFolder != "" && total > 0 {
		err := annotate.SaveImage(d.log, image, response, annotate.Options{
			Targets:         d.opt.Targets,
			Confidence:      d.opt.Confidence,
			Directory:       d.opt.SaveFileFolder,
			BaseName:        d.opt.Name,
			SaveTimestamped: d.opt.SaveTimestampedFile,
			Timestamp:       d.lastDetection,
		})
		if err != nil {
			return nil, err
		}
	}

	result := &Result{
		Detector:      d.opt.Name,
		CameraEntity:  d.opt.CameraEntity,
		Total:         total,
		TargetCounts:  counts,
		Objects:       d.objects,
		LastDetection: d.lastDetection,
		Time:          time.Now(),
	}
	d.history.Add(result)
	return result, nil
}

// State returns the total confident-instance count, and whether any image has
// been processed successfully yet.
func (d *Detector) State() (int, bool) {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.total, d.haveState
}

// Attributes returns the entity attribute map: every detected object
// name -> confidence, the configured target list, and the time of the last
// positive detection (if there has been one).
func (d *Detector) Attributes() map[string]any {
	d.lock.Lock()
	defer d.lock.Unlock()
	attr := map[string]any{}
	for name, confidence := range d.objects {
		attr[name] = confidence
	}
	attr["targets"] = d.opt.Targets
	if d.lastDetection != "" {
		attr["last_target_detection"] = d.lastDetection
	}
	return attr
}

// History returns the most recent results, oldest first.
func (d *Detector) History() []*Result {
	d.lock.Lock()
	defer d.lock.Unlock()
	results := make([]*Result, 0, d.history.Len())
	for i := 0; i < d.history.Len(); i++ {
		results = append(results, d.history.Peek(i))
	}
	return results
}
