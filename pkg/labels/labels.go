// Package labels holds the object detection data model that we get back from
// the cloud label-detection service, along with the pure functions that turn
// a response into entity state (counts and name -> confidence maps).
package labels

import (
	"math"
	"strings"
)

// BoundingBox is a normalized box within an image.
// All values are fractions of the image dimensions, in [0,1].
type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Instance is one concrete occurrence of a label in an image.
type Instance struct {
	Confidence float64     `json:"confidence"` // 0..100
	Box        BoundingBox `json:"box"`
}

// Label is a single class that the service recognized in an image.
// A label without instances is a scene-level tag (eg "Outdoors"), and
// carries no boxes.
type Label struct {
	Name       string     `json:"name"`
	Confidence float64    `json:"confidence"` // 0..100
	Instances  []Instance `json:"instances"`
}

// DetectionResult is the response of one detection call on one image.
type DetectionResult struct {
	Labels       []Label `json:"labels"`
	ModelVersion string  `json:"modelVersion,omitempty"`
}

// CountConfidentInstances returns the number of instances of 'target' whose
// confidence is strictly greater than 'threshold'.
// Names are compared case-insensitively. A response that doesn't mention the
// target at all yields zero.
func CountConfidentInstances(result *DetectionResult, target string, threshold float64) int {
	target = strings.ToLower(target)
	for _, label := range result.Labels {
		if strings.ToLower(label.Name) != target {
			continue
		}
		n := 0
		for _, inst := range label.Instances {
			if inst.Confidence > threshold {
				n++
			}
		}
		return n
	}
	return 0
}

// DetectedObjects returns lowercased label name -> confidence (rounded to one
// decimal), for every label that has at least one instance.
// The service doesn't normally repeat a name; if it does, the last one wins.
func DetectedObjects(result *DetectionResult) map[string]float64 {
	objects := map[string]float64{}
	for _, label := range result.Labels {
		if len(label.Instances) == 0 {
			continue
		}
		objects[strings.ToLower(label.Name)] = math.Round(label.Confidence*10) / 10
	}
	return objects
}
