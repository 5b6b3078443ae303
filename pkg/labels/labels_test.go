package labels

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func personResponse() *DetectionResult {
	return &DetectionResult{
		Labels: []Label{
			{
				Name:       "Person",
				Confidence: 98.2,
				Instances: []Instance{
					{Confidence: 98.2, Box: BoundingBox{Left: 0.1, Top: 0.1, Width: 0.2, Height: 0.3}},
					{Confidence: 75.0, Box: BoundingBox{Left: 0.5, Top: 0.5, Width: 0.1, Height: 0.1}},
				},
			},
			{
				Name:       "Car",
				Confidence: 80.0,
				Instances: []Instance{
					{Confidence: 80.0, Box: BoundingBox{Left: 0.3, Top: 0.4, Width: 0.2, Height: 0.2}},
				},
			},
			{
				Name:       "Outdoors",
				Confidence: 99.1,
			},
		},
	}
}

func TestCountConfidentInstances(t *testing.T) {
	r := personResponse()

	// Case-insensitive match on both sides
	require.Equal(t, 1, CountConfidentInstances(r, "person", 80))
	require.Equal(t, 1, CountConfidentInstances(r, "PERSON", 80))
	require.Equal(t, 2, CountConfidentInstances(r, "person", 50))

	// Absent target is zero, regardless of case
	require.Equal(t, 0, CountConfidentInstances(r, "dog", 0))
	require.Equal(t, 0, CountConfidentInstances(r, "DOG", 0))

	// Strictly greater than threshold: equality is excluded
	require.Equal(t, 0, CountConfidentInstances(r, "car", 80))
	require.Equal(t, 1, CountConfidentInstances(r, "car", 79.999))

	// Labels without instances count nothing
	require.Equal(t, 0, CountConfidentInstances(r, "outdoors", 0))

	require.Equal(t, 0, CountConfidentInstances(&DetectionResult{}, "person", 0))
}

func TestDetectedObjects(t *testing.T) {
	r := personResponse()
	objects := DetectedObjects(r)

	// "Outdoors" has no instances, so it's excluded
	require.Equal(t, map[string]float64{
		"person": 98.2,
		"car":    80.0,
	}, objects)
}

func TestDetectedObjectsRounding(t *testing.T) {
	r := &DetectionResult{
		Labels: []Label{
			{Name: "Cat", Confidence: 55.5555, Instances: []Instance{{Confidence: 55.5555}}},
			{Name: "Dog", Confidence: 99.96, Instances: []Instance{{Confidence: 99.96}}},
		},
	}
	objects := DetectedObjects(r)
	require.Equal(t, 55.6, objects["cat"])
	require.Equal(t, 100.0, objects["dog"])
}

func TestDetectedObjectsDuplicateName(t *testing.T) {
	// Duplicate names shouldn't happen, but if they do, the last one wins.
	r := &DetectionResult{
		Labels: []Label{
			{Name: "Person", Confidence: 90.0, Instances: []Instance{{Confidence: 90.0}}},
			{Name: "person", Confidence: 70.0, Instances: []Instance{{Confidence: 70.0}}},
		},
	}
	objects := DetectedObjects(r)
	require.Equal(t, map[string]float64{"person": 70.0}, objects)
}
