// Package rekog wraps the AWS Rekognition DetectLabels API behind the small
// LabelDetector interface that the detector entities consume.
package rekog

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/rekognition"
	"github.com/cyclopcam/logs"

	"github.com/arguscam/argus/pkg/labels"
)

// LabelDetector is given raw image bytes, and returns the labels that the
// detection service found in the image.
type LabelDetector interface {
	DetectLabels(image []byte) (*labels.DetectionResult, error)
}

// State of the client setup state machine
type State int

const (
	StateUninitialized State = iota
	StateRetrying
	StateReady
	StateFailed
)

// Options for creating a Rekognition client
type Options struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Retries         int // Number of retries after the first failed attempt
}

// Client is a Rekognition-backed LabelDetector
type Client struct {
	log   logs.Log
	svc   rekognitionAPI
	state State
}

// rekognitionAPI is the single SDK call we make, split out so that tests can
// substitute the service.
type rekognitionAPI interface {
	DetectLabels(input *rekognition.DetectLabelsInput) (*rekognition.DetectLabelsOutput, error)
}

// NewClient creates a Rekognition client, retrying up to opt.Retries times
// (with a 1 second pause between attempts) before giving up.
// A nil error means the client is Ready. Exhausting the retries is fatal for
// the setup that requested the client.
func NewClient(logger logs.Log, opt Options) (*Client, error) {
	connect := func() (rekognitionAPI, error) {
		sess, err := session.NewSession(&aws.Config{
			Region:      aws.String(opt.Region),
			Credentials: credentials.NewStaticCredentials(opt.AccessKeyID, opt.SecretAccessKey, ""),
		})
		if err != nil {
			return nil, err
		}
		return rekognition.New(sess), nil
	}
	return newClientWithConnector(logger, opt, connect, time.Second)
}

func newClientWithConnector(logger logs.Log, opt Options, connect func() (rekognitionAPI, error), pause time.Duration) (*Client, error) {
	c := &Client{
		log:   logger,
		state: StateUninitialized,
	}
	var lastErr error
	for attempt := 0; attempt <= opt.Retries; attempt++ {
		if attempt > 0 {
			c.state = StateRetrying
			time.Sleep(pause)
		}
		svc, err := connect()
		if err == nil {
			c.svc = svc
			c.state = StateReady
			return c, nil
		}
		lastErr = err
		c.log.Infof("Rekognition client setup failed (attempt %v of %v): %v", attempt+1, opt.Retries+1, err)
	}
	c.state = StateFailed
	return nil, fmt.Errorf("Failed to create Rekognition client after %v attempts (consider raising clientRetries): %w", opt.Retries+1, lastErr)
}

func (c *Client) State() State {
	return c.state
}

// DetectLabels sends the image to Rekognition, and converts the response into
// our own data model. Transport/auth errors from the SDK are returned as-is.
func (c *Client) DetectLabels(image []byte) (*labels.DetectionResult, error) {
	out, err := c.svc.DetectLabels(&rekognition.DetectLabelsInput{
		Image: &rekognition.Image{Bytes: image},
	})
	if err != nil {
		return nil, err
	}
	return convertResponse(out), nil
}

func convertResponse(out *rekognition.DetectLabelsOutput) *labels.DetectionResult {
	result := &labels.DetectionResult{
		ModelVersion: aws.StringValue(out.LabelModelVersion),
	}
	for _, l := range out.Labels {
		label := labels.Label{
			Name:       aws.StringValue(l.Name),
			Confidence: aws.Float64Value(l.Confidence),
		}
		for _, inst := range l.Instances {
			instance := labels.Instance{
				Confidence: aws.Float64Value(inst.Confidence),
			}
			if inst.BoundingBox != nil {
				instance.Box = labels.BoundingBox{
					Left:   aws.Float64Value(inst.BoundingBox.Left),
					Top:    aws.Float64Value(inst.BoundingBox.Top),
					Width:  aws.Float64Value(inst.BoundingBox.Width),
					Height: aws.Float64Value(inst.BoundingBox.Height),
				}
			}
			label.Instances = append(label.Instances, instance)
		}
		result.Labels = append(result.Labels, label)
	}
	return result
}
