// Package annotate draws labeled bounding boxes on camera images, and saves
// the result to disk so that the user can see what triggered a detection.
package annotate

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/cyclopcam/logs"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/arguscam/argus/pkg/labels"
)

// TimestampFormat is the format of the timestamp embedded in saved filenames.
const TimestampFormat = "2006-01-02_15:04:05"

var invalidFilenameChars = regexp.MustCompile(`[^-\w.]`)

// SanitizeFilename strips leading/trailing whitespace, replaces spaces with
// underscores, and removes every character that is not a word character,
// hyphen or period.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	return invalidFilenameChars.ReplaceAllString(name, "")
}

// Options for saving an annotated image
type Options struct {
	Targets         []string // Lowercase class names that get boxes drawn
	Confidence      float64  // Label confidence threshold (0..100)
	Directory       string   // Destination directory (must exist)
	BaseName        string   // Base name for output files (typically the entity name)
	SaveTimestamped bool     // Also write a timestamped copy
	Timestamp       string   // Timestamp of the detection, in TimestampFormat
}

// SaveImage draws a box for every instance of a target label whose label
// confidence meets the threshold, then writes <sanitized-basename>_latest.jpg
// (always overwritten), and optionally a timestamped copy.
// Undecodable image data is logged as a warning and skipped. That's not an
// error: detection state has already been updated by the time we get here.
func SaveImage(logger logs.Log, image []byte, result *labels.DetectionResult, opt Options) error {
	img, err := imaging.Decode(bytes.NewReader(image))
	if err != nil {
		logger.Warnf("Unable to decode camera image for annotation, bad data: %v", err)
		return nil
	}
	width := img.Bounds().Dx()
	height := img.Bounds().Dy()

	dc := gg.NewContextForImage(img)
	dc.SetFontFace(basicfont.Face7x13)

	for _, label := range result.Labels {
		name := strings.ToLower(label.Name)
		if label.Confidence < opt.Confidence || !slices.Contains(opt.Targets, name) {
			continue
		}
		caption := fmt.Sprintf("%v: %.1f%%", name, label.Confidence)
		for _, inst := range label.Instances {
			box := inst.Box.ToRect(width, height)
			dc.SetRGB255(255, 255, 0)
			dc.SetLineWidth(2)
			dc.DrawRectangle(float64(box.X), float64(box.Y), float64(box.Width), float64(box.Height))
			dc.Stroke()
			dc.DrawString(caption, float64(box.X), float64(box.Y)-4)
		}
	}

	latest := filepath.Join(opt.Directory, strings.ToLower(SanitizeFilename(opt.BaseName))+"_latest.jpg")
	if err := imaging.Save(dc.Image(), latest); err != nil {
		return fmt.Errorf("Failed to save annotated image %v: %w", latest, err)
	}

	if opt.SaveTimestamped {
		stamped := filepath.Join(opt.Directory, opt.BaseName+"_"+opt.Timestamp+".jpg")
		if err := imaging.Save(dc.Image(), stamped); err != nil {
			return fmt.Errorf("Failed to save annotated image %v: %w", stamped, err)
		}
		logger.Infof("Saved annotated image %v", stamped)
	}
	return nil
}
