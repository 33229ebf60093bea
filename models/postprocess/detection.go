// Package postprocess - Decoding and suppression of raw pose model outputs.
package postprocess

import "github.com/nvr-ai/go-pose/images"

// Keypoint is a single joint in image coordinates.
type Keypoint struct {
	X float32
	Y float32
	// Visibility is the model's confidence that the joint is present. It is
	// never rescaled.
	Visibility float32
}

// Detection is one person found by the model, in image coordinates.
type Detection struct {
	// Box is the integer bounding box.
	Box images.Rect
	// Confidence is the person score.
	Confidence float32
	// Keypoints holds one entry per joint, in contract order.
	Keypoints []Keypoint
}
