//go:build gocv
// +build gocv

package vision

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSuppress_KeepsBestPerClass(t *testing.T) {
	kept := suppress([]scored{
		{rect: image.Rect(0, 0, 100, 100), score: 0.6, classID: 0},
		{rect: image.Rect(5, 5, 100, 100), score: 0.9, classID: 0},
		{rect: image.Rect(5, 5, 100, 100), score: 0.5, classID: 1},
		{rect: image.Rect(300, 300, 400, 400), score: 0.4, classID: 0},
	}, 0.45)

	require.Len(t, kept, 3)
	require.InDelta(t, 0.9, kept[0].score, 1e-6)
	require.Equal(t, 1, kept[1].classID)
	require.InDelta(t, 0.4, kept[2].score, 1e-6)
}

func TestIoU(t *testing.T) {
	require.InDelta(t, 1.0/7.0, iou(image.Rect(0, 0, 100, 100), image.Rect(50, 50, 150, 150)), 1e-6)
	require.Zero(t, iou(image.Rect(0, 0, 10, 10), image.Rect(20, 20, 30, 30)))
}
