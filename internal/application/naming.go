package app

import (
	"fmt"
	"path/filepath"
	"strings"
)

// VideoArtifactName имя размеченного видео: annotated_video_<имя исходника>.
// Выход всегда пишется кодеком mp4v, поэтому расширение приводится к .mp4.
func VideoArtifactName(original string) string {
	base := filepath.Base(original)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = "upload"
	}
	return "annotated_video_" + stem + ".mp4"
}

// DamageFrameName имя кадра с повреждением по номеру кадра, считая с нуля
func DamageFrameName(index int) string {
	return fmt.Sprintf("frame_%04d.jpg", index)
}

// ImageArtifactName имя размеченного изображения, всегда JPEG
func ImageArtifactName(original string) string {
	base := filepath.Base(original)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = "image"
	}
	return "annotated_" + stem + ".jpg"
}
