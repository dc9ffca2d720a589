package normalize

import "strings"

// qualityKey converts a catalog quality label to a standard key: 2160p,
// 1080p, 720p or 480p. Labels without a known resolution (3D) are kept as
// given.
func qualityKey(label string) string {
	label = strings.TrimSpace(label)
	upper := strings.ToUpper(label)
	switch {
	case strings.Contains(upper, "2160") || upper == "4K" || upper == "UHD":
		return "2160p"
	case strings.Contains(upper, "1080"):
		return "1080p"
	case strings.Contains(upper, "720"):
		return "720p"
	case strings.Contains(upper, "480"):
		return "480p"
	default:
		return label
	}
}
