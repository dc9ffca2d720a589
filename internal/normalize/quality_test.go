package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualityKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1080p", "1080p"},
		{"1080", "1080p"},
		{" 720p ", "720p"},
		{"480P", "480p"},
		{"2160p", "2160p"},
		{"4k", "2160p"},
		{"UHD", "2160p"},
		{"3D", "3D"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, qualityKey(tt.in))
		})
	}
}
