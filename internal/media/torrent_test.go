package media

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testHash = "c9e15763f722f23e98a29decdfae341b98d53056"

func TestNewTorrentClampsCounts(t *testing.T) {
	tor := NewTorrent("https://yts.example/t.torrent", -1, -5, "C9E15763F722F23E98A29DECDFAE341B98D53056")
	require.Equal(t, 0, tor.Seeds)
	require.Equal(t, 0, tor.Peers)
	require.Equal(t, testHash, tor.Hash)
}

func TestNewTorrentHashFromMagnet(t *testing.T) {
	tor := NewTorrent("magnet:?xt=urn:btih:"+testHash+"&dn=Sintel", 10, 2, "")
	require.Equal(t, testHash, tor.Hash)
}

func TestMagnet(t *testing.T) {
	t.Run("magnet url passes through", func(t *testing.T) {
		u := "magnet:?xt=urn:btih:" + testHash
		got, err := Torrent{URL: u}.Magnet("x")
		require.NoError(t, err)
		require.Equal(t, u, got)
	})

	t.Run("built from hash", func(t *testing.T) {
		got, err := Torrent{URL: "https://yts.example/t.torrent", Hash: testHash}.Magnet("Sintel")
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(got, "magnet:?"))
		require.Contains(t, got, testHash)
		require.Contains(t, got, "tr=")
	})

	t.Run("no hash", func(t *testing.T) {
		_, err := Torrent{URL: "https://yts.example/t.torrent"}.Magnet("Sintel")
		require.ErrorIs(t, err, ErrNoHash)
	})
}
