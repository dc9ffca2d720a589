package media

import (
	"errors"
	"strings"

	"github.com/anacrolix/torrent/metainfo"
)

// ErrNoHash is returned when a torrent carries no usable info-hash.
var ErrNoHash = errors.New("torrent has no info-hash")

// DefaultTrackers are announced in magnets synthesized from a bare hash.
var DefaultTrackers = []string{
	"udp://open.demonii.com:1337/announce",
	"udp://tracker.openbittorrent.com:80",
	"udp://tracker.coppersurfer.tk:6969",
	"udp://glotorrents.pw:6969/announce",
	"udp://tracker.opentrackr.org:1337/announce",
}

// Torrent is one downloadable rendition of an item.
type Torrent struct {
	URL      string `json:"url"`
	Seeds    int    `json:"seeds"`
	Peers    int    `json:"peers"`
	Hash     string `json:"hash,omitempty"`
	Quality  string `json:"quality,omitempty"`
	Language string `json:"language,omitempty"`
}

// NewTorrent builds a torrent, clamping negative counts to zero and filling
// the hash from a magnet URL when none is given.
func NewTorrent(url string, seeds, peers int, hash string) Torrent {
	if seeds < 0 {
		seeds = 0
	}
	if peers < 0 {
		peers = 0
	}
	t := Torrent{URL: url, Seeds: seeds, Peers: peers, Hash: strings.ToLower(hash)}
	if t.Hash == "" {
		if h, err := HashFromURL(url); err == nil {
			t.Hash = h
		}
	}
	return t
}

// HashFromURL extracts the hex info-hash from a magnet URL.
func HashFromURL(u string) (string, error) {
	if !strings.HasPrefix(u, "magnet:") {
		return "", ErrNoHash
	}
	m, err := metainfo.ParseMagnetUri(u)
	if err != nil {
		return "", err
	}
	return m.InfoHash.HexString(), nil
}

// Magnet returns a magnet URI for t. A magnet URL is returned as is;
// otherwise one is built from the hash.
func (t Torrent) Magnet(displayName string) (string, error) {
	if strings.HasPrefix(t.URL, "magnet:") {
		return t.URL, nil
	}
	if t.Hash == "" {
		return "", ErrNoHash
	}

	var h metainfo.Hash
	if err := h.FromHexString(t.Hash); err != nil {
		return "", err
	}

	m := metainfo.Magnet{
		InfoHash:    h,
		DisplayName: displayName,
		Trackers:    DefaultTrackers,
	}
	return m.String(), nil
}
