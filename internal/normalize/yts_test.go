package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shapedtime/catalogd/internal/media"
)

const ytsPage = `{
  "status": "ok",
  "status_message": "Query was successful",
  "data": {
    "movie_count": 2,
    "limit": 50,
    "page_number": 1,
    "movies": [
      {
        "id": 10,
        "imdb_code": "tt1727587",
        "title": "Sintel",
        "title_english": "Sintel",
        "year": 2010,
        "rating": 7.5,
        "runtime": 15,
        "genres": ["Animation", "Fantasy"],
        "summary": "A lonely young woman.",
        "yt_trailer_code": "eRsGyueVLvQ",
        "language": "en",
        "mpa_rating": "",
        "medium_cover_image": "https://yts.example/sintel/medium-cover.jpg",
        "large_cover_image": "https://yts.example/sintel/large-cover.jpg",
        "background_image_original": "https://yts.example/sintel/background.jpg",
        "torrents": [
          {"url": "https://yts.example/torrent/download/A", "hash": "C9E15763F722F23E98A29DECDFAE341B98D53056", "quality": "720p", "seeds": 30, "peers": 4},
          {"hash": "08ADA5A7A6183AAE1E09D831DF6748D566095A10", "quality": "1080p", "seeds": 50, "peers": 6},
          {"url": "https://yts.example/torrent/download/C", "hash": "", "quality": "720p", "seeds": 1, "peers": 1}
        ]
      },
      {
        "id": 11,
        "title": "Le Film",
        "year": 2012,
        "rating": 6,
        "language": "fr",
        "torrents": []
      }
    ]
  }
}`

func TestYTSList(t *testing.T) {
	n := NewYTS(media.Capabilities{}, nil)

	got, err := n.List([]byte(ytsPage), nil)
	require.NoError(t, err)
	require.Len(t, got, 2)

	m := got[0].(*media.Movie)
	require.Equal(t, "tt1727587", m.VideoID)
	require.Equal(t, "2010", m.Year)
	require.Equal(t, "7.5", m.Rating)
	require.Equal(t, "15", m.Runtime)
	require.Equal(t, "A lonely young woman.", m.Synopsis)
	require.Equal(t, "https://youtube.com/watch?v=eRsGyueVLvQ", m.TrailerURL)
	require.Equal(t, "https://yts.example/sintel/medium-cover.jpg", m.Image)

	english := m.Torrents["English"]
	require.Len(t, english, 2)
	require.Equal(t, "https://yts.example/torrent/download/A", english["720p"].URL)
	require.Equal(t, "c9e15763f722f23e98a29decdfae341b98d53056", english["720p"].Hash)
	require.True(t, strings.HasPrefix(english["1080p"].URL, "magnet:?"))

	fr := got[1].(*media.Movie)
	require.Equal(t, "11", fr.VideoID)
	require.Equal(t, "6.0", fr.Rating)
	require.Empty(t, fr.TrailerURL)
	require.Empty(t, fr.Torrents)
}

func TestYTSPlaceholderArtwork(t *testing.T) {
	n := NewYTS(media.Capabilities{}, nil)
	const placeholder = "https://yts.example/assets/images/posterholder.png"

	got, err := n.List([]byte(`{"status": "ok", "data": {"movies": [{
	  "id": 12,
	  "imdb_code": "tt0000012",
	  "title": "No Art",
	  "medium_cover_image": "`+placeholder+`",
	  "large_cover_image": "`+placeholder+`",
	  "background_image_original": "`+placeholder+`"
	}, {
	  "id": 13,
	  "imdb_code": "tt0000013",
	  "title": "Some Art",
	  "medium_cover_image": "`+placeholder+`",
	  "large_cover_image": "`+placeholder+`",
	  "background_image_original": "https://yts.example/bg.jpg"
	}]}}`), nil)
	require.NoError(t, err)
	require.Len(t, got, 2)

	bare := got[0].(*media.Movie)
	require.Empty(t, bare.Image)
	require.Empty(t, bare.FullImage)
	require.Empty(t, bare.HeaderImage)

	partial := got[1].(*media.Movie)
	require.Empty(t, partial.Image)
	require.Equal(t, "https://yts.example/bg.jpg", partial.FullImage)
	require.Equal(t, "https://yts.example/bg.jpg", partial.HeaderImage)
}

func TestYTSMissingMoviesIsEmptyPage(t *testing.T) {
	n := NewYTS(media.Capabilities{}, nil)
	got, err := n.List([]byte(`{"status": "ok", "data": {"movie_count": 0}}`), nil)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestLanguageName(t *testing.T) {
	require.Equal(t, "English", languageName(""))
	require.Equal(t, "English", languageName("en"))
	require.Equal(t, "French", languageName("fr"))
}
