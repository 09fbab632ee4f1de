package audio

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
)

// maxBodySize caps how much of a remote file is buffered.
const maxBodySize = 64 << 20

// Opener opens and decodes an audio URL.
type Opener func(ctx context.Context, rawURL string) (beep.StreamSeekCloser, beep.Format, error)

// NewOpener returns an Opener that reads local paths, file:// URLs and
// HTTP(S) URLs. Remote bodies are buffered in memory so the decoder can seek.
func NewOpener(client *http.Client) Opener {
	return func(ctx context.Context, rawURL string) (beep.StreamSeekCloser, beep.Format, error) {
		rc, contentType, err := fetch(ctx, client, rawURL)
		if err != nil {
			return nil, beep.Format{}, err
		}

		var (
			stream beep.StreamSeekCloser
			format beep.Format
		)
		switch detectCodec(rawURL, contentType) {
		case "wav":
			stream, format, err = wav.Decode(rc)
		default:
			stream, format, err = mp3.Decode(rc)
		}
		if err != nil {
			rc.Close()
			return nil, beep.Format{}, errors.Wrapf(err, "failed to decode %s", rawURL)
		}
		return stream, format, nil
	}
}

// seekableBody is a buffered HTTP body.
type seekableBody struct {
	*bytes.Reader
}

func (seekableBody) Close() error { return nil }

func fetch(ctx context.Context, client *http.Client, rawURL string) (io.ReadCloser, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", errors.Wrapf(err, "invalid audio url %q", rawURL)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	case "file":
		f, err := os.Open(u.Path)
		if err != nil {
			return nil, "", errors.Wrap(err, "failed to open audio file")
		}
		return f, "", nil
	case "":
		f, err := os.Open(rawURL)
		if err != nil {
			return nil, "", errors.Wrap(err, "failed to open audio file")
		}
		return f, "", nil
	default:
		return nil, "", errors.Newf("unsupported audio scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to create request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to fetch audio")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", errors.Newf("audio fetch failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to read audio body")
	}
	if len(body) > maxBodySize {
		return nil, "", errors.Newf("audio body exceeds %d bytes", maxBodySize)
	}
	return seekableBody{bytes.NewReader(body)}, resp.Header.Get("Content-Type"), nil
}

// detectCodec picks a decoder from the file extension, then the content type.
// MP3 is the storefront default.
func detectCodec(rawURL, contentType string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".wav", ".wave":
		return "wav"
	case ".mp3":
		return "mp3"
	}

	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "audio/wav", "audio/wave", "audio/x-wav", "audio/vnd.wave":
			return "wav"
		}
	}
	return "mp3"
}
