package scrape

import (
	"mime"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// toUTF8 decodes body using the charset named in the Content-Type header.
// Bodies without a charset, or already in UTF-8, are returned unchanged.
func toUTF8(contentType string, body []byte) ([]byte, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return body, nil
	}
	charset := strings.ToLower(strings.TrimSpace(params["charset"]))
	if charset == "" || charset == "utf-8" || charset == "utf8" {
		return body, nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "local: unsupported charset %q", charset)
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return nil, eris.Wrapf(err, "local: decode %s", charset)
	}
	return out, nil
}
