// Package restyutil dumps the http exchanges of a resty client, which is
// what writing locators against server rendered pages is done with.
package restyutil

import (
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"regexp"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

type InstrumentOutput interface {
	Write(id string, contents string)
}

type instrumentCtx struct {
	output    InstrumentOutput
	idcounter *uint64
}

// InstrumentClient writes every response of client to output, one message
// per exchange, ids are numbered in request order. A nil output is a no-op.
func InstrumentClient(client *resty.Client, output InstrumentOutput) {
	if output == nil {
		return
	}

	var idcounter uint64
	i := instrumentCtx{output: output, idcounter: &idcounter}
	client.OnAfterResponse(i.onAfterResponse)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// messageId is `<n>_<last path segment>.txt`, ex. 0003_person.aspx.txt
func messageId(n uint64, link string) string {
	name := "index"
	if parsed, err := url.Parse(link); err == nil {
		if base := path.Base(parsed.Path); base != "/" && base != "." && base != "" {
			name = base
		}
	}
	name = unsafeChars.ReplaceAllString(name, "-")
	return fmt.Sprintf("%04d_%s.txt", n, name)
}

func (i instrumentCtx) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	if res.Request.RawRequest == nil {
		return nil
	}
	id := messageId(atomic.AddUint64(i.idcounter, 1), res.Request.URL)
	i.output.Write(id, formatHttpMessage(res))
	slog.Debug(
		"dumped http exchange",
		"method", res.Request.Method,
		"url", res.Request.URL,
		"message_id", id,
	)
	return nil
}
