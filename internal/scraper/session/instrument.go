package session

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/grez-lucas/accesd-scraper/internal/scraper/har"
)

type stepKey struct{}

func withStep(ctx context.Context, step string) context.Context {
	return context.WithValue(ctx, stepKey{}, step)
}

func stepFrom(ctx context.Context) string {
	step, _ := ctx.Value(stepKey{}).(string)
	if step == "" {
		return "request"
	}
	return step
}

type instrumentCtx struct {
	log      zerolog.Logger
	dump     Output
	recorder *har.Recorder
	seq      int
}

// instrument hooks logging, the diagnostic dump and the HAR recorder into
// the client. The session is sequential, so seq needs no synchronization.
func instrument(client *resty.Client, log zerolog.Logger, dump Output, recorder *har.Recorder) {
	i := &instrumentCtx{log: log, dump: dump, recorder: recorder}
	client.OnBeforeRequest(i.onBeforeRequest)
	client.OnAfterResponse(i.onAfterResponse)
	client.OnError(i.onError)
}

func (i *instrumentCtx) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	i.log.Debug().
		Str("step", stepFrom(req.Context())).
		Str("method", req.Method).
		Str("url", req.URL).
		Msg("start request")
	return nil
}

func (i *instrumentCtx) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	i.seq++
	step := stepFrom(res.Request.Context())

	i.log.Debug().
		Str("step", step).
		Str("method", res.Request.Method).
		Str("url", res.Request.URL).
		Int("status", res.StatusCode()).
		Int("bytes", len(res.Body())).
		Msg("request succeeded")

	if i.dump != nil {
		i.dump.Write(fmt.Sprintf("%02d-%s.html", i.seq, step), res.Body())
	}

	if i.recorder != nil && res.Request.RawRequest != nil {
		var body string
		if res.Request.FormData != nil {
			body = res.Request.FormData.Encode()
		}
		i.recorder.Add(step, res.Request.RawRequest, body, res.StatusCode(), res.Header(), res.Body())
	}

	return nil
}

func (i *instrumentCtx) onError(req *resty.Request, err error) {
	i.log.Error().
		Str("step", stepFrom(req.Context())).
		Str("method", req.Method).
		Str("url", req.URL).
		Err(err).
		Msg("request failed")
}
