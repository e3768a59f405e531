package firebase

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/document"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/jsontree"
)

type streamEvent struct {
	Path string `json:"path"`
	Data any    `json:"data"`
}

// Subscribe follows path over the event stream. Every put or patch is
// applied to a local copy and fn receives the resulting full snapshot.
// It returns nil once ctx is done and an error when the stream ends.
func (c *Client) Subscribe(ctx context.Context, path string, fn func(document.Snapshot)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return fmt.Errorf("%w: build stream request: %v", document.ErrRejected, err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("%w: open stream %s: %s", errFirebaseTransient, path, c.sanitize(err.Error()))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if isRetryableStatus(resp.StatusCode) {
			return fmt.Errorf("%w: stream %s status=%d body=%s", errFirebaseTransient, path, resp.StatusCode, abbreviateBody(raw))
		}
		return fmt.Errorf("%w: stream %s status=%d body=%s", document.ErrRejected, path, resp.StatusCode, abbreviateBody(raw))
	}

	var tree any
	err = readEvents(resp.Body, func(event string, data []byte) error {
		switch event {
		case "put", "patch":
			var ev streamEvent
			// Copy out of the pooled buffer; decoded strings may alias their input.
			if err := sonic.UnmarshalString(string(data), &ev); err != nil {
				return fmt.Errorf("%w: decode %s event: %v", errFirebaseTransient, event, err)
			}
			if event == "put" {
				tree = jsontree.Set(tree, jsontree.Split(ev.Path), ev.Data)
			} else {
				fields, _ := ev.Data.(map[string]any)
				tree = jsontree.Update(tree, jsontree.Split(ev.Path), fields)
			}

			raw, err := sonic.Marshal(tree)
			if err != nil {
				return fmt.Errorf("encode snapshot: %w", err)
			}
			fn(document.Snapshot{Path: path, Raw: raw})
		case "keep-alive":
		case "cancel":
			return fmt.Errorf("%w: stream %s cancelled by server: %s", document.ErrRejected, path, abbreviateBody(data))
		case "auth_revoked":
			return crerr.Mark(fmt.Errorf("stream %s auth revoked", path), errFirebaseTransient)
		default:
			c.logger.DebugContext(ctx, "ignore stream event", "event", event, "path", path)
		}
		return nil
	})
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: stream %s closed", errFirebaseTransient, path)
}

// readEvents splits a server-sent event stream and calls handle once per
// dispatched event.
func readEvents(r io.Reader, handle func(event string, data []byte) error) error {
	reader := bufio.NewReaderSize(r, 32<<10)
	data := bytebufferpool.Get()
	defer bytebufferpool.Put(data)

	event := ""
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			line = bytes.TrimRight(line, "\r\n")
			switch {
			case len(line) == 0:
				if event != "" || data.Len() > 0 {
					if hErr := handle(event, data.B); hErr != nil {
						return hErr
					}
				}
				event = ""
				data.Reset()
			case bytes.HasPrefix(line, []byte(":")):
			case bytes.HasPrefix(line, []byte("event:")):
				event = string(bytes.TrimSpace(line[len("event:"):]))
			case bytes.HasPrefix(line, []byte("data:")):
				if data.Len() > 0 {
					_ = data.WriteByte('\n')
				}
				_, _ = data.Write(bytes.TrimPrefix(line[len("data:"):], []byte(" ")))
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
