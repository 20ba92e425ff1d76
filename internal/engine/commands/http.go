// Released under an MIT license. See LICENSE.

package commands

import (
	"context"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/xylo-lang/xylo/internal/common"
	"github.com/xylo-lang/xylo/internal/common/interface/cell"
	"github.com/xylo-lang/xylo/internal/common/struct/fault"
	"github.com/xylo-lang/xylo/internal/common/type/boolean"
	"github.com/xylo-lang/xylo/internal/common/type/null"
	"github.com/xylo-lang/xylo/internal/common/type/num"
	"github.com/xylo-lang/xylo/internal/common/type/str"
	"github.com/xylo-lang/xylo/internal/common/type/table"
	"github.com/xylo-lang/xylo/internal/common/validate"
	"github.com/xylo-lang/xylo/internal/engine/task"
)

// Timeout bounds each request made by the http library.
const Timeout = 30 * time.Second

// HTTPLibrary returns a new http library.
func HTTPLibrary() *table.T {
	client := &http.Client{Timeout: Timeout}

	return library(map[string]task.Function{
		"get":  request(client, http.MethodGet),
		"post": request(client, http.MethodPost),
	})
}

// request returns a function that sends method requests. Its arguments
// are the URL, then for POST a body, then an optional table of headers.
// A table body is sent as JSON. The result is a table with status, ok,
// body and headers.
func request(client *http.Client, method string) task.Function {
	name := strings.ToLower(method)

	return func(_ *task.T, args []cell.I) (cell.I, error) {
		url, err := validate.String(name, args, 0)
		if err != nil {
			return nil, err
		}

		at := 1

		var (
			body        io.Reader
			contentType string
		)

		if method == http.MethodPost {
			at = 2

			switch b := arg(args, 1).(type) {
			case *null.T:
			case str.T:
				body = strings.NewReader(string(b))
				contentType = "text/plain; charset=utf-8"
			default:
				s, err := Encode(b, 0)
				if err != nil {
					return nil, err
				}

				body = strings.NewReader(s)
				contentType = "application/json"
			}
		}

		req, err := http.NewRequestWithContext(context.Background(), method, url, body)
		if err != nil {
			return nil, fault.New(fault.Unknown, nil, "http.%s: %v", name, err)
		}

		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		if headers := holder(arg(args, at)); headers != nil {
			headers.Entries(func(k, v cell.I) bool {
				req.Header.Set(common.String(k), common.String(v))

				return true
			})
		}

		rsp, err := client.Do(req)
		if err != nil {
			return nil, fault.New(fault.Unknown, nil, "http.%s: %v", name, err)
		}
		defer rsp.Body.Close()

		content, err := io.ReadAll(rsp.Body)
		if err != nil {
			return nil, fault.New(fault.Unknown, nil, "http.%s: %v", name, err)
		}

		keys := make([]string, 0, len(rsp.Header))
		for k := range rsp.Header {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		headers := table.New()
		for _, k := range keys {
			headers.Set(str.New(k), str.New(rsp.Header.Get(k)))
		}

		ok := rsp.StatusCode >= 200 && rsp.StatusCode < 300

		return record(
			field{"status", num.Int(rsp.StatusCode)},
			field{"ok", boolean.Bool(ok)},
			field{"body", str.New(string(content))},
			field{"headers", headers},
		), nil
	}
}
