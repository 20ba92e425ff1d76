// Released under an MIT license. See LICENSE.

package commands

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xylo-lang/xylo/internal/common/struct/fault"
	"github.com/xylo-lang/xylo/internal/engine/task"
)

func TestJSONKeepsKeyOrder(t *testing.T) {
	check(t, `return json.encode(json.decode('{"b": 1, "a": [true, null, "x"], "c": {"z": 2, "y": 3}}'))`,
		`{"b":1,"a":[true,null,"x"],"c":{"z":2,"y":3}}`)
}

func TestJSONEncode(t *testing.T) {
	check(t, `return json.encode({name = "xylo", tags = {"a", "b"}, fn = print})`,
		`{"name":"xylo","tags":["a","b"]}`)
	check(t, `return json.encode({})`, `{}`)
	check(t, `return json.encode("<&>")`, `"<&>"`)
	check(t, `return json.encode(1 / 0)`, `null`)
	check(t, `return json.pretty('{"a":[1]}')`, "{\n  \"a\": [\n    1\n  ]\n}")
	check(t, `return json.pretty("not json")`, "not json")

	failure(t, `local t = {}
t.t = t
json.encode(t)`, fault.TypeMismatch)
}

func TestJSONDecode(t *testing.T) {
	check(t, `return json.decode('[1, {"a": "b"}]')`, []any{1.0, map[string]any{"a": "b"}})
	check(t, `return json.decode('"s"')`, "s")
	check(t, `return {json.isValid('{"a": 1}'), json.isValid("{"), json.isValid(1)}`,
		[]any{true, false, false})
	check(t, `return json.get({a = {b = {c = 3}}}, "a.b.c")`, 3.0)
	check(t, `return json.get({a = 1}, "a.b", "none")`, "none")

	f := failure(t, `json.decode("{")`, fault.Unknown)
	if !strings.Contains(f.Message, "invalid JSON") {
		t.Fatalf("unexpected message %q", f.Message)
	}
}

func TestJSONHelpers(t *testing.T) {
	v, err := Decode(`{"n": 2.5, "list": [1, 2]}`)
	if err != nil {
		t.Fatal(err)
	}

	expected := map[string]any{"n": 2.5, "list": []any{1.0, 2.0}}
	if diff := cmp.Diff(expected, task.ToGo(v)); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	s, err := Encode(v, 0)
	if err != nil {
		t.Fatal(err)
	}

	if s != `{"n":2.5,"list":[1,2]}` {
		t.Fatalf("unexpected encoding %s", s)
	}
}

func TestYAML(t *testing.T) {
	check(t, "return yaml.decode(\"name: xylo\nversion: 2\ntags: [a, b]\nok: true\nnothing: ~\n\")",
		map[string]any{"name": "xylo", "version": 2.0, "tags": []any{"a", "b"}, "ok": true, "nothing": nil})

	check(t, `return yaml.encode({name = "xylo", list = {1, 2.5}})`, "name: xylo\nlist:\n    - 1\n    - 2.5\n")
	check(t, `return yaml.decode("")`, nil)

	check(t, "local v = yaml.decode(\"base: &b {x: 1}\ncopy: *b\n\")\nreturn v.base == v.copy", true)

	failure(t, `yaml.decode("a: [")`, fault.Unknown)
}

func TestHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		w.Header().Set("X-Method", r.Method)

		switch r.URL.Path {
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/echo":
			_ = json.NewEncoder(w).Encode(map[string]string{
				"body":  string(body),
				"token": r.Header.Get("X-Token"),
				"type":  r.Header.Get("Content-Type"),
			})
		default:
			_, _ = io.WriteString(w, "hello")
		}
	}))
	defer server.Close()

	url := func(path string) string {
		return `"` + server.URL + path + `"`
	}

	check(t, `
local r = http.get(`+url("/")+`)
return {r.status, r.ok, r.body, r.headers["X-Method"]}`, []any{200.0, true, "hello", "GET"})

	check(t, `
local r = http.get(`+url("/missing")+`)
return {r.status, r.ok}`, []any{404.0, false})

	check(t, `
local r = http.post(`+url("/echo")+`, {n = 1}, {["X-Token"] = "t"})
return json.decode(r.body)`, map[string]any{"body": `{"n":1}`, "token": "t", "type": "application/json"})

	check(t, `
local r = http.post(`+url("/echo")+`, "plain")
return json.decode(r.body).type`, "text/plain; charset=utf-8")

	failure(t, `http.get("http://127.0.0.1:0/")`, fault.Unknown)
}
