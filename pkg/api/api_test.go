package api

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemonberrylabs/tscript/pkg/dispatch"
	"github.com/lemonberrylabs/tscript/pkg/lexer"
	"github.com/lemonberrylabs/tscript/pkg/stdlib"
	"github.com/lemonberrylabs/tscript/pkg/store"
)

func setupTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	s := store.New(lexer.DefaultTokenizer(), dispatch.MustNewTable(), stdlib.NewRegistry(), nil)
	return New(s, Config{}), s
}

func doJSON(t *testing.T, srv *Server, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	return resp.StatusCode, out
}

func TestTokenize(t *testing.T) {
	srv, _ := setupTestServer(t)

	code, body := doJSON(t, srv, "POST", "/v1/tokenize", `{"source": "x = 1h + 12:30"}`)
	require.Equal(t, 200, code)

	toks := body["tokens"].([]interface{})
	var got []string
	for _, tok := range toks {
		got = append(got, tok.(map[string]interface{})["type"].(string))
	}
	assert.Equal(t, []string{"IDENT", "ASSIGN", "DURATION", "PLUS", "TIME", "EOF"}, got)

	dur := toks[2].(map[string]interface{})
	assert.Equal(t, "1h", dur["lexeme"])
	assert.Equal(t, "duration", dur["kind"])
	assert.EqualValues(t, 1, dur["line"])
	assert.EqualValues(t, 4, dur["offset"])
}

func TestTokenizeRequiresSource(t *testing.T) {
	srv, _ := setupTestServer(t)

	code, body := doJSON(t, srv, "POST", "/v1/tokenize", `{}`)
	assert.Equal(t, 400, code)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "INVALID_ARGUMENT", errBody["status"])
	assert.Equal(t, "source is required", errBody["message"])
}

func TestEval(t *testing.T) {
	srv, st := setupTestServer(t)

	code, body := doJSON(t, srv, "POST", "/v1/eval", `{"source": "a = 'foo' + 3\nb = 3 + 'foo'\nc = a - 1"}`)
	require.Equal(t, 200, code)

	results := body["results"].([]interface{})
	require.Len(t, results, 3)
	first := results[0].(map[string]interface{})
	assert.Equal(t, "foo3", first["value"].(map[string]interface{})["value"])
	second := results[1].(map[string]interface{})
	assert.Equal(t, "3foo", second["value"].(map[string]interface{})["value"])
	third := results[2].(map[string]interface{})
	assert.Contains(t, third["error"], "unsupported operand types for -: 'str' and 'int'")
	assert.Contains(t, body["error"], "line 3")

	vars := body["variables"].(map[string]interface{})
	assert.Contains(t, vars, "a")
	assert.NotContains(t, vars, "c")

	assert.Equal(t, 0, st.Len(), "eval leaves no session behind")
}

func TestSessionLifecycle(t *testing.T) {
	srv, _ := setupTestServer(t)

	code, created := doJSON(t, srv, "POST", "/v1/sessions", "")
	require.Equal(t, 201, code)
	id := created["id"].(string)
	require.NotEmpty(t, id)

	code, body := doJSON(t, srv, "POST", "/v1/sessions/"+id+"/exec", `{"source": "o = box('o', 1)\no = 5\nn = 1 + o"}`)
	require.Equal(t, 200, code)
	assert.NotContains(t, body, "error")

	code, body = doJSON(t, srv, "POST", "/v1/sessions/"+id+"/exec", `{"source": "n * 2"}`)
	require.Equal(t, 200, code)
	res := body["results"].([]interface{})[0].(map[string]interface{})
	assert.EqualValues(t, 12, res["value"].(map[string]interface{})["value"])

	code, body = doJSON(t, srv, "GET", "/v1/sessions/"+id, "")
	require.Equal(t, 200, code)
	vars := body["variables"].(map[string]interface{})
	o := vars["o"].(map[string]interface{})
	assert.Equal(t, "object", o["type"])
	assert.EqualValues(t, 5, o["value"])
	info := body["session"].(map[string]interface{})
	assert.EqualValues(t, 4, info["statements"])

	code, body = doJSON(t, srv, "GET", "/v1/sessions", "")
	require.Equal(t, 200, code)
	assert.Len(t, body["sessions"], 1)

	code, _ = doJSON(t, srv, "DELETE", "/v1/sessions/"+id, "")
	assert.Equal(t, 200, code)

	code, body = doJSON(t, srv, "GET", "/v1/sessions/"+id, "")
	assert.Equal(t, 404, code)
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]interface{})["status"])

	code, _ = doJSON(t, srv, "POST", "/v1/sessions/"+id+"/exec", `{"source": "1"}`)
	assert.Equal(t, 404, code)
}

func TestSessionLimit(t *testing.T) {
	srv, st := setupTestServer(t)
	st.MaxSessions = 1

	code, _ := doJSON(t, srv, "POST", "/v1/sessions", "")
	require.Equal(t, 201, code)
	code, body := doJSON(t, srv, "POST", "/v1/sessions", "")
	assert.Equal(t, 429, code)
	assert.Equal(t, "RESOURCE_EXHAUSTED", body["error"].(map[string]interface{})["status"])

	code, body = doJSON(t, srv, "POST", "/v1/eval", `{"source": "1"}`)
	assert.Equal(t, 429, code, "eval needs a session too")
	assert.Equal(t, "RESOURCE_EXHAUSTED", body["error"].(map[string]interface{})["status"])
}

func TestOperators(t *testing.T) {
	srv, st := setupTestServer(t)

	code, body := doJSON(t, srv, "GET", "/v1/operators", "")
	require.Equal(t, 200, code)
	ops := body["operators"].([]interface{})
	require.Len(t, ops, dispatch.NumOps)
	add := ops[0].(map[string]interface{})
	assert.Equal(t, "ADD", add["name"])
	assert.Equal(t, "+", add["symbol"])
	assert.EqualValues(t, 10, add["handlers"])
	assert.EqualValues(t, st.Table().Handlers(), body["handlers"])
}

func TestOperatorGrid(t *testing.T) {
	srv, _ := setupTestServer(t)

	code, body := doJSON(t, srv, "GET", "/v1/operators/add/grid", "")
	require.Equal(t, 200, code)
	assert.Equal(t, "ADD", body["operator"])

	kinds := body["kinds"].([]interface{})
	require.Len(t, kinds, 8)
	assert.Equal(t, "any", kinds[0])

	rows := body["rows"].(map[string]interface{})
	intRow := rows["int"].([]interface{})
	// right operand int: left str concatenates, left object keeps its box.
	assert.Equal(t, "cat", intRow[4])
	assert.Equal(t, "box_left", intRow[6])
	objRow := rows["object"].([]interface{})
	assert.Equal(t, "unbox_right", objRow[1])

	code, _ = doJSON(t, srv, "GET", "/v1/operators/NOPE/grid", "")
	assert.Equal(t, 404, code)
}
