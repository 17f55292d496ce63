package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/psicash"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, fn func(ctx context.Context, pc *psicash.PsiCash)) string {
	t.Helper()
	dir := t.TempDir()
	ctx := context.Background()
	pc := psicash.New()
	require.NoError(t, pc.Init(ctx, dir, nil))
	if fn != nil {
		fn(ctx, pc)
	}
	require.NoError(t, pc.Close())
	return dir
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func decode(t *testing.T, s string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(s), &resp))
	return resp
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "psicash", cmd.Use)

	for _, name := range []string{
		"diag", "balance", "tokens", "purchases", "next-expiring", "expire",
		"remove", "set-metadata", "landing-page", "activity-data",
	} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "o", formatFlag.Shorthand)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestDiag_JSON(t *testing.T) {
	dir := seed(t, nil)

	code, out, _ := run(t, "--data-dir", dir, "-o", "json", "diag")
	require.Equal(t, ExitSuccess, code)

	resp := decode(t, out)
	assert.Equal(t, "ok", resp.Status)
	b, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"balance":0,"isAccount":false,"purchasePrices":[],"purchases":[],"serverTimeDiff":0,"validTokenTypes":[]}`, string(b))
}

func TestBalance_Text(t *testing.T) {
	dir := seed(t, func(ctx context.Context, pc *psicash.PsiCash) {
		require.NoError(t, pc.SetBalance(ctx, 42))
	})

	code, out, _ := run(t, "--data-dir", dir, "balance")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "balance: 42\naccount: false\n", out)
}

func TestTokens(t *testing.T) {
	dir := seed(t, func(ctx context.Context, pc *psicash.PsiCash) {
		require.NoError(t, pc.SetAuthTokens(ctx, psicash.AuthTokens{
			psicash.TokenTypeSpender: "s",
			psicash.TokenTypeEarner:  "e",
		}, false))
	})

	code, out, _ := run(t, "--data-dir", dir, "tokens")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "earner\nspender\n", out)
}

func TestPurchasesAndExpire(t *testing.T) {
	past := time.Now().Add(-time.Hour).UTC()
	future := time.Now().Add(time.Hour).UTC()
	expiredID, liveID := uuid.NewString(), uuid.NewString()

	dir := seed(t, func(ctx context.Context, pc *psicash.PsiCash) {
		require.NoError(t, pc.SetPurchases(ctx, []psicash.Purchase{
			{ID: expiredID, TransactionClass: "speed-boost", Distinguisher: "1hr", ServerExpiry: &past},
			{ID: liveID, TransactionClass: "speed-boost", Distinguisher: "2hr", ServerExpiry: &future},
		}))
	})

	code, out, _ := run(t, "--data-dir", dir, "purchases", "--valid")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, liveID)
	assert.NotContains(t, out, expiredID)

	code, out, _ = run(t, "--data-dir", dir, "-o", "json", "expire")
	require.Equal(t, ExitSuccess, code)
	resp := decode(t, out)
	items, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, expiredID, items[0].(map[string]any)["id"])

	code, out, _ = run(t, "--data-dir", dir, "purchases")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, liveID)

	code, out, _ = run(t, "--data-dir", dir, "next-expiring")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, liveID)

	code, out, _ = run(t, "--data-dir", dir, "remove", liveID)
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "no purchases\n", out)

	code, out, _ = run(t, "--data-dir", dir, "next-expiring")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "no expiring purchases\n", out)
}

func TestSetMetadataAndLandingPage(t *testing.T) {
	dir := seed(t, nil)

	code, _, _ := run(t, "--data-dir", dir, "set-metadata", "k", "v")
	require.Equal(t, ExitSuccess, code)

	code, out, _ := run(t, "--data-dir", dir, "landing-page", "https://a.b/")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t,
		"https://a.b/#psicash=%7B%22metadata%22%3A%7B%22k%22%3A%22v%22%7D%2C%22tokens%22%3Anull%2C%22v%22%3A1%7D\n",
		out)
}

func TestActivityData(t *testing.T) {
	dir := seed(t, nil)

	code, _, errOut := run(t, "--data-dir", dir, "-o", "json", "activity-data")
	assert.Equal(t, ExitFailure, code)
	resp := decode(t, errOut)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "no_valid_tokens", resp.Error.Code)

	dir = seed(t, func(ctx context.Context, pc *psicash.PsiCash) {
		require.NoError(t, pc.SetAuthTokens(ctx, psicash.AuthTokens{psicash.TokenTypeEarner: "kEarnerTokenType"}, false))
	})
	code, out, _ := run(t, "--data-dir", dir, "activity-data")
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, "eyJtZXRhZGF0YSI6e30sInRva2VucyI6ImtFYXJuZXJUb2tlblR5cGUiLCJ2IjoxfQ==\n", out)
}

func TestErrors(t *testing.T) {
	dir := seed(t, nil)

	tests := []struct {
		name    string
		args    []string
		code    int
		errText string
	}{
		{"bad url", []string{"--data-dir", dir, "landing-page", "#$%^&"}, ExitFailure, "url_parse_error"},
		{"empty metadata key", []string{"--data-dir", dir, "set-metadata", "", "v"}, ExitFailure, "invalid_argument"},
		{"deep missing dir", []string{"--data-dir", filepath.Join(t.TempDir(), "a", "b", "c"), "balance"}, ExitCommandError, "storage_unavailable"},
		{"bad format", []string{"--data-dir", dir, "-o", "yaml", "balance"}, ExitCommandError, "unknown format"},
		{"unknown command", []string{"frobnicate"}, ExitCommandError, "unknown command"},
		{"missing args", []string{"--data-dir", dir, "remove"}, ExitCommandError, "arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := run(t, tt.args...)
			assert.Equal(t, tt.code, code)
			assert.Contains(t, errOut, tt.errText)
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("boom")))
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "x", errors.New("y"))))
}

func TestOutputFormatter_Indent(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf, Indent: true}
	require.NoError(t, f.Success(map[string]int{"a": 1}, nil))
	assert.Equal(t, "{\n  \"status\": \"ok\",\n  \"data\": {\n    \"a\": 1\n  }\n}\n", buf.String())

	assert.False(t, NewOutputFormatter("json", &buf).Indent)
}
