package rewardctx

import (
	"testing"

	"github.com/dmitrijs2005/psicash/internal/common"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	emptyContextEncoded = "%7B%22metadata%22%3A%7B%7D%2C%22tokens%22%3Anull%2C%22v%22%3A1%7D"
	earner              = "kEarnerTokenType"
)

func ptr(s string) *string { return &s }

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestMarshal(t *testing.T) {
	tests := []struct {
		name string
		c    Context
		want string
	}{
		{"empty", Context{}, `{"metadata":{},"tokens":null,"v":1}`},
		{"metadata", Context{Metadata: map[string]string{"k": "v"}}, `{"metadata":{"k":"v"},"tokens":null,"v":1}`},
		{"token", Context{Metadata: map[string]string{}, Tokens: ptr(earner)}, `{"metadata":{},"tokens":"kEarnerTokenType","v":1}`},
		{
			"sorted keys",
			Context{Metadata: map[string]string{"b": "2", "a": "1", "c": "3"}},
			`{"metadata":{"a":"1","b":"2","c":"3"},"tokens":null,"v":1}`,
		},
		{"no html escaping", Context{Metadata: map[string]string{"u": "<a&b>"}}, `{"metadata":{"u":"<a&b>"},"tokens":null,"v":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Marshal(tt.c)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshal_IsDeterministic(t *testing.T) {
	c := Context{Metadata: map[string]string{}, Tokens: ptr(earner)}
	for i := 0; i < 50; i++ {
		c.Metadata[string(rune('a'+i%26))+string(rune('A'+i/26))] = "x"
	}
	first, err := Marshal(c)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Marshal(c)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestMarshal_Golden(t *testing.T) {
	got, err := Marshal(Context{
		Metadata: map[string]string{
			"z": "<a&b>",
			"a": "line\u2028sep\u2029end",
			"é": "ü",
			"B": `q"uote`,
		},
		Tokens: ptr("tok"),
	})
	require.NoError(t, err)
	newGoldie(t).Assert(t, "canonical_escaping", got)
}

func TestUnescapeLineSeparators(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`"plain"`, `"plain"`},
		{`"a\u2028b"`, "\"a\u2028b\""},
		{`"a\u2029b"`, "\"a\u2029b\""},
		{`"a\\u2028b"`, `"a\\u2028b"`},
		{`"a\\\u2028b"`, "\"a\\\\\u2028b\""},
		{`"a\u0001b"`, `"a\u0001b"`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, string(unescapeLineSeparators([]byte(tt.in))), tt.in)
	}
}

func TestActivityData(t *testing.T) {
	_, err := ActivityData(Context{})
	assert.ErrorIs(t, err, common.ErrNoValidTokens)

	_, err = ActivityData(Context{Tokens: ptr("")})
	assert.ErrorIs(t, err, common.ErrNoValidTokens)

	got, err := ActivityData(Context{Metadata: map[string]string{}, Tokens: ptr(earner)})
	require.NoError(t, err)
	assert.Equal(t, "eyJtZXRhZGF0YSI6e30sInRva2VucyI6ImtFYXJuZXJUb2tlblR5cGUiLCJ2IjoxfQ==", got)

	got, err = ActivityData(Context{Metadata: map[string]string{"k": "v"}, Tokens: ptr(earner)})
	require.NoError(t, err)
	assert.Equal(t, "eyJtZXRhZGF0YSI6eyJrIjoidiJ9LCJ0b2tlbnMiOiJrRWFybmVyVG9rZW5UeXBlIiwidiI6MX0=", got)
}

func TestModifyLandingPage(t *testing.T) {
	pair := "psicash=" + emptyContextEncoded
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare host", "https://asdf.sadf.gf", "https://asdf.sadf.gf#" + pair},
		{"query", "https://asdf.sadf.gf?gfaf=asdf", "https://asdf.sadf.gf?gfaf=asdf#" + pair},
		{"path and query", "https://asdf.sadf.gf/asdfilj/adf?gfaf=asdf", "https://asdf.sadf.gf/asdfilj/adf?gfaf=asdf#" + pair},
		{"file and query", "https://asdf.sadf.gf/asdfilj/adf.html?gfaf=asdf", "https://asdf.sadf.gf/asdfilj/adf.html?gfaf=asdf#" + pair},
		{"fragment", "https://asdf.sadf.gf/asdfilj/adf.html#regffd", "https://asdf.sadf.gf/asdfilj/adf.html?" + pair + "#regffd"},
		{
			"query and fragment",
			"https://asdf.sadf.gf/asdfilj/adf.html?adfg=asdf&vfjnk=fadjn#regffd",
			"https://asdf.sadf.gf/asdfilj/adf.html?adfg=asdf&vfjnk=fadjn&" + pair + "#regffd",
		},
		{"empty fragment", "https://asdf.sadf.gf/x#", "https://asdf.sadf.gf/x#" + pair},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ModifyLandingPage(tt.in, Context{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModifyLandingPage_WithMetadataAndToken(t *testing.T) {
	got, err := ModifyLandingPage(
		"https://asdf.sadf.gf/asdfilj/adf.html?adfg=asdf&vfjnk=fadjn#regffd",
		Context{Metadata: map[string]string{"k": "v"}, Tokens: ptr(earner)},
	)
	require.NoError(t, err)
	newGoldie(t).Assert(t, "landing_page_with_metadata", []byte(got))
}

func TestModifyLandingPage_Errors(t *testing.T) {
	for _, in := range []string{"#$%^&", "", "not a url", "/relative/path", "https://"} {
		_, err := ModifyLandingPage(in, Context{})
		assert.ErrorIs(t, err, common.ErrURLParse, in)
	}
}

func TestEncode(t *testing.T) {
	assert.Equal(t, "a%20b%2Bc", Encode("a b+c"))
	assert.Equal(t, "AZaz09-_.~", Encode("AZaz09-_.~"))
	assert.Equal(t, "%C3%A9%2F%3F%26%3D", Encode("é/?&="))
}
