package inverter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statusPage = "<html><head><script type=\"text/javascript\">\r\n" +
	"var webdata_sn = \"2306012345\";\r\n" +
	"var webdata_now_p = \"123\";\r\n" +
	"var webdata_today_e = \"3.40\";\r\n" +
	"var webdata_total_e = \"1534.7\";\r\n" +
	"var webdata_alarm = \"\";\r\n" +
	"var cover_mid = \"41523456\",\"AP\",1;\r\n" +
	"</script></head></html>\r\n"

func TestExtractVariable(t *testing.T) {
	lines := SplitLines(statusPage)

	v, ok := ExtractVariable(lines, "var webdata_now_p")
	require.True(t, ok)
	assert.Equal(t, "123", v)

	v, ok = ExtractVariable(lines, "var cover_mid")
	require.True(t, ok)
	assert.Equal(t, "AP", v, "second-to-last quoted segment wins")

	v, ok = ExtractVariable(lines, "var webdata_alarm")
	require.True(t, ok)
	assert.Equal(t, "", v)

	_, ok = ExtractVariable(lines, "var webdata_missing")
	assert.False(t, ok)
}

func TestExtractVariableMalformed(t *testing.T) {
	cases := map[string][]string{
		"no quotes":   {"var webdata_now_p = 123;"},
		"one quote":   {`var webdata_now_p = "123;`},
		"nil lines":   nil,
		"empty lines": {"", ""},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := ExtractVariable(lines, "var webdata_now_p")
			assert.False(t, ok)
		})
	}
}

func TestExtractVariableFirstMatchWins(t *testing.T) {
	lines := []string{`var a = "1";`, `var a = "2";`}
	v, ok := ExtractVariable(lines, "var a")
	require.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestParseWatt(t *testing.T) {
	w, ok := ParseWatt(statusPage)
	require.True(t, ok)
	assert.Equal(t, 123, w)

	for _, page := range []string{
		"",
		"   ",
		"var webdata_total_e = \"1.0\";",
		"var webdata_now_p = \"abc\";",
		"var webdata_now_p = \"12.5\";",
		"var webdata_now_p = \"-4\";",
	} {
		_, ok := ParseWatt(page)
		assert.False(t, ok, "page %q", page)
	}

	w, ok = ParseWatt("var webdata_now_p = \" 42 \";")
	require.True(t, ok)
	assert.Equal(t, 42, w)
}

func TestParseTotalKWh(t *testing.T) {
	kwh, ok := ParseTotalKWh(statusPage)
	require.True(t, ok)
	assert.InDelta(t, 1534.7, kwh, 1e-9)

	_, ok = ParseTotalKWh("var webdata_total_e = \"1,5\";")
	assert.False(t, ok)

	_, ok = ParseTotalKWh("var webdata_now_p = \"5\";")
	assert.False(t, ok)

	for _, raw := range []string{"NaN", "Inf", "-Inf", "+Infinity"} {
		_, ok = ParseTotalKWh("var webdata_total_e = \"" + raw + "\";")
		assert.False(t, ok, raw)
	}
}

func TestVariables(t *testing.T) {
	vars := Variables(statusPage)
	assert.Equal(t, "2306012345", vars["webdata_sn"])
	assert.Equal(t, "123", vars["webdata_now_p"])
	assert.Equal(t, "3.40", vars["webdata_today_e"])
	assert.Equal(t, "AP", vars["cover_mid"])
	assert.Contains(t, vars, "webdata_alarm")
	assert.Len(t, vars, 6)

	assert.Empty(t, Variables(""))
}
