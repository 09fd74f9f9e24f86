package peoplecard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDateMalformed(t *testing.T) {
	testCases := []string{
		"",
		" ",
		"01-05-2010",
		"01/05/2010",
		"01.05",
		"01.05.2010.1",
		"aa.05.2010",
		"01.bb.2010",
		"01.05.cccc",
		"..",
		"01..2010",
		"+1.05.2010",
		"-1.05.2010",
		"00.05.2010",
		"01.13.2010",
		"31.02.2010",
		"01.05.0000",
		"1 .05.2010",
	}

	for _, raw := range testCases {
		require.Equal(t, MinDate, ParseDate(raw), "input %q", raw)
		require.True(t, IsUnknownDate(ParseDate(raw)))
	}
}

func TestParseDateRoundTrip(t *testing.T) {
	testCases := []string{
		"01.05.2010",
		"29.02.2024",
		"31.12.1999",
		"15.07.1987",
		"09.09.2009",
	}

	for _, raw := range testCases {
		parsed := ParseDate(raw)
		require.False(t, IsUnknownDate(parsed))
		require.Equal(t, raw, FormatDate(parsed))
	}
}

func TestParseDateValue(t *testing.T) {
	require.Equal(
		t,
		time.Date(2010, time.May, 1, 0, 0, 0, 0, time.UTC),
		ParseDate(" 01.05.2010\n"),
	)
	// unpadded components are accepted, rendering pads them
	require.Equal(t, "02.03.2004", FormatDate(ParseDate("2.3.2004")))
}

func TestFormatUnknownDate(t *testing.T) {
	require.Equal(t, "01.01.0001", FormatDate(MinDate))
	require.Equal(t, "01.01.0001", FormatDate(time.Time{}))
}

func TestParseGender(t *testing.T) {
	require.Equal(t, GENDER_MALE, ParseGender(true))
	require.Equal(t, GENDER_FEMALE, ParseGender(false))

	var zero Gender
	require.Equal(t, GENDER_FEMALE, zero)
	require.Equal(t, "Male", GENDER_MALE.String())
	require.Equal(t, "Female", GENDER_FEMALE.String())
}

func TestParseChecked(t *testing.T) {
	testCases := []struct {
		value    string
		present  bool
		expected bool
	}{
		{value: "checked", present: true, expected: true},
		{value: "", present: true, expected: true},
		{value: "true", present: true, expected: true},
		{value: "false", present: true, expected: false},
		{value: "checked", present: false, expected: false},
		{value: "", present: false, expected: false},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, ParseChecked(test.value, test.present), "%+v", test)
	}
}

func TestCitizenshipLabels(t *testing.T) {
	var zero Citizenship
	require.Equal(t, CITIZENSHIP_UNDEFINED, zero)
	require.Equal(t, "Undefined", zero.String())
	require.Equal(t, "Укажите тип гражданства", zero.Caption())
	require.Equal(t, "StatelessPerson", CITIZENSHIP_STATELESS.String())
	require.Equal(t, "Undefined", Citizenship(99).String())
}
