package htmlutil

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestGetNormalizedText(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<div id="notes">
		Some   notes
		<script>var a = 1;</script>
		<b>about</b>	the person
	</div>`))
	require.NoError(t, err)

	require.Equal(t, "Some notes about the person", GetNormalizedText(doc))
}

func TestNormalizeText(t *testing.T) {
	require.Equal(t, "", NormalizeText("  \n\t "))
	require.Equal(t, "a b", NormalizeText("a   b"))
	require.Equal(t, "Иванов Иван", NormalizeText(" Иванов\n\n Иван "))
}

func TestResolveHref(t *testing.T) {
	base, err := url.Parse("https://schools.example.org/admin/persons/list.aspx?page=2")
	require.NoError(t, err)

	link, err := ResolveHref(base, "person.aspx?person=42&school=7")
	require.NoError(t, err)
	require.Equal(t, "https://schools.example.org/admin/persons/person.aspx?person=42&school=7", link.String())

	link, err = ResolveHref(nil, "/a?b=c")
	require.NoError(t, err)
	require.Equal(t, "/a?b=c", link.String())
}
