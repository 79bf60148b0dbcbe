package htmlutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestGetText(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(
		`<div>שם קורס: <strong>ציון: 85</strong><span> נ"ז 3</span></div>`,
	))
	if err != nil {
		t.Fatal(err)
	}

	text := GetText(doc)
	require.Contains(t, text, "ציון: 85")
	require.Contains(t, text, `נ"ז 3`)
}

func TestCleanText(t *testing.T) {
	require.Equal(t, "ציון: 90", CleanText("  ציון:   90\n\t"))
	require.Equal(t, "", CleanText("\n\t "))
}
