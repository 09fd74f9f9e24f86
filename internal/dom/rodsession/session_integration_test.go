//go:build integration

package rodsession_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"peoplecards/internal/components/telemetry"
	"peoplecards/internal/dom"
	"peoplecards/internal/dom/rodsession"

	"github.com/stretchr/testify/require"
)

func TestSessionAgainstChrome(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<div id="personal">
				<input id="last" value="Ivanov">
				<input id="sexM" type="radio" checked="checked">
				<div id="notes"> notes </div>
			</div>
			<table><tr><th>h</th></tr><tr><td>1</td><td><a href="/p?person=42">open</a></td></tr></table>
		</body></html>`)
	}))
	defer ts.Close()

	cfg := rodsession.DefaultConfig()
	cfg.Headless = true
	cfg.NavigationTimeoutMs = 10000

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	session, err := rodsession.Launch(ctx, cfg, &telemetry.Recorder{})
	require.NoError(t, err, "failed to start browser")
	defer session.Close()

	require.NoError(t, session.NavigateTo(ctx, ts.URL))

	current, err := session.CurrentURL()
	require.NoError(t, err)
	require.Contains(t, current, ts.URL)

	personal, err := session.FindOne(nil, "#personal")
	require.NoError(t, err)

	last, err := session.FindOne(personal, "#last")
	require.NoError(t, err)
	value, err := session.ReadValue(last)
	require.NoError(t, err)
	require.Equal(t, "Ivanov", value)

	byXPath, err := session.FindOne(personal, ".//input[@id='last']")
	require.NoError(t, err)
	value, err = session.ReadValue(byXPath)
	require.NoError(t, err)
	require.Equal(t, "Ivanov", value)

	_, err = session.FindOne(personal, "#does-not-exist")
	require.ErrorIs(t, err, dom.ErrNotFound)

	sex, err := session.FindOne(personal, "#sexM")
	require.NoError(t, err)
	_, checked, err := session.ReadAttribute(sex, "checked")
	require.NoError(t, err)
	require.True(t, checked)

	rows, err := session.FindAll(nil, "tr")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NoError(t, session.Close())
	require.NoError(t, session.Close())
}
