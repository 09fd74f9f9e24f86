package restyutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	mutex    sync.Mutex
	ids      []string
	messages map[string]string
}

func (o *memoryOutput) Write(id, contents string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if o.messages == nil {
		o.messages = map[string]string{}
	}
	o.ids = append(o.ids, id)
	o.messages[id] = contents
}

func TestMessageId(t *testing.T) {
	require.Equal(t, "0003_person.aspx.txt", messageId(3, "https://example.com/dnevnik/person.aspx?person=42"))
	require.Equal(t, "0001_index.txt", messageId(1, "https://example.com/"))
	require.Equal(t, "0012_a-b.txt", messageId(12, "https://example.com/a%20b"))
}

func TestRedactForm(t *testing.T) {
	require.Equal(
		t,
		"login=%3Credacted%3E&password=%3Credacted%3E&remember=on",
		redactForm("login=teacher%40example.com&password=hunter2&remember=on"),
	)
	require.Equal(t, "", redactForm(""))
}

func TestFormatHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Add("Cookie", "session=abc")
	headers.Add("Accept", "text/html")
	require.Equal(t, "Accept: text/html\nCookie: <redacted>", formatHeaders(headers))
}

func TestInstrumentClient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "secret-session"})
		fmt.Fprintf(w, "<p>%s</p>", r.URL.Path)
	}))
	t.Cleanup(ts.Close)

	output := &memoryOutput{}
	client := resty.New()
	InstrumentClient(client, output)

	_, err := client.R().Get(ts.URL + "/dnevnik/people")
	require.NoError(t, err)
	_, err = client.R().
		SetFormData(map[string]string{"login": "teacher@example.com", "password": "hunter2"}).
		Post(ts.URL + "/esia/submit")
	require.NoError(t, err)

	require.Equal(t, []string{"0001_people.txt", "0002_submit.txt"}, output.ids)

	first := output.messages["0001_people.txt"]
	require.Contains(t, first, "GET "+ts.URL+"/dnevnik/people")
	require.Contains(t, first, "<p>/dnevnik/people</p>")
	require.Contains(t, first, "Set-Cookie: <redacted>")
	require.NotContains(t, first, "secret-session")

	second := output.messages["0002_submit.txt"]
	require.Contains(t, second, "POST "+ts.URL+"/esia/submit")
	require.NotContains(t, second, "hunter2")
	require.NotContains(t, second, "teacher@example.com")
}

func TestInstrumentClientNilOutput(t *testing.T) {
	client := resty.New()
	InstrumentClient(client, nil)
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dump")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.txt"), []byte("old"), 0o600))

	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)
	require.Equal(t, dir, output.Directory())

	output.Write("0001_index.txt", "contents")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	contents, err := os.ReadFile(filepath.Join(dir, "0001_index.txt"))
	require.NoError(t, err)
	require.Equal(t, "contents", string(contents))
}
