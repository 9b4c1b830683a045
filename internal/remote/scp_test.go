package remote

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acks(n int) *bytes.Reader { return bytes.NewReader(make([]byte, n)) }

func TestSCPSendFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/dist/cotta-1.0b6.jar", []byte("PK\x03\x04"), 0o644))

	var out bytes.Buffer
	require.NoError(t, newSCPSender(fs, &out, acks(3)).Send("/dist/cotta-1.0b6.jar"))
	assert.Equal(t, "C0644 4 cotta-1.0b6.jar\nPK\x03\x04\x00", out.String())
}

func TestSCPSendDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/build/report/index.html", []byte("<html>"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/build/report/css/site.css", []byte("a{}"), 0o600))
	require.NoError(t, fs.Chmod("/build/report", 0o755))
	require.NoError(t, fs.Chmod("/build/report/css", 0o750))

	var out bytes.Buffer
	// start, D, D, C hdr, C data, E, C hdr, C data, E
	require.NoError(t, newSCPSender(fs, &out, acks(9)).Send("/build/report"))
	assert.Equal(t, "D0755 0 report\n"+
		"D0750 0 css\n"+
		"C0600 3 site.css\na{}\x00"+
		"E\n"+
		"C0644 6 index.html\n<html>\x00"+
		"E\n", out.String())
}

func TestSCPRemoteError(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/f.jar", []byte("x"), 0o644))

	var out bytes.Buffer
	resp := strings.NewReader("\x00\x01scp: /nope/f.jar: No such file or directory\n")
	err := newSCPSender(fs, &out, resp).Send("/f.jar")
	require.Error(t, err)

	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.False(t, pe.Fatal)
	assert.Equal(t, "scp: /nope/f.jar: No such file or directory", pe.Message)
}

func TestSCPUnexpectedResponse(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/f.jar", []byte("x"), 0o644))
	err := newSCPSender(fs, &bytes.Buffer{}, strings.NewReader("?")).Send("/f.jar")
	require.Error(t, err)

	err = newSCPSender(fs, &bytes.Buffer{}, strings.NewReader("")).Send("/f.jar")
	require.Error(t, err)
}

func TestSCPCommand(t *testing.T) {
	assert.Equal(t, "scp -t '/htdocs/builds/cotta-1.0b6.jar'", scpCommand("/htdocs/builds/cotta-1.0b6.jar", false))
	assert.Equal(t, "scp -r -t '/htdocs/reports/1.0'", scpCommand("/htdocs/reports/1.0", true))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
}
