package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDocx(t *testing.T, path string, paragraphs ...string) {
	t.Helper()

	var body bytes.Buffer
	body.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	body.WriteString(`<w:document xmlns:w="` + wordprocessingML + `"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
		xml.EscapeText(&body, []byte(p))
		body.WriteString(`</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)

	_, err = w.Write(body.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())
}

func TestLoadDocx(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "battery.docx")
	writeDocx(t, path,
		"Battery Troubleshooting",
		"   ",
		"",
		"  Check the power settings & drivers.  ",
		"Calibrate the battery.",
	)

	text, err := Load(path)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal("Battery Troubleshooting\nCheck the power settings & drivers.\nCalibrate the battery.", text)
}

func TestLoadDocxRunsAndTabs(t *testing.T) {
	assert := assert.New(t)

	input := `<w:document xmlns:w="` + wordprocessingML + `"><w:body>
		<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:tab/><w:t>world</w:t></w:r></w:p>
		<w:tbl><w:tr><w:tc><w:p><w:r><w:t>cell</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
	</w:body></w:document>`

	paragraphs, err := parseDocumentXML(bytes.NewReader([]byte(input)))
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal([]string{"Hello\tworld", "cell"}, paragraphs)
}

func TestLoadText(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "notes.TXT")
	err := os.WriteFile(path, []byte("first line\n\n   \n  second line  \nthird\n"), 0o644)
	require.NoError(t, err)

	text, err := Load(path)
	if err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal("first line\nsecond line\nthird", text)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "slides.pptx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := Load(path)
	assert.ErrorIs(err, ErrUnsupportedFormat)
	assert.False(Supported(path))
}

func TestLoadReadError(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.docx"))
	assert.ErrorIs(err, ErrRead)

	corrupt := filepath.Join(dir, "corrupt.docx")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a zip archive"), 0o644))

	_, err = Load(corrupt)
	assert.ErrorIs(err, ErrRead)
}

func TestExtensions(t *testing.T) {
	assert := assert.New(t)

	assert.Equal([]string{".docx", ".md", ".txt"}, Extensions())
	assert.True(Supported("Guide.DOCX"))
}
