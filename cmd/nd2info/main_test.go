package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"github.com/mdouchement/nd2"
	"github.com/mdouchement/nd2/internal/synth"
)

func writeFile(t *testing.T, broken bool) string {
	t.Helper()

	f := synth.NewFile(3, 0)
	f.Add(nd2.ChunkAttributes, synth.Attributes{Width: 3, Height: 2, Components: 1, SequenceCount: 2}.Encode())
	f.Add(nd2.ChunkExperiment, synth.TimeLoop("SLxExperiment", 2, 0, 100, 200))
	f.Add(nd2.ChunkTextInfo, synth.Level("SLxImageTextInfo", synth.String("Description", "two frames")))
	f.Add("ImageDataSeq|0!", synth.Frame(0, []uint16{0, 1, 2, 3, 4, 5}))
	if broken {
		f.Add("ImageDataSeq|1!", []byte{1})
	} else {
		f.Add("ImageDataSeq|1!", synth.Frame(100, []uint16{10, 11, 12, 13, 14, 15}))
	}

	path := filepath.Join(t.TempDir(), "sample.nd2")
	require.NoError(t, os.WriteFile(path, f.Bytes(), 0644))
	return path
}

func execute(args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), err
}

func TestInfo(t *testing.T) {
	out, err := execute("info", writeFile(t, false))
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.JSONEq(t, `"3.0"`, string(doc["version"]))
	assert.JSONEq(t, `{"P":1,"T":2,"C":1,"Z":1,"Y":2,"X":3}`, string(doc["sizes"]))
	assert.JSONEq(t, `["T","C"]`, string(doc["axis_order"]))
	assert.JSONEq(t, `{"description":"two frames"}`, string(doc["text_info"]))
	assert.Contains(t, string(doc["experiment"]), `"kind":"time"`)

	assert.True(t, strings.Index(out, `"version"`) < strings.Index(out, `"text_info"`))
}

func TestChunks(t *testing.T) {
	out, err := execute("chunks", writeFile(t, false))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "ImageAttributesLV!"))
}

func TestTree(t *testing.T) {
	path := writeFile(t, false)

	out, err := execute("tree", path, nd2.ChunkAttributes)
	require.NoError(t, err)
	assert.Contains(t, out, `"uiHeight": 2`)

	out, err = execute("tree", "-strip", path, nd2.ChunkAttributes)
	require.NoError(t, err)
	assert.Contains(t, out, `"Height": 2`)

	_, err = execute("tree", path, "Missing!")
	assert.True(t, nd2.IsNotFound(err))
}

func TestExport(t *testing.T) {
	path := writeFile(t, false)
	output := filepath.Join(t.TempDir(), "plane.tiff")

	out, err := execute("export", "-t", "1", "-o", output, path)
	require.NoError(t, err)
	assert.Contains(t, out, "3x2 plane")

	fd, err := os.Open(output)
	require.NoError(t, err)
	defer fd.Close()

	m, err := tiff.Decode(fd)
	require.NoError(t, err)
	gray, ok := m.(*image.Gray16)
	require.True(t, ok)
	assert.EqualValues(t, 15, gray.Gray16At(2, 1).Y)

	_, err = execute("export", "-t", "2", "-o", output, path)
	assert.True(t, nd2.IsOutOfRange(err))

	_, err = execute("export", path)
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	out, err := execute("verify", writeFile(t, false))
	require.NoError(t, err)
	assert.Equal(t, "OK 5 chunks\n", out)

	out, err = execute("verify", writeFile(t, true))
	assert.EqualError(t, err, "1 errors")
	assert.True(t, strings.HasPrefix(out, "FAIL frame 1"), out)
}

func TestUsage(t *testing.T) {
	_, err := execute()
	assert.Error(t, err)

	_, err = execute("bogus")
	assert.EqualError(t, err, fmt.Sprintf("unknown command %q", "bogus"))

	out, err := execute("help")
	require.NoError(t, err)
	assert.Contains(t, out, "nd2info info")

	_, err = execute("info")
	assert.EqualError(t, err, "info: missing arguments")
}
