package toml

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebugAndDebugTable(t *testing.T) {
	v := Int(42)
	assert.Contains(t, Debug(v), "42")

	tbl := NewTable()
	tbl.Set("n", Int(42))
	assert.Contains(t, DebugTable(tbl), "42")
}

func TestDecoderSetLoggerEmitsTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)

	dec := NewDecoder("a = 1\n")
	dec.SetLogger(logger)
	_, err := dec.Decode()
	require.NoError(t, err)
	assert.NotEmpty(t, buf.String())
}

func TestEncoderSetLoggerEmitsTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)

	e := NewEncoder()
	e.SetLogger(logger)
	root := NewTable()
	root.Set("a", Int(1))
	_, err := e.Encode(root)
	require.NoError(t, err)
	assert.NotEmpty(t, buf.String())
}
