package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimpleLogger_JSONOutputIncludesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(WithWriter(&buf), WithJSON(true), WithLevel("debug"))

	log.Info("job started", map[string]interface{}{"job_id": "abc"})

	var parsed map[string]interface{}
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "job started", parsed["msg"])
	assert.Equal(t, "abc", parsed["job_id"])
	assert.Equal(t, "info", parsed["level"])
}

func TestSimpleLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(WithWriter(&buf), WithLevel("warn"))

	log.Debug("should be dropped", nil)
	log.Info("should be dropped too", nil)
	log.Warn("should appear", nil)

	out := buf.String()
	assert.NotContains(t, out, "should be dropped")
	assert.Contains(t, out, "should appear")
}

func TestSimpleLogger_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(WithWriter(&buf), WithJSON(false), WithLevel("debug"))

	log.Error("disk full", map[string]interface{}{"path": "/data"})

	out := buf.String()
	assert.True(t, strings.Contains(out, "[error]"))
	assert.True(t, strings.Contains(out, "disk full"))
	assert.True(t, strings.Contains(out, "path=/data"))
}

func TestSimpleLogger_WithMergesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(WithWriter(&buf), WithJSON(true), WithLevel("debug"))
	child := log.With(map[string]interface{}{"job_id": "abc"})

	child.Info("phase advanced", map[string]interface{}{"phase": "p1"})

	var parsed map[string]interface{}
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "abc", parsed["job_id"])
	assert.Equal(t, "p1", parsed["phase"])
}

func TestNoOp_NeverPanics(t *testing.T) {
	var log Logger = NoOp{}
	assert.NotPanics(t, func() {
		log.Debug("x", nil)
		log.Info("x", nil)
		log.Warn("x", nil)
		log.Error("x", nil)
		log.With(map[string]interface{}{"a": 1}).Info("y", nil)
	})
}
