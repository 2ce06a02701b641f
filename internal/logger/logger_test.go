package logger

import (
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, log.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, log.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, log.InfoLevel, ParseLevel("nonsense"))
	assert.Equal(t, log.InfoLevel, ParseLevel(""))
}

func TestNewUsesGlobalLevel(t *testing.T) {
	prev := log.GetLevel()
	t.Cleanup(func() { log.SetLevel(prev) })

	SetLevel("error")
	l := New("test")
	assert.Equal(t, log.ErrorLevel, l.GetLevel())
	assert.Equal(t, "test", l.GetPrefix())
}
