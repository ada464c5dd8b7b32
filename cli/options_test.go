package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingOpts struct {
	Host  string `chaconne:"pos=0"`
	Count int    `chaconne:"key=count"`
	Quiet bool   `chaconne:"key=quiet"`
}

func TestOptionSpecBindsPositionalAndKeyword(t *testing.T) {
	spec := NewOptionSpec(&pingOpts{})
	frame := &MatchFrame{
		Argv:     []string{"example.com"},
		Keywords: map[string]string{"count": "5", "quiet": ""},
	}

	bound, err := spec.Bind(frame)
	require.NoError(t, err)

	opts := bound.(*pingOpts)
	assert.Equal(t, "example.com", opts.Host)
	assert.Equal(t, 5, opts.Count)
	assert.True(t, opts.Quiet, "a bare keyword with no value should set a bool field true")
}

func TestOptionSpecLeavesUnsetFieldsZero(t *testing.T) {
	spec := NewOptionSpec(&pingOpts{})
	frame := &MatchFrame{Argv: nil, Keywords: map[string]string{}}

	bound, err := spec.Bind(frame)
	require.NoError(t, err)

	opts := bound.(*pingOpts)
	assert.Equal(t, "", opts.Host)
	assert.Equal(t, 0, opts.Count)
	assert.False(t, opts.Quiet)
}

type varargOpts struct {
	Rest []string `chaconne:",vararg"`
}

func TestOptionSpecBindsVararg(t *testing.T) {
	spec := NewOptionSpec(&varargOpts{})
	frame := &MatchFrame{Keywords: map[string]string{}, Vararg: []string{"a", "b", "c"}}

	bound, err := spec.Bind(frame)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, bound.(*varargOpts).Rest)
}

func TestNewOptionSpecPanicsOnNonStructPointer(t *testing.T) {
	assert.Panics(t, func() {
		NewOptionSpec("not a pointer to struct")
	})
}
