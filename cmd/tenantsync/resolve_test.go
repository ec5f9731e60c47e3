package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runResolve(t *testing.T, args ...string) resolveResult {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(append([]string{"resolve"}, args...))
	require.NoError(t, cmd.Execute())

	var res resolveResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	return res
}

func TestResolveCommand(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		id        string
		subdomain string
		explicit  bool
		valid     bool
	}{
		{name: "subdomain", args: []string{"--host", "shop1.example.com:8080"}, id: "shop1", subdomain: "shop1", explicit: true, valid: true},
		{name: "marker path", args: []string{"--path", "/market/shop7/payments"}, id: "shop7", explicit: true, valid: true},
		{name: "header wins", args: []string{"--host", "shop1.example.com", "--header", "X-Tenant-ID: Acme"}, id: "Acme", explicit: true, valid: true},
		{name: "default", args: nil, id: "default", valid: true},
		{name: "invalid id", args: []string{"--header", "X-Tenant: a_b"}, id: "a_b", explicit: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runResolve(t, tt.args...)
			assert.Equal(t, tt.id, res.ID)
			assert.Equal(t, tt.subdomain, res.Subdomain)
			assert.Equal(t, tt.explicit, res.Explicit)
			assert.Equal(t, tt.valid, res.Valid)
		})
	}
}

func TestResolveCommand_BadHeader(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"resolve", "--header", "no-colon"})
	assert.Error(t, cmd.Execute())
}
