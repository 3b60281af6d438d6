package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAddr(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{"host and port", "127.0.0.1:5000", false},
		{"all interfaces", "0.0.0.0:5000", false},
		{"port only", ":8080", false},
		{"localhost", "localhost:3400", false},
		{"auto-assign port", "127.0.0.1:0", false},
		{"hostname", "api.internal:8443", false},
		{"missing port", "127.0.0.1", true},
		{"non-numeric port", "127.0.0.1:http", true},
		{"port out of range", "127.0.0.1:70000", true},
		{"empty", "", true},
		{"whitespace host", "bad host:8080", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAddr(tt.addr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
