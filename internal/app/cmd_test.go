package app

import (
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		want      Command
		wantKnown bool
	}{
		{"no args serves", nil, CommandServe, true},
		{"empty args serves", []string{}, CommandServe, true},
		{"serve", []string{"serve"}, CommandServe, true},
		{"migrate", []string{"migrate"}, CommandMigrate, true},
		{"healthcheck", []string{"healthcheck"}, CommandHealthcheck, true},
		{"removed worker subcommand falls back to serve", []string{"worker"}, CommandServe, false},
		{"case sensitive", []string{"Migrate"}, CommandServe, false},
		{"trailing args ignored", []string{"migrate", "--dry-run"}, CommandMigrate, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, known := ParseCommand(tt.args)
			if got != tt.want || known != tt.wantKnown {
				t.Errorf("ParseCommand(%v) = (%q, %v), want (%q, %v)", tt.args, got, known, tt.want, tt.wantKnown)
			}
		})
	}
}
