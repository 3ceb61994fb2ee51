package commands

import (
	"testing"
)

func TestParseTaskID(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    int
		wantErr string
	}{
		{name: "plain", args: []string{"5"}, want: 5},
		{name: "hash prefix", args: []string{"#12"}, want: 12},
		{name: "surrounding space", args: []string{" 7 "}, want: 7},
		{name: "missing", args: nil, wantErr: "task id required"},
		{name: "zero", args: []string{"0"}, wantErr: "invalid task id: 0"},
		{name: "negative", args: []string{"-3"}, wantErr: "invalid task id: -3"},
		{name: "word", args: []string{"milk"}, wantErr: "invalid task id: milk"},
		{name: "unicode digits", args: []string{"٣"}, wantErr: "invalid task id: ٣"},
		{name: "too many", args: []string{"1", "2", "3"}, wantErr: "too many arguments: 2 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTaskID(tt.args)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got id %d", tt.wantErr, got)
				}
				if err.Error() != tt.wantErr {
					t.Errorf("expected error %q, got %q", tt.wantErr, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected id %d, got %d", tt.want, got)
			}
		})
	}
}

func TestParseTaskID_MissingIsSentinel(t *testing.T) {
	_, err := ParseTaskID(nil)
	if err != ErrTaskIDRequired {
		t.Errorf("expected ErrTaskIDRequired, got %v", err)
	}
}
