package main

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseChannelList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "plain list",
			input: "UCaaa\nUCbbb\nUCccc\n",
			want:  []string{"UCaaa", "UCbbb", "UCccc"},
		},
		{
			name:  "header row skipped",
			input: "channel_id\nUCaaa\nUCbbb\n",
			want:  []string{"UCaaa", "UCbbb"},
		},
		{
			name:  "comments and blank lines skipped",
			input: "# curated channels\nUCaaa\n\n# more\nUCbbb\n",
			want:  []string{"UCaaa", "UCbbb"},
		},
		{
			name:  "duplicates collapsed",
			input: "UCaaa\nUCbbb\nUCaaa\n",
			want:  []string{"UCaaa", "UCbbb"},
		},
		{
			name:  "extra columns ignored",
			input: "channel_id,note\nUCaaa,main channel\nUCbbb,backup\n",
			want:  []string{"UCaaa", "UCbbb"},
		},
		{
			name:  "surrounding whitespace trimmed",
			input: "  UCaaa\nUCbbb  \n",
			want:  []string{"UCaaa", "UCbbb"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseChannelList(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("parseChannelList() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseChannelList() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseChannelListEmpty(t *testing.T) {
	got, err := parseChannelList(strings.NewReader(""))
	if err != nil {
		t.Fatalf("parseChannelList() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("parseChannelList() = %v, want empty", got)
	}
}
