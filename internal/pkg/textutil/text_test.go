package textutil

import (
	"reflect"
	"testing"
)

func TestTags(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"no tags", "Weekly chess meetup", []string{}},
		{"single", "Bring a board #chess", []string{"chess"}},
		{"dedup and case", "#Chess #chess #CHESS", []string{"chess"}},
		{"sorted", "#zumba then #aerobics", []string{"aerobics", "zumba"}},
		{"hyphen and underscore", "#open-day #u_18", []string{"open-day", "u_18"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Tags(tt.input); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Tags() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		n        int
		expected string
	}{
		{"short", 10, "short"},
		{"a  long\n description", 100, "a long description"},
		{"hello world", 6, "hello…"},
		{"ñandú rápido", 4, "ñan…"},
		{"abc", 1, "…"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.input, tt.n); got != tt.expected {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.expected)
		}
	}
}

func TestInitials(t *testing.T) {
	tests := map[string]string{
		"Ana Ruiz":        "AR",
		"ana maría ruiz":  "AM",
		"luis":            "L",
		"":                "",
		"  élodie   fox ": "ÉF",
	}
	for in, want := range tests {
		if got := Initials(in); got != want {
			t.Errorf("Initials(%q) = %q, want %q", in, got, want)
		}
	}
}
