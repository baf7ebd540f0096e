package config

import (
	"slices"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestSanitizerListUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []SanitizerEntry
	}{
		{
			name: "bare names",
			in:   "- address\n- undefined\n",
			want: []SanitizerEntry{{Name: "address"}, {Name: "undefined"}},
		},
		{
			name: "name with options",
			in:   "- address\n- memory:\n    experimental: true\n",
			want: []SanitizerEntry{
				{Name: "address"},
				{Name: "memory", Options: map[string]any{"experimental": true}},
			},
		},
		{
			name: "mapping without options",
			in:   "- memory:\n",
			want: []SanitizerEntry{{Name: "memory"}},
		},
		{
			name: "duplicates preserved",
			in:   "- address\n- address\n",
			want: []SanitizerEntry{{Name: "address"}, {Name: "address"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got sanitizerList
			if err := yaml.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].Name != tt.want[i].Name {
					t.Errorf("entry %d name = %q, want %q", i, got[i].Name, tt.want[i].Name)
				}
				if len(got[i].Options) != len(tt.want[i].Options) {
					t.Errorf("entry %d options = %v, want %v", i, got[i].Options, tt.want[i].Options)
					continue
				}
				for k, v := range tt.want[i].Options {
					if got[i].Options[k] != v {
						t.Errorf("entry %d option %q = %v, want %v", i, k, got[i].Options[k], v)
					}
				}
			}
		})
	}
}

func TestSanitizerListRejectsScalar(t *testing.T) {
	var got sanitizerList
	if err := yaml.Unmarshal([]byte("address\n"), &got); err == nil {
		t.Fatal("Unmarshal() error = nil, want error for non-sequence input")
	}
}

func TestSanitizerNames(t *testing.T) {
	prj := &Project{Sanitizers: []SanitizerEntry{
		{Name: "undefined"},
		{Name: "address", Options: map[string]any{"experimental": true}},
		{Name: "undefined"},
	}}

	want := []string{"undefined", "address", "undefined"}
	if got := prj.SanitizerNames(); !slices.Equal(got, want) {
		t.Errorf("SanitizerNames() = %v, want %v", got, want)
	}
}

func TestEntriesFromNames(t *testing.T) {
	entries := entriesFromNames([]string{"address", "undefined"})
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	for i, name := range []string{"address", "undefined"} {
		if entries[i].Name != name {
			t.Errorf("entry %d name = %q, want %q", i, entries[i].Name, name)
		}
		if entries[i].Options != nil {
			t.Errorf("entry %d options = %v, want nil", i, entries[i].Options)
		}
	}
}
