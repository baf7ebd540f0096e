package engine

import (
	"reflect"
	"testing"
)

func TestSupported(t *testing.T) {
	tests := []struct {
		name         string
		engine       string
		sanitizer    string
		architecture string
		want         bool
	}{
		{"libfuzzer address x86_64", "libfuzzer", "address", "x86_64", true},
		{"libfuzzer memory x86_64", "libfuzzer", "memory", "x86_64", true},
		{"libfuzzer undefined x86_64", "libfuzzer", "undefined", "x86_64", true},
		{"libfuzzer address i386", "libfuzzer", "address", "i386", true},
		{"libfuzzer coverage", "libfuzzer", "coverage", "x86_64", false},
		{"afl address x86_64", "afl", "address", "x86_64", true},
		{"afl memory x86_64", "afl", "memory", "x86_64", false},
		{"afl address i386", "afl", "address", "i386", false},
		{"honggfuzz undefined x86_64", "honggfuzz", "undefined", "x86_64", true},
		{"honggfuzz dataflow x86_64", "honggfuzz", "dataflow", "x86_64", false},
		{"dataflow dataflow x86_64", "dataflow", "dataflow", "x86_64", true},
		{"dataflow address x86_64", "dataflow", "address", "x86_64", false},
		{"none address x86_64", "none", "address", "x86_64", true},
		{"unknown engine", "centipede", "address", "x86_64", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Supported(tt.engine, tt.sanitizer, tt.architecture)
			if got != tt.want {
				t.Fatalf("Supported(%q, %q, %q) = %v, want %v",
					tt.engine, tt.sanitizer, tt.architecture, got, tt.want)
			}
		})
	}
}

// Only libfuzzer builds 32-bit, and only with the address sanitizer.
func TestI386RequiresLibFuzzerAddress(t *testing.T) {
	sanitizers := []string{"address", "memory", "undefined", "dataflow", "coverage"}

	for _, name := range Names() {
		for _, sanitizer := range sanitizers {
			want := name == "libfuzzer" && sanitizer == "address"
			if got := Supported(name, sanitizer, "i386"); got != want {
				t.Fatalf("Supported(%q, %q, \"i386\") = %v, want %v",
					name, sanitizer, got, want)
			}
		}
	}
}

func TestLookup(t *testing.T) {
	info, ok := Lookup("afl")
	if !ok {
		t.Fatalf("Lookup(\"afl\") not found")
	}
	if info.UploadBucket != "clusterfuzz-builds-afl" {
		t.Fatalf("UploadBucket = %q, want %q", info.UploadBucket, "clusterfuzz-builds-afl")
	}

	if _, ok := Lookup("centipede"); ok {
		t.Fatalf("Lookup(\"centipede\") found, want not found")
	}
}

func TestNames(t *testing.T) {
	want := []string{"afl", "dataflow", "honggfuzz", "libfuzzer", "none"}
	if got := Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
}
