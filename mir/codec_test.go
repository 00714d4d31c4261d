package mir

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

func TestCodecRoundTrip(t *testing.T) {
	m := validLoop()
	data, err := Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if Format(got) != Format(m) {
		t.Errorf("round trip changed module:\n%s\nwant:\n%s", Format(got), Format(m))
	}
}

func TestCodecDeterministic(t *testing.T) {
	a, err := Marshal(validLoop())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Marshal(validLoop())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("Marshal() is not deterministic")
	}
}

func TestCodecFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop"+FileExtension)
	if err := WriteFile(path, validLoop()); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	m, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if _, ok := m.Function(MainFunction); !ok {
		t.Error("decoded module has no main function")
	}
}

func TestUnmarshalGarbage(t *testing.T) {
	if _, err := Unmarshal([]byte{0xff, 0x00, 0x13}); err == nil {
		t.Error("Unmarshal(garbage) error = nil, want error")
	}
}

func TestUnmarshalRejectsNullEntries(t *testing.T) {
	tests := []struct {
		name string
		doc  map[int]any
		want string
	}{
		{
			name: "function",
			doc:  map[int]any{1: "m", 2: map[string]any{"main": nil}},
			want: `function "main" is null`,
		},
		{
			name: "block",
			doc: map[int]any{1: "m", 2: map[string]any{
				"main": map[int]any{1: "main", 3: 0, 4: map[uint32]any{0: nil}},
			}},
			want: "main/b0 is null",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := cbor.Marshal(tt.doc)
			if err != nil {
				t.Fatal(err)
			}
			_, err = Unmarshal(data)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Unmarshal() error = %v, want %q", err, tt.want)
			}
		})
	}
}
