package mir

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// FileExtension is the conventional extension for encoded modules.
const FileExtension = ".mirb"

// Canonical mode gives a deterministic encoding, so the same module always
// produces the same bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("mir: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal serializes a Module to CBOR bytes.
func Marshal(m *Module) ([]byte, error) {
	return cborEncMode.Marshal(m)
}

// Unmarshal deserializes a Module from CBOR bytes.
func Unmarshal(data []byte) (*Module, error) {
	var m Module
	if err := cbor.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("mir: unmarshal module: %w", err)
	}
	if m.Functions == nil {
		m.Functions = make(map[string]*Function)
	}
	for name, fn := range m.Functions {
		if fn == nil {
			return nil, fmt.Errorf("mir: function %q is null", name)
		}
		if fn.Blocks == nil {
			fn.Blocks = make(map[BlockID]*BasicBlock)
		}
		for id, block := range fn.Blocks {
			if block == nil {
				return nil, fmt.Errorf("mir: %s/%s is null", name, id)
			}
		}
	}
	return &m, nil
}

// ReadFile loads an encoded module from disk.
func ReadFile(path string) (*Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	m, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// WriteFile encodes m and writes it to path.
func WriteFile(path string, m *Module) error {
	data, err := Marshal(m)
	if err != nil {
		return fmt.Errorf("mir: marshal module: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
