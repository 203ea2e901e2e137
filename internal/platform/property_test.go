package platform

import (
	"errors"
	"testing"
)

func TestDecodeCardinal(t *testing.T) {
	tests := []struct {
		name    string
		prop    Property
		want    uint32
		wantErr error
	}{
		{"pid", Property{Type: "CARDINAL", Format: 32, Value: []byte{0x39, 0x30, 0, 0}}, 12345, nil},
		{"extra items ignored", Property{Format: 32, Value: []byte{1, 0, 0, 0, 9, 9, 9, 9}}, 1, nil},
		{"missing", Property{}, 0, ErrPropertyMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCardinal(tt.prop)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("DecodeCardinal() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeCardinal() error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("DecodeCardinal() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDecodeCardinal_RejectsMalformed(t *testing.T) {
	if _, err := DecodeCardinal(Property{Format: 8, Value: []byte("abcd")}); err == nil {
		t.Fatal("expected error for format 8")
	}
	if _, err := DecodeCardinal(Property{Format: 32, Value: []byte{1, 2}}); err == nil {
		t.Fatal("expected error for short value")
	}
}

func TestDecodeWMState(t *testing.T) {
	state, err := DecodeWMState(Property{Format: 32, Value: []byte{3, 0, 0, 0, 0, 0, 0, 0}})
	if err != nil {
		t.Fatalf("DecodeWMState() error: %v", err)
	}
	if state != WMStateIconic {
		t.Fatalf("DecodeWMState() = %v, want %v", state, WMStateIconic)
	}

	if _, err := DecodeWMState(Property{}); !errors.Is(err, ErrPropertyMissing) {
		t.Fatalf("DecodeWMState(missing) error = %v, want ErrPropertyMissing", err)
	}
}
