package opv

import (
	"reflect"
	"testing"
)

func TestEncodeCallsign(t *testing.T) {
	type args struct {
		callsign string
	}
	tests := []struct {
		name    string
		args    args
		want    []byte
		wantErr bool
	}{
		{name: "N1ADJ",
			args:    args{callsign: "N1ADJ"},
			want:    []byte{0, 0, 1, 138, 146, 174},
			wantErr: false,
		},
		{name: "n1adj",
			args:    args{callsign: "n1adj"},
			want:    []byte{0, 0, 1, 138, 146, 174},
			wantErr: false,
		},
		{name: "AB",
			args:    args{callsign: "AB"},
			want:    []byte{0, 0, 0, 0, 0, 0x51},
			wantErr: false,
		},
		{name: "empty",
			args:    args{callsign: ""},
			want:    []byte{0, 0, 0, 0, 0, 0},
			wantErr: false,
		},
		{name: "too long",
			args:    args{callsign: "very long call"},
			wantErr: true,
		},
		{name: "invalid character",
			args:    args{callsign: "A B"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeCallsign(tt.args.callsign)
			if (err != nil) != tt.wantErr {
				t.Errorf("EncodeCallsign() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err == nil && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("EncodeCallsign() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeCallsign(t *testing.T) {
	type args struct {
		encoded []byte
	}
	tests := []struct {
		name    string
		args    args
		want    string
		wantErr bool
	}{
		{name: "wrong length",
			args: args{
				encoded: []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
			},
			wantErr: true,
		},
		{name: "N1ADJ",
			args: args{
				encoded: []byte{0, 0, 1, 138, 146, 174},
			},
			want:    "N1ADJ",
			wantErr: false,
		},
		{name: "AB",
			args: args{
				encoded: []byte{0, 0, 0, 0, 0, 0x51},
			},
			want:    "AB",
			wantErr: false,
		},
		{name: "all zero",
			args: args{
				encoded: []byte{0, 0, 0, 0, 0, 0},
			},
			want:    "",
			wantErr: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCallsign(tt.args.encoded)
			if (err != nil) != tt.wantErr {
				t.Errorf("DecodeCallsign() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("DecodeCallsign() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCallsignRoundTrip(t *testing.T) {
	for _, cs := range []string{"W1AW", "N0CALL", "AB1CDE-9", "K1/W2ABC", "A.B.C"} {
		t.Run(cs, func(t *testing.T) {
			encoded, err := EncodeCallsign(cs)
			if err != nil {
				t.Fatalf("EncodeCallsign(%q): %v", cs, err)
			}
			got, err := DecodeCallsign(encoded)
			if err != nil {
				t.Fatalf("DecodeCallsign: %v", err)
			}
			if got != cs {
				t.Errorf("round trip = %q, want %q", got, cs)
			}
		})
	}
}
