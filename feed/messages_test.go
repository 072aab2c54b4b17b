package feed

import (
	"errors"
	"testing"

	"go-stepscope/engine"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    engine.Update
		wantErr error
	}{
		{"matrix", `{"addr":"/matrix","matrix":[0,1,1,0]}`, engine.MatrixUpdate{Matrix: []uint8{0, 1, 1, 0}}, nil},
		{"wheel", `{"addr":"/wheel","value":640}`, engine.TempoUpdate{Value: 640}, nil},
		{"wheel fractional", `{"addr":"/wheel","value":12.5}`, engine.TempoUpdate{Value: 12.5}, nil},
		{"tracks", `{"addr":"/tracks","value":3}`, engine.TrackCountUpdate{Value: 3}, nil},
		{"not json", `not json`, nil, ErrMalformed},
		{"no addr", `{"value":1}`, nil, ErrMalformed},
		{"matrix missing", `{"addr":"/matrix"}`, nil, ErrMalformed},
		{"matrix value 2", `{"addr":"/matrix","matrix":[0,2]}`, nil, ErrMalformed},
		{"matrix negative", `{"addr":"/matrix","matrix":[-1]}`, nil, ErrMalformed},
		{"matrix strings", `{"addr":"/matrix","matrix":["1"]}`, nil, ErrMalformed},
		{"wheel missing", `{"addr":"/wheel"}`, nil, ErrMalformed},
		{"tracks zero", `{"addr":"/tracks","value":0}`, nil, ErrMalformed},
		{"tracks five", `{"addr":"/tracks","value":5}`, nil, ErrMalformed},
		{"tracks fractional", `{"addr":"/tracks","value":2.5}`, nil, ErrMalformed},
		{"unknown", `{"addr":"/tempo","value":1}`, nil, ErrUnknownAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DefaultCodec.Decode([]byte(tt.in))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertUpdate(t, got, tt.want)
		})
	}
}

func TestDecodeMaxTracks(t *testing.T) {
	codec := Codec{MaxTracks: 8}
	got, err := codec.Decode([]byte(`{"addr":"/tracks","value":8}`))
	if err != nil {
		t.Fatal(err)
	}
	assertUpdate(t, got, engine.TrackCountUpdate{Value: 8})
}

func TestEncodeDecodes(t *testing.T) {
	data, err := EncodeMatrix([]uint8{1, 0, 1})
	if err != nil {
		t.Fatal(err)
	}
	got, err := DefaultCodec.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	assertUpdate(t, got, engine.MatrixUpdate{Matrix: []uint8{1, 0, 1}})

	data, err = EncodeValue(AddrWheel, 96)
	if err != nil {
		t.Fatal(err)
	}
	got, err = DefaultCodec.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	assertUpdate(t, got, engine.TempoUpdate{Value: 96})

	if got := string(EncodeRequest()); got != `{"addr":"/get-matrix"}` {
		t.Fatalf("request frame %s", got)
	}
}

func assertUpdate(t *testing.T, got, want engine.Update) {
	t.Helper()
	switch w := want.(type) {
	case engine.MatrixUpdate:
		g, ok := got.(engine.MatrixUpdate)
		if !ok || len(g.Matrix) != len(w.Matrix) {
			t.Fatalf("got %#v, want %#v", got, want)
		}
		for i := range w.Matrix {
			if g.Matrix[i] != w.Matrix[i] {
				t.Fatalf("got %#v, want %#v", got, want)
			}
		}
	default:
		if got != want {
			t.Fatalf("got %#v, want %#v", got, want)
		}
	}
}

func TestIsMatrixRequest(t *testing.T) {
	if !IsMatrixRequest(EncodeRequest()) {
		t.Fatal("request not recognised")
	}
	if IsMatrixRequest([]byte(`{"addr":"/matrix","matrix":[1]}`)) || IsMatrixRequest([]byte(`nope`)) {
		t.Fatal("false positive")
	}
}
