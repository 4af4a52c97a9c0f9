package model

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/superhg2012/asr-e2e/internal/alphabet"
	"github.com/superhg2012/asr-e2e/internal/tensor"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "train", want: ModeTrain},
		{in: " Eval ", want: ModeEval},
		{in: "INFER", want: ModeInfer},
		{in: "", wantErr: true},
		{in: "predict", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMode(%q) error = nil; want error", tt.in)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseMode(%q): %v", tt.in, err)
			}

			if got != tt.want {
				t.Fatalf("ParseMode(%q) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}

func batch(t *testing.T, b, seq, cep int64) *tensor.Tensor {
	t.Helper()

	x, err := tensor.Zeros([]int64{b, seq, cep})
	if err != nil {
		t.Fatalf("Zeros: %v", err)
	}

	return x
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		params  func(t *testing.T) Params
		wantErr string
	}{
		{
			name: "valid",
			params: func(t *testing.T) Params {
				return DefaultParams(batch(t, 2, 5, 13), []int32{5, 3}, ModeTrain)
			},
		},
		{
			name:    "nil input",
			params:  func(*testing.T) Params { return Params{Mode: ModeTrain, NumClasses: 3} },
			wantErr: "input is required",
		},
		{
			name: "rank 2 input",
			params: func(t *testing.T) Params {
				x, err := tensor.Zeros([]int64{5, 13})
				if err != nil {
					t.Fatalf("Zeros: %v", err)
				}
				return DefaultParams(x, []int32{5}, ModeTrain)
			},
			wantErr: "input shape",
		},
		{
			name: "length count",
			params: func(t *testing.T) Params {
				return DefaultParams(batch(t, 2, 5, 13), []int32{5}, ModeTrain)
			},
			wantErr: "1 sequence lengths for batch of 2",
		},
		{
			name: "length too long",
			params: func(t *testing.T) Params {
				return DefaultParams(batch(t, 1, 5, 13), []int32{6}, ModeEval)
			},
			wantErr: "outside [0, 5]",
		},
		{
			name: "bad mode",
			params: func(t *testing.T) Params {
				return DefaultParams(batch(t, 1, 5, 13), []int32{5}, "fit")
			},
			wantErr: "unknown mode",
		},
		{
			name: "classes",
			params: func(t *testing.T) Params {
				p := DefaultParams(batch(t, 1, 5, 13), []int32{5}, ModeInfer)
				p.NumClasses = 1
				return p
			},
			wantErr: "num classes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params(t).Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}

			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate error = %v; want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultParamsUsesAlphabetClasses(t *testing.T) {
	p := DefaultParams(nil, nil, ModeTrain)
	if p.NumClasses != alphabet.NumClasses {
		t.Fatalf("NumClasses = %d; want %d", p.NumClasses, alphabet.NumClasses)
	}
}

func TestSetting(t *testing.T) {
	p := Params{Settings: map[string]any{"hidden": 256, "cell": "lstm"}}

	if got := Setting(p, "hidden", 128); got != 256 {
		t.Errorf("hidden = %d; want 256", got)
	}

	if got := Setting(p, "cell", 0); got != 0 {
		t.Errorf("cell as int = %d; want default 0", got)
	}

	if got := Setting(p, "dropout", 0.1); got != 0.1 {
		t.Errorf("dropout = %v; want 0.1", got)
	}

	if got := Setting(Params{}, "cell", "gru"); got != "gru" {
		t.Errorf("cell on nil settings = %q; want gru", got)
	}
}

type modelFunc func() error

func (f modelFunc) BuildGraph() error { return f() }

func TestDescribeLogsBuild(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	calls := 0
	m := Describe("bilstm", modelFunc(func() error { calls++; return nil }), logger)

	if err := m.BuildGraph(); err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}

	if calls != 1 {
		t.Fatalf("inner BuildGraph calls = %d; want 1", calls)
	}

	out := buf.String()
	for _, want := range []string{`"msg":"building graph"`, `"msg":"built graph"`, `"model":"bilstm"`, `"elapsed"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}

func TestDescribeWrapsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := Describe("stub", Stub{Params: DefaultParams(batch(t, 1, 2, 3), []int32{2}, ModeTrain)}, logger).BuildGraph()
	if !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("err = %v; want ErrNotImplemented", err)
	}

	if !strings.HasPrefix(err.Error(), "stub: build graph:") {
		t.Errorf("err = %q; want model name prefix", err)
	}

	if !strings.Contains(buf.String(), `"msg":"build graph failed"`) {
		t.Errorf("missing failure log:\n%s", buf.String())
	}
}

func TestStubValidatesFirst(t *testing.T) {
	err := Stub{}.BuildGraph()
	if err == nil || errors.Is(err, ErrNotImplemented) {
		t.Fatalf("err = %v; want validation error", err)
	}
}

func TestDescribeDefaultLogger(t *testing.T) {
	m := Describe("noop", modelFunc(func() error { return nil }), nil)
	if err := m.BuildGraph(); err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
}
