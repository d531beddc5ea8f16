package registry

import (
	"errors"
	"testing"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := New()
	if err := r.Register(Setting{Key: "plotter.test.title", Default: "", Validate: Str}); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	s := r.Get("plotter.test.title")
	if s == nil {
		t.Fatal("Get() returned nil for registered key")
	}
	if s.Key != "plotter.test.title" {
		t.Errorf("Get().Key = %q", s.Key)
	}
}

func TestRegistry_DuplicateKey(t *testing.T) {
	r := New()
	first := Setting{Key: "auto_draw", Default: true, Validate: Bool}
	if err := r.Register(first); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if err := r.Register(first); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("second Register() = %v, want ErrAlreadyRegistered", err)
	}
}

func TestRegistry_DeprecationAlias(t *testing.T) {
	r := New()
	r.MustRegister(Setting{Key: "plotter.test.color", Default: "white", Validate: Str})
	r.MustRegister(Setting{
		Key:        "plotter.test.colour",
		Deprecated: true,
		ReplacedBy: "plotter.test.color",
	})

	s := r.Get("plotter.test.colour")
	if s == nil || s.Key != "plotter.test.color" {
		t.Fatalf("deprecated lookup resolved to %v, want plotter.test.color", s)
	}
	if got := r.Resolve("plotter.test.colour"); got != "plotter.test.color" {
		t.Errorf("Resolve() = %q", got)
	}
}

func TestRegistry_CheckUnknownKey(t *testing.T) {
	r := New()
	if _, err := r.Check("nope", 1); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Check() = %v, want ErrUnknownKey", err)
	}
}

func TestRegistry_CheckValidates(t *testing.T) {
	r := New()
	r.MustRegister(Setting{Key: "fontsize", Default: 10, Validate: Int})

	v, err := r.Check("fontsize", 12)
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	if v != 12 {
		t.Errorf("Check() = %v, want 12", v)
	}
	if _, err := r.Check("fontsize", "big"); err == nil {
		t.Error("Check() accepted invalid value")
	}
}

func TestRegistry_Replace(t *testing.T) {
	r := New()
	r.MustRegister(Setting{Key: "k", Default: 1, Group: "misc"})
	r.Replace(Setting{Key: "k", Default: 2, Group: "labels"})

	d, ok := r.Default("k")
	if !ok || d != 2 {
		t.Errorf("Default() = %v, %v; want 2, true", d, ok)
	}
	if len(r.Group("misc")) != 0 {
		t.Error("old group still contains replaced setting")
	}
	if len(r.Group("labels")) != 1 {
		t.Error("new group missing replaced setting")
	}
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name    string
		v       Validator
		in      any
		want    any
		wantErr bool
	}{
		{"str ok", Str, "x", "x", false},
		{"str bad", Str, 1, nil, true},
		{"strornil nil", StrOrNil, nil, nil, false},
		{"bool ok", Bool, true, true, false},
		{"int coerce float", Int, 3.0, 3, false},
		{"int reject frac", Int, 3.5, nil, true},
		{"float coerce int", Float, 2, 2.0, false},
		{"enum ok", Enum("a", "b"), "b", "b", false},
		{"enum bad", Enum("a", "b"), "c", nil, true},
		{"pair auto", FloatPair, "auto", "auto", false},
		{"pair bad len", FloatPair, []float64{1}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.v(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFloatPair_Slice(t *testing.T) {
	got, err := FloatPair([]any{1, 2.5})
	if err != nil {
		t.Fatalf("FloatPair() error: %v", err)
	}
	pair := got.([]float64)
	if pair[0] != 1 || pair[1] != 2.5 {
		t.Errorf("FloatPair() = %v", pair)
	}
}
