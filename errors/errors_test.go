package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:    PhaseReflect,
				Kind:     KindWrongCategory,
				Path:     []string{"ArrayLength"},
				TypeName: "Point",
				Detail:   "expected fixed array, got struct",
			},
			contains: []string{"[reflect]", "wrong_category", "ArrayLength", "type Point", "expected fixed array"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseMarshal,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[marshal]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseMarshal,
				Kind:   KindAllocation,
				Detail: "memory full",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[marshal]", "allocation", "memory full", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseLoad,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseReflect,
		Kind:  KindWrongCategory,
		Path:  []string{"foo"},
	}

	if !err.Is(&Error{Phase: PhaseReflect, Kind: KindWrongCategory}) {
		t.Error("Is should match same phase and kind")
	}

	if err.Is(&Error{Phase: PhaseLayout, Kind: KindWrongCategory}) {
		t.Error("Is should not match different phase")
	}

	if err.Is(&Error{Phase: PhaseReflect, Kind: KindOutOfBounds}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseReflect, Kind: KindWrongCategory}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseMarshal, KindInvalidShape).
		Path("shape", "name").
		TypeName("[]Field").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "str", "int").
		Build()

	if err.Phase != PhaseMarshal {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseMarshal)
	}
	if err.Kind != KindInvalidShape {
		t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidShape)
	}
	if len(err.Path) != 2 || err.Path[0] != "shape" || err.Path[1] != "name" {
		t.Errorf("Path = %v, want [shape name]", err.Path)
	}
	if err.TypeName != "[]Field" {
		t.Errorf("TypeName = %v, want '[]Field'", err.TypeName)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected str, got int" {
		t.Errorf("Detail = %v, want 'expected str, got int'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("WrongCategory", func(t *testing.T) {
		err := WrongCategory("ArrayLength", "fixed array", "struct", "Point")
		if err.Kind != KindWrongCategory || err.Phase != PhaseReflect {
			t.Errorf("got %v/%v", err.Phase, err.Kind)
		}
		if err.TypeName != "Point" {
			t.Errorf("TypeName = %v, want Point", err.TypeName)
		}
	})

	t.Run("InvalidHandle", func(t *testing.T) {
		err := InvalidHandle(PhaseHost, 99)
		if err.Kind != KindInvalidHandle {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidHandle)
		}
		if err.Value != uint32(99) {
			t.Errorf("Value = %v, want 99", err.Value)
		}
	})

	t.Run("LayoutMismatch", func(t *testing.T) {
		err := LayoutMismatch("Pair", "b", 4, 8)
		if err.Kind != KindLayoutMismatch {
			t.Errorf("Kind = %v, want %v", err.Kind, KindLayoutMismatch)
		}
		if !strings.Contains(err.Error(), "recorded offset 4, computed 8") {
			t.Errorf("message %q lacks offsets", err.Error())
		}
	})

	t.Run("AllocationFailed", func(t *testing.T) {
		err := AllocationFailed(PhaseMarshal, 1024, 8)
		if err.Kind != KindAllocation {
			t.Errorf("Kind = %v, want %v", err.Kind, KindAllocation)
		}
		if !strings.Contains(err.Detail, "1024") {
			t.Errorf("Detail = %v, should contain size", err.Detail)
		}
	})

	t.Run("Cycle", func(t *testing.T) {
		err := Cycle(PhaseBuild, "Node")
		if err.Kind != KindCycle {
			t.Errorf("Kind = %v, want %v", err.Kind, KindCycle)
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseMarshal, []string{"list"}, 10, 5)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if err.Value != 10 {
			t.Errorf("Value = %v, want 10", err.Value)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseMarshal, []string{"val"}, 300, "uint8")
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
		if err.Value != 300 {
			t.Errorf("Value = %v, want 300", err.Value)
		}
	})

	t.Run("ParseFailed", func(t *testing.T) {
		cause := errors.New("bad yaml")
		err := ParseFailed("descriptor", cause)
		if !errors.Is(err, cause) {
			t.Error("ParseFailed should wrap its cause")
		}
	})
}
