package calculation

import (
	"errors"
	"testing"

	"github.com/hitoshi/calcman/internal/model"
)

func TestParseCalculationType_KnownTags(t *testing.T) {
	tests := []struct {
		tag  string
		want model.CalculationType
	}{
		{"addition", model.CalculationTypeAddition},
		{"subtraction", model.CalculationTypeSubtraction},
		{"multiplication", model.CalculationTypeMultiplication},
		{"division", model.CalculationTypeDivision},
		// 大文字小文字を区別しない
		{"Addition", model.CalculationTypeAddition},
		{"DIVISION", model.CalculationTypeDivision},
	}

	for _, tt := range tests {
		got, err := ParseCalculationType(tt.tag)
		if err != nil {
			t.Errorf("ParseCalculationType(%q) error = %v", tt.tag, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCalculationType(%q) = %q, want %q", tt.tag, got, tt.want)
		}
	}
}

func TestParseCalculationType_UnknownTag(t *testing.T) {
	for _, tag := range []string{"", "modulo", "power", "add"} {
		_, err := ParseCalculationType(tag)
		if err == nil {
			t.Errorf("ParseCalculationType(%q) expected error, got nil", tag)
			continue
		}

		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUnsupportedCalcType {
			t.Errorf("ParseCalculationType(%q) error = %v, want code %s", tag, err, model.ErrCodeUnsupportedCalcType)
		}
	}
}

func TestCompute_Addition(t *testing.T) {
	got, err := Compute(model.CalculationTypeAddition, []float64{1, 2, 3})
	if err != nil {
		t.Fatalf("Compute error = %v", err)
	}
	if got != 6 {
		t.Errorf("addition([1,2,3]) = %v, want 6", got)
	}
}

func TestCompute_Subtraction(t *testing.T) {
	got, err := Compute(model.CalculationTypeSubtraction, []float64{10, 2, 3})
	if err != nil {
		t.Fatalf("Compute error = %v", err)
	}
	if got != 5 {
		t.Errorf("subtraction([10,2,3]) = %v, want 5", got)
	}
}

func TestCompute_Multiplication(t *testing.T) {
	got, err := Compute(model.CalculationTypeMultiplication, []float64{2, 3, 4})
	if err != nil {
		t.Fatalf("Compute error = %v", err)
	}
	if got != 24 {
		t.Errorf("multiplication([2,3,4]) = %v, want 24", got)
	}
}

func TestCompute_Division(t *testing.T) {
	got, err := Compute(model.CalculationTypeDivision, []float64{12, 3, 2})
	if err != nil {
		t.Fatalf("Compute error = %v", err)
	}
	if got != 2 {
		t.Errorf("division([12,3,2]) = %v, want 2", got)
	}
}

func TestCompute_DivisionByZero(t *testing.T) {
	_, err := Compute(model.CalculationTypeDivision, []float64{12, 0})
	if err == nil {
		t.Fatal("expected division by zero error, got nil")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDivisionByZero {
		t.Errorf("error = %v, want code %s", err, model.ErrCodeDivisionByZero)
	}
}

// 先頭の0は被除数なのでゼロ除算にはならない
func TestCompute_DivisionWithZeroDividend(t *testing.T) {
	got, err := Compute(model.CalculationTypeDivision, []float64{0, 5})
	if err != nil {
		t.Fatalf("Compute error = %v", err)
	}
	if got != 0 {
		t.Errorf("division([0,5]) = %v, want 0", got)
	}
}

func TestCompute_DivisionByZeroInLaterPosition(t *testing.T) {
	_, err := Compute(model.CalculationTypeDivision, []float64{100, 5, 0, 2})
	if err == nil {
		t.Fatal("expected division by zero error, got nil")
	}
}

func TestCompute_TooFewInputs(t *testing.T) {
	types := []model.CalculationType{
		model.CalculationTypeAddition,
		model.CalculationTypeSubtraction,
		model.CalculationTypeMultiplication,
		model.CalculationTypeDivision,
	}

	for _, calcType := range types {
		for _, inputs := range [][]float64{nil, {}, {42}} {
			_, err := Compute(calcType, inputs)
			if err == nil {
				t.Errorf("Compute(%q, %v) expected error, got nil", calcType, inputs)
				continue
			}

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidInputs {
				t.Errorf("Compute(%q, %v) error = %v, want code %s", calcType, inputs, err, model.ErrCodeInvalidInputs)
			}
		}
	}
}

func TestCompute_NegativeInputs(t *testing.T) {
	got, err := Compute(model.CalculationTypeAddition, []float64{-1.5, 2.5, -3})
	if err != nil {
		t.Fatalf("Compute error = %v", err)
	}
	if got != -2 {
		t.Errorf("addition([-1.5,2.5,-3]) = %v, want -2", got)
	}
}
