// Package calculation は計算種別の解決と演算実行、計算レコードの
// ドメインロジックを提供する。
package calculation

import (
	"strings"

	"github.com/hitoshi/calcman/internal/model"
)

// computeFunc は1つの計算種別の演算を実装する純粋関数。
// 入力の形状検証は呼び出し側（Compute）で済んでいる前提とする。
type computeFunc func(inputs []float64) (float64, error)

// computeFuncs は計算種別と演算実装の対応表。
// 種別の追加はこの表と model.CalculationType 定数の拡張で行う。
var computeFuncs = map[model.CalculationType]computeFunc{
	model.CalculationTypeAddition:       computeAddition,
	model.CalculationTypeSubtraction:    computeSubtraction,
	model.CalculationTypeMultiplication: computeMultiplication,
	model.CalculationTypeDivision:       computeDivision,
}

// ParseCalculationType は文字列タグを計算種別に解決する。
// 大文字小文字は区別しない。未対応のタグはエラーを返す。
func ParseCalculationType(tag string) (model.CalculationType, error) {
	t := model.CalculationType(strings.ToLower(tag))
	if _, ok := computeFuncs[t]; !ok {
		return "", model.NewUnsupportedCalculationTypeError(tag)
	}
	return t, nil
}

// Compute は指定種別の演算を実行する。
// 入力が2個未満の場合は種別を問わず検証エラーを返す。
// 結果は(種別, 入力)のみから決まる純粋関数であり、保存済みのresultは
// 常にこの関数の出力と一致しなければならない。
func Compute(calcType model.CalculationType, inputs []float64) (float64, error) {
	fn, ok := computeFuncs[calcType]
	if !ok {
		return 0, model.NewUnsupportedCalculationTypeError(string(calcType))
	}
	if len(inputs) < 2 {
		return 0, model.NewInvalidInputsError()
	}
	return fn(inputs)
}

// computeAddition は全入力の合計を返す。
func computeAddition(inputs []float64) (float64, error) {
	sum := 0.0
	for _, v := range inputs {
		sum += v
	}
	return sum, nil
}

// computeSubtraction は先頭の値から残りを順に引いた結果を返す。
func computeSubtraction(inputs []float64) (float64, error) {
	result := inputs[0]
	for _, v := range inputs[1:] {
		result -= v
	}
	return result, nil
}

// computeMultiplication は全入力の積を返す。
func computeMultiplication(inputs []float64) (float64, error) {
	result := 1.0
	for _, v := range inputs {
		result *= v
	}
	return result, nil
}

// computeDivision は先頭の値を残りで順に割った結果を返す。
// 除数（2番目以降の値）に0が現れた時点でゼロ除算エラーを返す。
func computeDivision(inputs []float64) (float64, error) {
	result := inputs[0]
	for _, v := range inputs[1:] {
		if v == 0 {
			return 0, model.NewDivisionByZeroError()
		}
		result /= v
	}
	return result, nil
}
