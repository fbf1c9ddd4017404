// Package model はドメインモデルを定義する。
package model

import "time"

// CalculationType は計算種別を表すタグ。サポートする種別は固定で、
// 実行時に拡張されることはない。
type CalculationType string

const (
	// CalculationTypeAddition は加算（全入力の合計）。
	CalculationTypeAddition CalculationType = "addition"
	// CalculationTypeSubtraction は減算（先頭から順に引いていく左畳み込み）。
	CalculationTypeSubtraction CalculationType = "subtraction"
	// CalculationTypeMultiplication は乗算（全入力の積）。
	CalculationTypeMultiplication CalculationType = "multiplication"
	// CalculationTypeDivision は除算（先頭から順に割っていく左畳み込み）。
	CalculationTypeDivision CalculationType = "division"
)

// Calculation は1件の計算レコードを表す。
// Resultは(Type, Inputs)から常に再導出可能であり、外部から受け取ることはない。
type Calculation struct {
	ID        string
	UserID    string
	Type      CalculationType
	Inputs    []float64
	Result    float64
	CreatedAt time.Time
	UpdatedAt time.Time
}
