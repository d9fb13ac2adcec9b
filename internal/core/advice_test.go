package core

import "testing"

func TestClassifyAdvice(t *testing.T) {
	tests := []struct {
		amount string
		want   AdviceClass
	}{
		{"0", AdviceNormal},
		{"9999.99", AdviceNormal},
		{"10000.00", AdviceHighValue}, // boundary is inclusive on the high side
		{"10000.01", AdviceHighValue},
		{"50000", AdviceHighValue},
	}

	for _, tt := range tests {
		if got := ClassifyAdvice(MustMoney(tt.amount)); got != tt.want {
			t.Errorf("ClassifyAdvice(%s) = %s, want %s", tt.amount, got, tt.want)
		}
	}
}

func TestClassifyAdviceIgnoresType(t *testing.T) {
	// The classification depends on the amount alone; the transaction type
	// only changes the message text downstream.
	amount := MustMoney("12000")
	if ClassifyAdvice(amount) != AdviceHighValue {
		t.Error("12000 should classify as high-value regardless of type")
	}
}
