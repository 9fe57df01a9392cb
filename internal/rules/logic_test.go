package rules

import "testing"

func TestCombineLogicDefaultsToAndOfAll(t *testing.T) {
	if CombineLogic("", []bool{true, false}) {
		t.Error("empty logic with [true,false] should be false (AND of all)")
	}
	if !CombineLogic("", []bool{true, true}) {
		t.Error("empty logic with [true,true] should be true")
	}
	if CombineLogic("", nil) {
		t.Error("no conditions should never match")
	}
}

func TestCombineLogicExpressions(t *testing.T) {
	results := []bool{true, false, true}

	cases := []struct {
		expr string
		want bool
	}{
		{"1", true},
		{"2", false},
		{"1 AND 2", false},
		{"1 OR 2", true},
		{"NOT 2", true},
		{"NOT 1", false},
		{"(1 AND 2) OR 3", true},
		{"1 AND (2 OR 3)", true},
		{"NOT (1 AND 2)", true},
		{"1 and 2 or 3", true}, // case-insensitive, OR binds looser than AND
		{"NOT NOT 1", true},
	}

	for _, tc := range cases {
		if got := CombineLogic(tc.expr, results); got != tc.want {
			t.Errorf("CombineLogic(%q) = %v, want %v", tc.expr, got, tc.want)
		}
	}
}

func TestCombineLogicSafeDegradation(t *testing.T) {
	// All fall back to AND-of-all and must not panic.
	cases := []struct {
		expr    string
		results []bool
		want    bool
	}{
		{"(1 AND 2", []bool{true, true}, true},       // unbalanced parens
		{"1 AND", []bool{true, true}, true},          // dangling operator
		{"1 XOR 2", []bool{true, true}, true},        // unknown operator
		{"foo", []bool{true, false}, false},          // garbage
		{"5", []bool{true, true}, true},              // out-of-range reference
		{"0", []bool{true, true}, true},              // references are 1-based
		{"1; DROP TABLE", []bool{true, true}, true},  // hostile input
		{"1 2", []bool{true, false}, false},          // trailing tokens
		{"()", []bool{false}, false},                 // empty group
	}

	for _, tc := range cases {
		if got := CombineLogic(tc.expr, tc.results); got != tc.want {
			t.Errorf("CombineLogic(%q, %v) = %v, want AND-of-all %v", tc.expr, tc.results, got, tc.want)
		}
	}
}

func TestValidateLogic(t *testing.T) {
	if problems := ValidateLogic("", 3); len(problems) != 0 {
		t.Errorf("empty logic should validate, got %v", problems)
	}
	if problems := ValidateLogic("(1 AND 2) OR 3", 3); len(problems) != 0 {
		t.Errorf("valid expression should pass, got %v", problems)
	}

	if problems := ValidateLogic("(1 AND 2", 2); len(problems) == 0 {
		t.Error("unbalanced parens should be reported")
	}
	if problems := ValidateLogic("1 AND 5", 2); len(problems) == 0 {
		t.Error("out-of-range reference should be reported")
	}
	if problems := ValidateLogic("1 XOR 2", 2); len(problems) == 0 {
		t.Error("unknown operator should be reported")
	}
	if problems := ValidateLogic("0", 2); len(problems) == 0 {
		t.Error("reference 0 should be reported (references are 1-based)")
	}
}

func TestMultiDigitReferences(t *testing.T) {
	results := make([]bool, 12)
	results[11] = true

	if !CombineLogic("12", results) {
		t.Error("multi-digit reference 12 should resolve")
	}
	if problems := ValidateLogic("12", 12); len(problems) != 0 {
		t.Errorf("reference 12 of 12 should validate, got %v", problems)
	}
}
