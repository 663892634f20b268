package pdfdoc

import (
	"reflect"
	"testing"
)

func collectOps(content string) []operation {
	var ops []operation
	parseOperations([]byte(content), func(op operation) {
		cp := operation{op: op.op, operands: append([]token(nil), op.operands...)}
		ops = append(ops, cp)
	})
	return ops
}

func opNames(ops []operation) []string {
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.op
	}
	return names
}

func TestParseOperations(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"graphics", "q 1 0 0 1 10 20 cm /Im1 Do Q", []string{"q", "cm", "Do", "Q"}},
		{"comments", "% header\nq\n%inline Do\nQ", []string{"q", "Q"}},
		{"nested string", "BT (a (b) \\) c) Tj ET", []string{"BT", "Tj", "ET"}},
		{"hex string and array", "[<00ff> 120 (x)] TJ", []string{"TJ"}},
		{"dict operand", "/OC <</Type /OCG /Name (a>>b)>> BDC EMC", []string{"BDC", "EMC"}},
		{"inline image", "q BI /W 2 /H 1 /BPC 8 /CS /G ID \x00EI\xff\nEI Q", []string{"q", "BI", "Q"}},
		{"quote operators", "(a) ' 1 2 (b) \"", []string{"'", "\""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := opNames(collectOps(tt.content))
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ops = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseOperationsOperands(t *testing.T) {
	ops := collectOps("0.5 -2 .25 +3 cm /Im#201 Do")
	if len(ops) != 2 {
		t.Fatalf("got %d ops", len(ops))
	}
	var nums []float64
	for _, tok := range ops[0].operands {
		nums = append(nums, tok.num)
	}
	if want := []float64{0.5, -2, 0.25, 3}; !reflect.DeepEqual(nums, want) {
		t.Fatalf("numbers = %v, want %v", nums, want)
	}
	if got := ops[1].operands[0]; got.kind != tokName || got.text != "Im 1" {
		t.Fatalf("name = %+v", got)
	}
}
