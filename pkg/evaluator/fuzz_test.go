package evaluator_test

import (
	"context"
	"testing"
	"time"

	"github.com/sandrolain/gordl/pkg/compiler"
	"github.com/sandrolain/gordl/pkg/evaluator"
	"github.com/sandrolain/gordl/pkg/runtime"
	"github.com/sandrolain/gordl/pkg/types"
)

func FuzzEval(f *testing.F) {
	seeds := []string{
		`=Fields!Amount.Value * 2`,
		`=Sum(Amount) / Count(Region)`,
		`=Iif(Amount > 10, "big", "small")`,
		`=Left(Region, 1) & CStr(RowNumber(Nothing))`,
		`=1 / 0`,
		`=CInt("abc")`,
		`=Format(Now(), "yyyy")`,
		`=Switch(False, 1)`,
		`plain text`,
		`=`,
	}
	for _, s := range seeds {
		f.Add(s, true)
	}
	c := compiler.New()
	rows := salesRows()
	f.Fuzz(func(t *testing.T, src string, inGroup bool) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		p := c.Compile(src, types.TypeVariant, env{inGroup: inGroup})
		exec := runtime.NewExecution()
		_, _ = evaluator.New().Eval(ctx, p, rows.At(0), exec)
		_, _ = evaluator.New(evaluator.WithStrictErrors(true)).Eval(ctx, p, rows.At(1), exec)
	})
}
