package code

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/toolrepl/session"
)

func TestFormatResult(t *testing.T) {
	tests := []struct {
		name string
		res  ExecuteResult
		want string
	}{
		{
			name: "stdout only",
			res:  ExecuteResult{Stdout: "hello\n"},
			want: "Output:\nhello\n",
		},
		{
			name: "stderr only",
			res:  ExecuteResult{Stderr: "oops\n"},
			want: "\nErrors:\noops\n",
		},
		{
			name: "both streams",
			res:  ExecuteResult{Stdout: "hello\n", Stderr: "oops\n"},
			want: "Output:\nhello\n\nErrors:\noops\n",
		},
		{
			name: "value fallback",
			res:  ExecuteResult{Value: "4", HasValue: true},
			want: "Result: 4",
		},
		{
			name: "no output",
			res:  ExecuteResult{},
			want: NoOutputMessage,
		},
		{
			name: "stream output wins over value",
			res:  ExecuteResult{Stdout: "x\n", Value: "4", HasValue: true},
			want: "Output:\nx\n",
		},
		{
			name: "reset confirmation",
			res:  ExecuteResult{Reset: true},
			want: session.ResetMessage,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FormatResult(tt.res))
		})
	}
}

func TestFormatError(t *testing.T) {
	withTrace := &CodeError{Message: "division by zero", Backtrace: "Traceback (most recent call last):\n  <input>:1:1: division by zero"}
	require.Equal(t,
		"Error executing code:\nTraceback (most recent call last):\n  <input>:1:1: division by zero",
		FormatError(withTrace))

	plain := &CodeError{Message: "syntax error"}
	require.Equal(t, "Error executing code:\nsyntax error", FormatError(plain))

	require.Equal(t, "Error executing code:\nweird", FormatError(errors.New("weird")))
}
