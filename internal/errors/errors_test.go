package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"mezzanine/domain/core"
)

func TestGetCode_ClassifiesDomainErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"configuration", core.NewConfigurationError("bound must be positive"), CodeConfigInvalid},
		{"collapse", core.NewCollapseError("15", true), CodeDistributionCollapse},
		{"degeneracy", core.NewDegeneracyError("entropy", 0), CodeNumericDegeneracy},
		{"session not found", fmt.Errorf("load: %w", core.ErrSessionNotFound), CodeNotFound},
		{"finished", core.ErrSessionFinished, CodeSessionFinished},
		{"unknown game", fmt.Errorf("%w: chess", core.ErrUnknownGame), CodeInvalidInput},
		{"plain", stderrors.New("boom"), CodeInternalError},
		{"app error", InvalidInput("verdict missing"), CodeInvalidInput},
		{"wrapped app error", fmt.Errorf("handler: %w", New(CodeDatabaseError, "down")), CodeDatabaseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrap_KeepsCodeAndChain(t *testing.T) {
	if Wrap(nil, "ignored") != nil {
		t.Fatal("Wrap(nil) should be nil")
	}

	err := Wrap(core.NewCollapseError("15", false), "answer rejected")
	if GetCode(err) != CodeDistributionCollapse {
		t.Errorf("code = %q", GetCode(err))
	}
	if !core.IsCollapse(err) {
		t.Error("wrapped error lost its sentinel")
	}

	err = Wrapf(New(CodeNotFound, "session not found"), "loading %s", "abc")
	if GetCode(err) != CodeNotFound {
		t.Errorf("code = %q", GetCode(err))
	}
	if err.Error() != "loading abc: session not found" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeDatabaseError, stderrors.New("connection refused"))
	if GetCode(err) != CodeDatabaseError {
		t.Errorf("code = %q", GetCode(err))
	}
	if !IsAppError(err) {
		t.Error("expected AppError")
	}

	recoded := WithCode(CodeInternalError, New(CodeValidationError, "bad"))
	if GetCode(recoded) != CodeInternalError {
		t.Errorf("code = %q", GetCode(recoded))
	}
	if WithCode(CodeInternalError, nil) != nil {
		t.Error("WithCode(nil) should be nil")
	}
}
