package device

import (
	stderrors "errors"
	"testing"

	daqerrors "github.com/fences/IcpDasDaqCore/errors"
)

func TestStatusText(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		expected string
	}{
		{"success code", 0, "No Error"},
		{"invalid board", 1, "Invalid Board Number"},
		{"fifo overflow", 18, "FIFO Overflow"},
		{"scan aborted", 24, "Scan Aborted"},
		{"last mapped code", 60, "Unknown Hardware Fault"},
		{"unmapped positive", 61, "Unknown Error"},
		{"unmapped large", 9999, "Unknown Error"},
		{"unmapped negative", -1, "Unknown Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusText(tt.code); got != tt.expected {
				t.Errorf("StatusText(%d) = %q, want %q", tt.code, got, tt.expected)
			}
		})
	}
}

func TestNewStatusError(t *testing.T) {
	if err := NewStatusError(0); err != nil {
		t.Errorf("NewStatusError(0) = %v, want nil", err)
	}

	err := NewStatusError(18)
	if err == nil {
		t.Fatal("NewStatusError(18) = nil, want error")
	}

	want := "daq status 18: FIFO Overflow"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	var se *StatusError
	if !stderrors.As(err, &se) {
		t.Fatal("expected StatusError in chain")
	}
	if se.StatusCode() != 18 {
		t.Errorf("StatusCode() = %d, want 18", se.StatusCode())
	}
}

func TestStatusError_UnknownCodeMessage(t *testing.T) {
	err := NewStatusError(12345)
	want := "daq status 12345: Unknown Error"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestStatusError_Classification(t *testing.T) {
	err := NewStatusError(20)

	// Hardware statuses feed the retry path and surface their code
	if !daqerrors.IsTransient(err) {
		t.Error("expected status errors to classify transient")
	}
	if got := daqerrors.Code(err); got != 20 {
		t.Errorf("Code() = %d, want 20", got)
	}
	if got := daqerrors.Code(stderrors.New("plain")); got != 0 {
		t.Errorf("Code(plain) = %d, want 0", got)
	}
}
