package device

import "fmt"

// StatusError is a nonzero driver status returned by a hardware call.
// Status 0 is success and is never materialized as an error value.
type StatusError struct {
	Code int
}

// Error renders the status code with its driver description.
func (e *StatusError) Error() string {
	return fmt.Sprintf("daq status %d: %s", e.Code, StatusText(e.Code))
}

// StatusCode returns the raw driver status code.
func (e *StatusError) StatusCode() int {
	return e.Code
}

// NewStatusError converts a driver status into an error. Status 0 maps to
// nil.
func NewStatusError(code int) error {
	if code == 0 {
		return nil
	}
	return &StatusError{Code: code}
}

// statusText is the driver's status vocabulary. Codes missing from the
// table render as "Unknown Error".
var statusText = map[int]string{
	0:  "No Error",
	1:  "Invalid Board Number",
	2:  "Driver Not Installed",
	3:  "Board Not Detected",
	4:  "Board Not Responding",
	5:  "Invalid Channel Number",
	6:  "Invalid Channel Count",
	7:  "Invalid Gain Code",
	8:  "Invalid Range Code",
	9:  "Invalid Sampling Rate",
	10: "Invalid Sample Count",
	11: "Invalid Buffer Pointer",
	12: "Buffer Too Small",
	13: "Memory Allocation Failed",
	14: "DMA Channel Unavailable",
	15: "DMA Transfer Failed",
	16: "Interrupt Level Conflict",
	17: "Interrupt Not Assigned",
	18: "FIFO Overflow",
	19: "FIFO Underrun",
	20: "A/D Conversion Timeout",
	21: "A/D Not Responding",
	22: "Scan Already Active",
	23: "No Scan In Progress",
	24: "Scan Aborted",
	25: "Trigger Timeout",
	26: "Invalid Trigger Source",
	27: "Invalid Trigger Level",
	28: "External Clock Too Fast",
	29: "External Clock Missing",
	30: "Pacer Configuration Failed",
	31: "Calibration Data Invalid",
	32: "Calibration In Progress",
	33: "EEPROM Read Failed",
	34: "EEPROM Write Failed",
	35: "Firmware Version Unsupported",
	36: "Resource Busy",
	37: "Resource Unavailable",
	38: "Device Handle Invalid",
	39: "Device Already Open",
	40: "Device Not Open",
	41: "Port Configuration Invalid",
	42: "Data Overrun",
	43: "Data Underrun",
	44: "Checksum Error",
	45: "Communication Timeout",
	46: "Communication Failure",
	47: "Invalid Parameter",
	48: "Parameter Out Of Range",
	49: "Function Not Supported",
	50: "Operation Cancelled",
	51: "Thermal Shutdown",
	52: "Power Supply Fault",
	53: "Reference Voltage Fault",
	54: "Input Overvoltage",
	55: "Channel Configuration Conflict",
	56: "Simultaneous Sampling Unsupported",
	57: "Burst Mode Unsupported",
	58: "Watchdog Timeout",
	59: "Internal Driver Error",
	60: "Unknown Hardware Fault",
}

// StatusText returns the driver's descriptive string for a status code.
func StatusText(code int) string {
	if s, ok := statusText[code]; ok {
		return s
	}
	return "Unknown Error"
}
