package motor

// InputFlag names one bit of the driver input command register
// (0x007D, spec.md §4.3). Bit positions follow the AR-KD2 Modbus
// profile's direct-I/O command layout: the six operation-select bits
// (M0..M2, Ms0..Ms2) occupy the low six bits so DecodeOperationIdFromInputRaw
// can read them as a contiguous 6-bit field.
type InputFlag uint16

const (
	FlagM0 InputFlag = 1 << iota
	FlagM1
	FlagM2
	FlagMs0
	FlagMs1
	FlagMs2
	FlagStart
	FlagHome
	FlagStop
	FlagFree
	FlagSStart
	FlagPlusJog
	FlagMinusJog
	FlagFwd
	FlagRvs
)

// inputFlagNames lists every input flag with its display name, in the
// order original_source/Server/src/Motor.cpp's kInputFlags table uses.
var inputFlagNames = []struct {
	flag InputFlag
	name string
}{
	{FlagM0, "M0"}, {FlagM1, "M1"}, {FlagM2, "M2"},
	{FlagStart, "START"}, {FlagHome, "HOME"}, {FlagStop, "STOP"}, {FlagFree, "FREE"},
	{FlagMs0, "MS0"}, {FlagMs1, "MS1"}, {FlagMs2, "MS2"},
	{FlagSStart, "SSTART"}, {FlagPlusJog, "+JOG"}, {FlagMinusJog, "-JOG"},
	{FlagFwd, "FWD"}, {FlagRvs, "RVS"},
}

// opSelectMask covers the six operation-data-select bits.
const opSelectMask InputFlag = FlagM0 | FlagM1 | FlagM2 | FlagMs0 | FlagMs1 | FlagMs2

// OutputFlag names one bit of the driver output status register
// (0x007F, spec.md §4.3).
type OutputFlag uint16

const (
	FlagM0R OutputFlag = 1 << iota
	FlagM1R
	FlagM2R
	FlagStartR
	FlagHomeP
	FlagReady
	FlagWarningOut
	FlagAlarmOut
	FlagSBusy
	FlagArea1
	FlagArea2
	FlagArea3
	FlagTim
	FlagMove
	FlagEnd
	FlagTlc
)

var outputFlagNames = []struct {
	flag OutputFlag
	name string
}{
	{FlagM0R, "M0_R"}, {FlagM1R, "M1_R"}, {FlagM2R, "M2_R"}, {FlagStartR, "START_R"},
	{FlagHomeP, "HOME-P"}, {FlagReady, "READY"}, {FlagWarningOut, "WNG"}, {FlagAlarmOut, "ALM"},
	{FlagSBusy, "S-BSY"}, {FlagArea1, "AREA1"}, {FlagArea2, "AREA2"}, {FlagArea3, "AREA3"},
	{FlagTim, "TIM"}, {FlagMove, "MOVE"}, {FlagEnd, "END"}, {FlagTlc, "TLC"},
}

// FlagStatus is a decoded bit field plus the names of its active bits,
// used only for diagnostic logging.
type FlagStatus struct {
	Raw         uint16
	ActiveFlags []string
}

// DecodeDriverInputStatus decodes the raw input-command register into
// its named flags.
func DecodeDriverInputStatus(raw uint16) FlagStatus {
	s := FlagStatus{Raw: raw}
	for _, f := range inputFlagNames {
		if raw&uint16(f.flag) != 0 {
			s.ActiveFlags = append(s.ActiveFlags, f.name)
		}
	}
	return s
}

// DecodeDriverOutputStatus decodes the raw output-status register into
// its named flags.
func DecodeDriverOutputStatus(raw uint16) FlagStatus {
	s := FlagStatus{Raw: raw}
	for _, f := range outputFlagNames {
		if raw&uint16(f.flag) != 0 {
			s.ActiveFlags = append(s.ActiveFlags, f.name)
		}
	}
	return s
}

// DirectIoStatus is the decoded direct-I/O + brake status register pair
// (0x00D4/0x00D5).
type DirectIoStatus struct {
	Reg00D4     uint16
	Reg00D5     uint16
	ActiveFlags []string
}

// DecodeDirectIoAndBrakeStatus decodes the 32-bit direct-I/O + brake
// status value into named OUT/IN/limit-switch/home signals.
func DecodeDirectIoAndBrakeStatus(raw uint32) DirectIoStatus {
	reg00D4 := uint16(raw >> 16)
	reg00D5 := uint16(raw & 0xFFFF)
	s := DirectIoStatus{Reg00D4: reg00D4, Reg00D5: reg00D5}

	if reg00D4&(1<<0) != 0 {
		s.ActiveFlags = append(s.ActiveFlags, "OUT0")
	}
	if reg00D4&(1<<1) != 0 {
		s.ActiveFlags = append(s.ActiveFlags, "OUT1")
	}
	if reg00D4&(1<<2) != 0 {
		s.ActiveFlags = append(s.ActiveFlags, "OUT2")
	}
	if reg00D4&(1<<3) != 0 {
		s.ActiveFlags = append(s.ActiveFlags, "OUT3")
	}
	if reg00D4&(1<<4) != 0 {
		s.ActiveFlags = append(s.ActiveFlags, "OUT4")
	}
	if reg00D4&(1<<5) != 0 {
		s.ActiveFlags = append(s.ActiveFlags, "OUT5")
	}
	if reg00D4&(1<<8) != 0 {
		s.ActiveFlags = append(s.ActiveFlags, "MB")
	}
	if reg00D5&(1<<13) != 0 {
		s.ActiveFlags = append(s.ActiveFlags, "IN7")
	}
	if reg00D5&(1<<12) != 0 {
		s.ActiveFlags = append(s.ActiveFlags, "IN6")
	}
	if reg00D5&(1<<11) != 0 {
		s.ActiveFlags = append(s.ActiveFlags, "IN5")
	}
	if reg00D5&(1<<10) != 0 {
		s.ActiveFlags = append(s.ActiveFlags, "IN4")
	}
	if reg00D5&(1<<9) != 0 {
		s.ActiveFlags = append(s.ActiveFlags, "IN3")
	}
	if reg00D5&(1<<8) != 0 {
		s.ActiveFlags = append(s.ActiveFlags, "IN2")
	}
	if reg00D5&(1<<7) != 0 {
		s.ActiveFlags = append(s.ActiveFlags, "IN1")
	}
	if reg00D5&(1<<6) != 0 {
		s.ActiveFlags = append(s.ActiveFlags, "IN0")
	}
	if reg00D5&(1<<3) != 0 {
		s.ActiveFlags = append(s.ActiveFlags, "SLIT")
	}
	if reg00D5&(1<<2) != 0 {
		s.ActiveFlags = append(s.ActiveFlags, "HOMES")
	}
	if reg00D5&(1<<1) != 0 {
		s.ActiveFlags = append(s.ActiveFlags, "-LS")
	}
	if reg00D5&(1<<0) != 0 {
		s.ActiveFlags = append(s.ActiveFlags, "+LS")
	}
	return s
}

// DecodeOperationIdFromInputRaw gathers the six operation-select bits
// (M0, M1, M2, Ms0, Ms1, Ms2) into a 0..63 operation-data id.
func DecodeOperationIdFromInputRaw(raw uint16) int {
	return int(InputFlag(raw) & opSelectMask)
}

// EncodeOperationIdIntoInputRaw preserves every non-selection bit of raw
// and overwrites the six operation-select bits with id (0..63).
func EncodeOperationIdIntoInputRaw(raw uint16, id int) uint16 {
	cleared := raw &^ uint16(opSelectMask)
	return cleared | (uint16(id) & uint16(opSelectMask))
}
