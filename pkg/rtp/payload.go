package rtp

// PayloadType определяет тип payload согласно RFC 3551 Table 4 & 5
type PayloadType uint8

// Аудио payload типы из RFC 3551 (для телефонии)
const (
	PayloadTypePCMU     PayloadType = 0  // μ-law
	PayloadTypeGSM      PayloadType = 3  // GSM 06.10
	PayloadTypeG723     PayloadType = 4  // G.723.1
	PayloadTypeDVI4_8K  PayloadType = 5  // DVI4 8kHz
	PayloadTypeDVI4_16K PayloadType = 6  // DVI4 16kHz
	PayloadTypeLPC      PayloadType = 7  // LPC
	PayloadTypePCMA     PayloadType = 8  // A-law
	PayloadTypeG722     PayloadType = 9  // G.722
	PayloadTypeL16_2CH  PayloadType = 10 // L16 stereo
	PayloadTypeL16_1CH  PayloadType = 11 // L16 mono
	PayloadTypeCN       PayloadType = 13 // Comfort Noise
	PayloadTypeG728     PayloadType = 15 // G.728
	PayloadTypeG729     PayloadType = 18 // G.729
)

// ClockRate возвращает стандартную частоту тактирования для payload типа
// согласно RFC 3551. Для неизвестных типов возвращает 0.
func (pt PayloadType) ClockRate() uint32 {
	switch pt {
	case PayloadTypePCMU, PayloadTypePCMA, PayloadTypeGSM, PayloadTypeG723,
		PayloadTypeDVI4_8K, PayloadTypeLPC, PayloadTypeCN,
		PayloadTypeG728, PayloadTypeG729:
		return 8000
	case PayloadTypeG722:
		// Особенность G.722: 16kHz sampling, но RTP clock 8kHz (RFC 3551)
		return 8000
	case PayloadTypeDVI4_16K:
		return 16000
	case PayloadTypeL16_1CH, PayloadTypeL16_2CH:
		return 44100
	default:
		return 0
	}
}

func (pt PayloadType) String() string {
	switch pt {
	case PayloadTypePCMU:
		return "PCMU"
	case PayloadTypeGSM:
		return "GSM"
	case PayloadTypeG723:
		return "G723"
	case PayloadTypeDVI4_8K:
		return "DVI4/8000"
	case PayloadTypeDVI4_16K:
		return "DVI4/16000"
	case PayloadTypeLPC:
		return "LPC"
	case PayloadTypePCMA:
		return "PCMA"
	case PayloadTypeG722:
		return "G722"
	case PayloadTypeL16_2CH:
		return "L16/stereo"
	case PayloadTypeL16_1CH:
		return "L16/mono"
	case PayloadTypeCN:
		return "CN"
	case PayloadTypeG728:
		return "G728"
	case PayloadTypeG729:
		return "G729"
	default:
		return "unknown"
	}
}
