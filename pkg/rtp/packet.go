// Package rtp реализует разбор и сериализацию RTP заголовков согласно RFC 3550.
//
// Пакет содержит только чистые функции без разделяемого состояния:
// Decode и Encode безопасно вызывать из любой горутины. Никакой работы
// с сетью, jitter buffer или RTCP здесь нет - пакет отвечает
// исключительно за формат заголовка на проводе (RFC 3550 Section 5.1).
package rtp

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Константы формата заголовка согласно RFC 3550 Section 5.1
const (
	// HeaderSize фиксированный размер базового RTP заголовка
	HeaderSize = 12

	// Version единственная поддерживаемая версия протокола RTP
	Version = 2

	// MaxCSRCCount максимальное количество CSRC записей (4-битное поле)
	MaxCSRCCount = 15

	// csrcEntrySize размер одной записи в CSRC списке
	csrcEntrySize = 4

	// extensionHeaderSize размер заголовка расширения (profile id + length)
	extensionHeaderSize = 4
)

// Ошибки декодирования RTP заголовка
var (
	// ErrPacketTooShort пакет короче фиксированного 12-байтного заголовка
	ErrPacketTooShort = errors.New("пакет короче минимального RTP заголовка")

	// ErrUnsupportedVersion старшие 2 бита первого байта не равны 2
	ErrUnsupportedVersion = errors.New("неподдерживаемая версия RTP")

	// ErrHeaderTruncated вычисленный размер заголовка превышает длину пакета
	ErrHeaderTruncated = errors.New("RTP заголовок выходит за границы пакета")
)

// Header представляет разобранный RTP заголовок согласно RFC 3550 Section 5.1
type Header struct {
	Version        uint8    // Версия протокола (всегда 2)
	Padding        bool     // Флаг набивки в конце payload
	Extension      bool     // Флаг заголовка расширения
	Marker         bool     // Маркер значимого события в потоке
	PayloadType    uint8    // Тип payload (7 бит, RFC 3551)
	SequenceNumber uint16   // Порядковый номер пакета
	Timestamp      uint32   // Временная метка в единицах clock rate
	SSRC           uint32   // Идентификатор источника синхронизации
	CSRC           []uint32 // Список contributing sources (0-15 записей)

	// Заголовок расширения (заполняется если Extension == true)
	ExtensionProfile uint16 // Profile-specific идентификатор
	ExtensionData    []byte // Данные расширения, кратны 4 байтам
}

// MarshalSize возвращает размер заголовка в сериализованном виде
func (h *Header) MarshalSize() int {
	size := HeaderSize + len(h.CSRC)*csrcEntrySize
	if h.Extension {
		size += extensionHeaderSize + len(h.ExtensionData)
	}
	return size
}

// Decode разбирает датаграмму на RTP заголовок и payload.
//
// Возвращаемый payload это под-срез входного буфера - копирования нет,
// вызывающая сторона не должна переиспользовать буфер пока payload нужен.
//
// Если установлен флаг padding, последний байт payload трактуется как
// длина набивки и payload укорачивается на неё. Значение больше длины
// payload молча игнорируется: RFC 3550 этот случай не определяет,
// и непрерывность потока важнее одного подозрительного пакета.
func Decode(packet []byte) (Header, []byte, error) {
	var h Header

	if len(packet) < HeaderSize {
		return h, nil, fmt.Errorf("%w: %d байт (минимум %d)",
			ErrPacketTooShort, len(packet), HeaderSize)
	}

	version := packet[0] >> 6
	if version != Version {
		return h, nil, fmt.Errorf("%w: %d (ожидается %d)",
			ErrUnsupportedVersion, version, Version)
	}

	h.Version = version
	h.Padding = packet[0]&0x20 != 0
	h.Extension = packet[0]&0x10 != 0
	csrcCount := int(packet[0] & 0x0F)
	h.Marker = packet[1]&0x80 != 0
	h.PayloadType = packet[1] & 0x7F
	h.SequenceNumber = binary.BigEndian.Uint16(packet[2:4])
	h.Timestamp = binary.BigEndian.Uint32(packet[4:8])
	h.SSRC = binary.BigEndian.Uint32(packet[8:12])

	headerSize := HeaderSize + csrcCount*csrcEntrySize
	if headerSize > len(packet) {
		return h, nil, fmt.Errorf("%w: CSRC список требует %d байт при %d байтах пакета",
			ErrHeaderTruncated, headerSize, len(packet))
	}

	if csrcCount > 0 {
		h.CSRC = make([]uint32, csrcCount)
		for i := range h.CSRC {
			h.CSRC[i] = binary.BigEndian.Uint32(packet[HeaderSize+i*csrcEntrySize:])
		}
	}

	if h.Extension {
		if len(packet) < headerSize+extensionHeaderSize {
			return h, nil, fmt.Errorf("%w: нет места под заголовок расширения",
				ErrHeaderTruncated)
		}
		h.ExtensionProfile = binary.BigEndian.Uint16(packet[headerSize:])
		extWords := int(binary.BigEndian.Uint16(packet[headerSize+2:]))
		extStart := headerSize + extensionHeaderSize
		headerSize = extStart + extWords*csrcEntrySize
		if headerSize > len(packet) {
			return h, nil, fmt.Errorf("%w: расширение требует %d байт при %d байтах пакета",
				ErrHeaderTruncated, headerSize, len(packet))
		}
		h.ExtensionData = packet[extStart:headerSize]
	}

	payload := packet[headerSize:]

	if h.Padding && len(payload) > 0 {
		pad := int(payload[len(payload)-1])
		if pad <= len(payload) {
			payload = payload[:len(payload)-pad]
		}
	}

	return h, payload, nil
}

// Encode сериализует заголовок и payload в единую датаграмму.
// Используется тестовыми отправителями и round-trip тестами;
// сам приёмник пакеты не кодирует.
func Encode(h Header, payload []byte) ([]byte, error) {
	if len(h.CSRC) > MaxCSRCCount {
		return nil, fmt.Errorf("слишком много CSRC записей: %d (максимум %d)",
			len(h.CSRC), MaxCSRCCount)
	}
	if h.PayloadType > 127 {
		return nil, fmt.Errorf("невалидный payload type: %d (максимум 127)", h.PayloadType)
	}
	if h.Extension && len(h.ExtensionData)%csrcEntrySize != 0 {
		return nil, fmt.Errorf("данные расширения не кратны 4 байтам: %d", len(h.ExtensionData))
	}

	buf := make([]byte, h.MarshalSize()+len(payload))

	buf[0] = Version << 6
	if h.Padding {
		buf[0] |= 0x20
	}
	if h.Extension {
		buf[0] |= 0x10
	}
	buf[0] |= uint8(len(h.CSRC))

	buf[1] = h.PayloadType
	if h.Marker {
		buf[1] |= 0x80
	}

	binary.BigEndian.PutUint16(buf[2:4], h.SequenceNumber)
	binary.BigEndian.PutUint32(buf[4:8], h.Timestamp)
	binary.BigEndian.PutUint32(buf[8:12], h.SSRC)

	offset := HeaderSize
	for _, csrc := range h.CSRC {
		binary.BigEndian.PutUint32(buf[offset:], csrc)
		offset += csrcEntrySize
	}

	if h.Extension {
		binary.BigEndian.PutUint16(buf[offset:], h.ExtensionProfile)
		binary.BigEndian.PutUint16(buf[offset+2:], uint16(len(h.ExtensionData)/csrcEntrySize))
		offset += extensionHeaderSize
		offset += copy(buf[offset:], h.ExtensionData)
	}

	copy(buf[offset:], payload)

	return buf, nil
}

// String возвращает краткое описание заголовка для логирования
func (h *Header) String() string {
	return fmt.Sprintf("RTP seq=%d ts=%d ssrc=%08x pt=%d marker=%t",
		h.SequenceNumber, h.Timestamp, h.SSRC, h.PayloadType, h.Marker)
}
