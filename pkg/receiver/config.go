package receiver

import (
	"fmt"
	"log/slog"
	"time"
)

// Mode определяет режим работы UDP сокета приёмника.
//
// Наблюдаемые в ранних прошивках две ветки (connect-and-filter и
// bind-and-accept-any) сведены к одному конфигурационному выбору,
// а не к двум кодовым базам.
type Mode int

const (
	// ModeConnected сокет подключается к удалённому отправителю через connect():
	// ядро ОС отбрасывает датаграммы от других источников
	ModeConnected Mode = iota

	// ModeBound сокет привязывается к локальному порту 0.0.0.0:<port>
	// и принимает датаграммы от любого отправителя
	ModeBound
)

func (m Mode) String() string {
	switch m {
	case ModeConnected:
		return "connected"
	case ModeBound:
		return "bound"
	default:
		return "unknown"
	}
}

// Константы конфигурации по умолчанию
const (
	// DefaultReadBufferSize размер буфера одной датаграммы.
	// 2048 байт покрывает типичный RTP пакет с запасом под расширения
	DefaultReadBufferSize = 2048

	// MinSocketRecvBuffer минимальный приёмный буфер сокета.
	// 32KB терпит пачечную доставку датаграмм без потерь
	MinSocketRecvBuffer = 32 * 1024

	// DefaultSocketRecvBuffer приёмный буфер сокета по умолчанию.
	// 64KB достаточно для буферизации ~3.2 секунд аудио G.711 (20ms пакеты)
	DefaultSocketRecvBuffer = 64 * 1024

	// DefaultInitialReadTimeout таймаут чтения до первого пакета.
	// Короткий, чтобы не задерживать отправку probe датаграмм
	DefaultInitialReadTimeout = 100 * time.Millisecond

	// DefaultSteadyReadTimeout таймаут чтения после первого пакета.
	// Длиннее для снижения CPU нагрузки; ограничивает задержку Stop()
	DefaultSteadyReadTimeout = 500 * time.Millisecond

	// DefaultProbeInterval интервал отправки handshake probe
	DefaultProbeInterval = 2 * time.Second

	// DefaultReportInterval интервал отчётов статистики
	DefaultReportInterval = 5 * time.Second

	// DefaultErrorBackoff пауза после сетевой ошибки (кроме таймаута),
	// чтобы не крутить горячий цикл при устойчивом сбое ОС
	DefaultErrorBackoff = 50 * time.Millisecond
)

// Config конфигурация приёмника RTP потока.
// Режимы взаимоисключающие: ModeConnected требует RemoteAddr и RemotePort,
// ModeBound требует LocalPort (RemoteAddr опционален и используется
// только как адрес для handshake probe).
type Config struct {
	Mode       Mode
	LocalPort  int    // ModeBound: локальный UDP порт
	RemoteAddr string // IP литерал отправителя (DNS имена не разрешаются)
	RemotePort int    // UDP порт отправителя

	// Транспорт для тестов; если nil, Start() открывает UDP сокет
	Transport Transport

	SocketRecvBuffer   int           // Приёмный буфер сокета (>= 32KB)
	ReadBufferSize     int           // Буфер одной датаграммы
	InitialReadTimeout time.Duration // Таймаут чтения до первого пакета
	SteadyReadTimeout  time.Duration // Таймаут чтения после первого пакета
	ProbeInterval      time.Duration // Интервал handshake probe
	ReportInterval     time.Duration // Интервал отчётов статистики
	ErrorBackoff       time.Duration // Пауза после сетевой ошибки

	// OnReport вызывается из горутины приёма на каждый отчёт статистики
	OnReport func(Report)

	// Metrics опциональный экспорт в Prometheus
	Metrics *Metrics

	// Logger опциональный логгер; по умолчанию slog.Default
	// с полем component=rtp_receiver
	Logger *slog.Logger
}

// ApplyDefaults применяет значения по умолчанию к незаполненным полям
func (c *Config) ApplyDefaults() {
	if c.SocketRecvBuffer == 0 {
		c.SocketRecvBuffer = DefaultSocketRecvBuffer
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = DefaultReadBufferSize
	}
	if c.InitialReadTimeout == 0 {
		c.InitialReadTimeout = DefaultInitialReadTimeout
	}
	if c.SteadyReadTimeout == 0 {
		c.SteadyReadTimeout = DefaultSteadyReadTimeout
	}
	if c.ProbeInterval == 0 {
		c.ProbeInterval = DefaultProbeInterval
	}
	if c.ReportInterval == 0 {
		c.ReportInterval = DefaultReportInterval
	}
	if c.ErrorBackoff == 0 {
		c.ErrorBackoff = DefaultErrorBackoff
	}
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeConnected:
		if c.RemoteAddr == "" {
			return fmt.Errorf("режим connected требует удалённый адрес")
		}
		if c.RemotePort <= 0 || c.RemotePort > 65535 {
			return fmt.Errorf("невалидный удалённый порт: %d", c.RemotePort)
		}
	case ModeBound:
		if c.LocalPort < 0 || c.LocalPort > 65535 {
			return fmt.Errorf("невалидный локальный порт: %d", c.LocalPort)
		}
		if c.RemoteAddr != "" && (c.RemotePort <= 0 || c.RemotePort > 65535) {
			return fmt.Errorf("невалидный удалённый порт для probe: %d", c.RemotePort)
		}
	default:
		return fmt.Errorf("неизвестный режим: %d", c.Mode)
	}

	if c.SocketRecvBuffer < MinSocketRecvBuffer {
		return fmt.Errorf("приёмный буфер сокета %d меньше минимума %d",
			c.SocketRecvBuffer, MinSocketRecvBuffer)
	}

	return nil
}
