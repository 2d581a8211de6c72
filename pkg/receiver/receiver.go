// Package receiver реализует приём RTP аудио потока по UDP.
//
// Архитектура основана на принципе разделения ответственности:
//   - Transport: владение UDP сокетом (bind/connect, буферы, teardown)
//   - handshakeCoordinator: rendezvous с отправителем через probe датаграммы
//   - statsWindow: счётчики пакетов/байт и периодические отчёты
//   - Receiver: координирует компоненты и ведёт цикл приёма
//
// Разбор заголовков выполняет pkg/rtp; ни jitter buffer, ни RTCP,
// ни декодирование кодеков здесь нет - приёмник разбирает заголовки,
// управляет сокетом и считает статистику.
//
// Модель многопоточности: ровно одна фоновая горутина приёма на
// экземпляр. Start/Stop/Stats можно вызывать из управляющего потока;
// отмена кооперативная через флаг, проверяемый на каждом таймауте
// чтения. Stop() не закрывает сокет, пока горутина не завершилась.
package receiver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/looplab/fsm"

	"github.com/arzzra/rtp_receiver/pkg/rtp"
)

// Состояния приёмника
const (
	StateStopped = "stopped"
	StateRunning = "running"
)

// verbosePacketLimit количество первых пакетов, логируемых на уровне
// Info; дальше приём виден только в Debug и статистике
const verbosePacketLimit = 5

// newReceiverFSM возвращает машину состояний жизненного цикла.
// События: start (stopped -> running), stop (running -> stopped).
func newReceiverFSM() *fsm.FSM {
	return fsm.NewFSM(
		StateStopped,
		fsm.Events{
			{Name: "start", Src: []string{StateStopped}, Dst: StateRunning},
			{Name: "stop", Src: []string{StateRunning}, Dst: StateStopped},
		}, nil,
	)
}

// Receiver принимает RTP поток по UDP в одной фоновой горутине.
// Экземпляр владеет своим сокетом и горутиной эксклюзивно: оба
// создаются в Start() и уничтожаются в Stop().
type Receiver struct {
	config  Config
	logger  *slog.Logger
	metrics *Metrics

	// Управление жизненным циклом: stateMutex сериализует Start/Stop,
	// running это флаг отмены для горутины приёма
	stateMutex sync.Mutex
	state      *fsm.FSM
	running    atomic.Bool
	wg         sync.WaitGroup

	transport Transport
	handshake *handshakeCoordinator
	stats     *statsWindow

	// Счётчик verbose логирования первых пакетов. Поле экземпляра,
	// а не function-local static: состояние должно умирать вместе
	// с приёмником
	verbosePackets int
}

// New создает приёмник с проверкой конфигурации. Сокет не открывается
// до вызова Start().
func New(config Config) (*Receiver, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("невалидная конфигурация: %w", err)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default().With(slog.String("component", "rtp_receiver"))
	}

	r := &Receiver{
		config:  config,
		logger:  logger,
		metrics: config.Metrics,
		state:   newReceiverFSM(),
	}
	r.stats = newStatsWindow(config.ReportInterval, config.OnReport, logger, config.Metrics)

	return r, nil
}

// Start открывает транспорт и запускает горутину приёма.
// Повторный Start без Stop возвращает ErrAlreadyRunning и ничего
// не меняет. Ошибки конфигурации и открытия сокета возвращаются
// синхронно; приёмник остаётся остановленным.
func (r *Receiver) Start() error {
	r.stateMutex.Lock()
	defer r.stateMutex.Unlock()

	if r.state.Current() == StateRunning {
		r.logger.Warn("Приёмник уже запущен")
		return ErrAlreadyRunning
	}

	transport := r.config.Transport
	if transport == nil {
		var err error
		transport, err = NewUDPTransport(r.config)
		if err != nil {
			return fmt.Errorf("ошибка открытия транспорта: %w", err)
		}
	}
	r.transport = transport

	// Probe имеет смысл только при известном удалённом адресе:
	// connected режим или bound с настроенной целью probe
	r.handshake = nil
	if transport.RemoteAddr() != nil {
		r.handshake = newHandshakeCoordinator(transport, r.config.ProbeInterval,
			r.logger, r.metrics)
	}

	r.stats.reset(time.Now())
	r.verbosePackets = 0

	r.running.Store(true)
	r.wg.Add(1)
	go r.receiveLoop()

	if err := r.state.Event(context.Background(), "start"); err != nil {
		// Недостижимо: переход stopped->start всегда разрешён
		r.logger.Error("Ошибка перехода состояния", slog.String("error", err.Error()))
	}

	r.logger.Info("Приёмник запущен",
		slog.String("mode", r.config.Mode.String()),
		slog.String("local_addr", addrString(transport.LocalAddr())),
		slog.String("remote_addr", addrString(transport.RemoteAddr())))

	return nil
}

// Stop останавливает горутину приёма и закрывает сокет.
// Блокируется до фактического завершения горутины (до одного таймаута
// чтения); сокет закрывается только после этого, чтобы исключить
// гонку close/receive. Stop остановленного приёмника это no-op.
func (r *Receiver) Stop() error {
	r.stateMutex.Lock()
	defer r.stateMutex.Unlock()

	if r.state.Current() != StateRunning {
		return nil
	}

	r.running.Store(false)
	r.wg.Wait()

	err := r.transport.Close()
	r.transport = nil
	r.handshake = nil

	if fsmErr := r.state.Event(context.Background(), "stop"); fsmErr != nil {
		r.logger.Error("Ошибка перехода состояния", slog.String("error", fsmErr.Error()))
	}

	r.logger.Info("Приёмник остановлен",
		slog.Uint64("packets_received", r.stats.packetsReceived.Load()))

	return err
}

// IsRunning проверяет, запущен ли приёмник
func (r *Receiver) IsRunning() bool {
	return r.state.Current() == StateRunning
}

// State возвращает текущее состояние приёмника ("stopped" или "running")
func (r *Receiver) State() string {
	return r.state.Current()
}

// Stats возвращает снимок счётчиков; безопасно из любого потока
func (r *Receiver) Stats() Statistics {
	return r.stats.snapshot()
}

// LocalAddr возвращает локальный адрес сокета запущенного приёмника
func (r *Receiver) LocalAddr() string {
	r.stateMutex.Lock()
	defer r.stateMutex.Unlock()

	if r.transport == nil {
		return ""
	}
	return addrString(r.transport.LocalAddr())
}

// RemoteAddr возвращает удалённый адрес, если он известен
func (r *Receiver) RemoteAddr() string {
	r.stateMutex.Lock()
	defer r.stateMutex.Unlock()

	if r.transport == nil {
		return ""
	}
	return addrString(r.transport.RemoteAddr())
}

// receiveLoop основной цикл приёма датаграмм.
//
// Таймаут чтения это checkpoint отмены: на каждом истечении
// перепроверяется флаг running. До первого пакета таймаут короткий,
// чтобы не задерживать probe; после - длиннее, снижая нагрузку CPU.
func (r *Receiver) receiveLoop() {
	defer r.wg.Done()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Паника в цикле приёма",
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	buf := make([]byte, r.config.ReadBufferSize)
	awaitingFirst := true

	for r.running.Load() {
		if r.handshake != nil {
			r.handshake.maybeProbe(time.Now())
		}

		timeout := r.config.SteadyReadTimeout
		if awaitingFirst {
			timeout = r.config.InitialReadTimeout
		}

		n, addr, err := r.transport.Receive(buf, timeout)
		if err != nil {
			if isTimeoutError(err) {
				r.stats.maybeReport(time.Now())
				continue
			}
			if !r.running.Load() {
				return // Stop() в процессе, сокет может быть в teardown
			}
			r.logger.Error("Ошибка приёма датаграммы",
				slog.String("error", err.Error()))
			r.metrics.onTransportError()
			time.Sleep(r.config.ErrorBackoff)
			continue
		}

		// Первая датаграмма фиксируется до разбора заголовка: даже
		// битый пакет доказывает, что отправитель нас нашёл
		if awaitingFirst {
			awaitingFirst = false
			if r.handshake != nil {
				r.handshake.packetReceived()
			}
		}

		header, payload, err := rtp.Decode(buf[:n])
		if err != nil {
			r.logger.Warn("Отброшена невалидная датаграмма",
				slog.Int("size", n),
				slog.String("from", addrString(addr)),
				slog.String("error", err.Error()))
			r.metrics.onDecodeError()
			continue
		}

		r.stats.record(len(payload))

		if r.verbosePackets < verbosePacketLimit {
			r.verbosePackets++
			r.logger.Info("Принят RTP пакет",
				slog.Int("seq", int(header.SequenceNumber)),
				slog.String("payload_type", rtp.PayloadType(header.PayloadType).String()),
				slog.Int("payload_bytes", len(payload)),
				slog.String("from", addrString(addr)))
		} else {
			r.logger.Debug("Принят RTP пакет",
				slog.Int("seq", int(header.SequenceNumber)),
				slog.Int("payload_bytes", len(payload)))
		}

		r.stats.maybeReport(time.Now())
	}
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}
