// Тестовый отправитель RTP потока для проверки приёмника.
//
// Повторяет поведение сервера потокового аудио: привязывается к порту,
// ждёт rendezvous датаграмму от приёмника (например RTP_CLIENT_READY),
// затем стримит синтетические PCMU фреймы на адрес приёмника:
//
//	rtp_sender -port 5004 -duration 30s
//
// Либо стримит сразу на известный адрес приёмника без ожидания:
//
//	rtp_sender -target 192.168.1.50:5004
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"os"
	"time"

	pionrtp "github.com/pion/rtp"
)

const (
	// 20ms фрейм G.711: 160 байт payload, шаг timestamp 160
	frameSize     = 160
	frameInterval = 20 * time.Millisecond
)

func main() {
	var (
		port     = flag.Int("port", 5004, "Локальный порт для ожидания rendezvous")
		target   = flag.String("target", "", "Адрес приёмника host:port (пусто = ждать rendezvous)")
		duration = flag.Duration("duration", 30*time.Second, "Длительность потока")
	)
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := run(*port, *target, *duration); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func run(port int, target string, duration time.Duration) error {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port})
	if err != nil {
		return fmt.Errorf("не удалось открыть сокет: %w", err)
	}
	defer conn.Close()

	var clientAddr *net.UDPAddr
	if target != "" {
		clientAddr, err = net.ResolveUDPAddr("udp", target)
		if err != nil {
			return fmt.Errorf("невалидный адрес приёмника: %w", err)
		}
	} else {
		slog.Info("Ожидаем rendezvous датаграмму от приёмника",
			slog.Int("port", port))

		buf := make([]byte, 256)
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			return fmt.Errorf("ошибка ожидания rendezvous: %w", err)
		}
		clientAddr = addr
		slog.Info("Приёмник найден",
			slog.String("addr", addr.String()),
			slog.String("token", string(buf[:n])))
	}

	return stream(conn, clientAddr, duration)
}

// stream отправляет синтетические PCMU фреймы с RTP инкапсуляцией
func stream(conn *net.UDPConn, clientAddr *net.UDPAddr, duration time.Duration) error {
	packet := &pionrtp.Packet{
		Header: pionrtp.Header{
			Version:     2,
			PayloadType: 0, // PCMU
			SSRC:        rand.Uint32(),
			Marker:      true, // начало потока
		},
		Payload: make([]byte, frameSize),
	}

	slog.Info("Стримим поток",
		slog.String("target", clientAddr.String()),
		slog.Duration("duration", duration))

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	deadline := time.Now().Add(duration)

	sent := 0
	for now := range ticker.C {
		if now.After(deadline) {
			break
		}

		// Псевдослучайный шум вместо настоящего аудио
		for i := range packet.Payload {
			packet.Payload[i] = byte(rand.Intn(256))
		}

		data, err := packet.Marshal()
		if err != nil {
			return fmt.Errorf("ошибка маршалинга RTP пакета: %w", err)
		}
		if _, err := conn.WriteToUDP(data, clientAddr); err != nil {
			return fmt.Errorf("ошибка отправки: %w", err)
		}

		sent++
		packet.SequenceNumber++
		packet.Timestamp += frameSize
		packet.Marker = false
	}

	slog.Info("Поток завершён", slog.Int("packets_sent", sent))
	return nil
}
