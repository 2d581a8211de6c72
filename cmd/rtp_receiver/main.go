// Приёмник RTP аудио потока по UDP.
//
// Режимы:
//
//	connect - подключение к отправителю (фильтрация по источнику):
//	    rtp_receiver -mode connect -remote 192.168.1.100 -port 5004
//	bind - прослушивание локального порта (любой источник):
//	    rtp_receiver -mode bind -local-port 5004
//	sdp - конфигурация из SDP файла:
//	    rtp_receiver -mode sdp -sdp stream.sdp
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arzzra/rtp_receiver/pkg/receiver"
)

func main() {
	var (
		mode        = flag.String("mode", "connect", "Режим: connect, bind, sdp")
		remoteAddr  = flag.String("remote", "", "IP адрес отправителя (режим connect)")
		remotePort  = flag.Int("port", 5004, "UDP порт отправителя (режим connect)")
		localPort   = flag.Int("local-port", 5004, "Локальный UDP порт (режим bind)")
		sdpFile     = flag.String("sdp", "", "Путь к SDP файлу (режим sdp)")
		metricsAddr = flag.String("metrics", "", "Адрес HTTP endpoint метрик (пусто = выключено)")
		debug       = flag.Bool("debug", false, "Подробное логирование")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	config, err := buildConfig(*mode, *remoteAddr, *remotePort, *localPort, *sdpFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		config.Metrics = receiver.NewMetrics(reg)
		go serveMetrics(*metricsAddr, reg)
	}

	r, err := receiver.New(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка создания приёмника: %v\n", err)
		os.Exit(1)
	}

	if err := r.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка запуска приёмника: %v\n", err)
		os.Exit(1)
	}

	slog.Info("Приёмник работает, Ctrl+C для остановки",
		slog.String("local_addr", r.LocalAddr()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("Останавливаем приёмник...")
	if err := r.Stop(); err != nil {
		slog.Error("Ошибка остановки", slog.String("error", err.Error()))
		os.Exit(1)
	}

	stats := r.Stats()
	slog.Info("Итоговая статистика",
		slog.Uint64("packets", stats.PacketsReceived),
		slog.Uint64("bytes", stats.BytesReceived))
}

// buildConfig строит конфигурацию приёмника из флагов командной строки
func buildConfig(mode, remoteAddr string, remotePort, localPort int, sdpFile string) (receiver.Config, error) {
	switch mode {
	case "connect":
		if remoteAddr == "" {
			return receiver.Config{}, fmt.Errorf("режим connect требует -remote")
		}
		return receiver.Config{
			Mode:       receiver.ModeConnected,
			RemoteAddr: remoteAddr,
			RemotePort: remotePort,
		}, nil

	case "bind":
		config := receiver.Config{
			Mode:      receiver.ModeBound,
			LocalPort: localPort,
		}
		// Опциональная цель probe в bind режиме
		if remoteAddr != "" {
			config.RemoteAddr = remoteAddr
			config.RemotePort = remotePort
		}
		return config, nil

	case "sdp":
		if sdpFile == "" {
			return receiver.Config{}, fmt.Errorf("режим sdp требует -sdp")
		}
		raw, err := os.ReadFile(sdpFile)
		if err != nil {
			return receiver.Config{}, fmt.Errorf("не удалось прочитать SDP файл: %w", err)
		}
		return receiver.ConfigFromSDP(raw)

	default:
		return receiver.Config{}, fmt.Errorf("неизвестный режим: %s (доступны: connect, bind, sdp)", mode)
	}
}

func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	slog.Info("HTTP endpoint метрик запущен", slog.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("Ошибка HTTP сервера метрик", slog.String("error", err.Error()))
	}
}
