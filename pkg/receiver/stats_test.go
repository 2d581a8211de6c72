package receiver

import (
	"log/slog"
	"testing"
	"time"
)

// === ТЕСТЫ ОКНА СТАТИСТИКИ ===

func newTestStatsWindow(interval time.Duration, onReport func(Report)) *statsWindow {
	return newStatsWindow(interval, onReport, slog.Default(), nil)
}

// TestStatsWindowReport проверяет расчёт отчёта и сброс окна
func TestStatsWindowReport(t *testing.T) {
	var reports []Report
	s := newTestStatsWindow(5*time.Second, func(r Report) {
		reports = append(reports, r)
	})

	start := time.Now()
	s.reset(start)

	s.record(1000)
	s.record(1000)

	// Окно ещё не истекло - отчёта нет
	s.maybeReport(start.Add(2 * time.Second))
	if len(reports) != 0 {
		t.Fatal("отчёт выдан до истечения окна")
	}

	// Окно истекло
	s.maybeReport(start.Add(5 * time.Second))
	if len(reports) != 1 {
		t.Fatal("отчёт не выдан по истечении окна")
	}

	rep := reports[0]
	if rep.Packets != 2 {
		t.Errorf("packets = %d, ожидалось 2", rep.Packets)
	}
	wantKbps := float64(2000*8) / 5000.0
	if rep.Kbps < wantKbps-0.01 || rep.Kbps > wantKbps+0.01 {
		t.Errorf("kbps = %f, ожидалось %f", rep.Kbps, wantKbps)
	}
	if rep.Kbps < 0 {
		t.Error("отрицательная пропускная способность")
	}

	// Окно сброшено: байты нового окна не включают старые
	snapshot := s.snapshot()
	if snapshot.WindowBytes != 0 {
		t.Errorf("окно не сброшено: %d байт", snapshot.WindowBytes)
	}
	if snapshot.PacketsReceived != 2 {
		t.Error("lifetime счётчик пострадал от сброса окна")
	}
}

// TestStatsWindowZeroElapsed проверяет что окно нулевой длительности
// не порождает отчёт (защита от деления на ноль)
func TestStatsWindowZeroElapsed(t *testing.T) {
	var reports []Report
	s := newTestStatsWindow(0, func(r Report) {
		reports = append(reports, r)
	})

	start := time.Now()
	s.reset(start)
	s.record(500)

	// Интервал 0 и нулевое прошедшее время: elapsed < 1ms,
	// elapsedMs == 0, отчёта быть не должно
	s.maybeReport(start)
	if len(reports) != 0 {
		t.Fatal("отчёт выдан при нулевой длительности окна")
	}

	// Обычный тик после реального времени работает
	s.maybeReport(start.Add(time.Second))
	if len(reports) != 1 {
		t.Fatal("отчёт не выдан после ненулевого окна")
	}
}

// TestStatsWindowSecondWindow проверяет что следующее окно отражает
// только свой трафик
func TestStatsWindowSecondWindow(t *testing.T) {
	var reports []Report
	s := newTestStatsWindow(time.Second, func(r Report) {
		reports = append(reports, r)
	})

	start := time.Now()
	s.reset(start)

	s.record(1024)
	s.maybeReport(start.Add(time.Second))

	s.record(2048)
	s.maybeReport(start.Add(2 * time.Second))

	if len(reports) != 2 {
		t.Fatalf("выдано %d отчётов вместо 2", len(reports))
	}
	if reports[0].WindowKB != 1.0 {
		t.Errorf("первое окно: %f KB, ожидалось 1.0", reports[0].WindowKB)
	}
	if reports[1].WindowKB != 2.0 {
		t.Errorf("второе окно: %f KB, ожидалось 2.0", reports[1].WindowKB)
	}
	// Lifetime счётчик монотонен через окна
	if reports[1].Packets != 2 {
		t.Errorf("lifetime packets = %d, ожидалось 2", reports[1].Packets)
	}
}
