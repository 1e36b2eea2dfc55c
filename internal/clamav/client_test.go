package clamav

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/George-Hudson/TANF-app/internal/domain/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(srv.URL, 5*time.Second, logger)
}

func TestScan_Clean(t *testing.T) {
	var gotFilename string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ошибка парсинга multipart: %v", err)
		}
		_, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("поле file отсутствует: %v", err)
		} else {
			gotFilename = header.Filename
		}
		w.WriteHeader(http.StatusOK)
	})

	result, err := client.Scan(context.Background(), strings.NewReader("file content"), "report.txt")
	if err != nil {
		t.Fatalf("Scan() вернул ошибку: %v", err)
	}
	if result != model.ScanResultClean {
		t.Errorf("result = %q, ожидается CLEAN", result)
	}
	if gotFilename != "report.txt" {
		t.Errorf("имя файла в форме = %q, ожидается report.txt", gotFilename)
	}
}

func TestScan_Infected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotAcceptable)
	})

	result, err := client.Scan(context.Background(), strings.NewReader("eicar"), "virus.txt")
	if err != nil {
		t.Fatalf("Scan() вернул ошибку: %v", err)
	}
	if result != model.ScanResultInfected {
		t.Errorf("result = %q, ожидается INFECTED", result)
	}
}

func TestScan_ScannerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	result, err := client.Scan(context.Background(), strings.NewReader("data"), "file.txt")
	if err == nil {
		t.Fatal("Scan() при 500 от сканера должен вернуть ошибку")
	}
	if result != model.ScanResultError {
		t.Errorf("result = %q, ожидается ERROR", result)
	}
}

func TestScan_ScannerUnavailable(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	// Закрытый порт
	client := New("http://127.0.0.1:1", time.Second, logger)

	result, err := client.Scan(context.Background(), strings.NewReader("data"), "file.txt")
	if err == nil {
		t.Fatal("Scan() при недоступном сканере должен вернуть ошибку")
	}
	if result != model.ScanResultError {
		t.Errorf("result = %q, ожидается ERROR", result)
	}
}

func TestCheckReady(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	})

	status, _ := client.CheckReady()
	if status != "ok" {
		t.Errorf("CheckReady() = %q, любой ответ сканера означает ok", status)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	down := New("http://127.0.0.1:1", time.Second, logger)
	status, _ = down.CheckReady()
	if status != "fail" {
		t.Errorf("CheckReady() недоступного сканера = %q, ожидается fail", status)
	}
}
