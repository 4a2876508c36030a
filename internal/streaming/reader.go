// Package streaming содержит компоненты для потоковой загрузки звуков по HTTP
package streaming

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DefaultBufferSize размер буфера чтения по умолчанию
const DefaultBufferSize = 64 * 1024

// Reader представляет буферизованный поток для чтения данных порциями
type Reader struct {
	reader *bufio.Reader
	resp   *http.Response
}

// newClient создает HTTP клиент без общего таймаута для длительного чтения
func newClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			IdleConnTimeout:       300 * time.Second,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   2,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// NewReader открывает поток по url
func NewReader(ctx context.Context, url string, bufferSize int) (*Reader, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	// Сжатие только мешает: звуковые файлы уже сжаты
	req.Header.Set("Accept-Encoding", "identity")
	req.Header.Set("User-Agent", "ambient-mixer/1.0")

	resp, err := newClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		return nil, fmt.Errorf("ошибка HTTP: %s", resp.Status)
	}

	return &Reader{
		reader: bufio.NewReaderSize(resp.Body, bufferSize),
		resp:   resp,
	}, nil
}

// Read реализует интерфейс io.Reader для потокового чтения
func (sr *Reader) Read(p []byte) (n int, err error) {
	return sr.reader.Read(p)
}

// ContentLength возвращает размер ответа или -1, если он неизвестен
func (sr *Reader) ContentLength() int64 {
	return sr.resp.ContentLength
}

// Close закрывает соединение
func (sr *Reader) Close() error {
	return sr.resp.Body.Close()
}

// ProgressFunc получает число записанных байт и общий размер (-1, если неизвестен)
type ProgressFunc func(written, total int64)

type progressWriter struct {
	w        io.Writer
	written  int64
	total    int64
	progress ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	if p.progress != nil {
		p.progress(p.written, p.total)
	}
	return n, err
}

// Download скачивает url в файл dest. Данные пишутся во временный файл
// рядом с dest и переименовываются только после успешной загрузки.
func Download(ctx context.Context, url, dest string, progress ProgressFunc) (int64, error) {
	reader, err := NewReader(ctx, url, DefaultBufferSize)
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return 0, fmt.Errorf("ошибка создания каталога: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	defer os.Remove(tmp.Name())

	pw := &progressWriter{w: tmp, total: reader.ContentLength(), progress: progress}
	written, err := io.Copy(pw, reader)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return written, fmt.Errorf("ошибка загрузки %s: %w", url, err)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return written, fmt.Errorf("ошибка сохранения файла: %w", err)
	}
	return written, nil
}

// FormatProgress возвращает текстовое описание хода загрузки
func FormatProgress(written, total int64) string {
	if total <= 0 {
		return fmt.Sprintf("%.1f КБ", float64(written)/1024)
	}
	return fmt.Sprintf("%.1f / %.1f КБ (%d%%)", float64(written)/1024, float64(total)/1024, written*100/total)
}
