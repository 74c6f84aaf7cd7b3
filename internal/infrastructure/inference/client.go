package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"cyto-bot/internal/domain/entity"
	"cyto-bot/internal/domain/port"
)

// Имена операций в сообщениях об ошибках
const (
	OpSegmentation   = "Segmentation"
	OpClassification = "Classification"
	OpQuality        = "Quality assessment"
	OpStain          = "Stain normalization"
	OpMultiCell      = "Multi-cell detection"
	OpBatch          = "Batch processing"
	OpBatchStatus    = "Batch status"
	OpReport         = "Report generation"
	OpExportPDF      = "PDF export"
	OpClasses        = "Class list"
	OpHistory        = "History"
	OpHistoryRecord  = "History record"
	OpHistoryPDF     = "History PDF"
	OpHistoryReport  = "History report"
)

// Пути API бэкенда
const (
	pathSegmentation = "/api/v1/segmentation/predict"
	pathClassify     = "/api/v1/classification/predict"
	pathClasses      = "/api/v1/classification/classes"
	pathQuality      = "/api/v1/quality-assessment"
	pathStain        = "/api/v1/stain-normalization"
	pathMultiCell    = "/api/v1/multi-cell-detect"
	pathBatch        = "/api/v1/batch-process"
	pathReport       = "/api/v1/generate-report"
	pathExportPDF    = "/api/v1/export-pdf"
	pathHistory      = "/api/oldpreds"
)

// DefaultBaseURL адрес бэкенда по умолчанию
const DefaultBaseURL = "http://localhost:8000"

// Config настройки клиента бэкенда
type Config struct {
	BaseURL string
	// Timeout 0 означает таймауты транспорта по умолчанию
	Timeout time.Duration
}

// Client HTTP-клиент сервиса инференса
type Client struct {
	baseURL *url.URL
	client  *http.Client
	logger  *slog.Logger
}

// New создаёт клиент для указанного бэкенда
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	raw := cfg.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}
	baseURL, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", raw)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}, nil
}

// BaseURL возвращает адрес бэкенда
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Analyze отправляет снимок на классификацию и сегментацию
func (c *Client) Analyze(ctx context.Context, file entity.ImageFile, patient port.Patient) (*entity.AnalysisResult, error) {
	form := newForm()
	form.file("file", file)
	form.value("patient_id", patient.ID)
	form.value("patient_name", patient.Name)

	var result entity.AnalysisResult
	if err := c.postForm(ctx, OpSegmentation, pathSegmentation, form, &result); err != nil {
		return nil, err
	}
	c.logResult(OpSegmentation, &result)
	return &result, nil
}

// Classify отправляет снимок только на классификацию
func (c *Client) Classify(ctx context.Context, file entity.ImageFile) (*entity.AnalysisResult, error) {
	form := newForm()
	form.file("file", file)

	var result entity.AnalysisResult
	if err := c.postForm(ctx, OpClassification, pathClassify, form, &result); err != nil {
		return nil, err
	}
	c.logResult(OpClassification, &result)
	return &result, nil
}

// AssessQuality оценивает качество снимка. Ответ бывает как {quality: ...}, так и без обёртки.
func (c *Client) AssessQuality(ctx context.Context, file entity.ImageFile) (*entity.QualityAssessment, error) {
	form := newForm()
	form.file("file", file)

	var raw json.RawMessage
	if err := c.postForm(ctx, OpQuality, pathQuality, form, &raw); err != nil {
		return nil, err
	}
	var quality entity.QualityAssessment
	if err := json.Unmarshal(unwrapField(raw, "quality"), &quality); err != nil {
		return nil, decodeError(OpQuality, err)
	}
	return &quality, nil
}

// NormalizeStain приводит окраску снимка к эталону
func (c *Client) NormalizeStain(ctx context.Context, file, target entity.ImageFile) (*entity.StainNormalization, error) {
	form := newForm()
	form.file("file", file)
	form.file("target", target)

	var result entity.StainNormalization
	if err := c.postForm(ctx, OpStain, pathStain, form, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DetectCells ищет клетки на снимке. Ответ бывает как {multi_cell: ...}, так и без обёртки.
func (c *Client) DetectCells(ctx context.Context, file entity.ImageFile) (*entity.MultiCellDetectionResult, error) {
	form := newForm()
	form.file("file", file)

	var raw json.RawMessage
	if err := c.postForm(ctx, OpMultiCell, pathMultiCell, form, &raw); err != nil {
		return nil, err
	}
	var result entity.MultiCellDetectionResult
	if err := json.Unmarshal(unwrapField(raw, "multi_cell"), &result); err != nil {
		return nil, decodeError(OpMultiCell, err)
	}
	return &result, nil
}

// SubmitBatch отправляет все файлы одним запросом
func (c *Client) SubmitBatch(ctx context.Context, files []entity.ImageFile) (*entity.BatchJob, error) {
	form := newForm()
	for _, f := range files {
		form.file("files", f)
	}

	var job entity.BatchJob
	if err := c.postForm(ctx, OpBatch, pathBatch, form, &job); err != nil {
		return nil, err
	}
	c.logger.Info("batch submitted", "job_id", job.JobID, "files", len(files), "status", job.Status)
	return &job, nil
}

// BatchStatus запрашивает состояние задания
func (c *Client) BatchStatus(ctx context.Context, jobID string) (*entity.BatchJob, error) {
	var job entity.BatchJob
	if err := c.getJSON(ctx, OpBatchStatus, pathBatch+"/"+url.PathEscape(jobID), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// GenerateReport формирует отчёт. Бэкенд возвращает либо PDF, либо JSON-отчёт.
func (c *Client) GenerateReport(ctx context.Context, file entity.ImageFile, analysis []byte) (*entity.ReportOutcome, error) {
	form := newForm()
	form.file("file", file)
	form.value("analysis", string(analysis))

	body, contentType, err := form.encode()
	if err != nil {
		return nil, fmt.Errorf("encode form: %w", err)
	}
	resp, err := c.do(ctx, OpReport, http.MethodPost, pathReport, body, contentType)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if isPDFResponse(resp.Header) {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, transportError(OpReport, err)
		}
		return &entity.ReportOutcome{PDF: data}, nil
	}

	var report entity.AnalysisReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, decodeError(OpReport, err)
	}
	return &entity.ReportOutcome{Report: &report}, nil
}

// ExportPDF выгружает JSON-отчёт в PDF
func (c *Client) ExportPDF(ctx context.Context, report *entity.AnalysisReport) ([]byte, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	resp, err := c.do(ctx, OpExportPDF, http.MethodPost, pathExportPDF, bytes.NewReader(payload), "application/json")
	if err != nil {
		return nil, err
	}
	return c.readAll(OpExportPDF, resp)
}

// Classes список классов классификатора
func (c *Client) Classes(ctx context.Context) ([]string, error) {
	var classes []string
	if err := c.getJSON(ctx, OpClasses, pathClasses, &classes); err != nil {
		return nil, err
	}
	return classes, nil
}

// ListPredictions список прошлых анализов
func (c *Client) ListPredictions(ctx context.Context) ([]entity.HistoricalPrediction, error) {
	var records []entity.HistoricalPrediction
	if err := c.getJSON(ctx, OpHistory, pathHistory, &records); err != nil {
		return nil, err
	}
	c.logger.Debug("history fetched", "count", len(records))
	return records, nil
}

// GetPrediction одна запись истории
func (c *Client) GetPrediction(ctx context.Context, id string) (*entity.HistoricalPrediction, error) {
	var record entity.HistoricalPrediction
	if err := c.getJSON(ctx, OpHistoryRecord, pathHistory+"/"+url.PathEscape(id), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// PredictionPDF PDF-отчёт записи истории
func (c *Client) PredictionPDF(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.do(ctx, OpHistoryPDF, http.MethodGet, pathHistory+"/"+url.PathEscape(id)+"/pdf", nil, "")
	if err != nil {
		return nil, err
	}
	return c.readAll(OpHistoryPDF, resp)
}

// PredictionReport выгрузка отчёта записи истории
func (c *Client) PredictionReport(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.do(ctx, OpHistoryReport, http.MethodGet, pathHistory+"/"+url.PathEscape(id)+"/report", nil, "")
	if err != nil {
		return nil, err
	}
	return c.readAll(OpHistoryReport, resp)
}

func (c *Client) postForm(ctx context.Context, op, path string, form *formBuilder, out any) error {
	body, contentType, err := form.encode()
	if err != nil {
		return fmt.Errorf("encode form: %w", err)
	}
	resp, err := c.do(ctx, op, http.MethodPost, path, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return decodeError(op, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	resp, err := c.do(ctx, op, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return decodeError(op, err)
	}
	return nil
}

func (c *Client) readAll(op string, resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(op, err)
	}
	return data, nil
}

// do выполняет запрос. Ответ не 2xx закрывается и превращается в ошибку.
func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	target := c.baseURL.JoinPath(path)

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json, application/pdf")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "op", op, "url", target.String(), "error", err)
		return nil, transportError(op, err)
	}
	c.logger.Debug("request finished",
		"op", op,
		"method", method,
		"url", target.String(),
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, statusError(op, resp.StatusCode)
	}
	return resp, nil
}

func (c *Client) logResult(op string, r *entity.AnalysisResult) {
	c.logger.Debug("analysis response",
		"op", op,
		"predicted_class", r.PredictedClass,
		"scorecam", r.ScoreCAM != nil,
		"layercam", r.LayerCAM != nil,
		"mask", r.SegmentationMask != nil,
		"original", r.OriginalImage != nil,
		"metrics", r.Metrics != nil,
	)
	for _, w := range r.Validate() {
		c.logger.Warn("analysis response warning", "op", op, "warning", w)
	}
}

// unwrapField достаёт вложенный объект, если ответ обёрнут в поле, иначе возвращает ответ целиком.
func unwrapField(data json.RawMessage, field string) json.RawMessage {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return data
	}
	inner, ok := envelope[field]
	if !ok || isNull(inner) {
		return data
	}
	return inner
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// isPDFResponse определяет PDF по заголовкам ответа
func isPDFResponse(h http.Header) bool {
	if strings.Contains(strings.ToLower(h.Get("Content-Type")), "application/pdf") {
		return true
	}
	disposition := strings.ToLower(h.Get("Content-Disposition"))
	return strings.Contains(disposition, ".pdf") || strings.HasPrefix(disposition, "attachment")
}

// formBuilder собирает multipart/form-data
type formBuilder struct {
	buf    bytes.Buffer
	writer *multipart.Writer
	err    error
}

func newForm() *formBuilder {
	f := &formBuilder{}
	f.writer = multipart.NewWriter(&f.buf)
	return f
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// file добавляет часть с файлом и его заявленным MIME-типом
func (f *formBuilder) file(field string, file entity.ImageFile) {
	if f.err != nil {
		return
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(file.Name)))
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := f.writer.CreatePart(h)
	if err != nil {
		f.err = err
		return
	}
	_, f.err = part.Write(file.Data)
}

// value добавляет текстовое поле; пустые значения пропускаются
func (f *formBuilder) value(field, v string) {
	if f.err != nil || v == "" {
		return
	}
	f.err = f.writer.WriteField(field, v)
}

func (f *formBuilder) encode() (io.Reader, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	if err := f.writer.Close(); err != nil {
		return nil, "", err
	}
	return &f.buf, f.writer.FormDataContentType(), nil
}

// Проверка реализации интерфейсов
var (
	_ port.AnalysisGateway = (*Client)(nil)
	_ port.HistoryGateway  = (*Client)(nil)
)
