package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"goa.design/clue/log"
)

// OCRHandler forwards an uploaded image to the speech/vision service.
type OCRHandler struct {
	target    string
	maxUpload int64
	client    *http.Client
}

func NewOCRHandler(speechVisionURL string, maxUploadMB int, client *http.Client) *OCRHandler {
	if client == nil {
		client = http.DefaultClient
	}
	if maxUploadMB <= 0 {
		maxUploadMB = 25
	}
	return &OCRHandler{
		target:    strings.TrimRight(speechVisionURL, "/") + "/ocr",
		maxUpload: int64(maxUploadMB) << 20,
		client:    client,
	}
}

type ocrErrorResponse struct {
	Error interface{} `json:"error"`
	Data  interface{} `json:"data,omitempty"`
}

func (h *OCRHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE",
				fmt.Sprintf("file exceeds %d MB", h.maxUpload>>20), r))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "file is required (multipart/form-data, key: file)", r))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "file is required (multipart/form-data, key: file)", r))
		return
	}
	defer file.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, header.Filename))
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	partHeader.Set("Content-Type", contentType)
	part, err := mw.CreatePart(partHeader)
	if err == nil {
		_, err = io.Copy(part, file)
	}
	if err == nil {
		err = mw.Close()
	}
	if err != nil {
		log.Error(r.Context(), err, log.KV{K: "msg", V: "ocr request build failed"})
		internalError(w, r)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, h.target, &body)
	if err != nil {
		internalError(w, r)
		return
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := h.client.Do(req)
	if err != nil {
		log.Error(r.Context(), err, log.KV{K: "msg", V: "ocr service unreachable"}, log.KV{K: "target", V: h.target})
		writeJSON(w, http.StatusBadGateway, errorResp("UPSTREAM_ERROR", "OCR service unavailable", r))
		return
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResp("UPSTREAM_ERROR", "OCR service response could not be read", r))
		return
	}
	data := decodeOCRBody(raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		writeJSON(w, resp.StatusCode, ocrErrorResponse{
			Error: errorResp("UPSTREAM_ERROR", "AI service error", r).Error,
			Data:  data,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": data})
}

// decodeOCRBody returns the service's JSON as is, or wraps a non-JSON body as
// {"raw": text}.
func decodeOCRBody(raw []byte) interface{} {
	var data json.RawMessage
	if err := json.Unmarshal(raw, &data); err == nil {
		return data
	}
	return map[string]string{"raw": string(raw)}
}
