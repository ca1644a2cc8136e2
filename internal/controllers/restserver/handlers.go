package restserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/runtimeterrors/trailrunners/internal/backend"
	"github.com/runtimeterrors/trailrunners/internal/log"
	"github.com/runtimeterrors/trailrunners/internal/trail"
	"github.com/runtimeterrors/trailrunners/pkg/responseformat"
)

// multipartMemory is how much of a multipart body is kept in memory before spilling to disk
const multipartMemory = 32 << 20

// convertedFileName is the attachment name of a converted GNSS log
const convertedFileName = "converted_output.gpx"

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// sendError sends an error response in JSON format
func (h *Handlers) sendError(w http.ResponseWriter, req *http.Request, statusCode int, message string, err error) {
	errorResponse := map[string]interface{}{
		"error":     message,
		"status":    statusCode,
		"timestamp": time.Now().Unix(),
	}

	if err != nil {
		errorResponse["details"] = err.Error()
	}

	recordError(w, err)

	logger := log.FromContext(req.Context())
	if statusCode >= 500 {
		logger.Errorw(message, "path", req.URL.Path, "status", statusCode, "error", err)
	} else {
		logger.Debugw(message, "path", req.URL.Path, "status", statusCode, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(errorResponse)
}

// sendBackendError maps a backend client failure onto a response status
func (h *Handlers) sendBackendError(w http.ResponseWriter, req *http.Request, err error) {
	var se *backend.StatusError
	switch {
	case errors.As(err, &se) && se.Code >= 400:
		h.sendError(w, req, se.Code, "Backend rejected the request", err)
	case errors.Is(err, backend.ErrInvalidUpdate):
		h.sendError(w, req, http.StatusBadRequest, "Invalid update parameters", err)
	case errors.Is(err, context.DeadlineExceeded):
		h.sendError(w, req, http.StatusGatewayTimeout, "Backend timed out", err)
	default:
		h.sendError(w, req, http.StatusBadGateway, "Backend unavailable", err)
	}
}

// writeResponse encodes data in the requested format, logging encoding failures
func (h *Handlers) writeResponse(w http.ResponseWriter, req *http.Request, data interface{}) {
	if err := h.formatter.WriteResponse(w, req, data, nil); err != nil {
		log.FromContext(req.Context()).Errorf("error writing response: %v", err)
	}
}

// parseUploadForm bounds the body and parses a multipart form
func (h *Handlers) parseUploadForm(w http.ResponseWriter, req *http.Request) bool {
	req.Body = http.MaxBytesReader(w, req.Body, h.controller.maxUploadBytes())
	if err := req.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.sendError(w, req, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Upload exceeds %d MB", h.controller.cfg.Server.MaxUploadMB), err)
			return false
		}
		h.sendError(w, req, http.StatusBadRequest, "Invalid multipart form", err)
		return false
	}
	return true
}

// formUpload reads an uploaded file field. A missing field is not an error.
func formUpload(req *http.Request, field string) (*backend.Upload, error) {
	f, hdr, err := req.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", field, err)
	}
	return &backend.Upload{
		FileName:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// catalogUpload loads a bundled file by name
func catalogUpload(c *trail.Catalog, name string) (*backend.Upload, error) {
	data, err := c.Open(name)
	if err != nil {
		return nil, err
	}
	return &backend.Upload{FileName: name, Data: data}, nil
}

// resolveUpload returns the uploaded file in fileField, or the bundled file
// named by nameField. Both missing yields a nil upload.
func (h *Handlers) resolveUpload(w http.ResponseWriter, req *http.Request, c *trail.Catalog, fileField, nameField string) (*backend.Upload, bool) {
	up, err := formUpload(req, fileField)
	if err != nil {
		h.sendError(w, req, http.StatusBadRequest, fmt.Sprintf("Invalid %s upload", fileField), err)
		return nil, false
	}
	if up != nil {
		return up, true
	}

	name := req.FormValue(nameField)
	if name == "" {
		return nil, true
	}
	up, err = catalogUpload(c, name)
	if err != nil {
		if errors.Is(err, trail.ErrNotFound) {
			h.sendError(w, req, http.StatusNotFound, fmt.Sprintf("File %q not found", name), err)
		} else {
			h.sendError(w, req, http.StatusInternalServerError, "Error reading bundled file", err)
		}
		return nil, false
	}
	return up, true
}

// respondTrail checks a trail returned by the backend before handing it to the client
func (h *Handlers) respondTrail(w http.ResponseWriter, req *http.Request, t *trail.Trail) {
	if err := t.Validate(); err != nil {
		h.sendError(w, req, http.StatusBadGateway, "Backend returned an invalid trail", err)
		return
	}
	h.writeResponse(w, req, t)
}

// ListTrails returns the names of the bundled trail files
func (h *Handlers) ListTrails(w http.ResponseWriter, req *http.Request) {
	names, err := h.controller.Trails.List()
	if err != nil {
		h.sendError(w, req, http.StatusInternalServerError, "Error listing trails", err)
		return
	}
	h.writeResponse(w, req, names)
}

// ParseTrail forwards an uploaded or bundled GPX file to the backend parser
func (h *Handlers) ParseTrail(w http.ResponseWriter, req *http.Request) {
	if !h.parseUploadForm(w, req) {
		return
	}

	gpx, ok := h.resolveUpload(w, req, h.controller.Trails, "file", "fileName")
	if !ok {
		return
	}
	if gpx == nil {
		h.sendError(w, req, http.StatusBadRequest, "A file or fileName is required", nil)
		return
	}

	info, err := trail.InspectGPX(gpx.Data)
	if err != nil {
		h.sendError(w, req, http.StatusBadRequest, "Invalid GPX file", err)
		return
	}
	log.FromContext(req.Context()).Infow("parsing trail", "file", gpx.FileName,
		"points", info.Points, "length_m", info.Length2DMeters)

	t, err := h.controller.Backend.ParseTrail(req.Context(), *gpx)
	if err != nil {
		h.sendBackendError(w, req, err)
		return
	}
	h.respondTrail(w, req, t)
}

// UploadLidar forwards a LiDAR file, and optionally the GPX trail it covers, to the backend
func (h *Handlers) UploadLidar(w http.ResponseWriter, req *http.Request) {
	if !h.parseUploadForm(w, req) {
		return
	}

	lidar, ok := h.resolveUpload(w, req, h.controller.Lidar, "file", "fileName")
	if !ok {
		return
	}
	if lidar == nil {
		h.sendError(w, req, http.StatusBadRequest, "A LiDAR file or fileName is required", nil)
		return
	}

	gpx, ok := h.resolveUpload(w, req, h.controller.Trails, "gpxFile", "gpxFileName")
	if !ok {
		return
	}

	t, err := h.controller.Backend.ProcessLidar(req.Context(), *lidar, gpx)
	if err != nil {
		h.sendBackendError(w, req, err)
		return
	}
	h.respondTrail(w, req, t)
}

// ConvertGNSS converts a raw GNSS log into a downloadable GPX file
func (h *Handlers) ConvertGNSS(w http.ResponseWriter, req *http.Request) {
	if !h.parseUploadForm(w, req) {
		return
	}

	raw, err := formUpload(req, "file")
	if err != nil {
		h.sendError(w, req, http.StatusBadRequest, "Invalid file upload", err)
		return
	}
	if raw == nil {
		h.sendError(w, req, http.StatusBadRequest, "A GNSS log file is required", nil)
		return
	}

	out, err := h.controller.Backend.ConvertGNSS(req.Context(), *raw)
	if err != nil {
		h.sendBackendError(w, req, err)
		return
	}

	err = h.formatter.WriteRaw(w, "application/gpx+xml", out, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", convertedFileName),
	})
	if err != nil {
		log.FromContext(req.Context()).Errorf("error writing converted gpx: %v", err)
	}
}

// UpdateTrail asks the backend to recompute a trail with a new threshold and split count
func (h *Handlers) UpdateTrail(w http.ResponseWriter, req *http.Request) {
	req.Body = http.MaxBytesReader(w, req.Body, h.controller.maxUploadBytes())

	var update backend.UpdateRequest
	if err := json.NewDecoder(req.Body).Decode(&update); err != nil {
		h.sendError(w, req, http.StatusBadRequest, "Invalid JSON payload", err)
		return
	}
	if err := update.Validate(); err != nil {
		h.sendError(w, req, http.StatusBadRequest, "Invalid update parameters", err)
		return
	}

	t, err := h.controller.Backend.Update(req.Context(), update)
	if err != nil {
		h.sendBackendError(w, req, err)
		return
	}
	h.respondTrail(w, req, t)
}

// GetHTTPLogs returns the most recent HTTP request log entries, oldest first
func (h *Handlers) GetHTTPLogs(w http.ResponseWriter, req *http.Request) {
	entries := log.GetHTTPLogBuffer().GetEntries()

	if s := req.URL.Query().Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 1 {
			h.sendError(w, req, http.StatusBadRequest, "limit must be a positive integer", err)
			return
		}
		if limit < len(entries) {
			entries = entries[len(entries)-limit:]
		}
	}

	h.writeResponse(w, req, HTTPLogsResponse{Logs: entries, Count: len(entries)})
}
