package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/datagrid/internal/core"
	"github.com/JonMunkholm/datagrid/internal/logging"
)

// multipartOverhead is the allowance for multipart headers and boundaries on
// top of the file size limit.
const multipartOverhead = 64 << 10

// importResponse is the ImportResult plus what the server did with it.
type importResponse struct {
	core.ImportResult
	Applied bool   `json:"applied"`
	Version uint64 `json:"version"`
}

// handleImport parses an uploaded CSV against the store's columns. A clean
// import replaces the data; with ?partial=true the accepted rows of a file
// with row errors are applied too. One import runs at a time, counting a
// parse that outlived its request.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := s.limiter.Acquire(r.Context()); err != nil {
		status := http.StatusConflict
		if !errors.Is(err, core.ErrImportInProgress) {
			status = http.StatusServiceUnavailable
		}
		respondError(w, r, err, status)
		return
	}
	held := true
	defer func() {
		if held {
			s.limiter.Release()
		}
	}()

	data, filename, err := s.readUpload(w, r)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, core.ErrFileTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		respondError(w, r, err, status)
		return
	}

	partial, _ := strconv.ParseBool(r.URL.Query().Get("partial"))
	importLogger := logging.WithFields(r.Context(), "file", filename, "bytes", len(data), "partial", partial)
	importLogger.Info("import started")

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Import.Timeout)
	defer cancel()

	task := s.importer(ctx, bytes.NewReader(data), s.store.Columns())
	res, err := task.Wait(ctx)
	if err != nil {
		// The parse outlives the wait, so it keeps the slot until it ends.
		held = false
		go func() {
			<-task.Done()
			s.limiter.Release()
		}()

		status := http.StatusServiceUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		respondError(w, r, err, status)
		return
	}

	resp := importResponse{ImportResult: res, Version: s.store.Version()}
	if res.Success || (partial && len(res.Data) > 0) {
		resp.Version = s.store.ReplaceAllData(res.Data).Version
		resp.Applied = true
	}

	importLogger.Info("import finished",
		"success", res.Success,
		"rows", len(res.Data),
		"errors", len(res.Errors),
		"applied", resp.Applied,
	)

	writeJSON(w, r, http.StatusOK, resp)
}

// readUpload returns the CSV bytes from a multipart "file" field or, for any
// other content type, the raw body.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	limit := s.cfg.Import.MaxFileSize

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
		if err != nil {
			return nil, "", uploadError(err, limit)
		}
		if len(data) == 0 {
			return nil, "", core.ErrNoFile
		}
		return data, "body", nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", core.ErrNoFile, err)
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, "", core.ErrNoFile
		}
		if err != nil {
			return nil, "", uploadError(err, limit)
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}

		data, err := io.ReadAll(io.LimitReader(part, limit+1))
		part.Close()
		if err != nil {
			return nil, "", uploadError(err, limit)
		}
		if int64(len(data)) > limit {
			return nil, "", fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, limit)
		}
		return data, part.FileName(), nil
	}
}

func uploadError(err error, limit int64) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, limit)
	}
	return fmt.Errorf("read upload: %w", err)
}

func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.limiter.Status())
}

// handleExport streams the table as CSV. scope=all (default) exports every
// row in stored order; scope=view exports the filtered and sorted rows
// across all pages.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()

	var rows []core.Row
	switch scope := r.URL.Query().Get("scope"); scope {
	case "", "all":
		rows = snap.Rows
	case "view":
		rows = core.DeriveAll(snap)
	default:
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("unknown export scope %q", scope), "EXP001")
		return
	}

	data, err := core.ExportBytes(rows, snap.Columns)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeCSV(w, core.ExportFilename(time.Now()), data)
}

// handleTemplate returns a header-only CSV for preparing an import.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := core.WriteTemplate(&buf, s.store.Columns()); err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeCSV(w, "table_template.csv", buf.Bytes())
}

func writeCSV(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
