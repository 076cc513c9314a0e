package fees

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"QuickBill305/api"
	"QuickBill305/api/constants"
	"QuickBill305/internal/feeimport"
	"QuickBill305/internal/logger"
	"QuickBill305/internal/notification"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// multipart overhead allowed on top of the upload limit
const formOverhead = 1 << 20

// formMemory is how much of a multipart body is held in memory before
// net/http spills file parts to disk.
const formMemory = 8 << 20

type Handler struct {
	pipeline  *feeimport.Pipeline
	committer *feeimport.Committer
	notes     *notification.NotificationService
	maxBody   int64
}

func NewHandler(p *feeimport.Pipeline, c *feeimport.Committer, notes *notification.NotificationService, maxUpload int64) *Handler {
	return &Handler{pipeline: p, committer: c, notes: notes, maxBody: maxUpload + formOverhead}
}

// Router wires the fee routes. authMW must put an ActorContext on the
// request context.
func (h *Handler) Router(authMW func(http.Handler) http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(api.RequestLogger)
	r.HandleFunc("/fees/health", h.Health).Methods(http.MethodGet)

	secured := r.PathPrefix("/fees").Subrouter()
	secured.Use(api.LimitBody(h.maxBody), authMW)
	secured.HandleFunc("/import", h.Import).Methods(http.MethodPost)
	secured.HandleFunc("/import/template/{type}", h.Template).Methods(http.MethodGet)
	secured.HandleFunc("/notifications", h.Notifications).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.RespondWithError(w, http.StatusNotFound, constants.ErrRouteNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.RespondWithError(w, http.StatusMethodNotAllowed, constants.ErrMethodNotAllowed)
	})
	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Fees Service is active"))
}

// Import handles both wizard steps; the action field picks one.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFromCtx(r.Context())
	if !ok {
		api.RespondWithError(w, http.StatusUnauthorized, constants.ErrPleaseLogin)
		return
	}
	if err := parseForm(r); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			api.RespondWithError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File is too large. The limit is %d MB", (h.maxBody-formOverhead)>>20))
			return
		}
		api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidRequestBody)
		return
	}

	switch strings.ToLower(strings.TrimSpace(r.FormValue(constants.FieldAction))) {
	case constants.ActionUpload:
		h.upload(w, r, actor)
	case constants.ActionImport:
		h.commit(w, r, actor)
	default:
		api.RespondWithError(w, http.StatusBadRequest, constants.ErrUnknownAction)
	}
}

type uploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	*feeimport.UploadResult
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request, actor feeimport.ActorContext) {
	t, err := feeimport.ParseImportType(r.FormValue(constants.FieldImportType))
	if err != nil {
		respondImportError(w, err, nil)
		return
	}
	file, hdr, err := r.FormFile(constants.FieldFile)
	if err != nil {
		api.RespondWithError(w, http.StatusBadRequest, constants.ErrNoFileUploaded)
		return
	}
	defer file.Close()

	res, err := h.pipeline.Upload(t, hdr.Filename, hdr.Size, file)
	if err != nil {
		logger.L().Info("upload not accepted",
			zap.String("user_id", actor.UserID),
			zap.String("file", hdr.Filename),
			zap.String("kind", string(feeimport.KindOf(err))),
			zap.Error(err))
		respondImportError(w, err, res)
		return
	}
	api.RespondWithJSON(w, http.StatusOK, uploadResponse{
		Success:      true,
		Message:      constants.MsgImportPreviewReady,
		UploadResult: res,
	})
}

type commitResponse struct {
	Success bool `json:"success"`
	feeimport.ImportOutcome
}

func (h *Handler) commit(w http.ResponseWriter, r *http.Request, actor feeimport.ActorContext) {
	t, err := feeimport.ParseImportType(r.FormValue(constants.FieldImportType))
	if err != nil {
		respondImportError(w, err, nil)
		return
	}
	payload := strings.TrimSpace(r.FormValue(constants.FieldPreviewData))
	if payload == "" {
		api.RespondWithError(w, http.StatusBadRequest, constants.ErrMissingPreviewData)
		return
	}

	out, err := h.committer.Commit(r.Context(), actor, t, payload)
	if err != nil {
		respondImportError(w, err, nil)
		return
	}
	logger.GlobalLogger.LogAudit("fee import committed",
		zap.String("user_id", actor.UserID),
		zap.String("import_type", string(t)),
		zap.Int("inserted", out.Inserted),
		zap.Int("duplicate", out.Duplicate),
		zap.Int("failed", out.Failed),
		zap.String("client_ip", api.ClientIP(r)),
	)
	api.RespondWithJSON(w, http.StatusOK, commitResponse{Success: true, ImportOutcome: out})
}

// Template serves the example file for an import type.
func (h *Handler) Template(w http.ResponseWriter, r *http.Request) {
	t, err := feeimport.ParseImportType(mux.Vars(r)["type"])
	if err != nil {
		respondImportError(w, err, nil)
		return
	}
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "csv"
	}

	var (
		buf   bytes.Buffer
		ctype string
	)
	switch format {
	case "csv":
		ctype = constants.ContentTypeCSV
		err = feeimport.WriteTemplateCSV(&buf, t)
	case "xlsx":
		ctype = constants.ContentTypeXLSX
		err = feeimport.WriteTemplateXLSX(&buf, t)
	default:
		api.RespondWithError(w, http.StatusBadRequest, constants.ErrUnsupportedFormat)
		return
	}
	if err != nil {
		logger.L().Error("template not built", zap.String("import_type", string(t)), zap.String("format", format), zap.Error(err))
		api.RespondWithError(w, http.StatusInternalServerError, constants.ErrTemplateFailed)
		return
	}

	w.Header().Set(constants.ContentTypeText, ctype)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", feeimport.TemplateFileName(t, format)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Notifications drains the caller's flash messages.
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.ActorFromCtx(r.Context())
	if !ok {
		api.RespondWithError(w, http.StatusUnauthorized, constants.ErrPleaseLogin)
		return
	}
	api.RespondWithPayload(w, true, "", h.notes.Drain(actor.UserID))
}

func parseForm(r *http.Request) error {
	if strings.Contains(strings.ToLower(r.Header.Get(constants.ContentTypeText)), "multipart/form-data") {
		return r.ParseMultipartForm(formMemory)
	}
	return r.ParseForm()
}

func statusFor(kind feeimport.Kind) int {
	switch kind {
	case feeimport.KindUpload, feeimport.KindMalformedFile, feeimport.KindMalformedPayload:
		return http.StatusBadRequest
	case feeimport.KindRowValidation:
		return http.StatusUnprocessableEntity
	case feeimport.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondImportError writes {success:false, error, errors}. Row validation
// failures carry the per-row messages and the parse summary.
func respondImportError(w http.ResponseWriter, err error, res *feeimport.UploadResult) {
	kind := feeimport.KindOf(err)
	status := statusFor(kind)

	if kind == feeimport.KindRowValidation && res != nil {
		api.RespondWithErrors(w, status, constants.ErrRowsFailedToProcess, res.Errors, map[string]interface{}{
			"import_type": res.ImportType,
			"rows_parsed": res.RowsParsed,
			"blank_rows":  res.BlankRows,
			"truncated":   res.Truncated,
			"notices":     res.Notices,
		})
		return
	}
	if status == http.StatusInternalServerError {
		logger.L().Error("import request failed", zap.Error(err))
		api.RespondWithErrors(w, status, constants.ErrImportFailed, nil, nil)
		return
	}
	api.RespondWithErrors(w, status, err.Error(), []string{err.Error()}, nil)
}
