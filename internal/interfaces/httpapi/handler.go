package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/tallink-tennis/fuss-tracker/internal/platform/logging"
	"github.com/tallink-tennis/fuss-tracker/internal/usecase"
)

const (
	defaultWriteWait = 5 * time.Second
	maxBodyBytes     = 1 << 20
)

// Services are the usecases the API dispatches to.
type Services struct {
	Auth       *usecase.AuthService
	Attendance *usecase.AttendanceService
	Groups     *usecase.GroupService
	Roster     *usecase.RosterService
	Schedule   *usecase.ScheduleService
	Feedback   *usecase.FeedbackService
	Stats      *usecase.StatsService
	Sync       *usecase.SyncService
	Export     *usecase.ExportService
}

type Handler struct {
	Services
	writeWait time.Duration
	logger    *logging.Logger
	validator *validator.Validate
}

// NewHandler builds the handler set. writeWait bounds ?wait=true requests.
func NewHandler(services Services, writeWait time.Duration, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if writeWait <= 0 {
		writeWait = defaultWriteWait
	}

	return &Handler{
		Services:  services,
		writeWait: writeWait,
		logger:    logger.Named("httpapi"),
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

// decodeRequest reads a JSON body into dst and validates it.
func (h *Handler) decodeRequest(ctx context.Context, r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", usecase.ErrInvalidInput)
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return h.validateRequest(ctx, dst)
}

func queryBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return v
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error, args ...any) {
	args = append(args, "error", err)
	if mapError(ctx, err).HTTPStatus >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, args...)
	} else {
		h.logger.WarnContext(ctx, msg, args...)
	}
	writeError(ctx, w, err)
}
