package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jsphweid/midigen/codec"
	"github.com/jsphweid/midigen/config"
	"github.com/jsphweid/midigen/constants"
	"github.com/jsphweid/midigen/generate"
	"github.com/jsphweid/midigen/logger"
	"github.com/jsphweid/midigen/model"
	"github.com/jsphweid/midigen/player"
)

// maxBars caps request size so generation time stays bounded.
// Overridden from config on startup.
var maxBars = 256

const maxUploadBody = 8 << 20

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the generation HTTP service",
	Long:  `Runs the generation HTTP service`,
	Run: func(cmd *cobra.Command, args []string) {
		serve()
	},
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{Error: detail})
}

// HandleGenerate turns a GenerationConfig request body into MIDI file
// bytes.
func HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var cfg model.GenerationConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "could not parse request body: "+err.Error())
		return
	}
	if cfg.Bars > maxBars {
		err := &model.InvalidConfigError{Field: "bars", Reason: "exceeds server maximum"}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	seq, warnings, err := generate.Generate(cfg)
	if err != nil {
		if model.IsInvalidConfig(err) {
			writeError(w, http.StatusBadRequest, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	data, err := codec.Encode(seq)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if len(warnings) > 0 {
		w.Header().Set("X-Midigen-Warning", strings.Join(warnings, "; "))
	}
	w.Header().Set("Content-Type", "audio/midi")
	w.Header().Set("Content-Disposition", `attachment; filename="generated.mid"`)
	w.Write(data)
}

// HandleInspect summarizes an uploaded MIDI stream, e.g. output of the
// piano transcription service.
func HandleInspect(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read request body: "+err.Error())
		return
	}
	seq, err := codec.Decode(data)
	if err != nil {
		if model.IsMalformedStream(err) {
			writeError(w, http.StatusBadRequest, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	res := model.InspectResponse{
		Tempo:           seq.Tempo,
		TicksPerBeat:    seq.TicksPerBeat,
		TimeSig:         timeSigString(seq.TimeSig),
		NumTracks:       len(seq.Tracks),
		NumNotes:        seq.NumNotes(),
		Bars:            seq.Bars(),
		DurationSeconds: seq.DurationSeconds(),
		AverageVelocity: int(seq.AverageVelocity()),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

// HandleAccompany adds a generated chord accompaniment to an uploaded
// MIDI file and returns the combined file. Key, scale, progression and
// velocity may be overridden via query parameters; everything else is
// derived from the upload.
func HandleAccompany(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read request body: "+err.Error())
		return
	}
	seq, err := codec.Decode(data)
	if err != nil {
		if model.IsMalformedStream(err) {
			writeError(w, http.StatusBadRequest, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	cfg, err := accompanyQueryConfig(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	combined, warnings, err := generate.Accompany(seq, cfg)
	if err != nil {
		if model.IsInvalidConfig(err) {
			writeError(w, http.StatusBadRequest, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	encoded, err := codec.Encode(combined)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(warnings) > 0 {
		w.Header().Set("X-Midigen-Warning", strings.Join(warnings, "; "))
	}
	w.Header().Set("Content-Type", "audio/midi")
	w.Header().Set("Content-Disposition", `attachment; filename="combined.mid"`)
	w.Write(encoded)
}

func accompanyQueryConfig(r *http.Request) (model.GenerationConfig, error) {
	q := r.URL.Query()
	cfg := model.GenerationConfig{
		Key:   q.Get("key"),
		Scale: q.Get("scale"),
	}
	if prog := q.Get("progression"); prog != "" {
		for _, entry := range strings.Split(prog, ",") {
			cfg.Progression = append(cfg.Progression, strings.TrimSpace(entry))
		}
	}
	if v := q.Get("velocity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > constants.MaxVelocity {
			return cfg, &model.InvalidConfigError{Field: "velocity", Reason: "must be between 1 and 127"}
		}
		cfg.Velocity = uint8(n)
	}
	return cfg, nil
}

// HandlePorts lists the MIDI devices visible to the server.
func HandlePorts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(player.Ports())
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func timeSigString(ts model.TimeSignature) string {
	return fmt.Sprintf("%v/%v", ts.Numerator, ts.Denominator)
}

// NewRouter wires the HTTP routes. Exported for the e2e tests.
func NewRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(requestLogger)
	router.HandleFunc("/api/generate", HandleGenerate).Methods("POST")
	router.HandleFunc("/api/accompany", HandleAccompany).Methods("POST")
	router.HandleFunc("/api/inspect", HandleInspect).Methods("POST")
	router.HandleFunc("/api/ports", HandlePorts).Methods("GET")
	router.HandleFunc("/healthz", handleHealth).Methods("GET")
	return router
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.New().String()
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Info("request",
			zap.String("id", reqID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)),
		)
	})
}

func serve() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, OutputPath: cfg.LogPath})
	maxBars = cfg.MaxBars
	codec.MaxTrackBytes = uint32(cfg.MaxTrackBytes)

	handler := cors.AllowAll().Handler(NewRouter())
	server := &http.Server{
		Addr:         cfg.Host + ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("serving", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
