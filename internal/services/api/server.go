package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/NordCoder/Krymon/internal/domain/service"
	"github.com/NordCoder/Krymon/internal/obs"
	"github.com/NordCoder/Krymon/internal/services/registry"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

var errBadBody = errors.New("request body is not a service")

type Server struct {
	log *zap.Logger
	uc  *registry.Usecase
}

func NewServer(log *zap.Logger, uc *registry.Usecase) *Server {
	return &Server{log: log, uc: uc}
}

// List answers with the whole registry, an empty one when nothing is stored.
func (s *Server) List(w http.ResponseWriter, r *http.Request) {
	reg, err := s.uc.List(r.Context())
	if err != nil {
		s.storeFailure(w, r, "list services", err)
		return
	}
	if err := writeJSON(w, http.StatusOK, service.Normalize(reg)); err != nil {
		obs.WithTrace(r.Context(), s.log).Error("encode services", zap.Error(err))
	}
}

func (s *Server) Add(w http.ResponseWriter, r *http.Request) {
	in, err := decodeNewService(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	svc, err := s.uc.Add(r.Context(), in)
	if err != nil {
		s.storeFailure(w, r, "add service", err)
		return
	}

	obs.WithTrace(r.Context(), s.log, obs.ServiceID(svc.ID)).Info("added service",
		zap.String("name", svc.Name), zap.String("url", svc.URL))
	w.Header().Set("Location", "/service/"+svc.ID)
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	log := obs.WithTrace(r.Context(), s.log, obs.ServiceID(id))

	removed, err := s.uc.Delete(r.Context(), id)
	if err != nil {
		s.storeFailure(w, r, "delete service", err)
		return
	}
	if !removed {
		log.Info("tried deleting non-existing service")
		w.WriteHeader(http.StatusNotFound)
		return
	}
	log.Info("deleted service")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) storeFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	obs.WithTrace(r.Context(), s.log).Error(op+" failed", zap.Error(err))
	w.WriteHeader(http.StatusInternalServerError)
}

func decodeNewService(body io.Reader) (service.NewService, error) {
	var in service.NewService
	dec := json.NewDecoder(io.LimitReader(body, maxBodyBytes))
	if err := dec.Decode(&in); err != nil {
		return service.NewService{}, errBadBody
	}
	return in, nil
}

// writeJSON encodes v before touching the response, so an encoding failure
// becomes a 500 instead of a truncated success.
func writeJSON(w http.ResponseWriter, code int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, err = w.Write(append(b, '\n'))
	return err
}
