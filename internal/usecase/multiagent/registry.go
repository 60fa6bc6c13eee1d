package multiagent

import (
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/ruvenwang/mindponics/internal/domain"
)

// agentNames are the persona names of the specialists.
var agentNames = map[domain.Specialty]string{
	domain.SpecialtyWater:       "HydroGuardian",
	domain.SpecialtyFish:        "PiscinePro",
	domain.SpecialtyPlant:       "FloraFriend",
	domain.SpecialtyBacteria:    "BiofilterBuddy",
	domain.SpecialtyEnvironment: "ClimateController",
}

var specialtyTitles = map[domain.Specialty]string{
	domain.SpecialtyWater:       "Water quality",
	domain.SpecialtyFish:        "Fish health",
	domain.SpecialtyPlant:       "Plant growth",
	domain.SpecialtyBacteria:    "Biofilter and bacteria",
	domain.SpecialtyEnvironment: "Environment",
}

// OrchestratorName is the persona name of the router.
const OrchestratorName = "AquaMaestro"

// AgentName returns the persona name of the specialist for sp.
func AgentName(sp domain.Specialty) string {
	if n, ok := agentNames[sp]; ok {
		return n
	}
	return string(sp)
}

// WorkerID is the mailbox owner id of the specialist for sp.
func WorkerID(sp domain.Specialty) string {
	return strings.ToLower(AgentName(sp))
}

// Title is the human-readable heading for sp.
func Title(sp domain.Specialty) string {
	if t, ok := specialtyTitles[sp]; ok {
		return t
	}
	return string(sp)
}

// WorkerStatus describes a registered worker.
type WorkerStatus struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Specialty domain.Specialty `json:"specialty"`
}

// Registry holds one worker per specialty.
type Registry struct {
	mu      sync.RWMutex
	workers map[domain.Specialty]Worker
	logger  *slog.Logger
}

// NewRegistry creates an empty Registry. A nil logger discards output.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = discardLogger()
	}
	return &Registry{
		workers: make(map[domain.Specialty]Worker),
		logger:  logger,
	}
}

// Register adds a worker. Returns ErrDuplicate if its specialty is taken.
func (r *Registry) Register(w Worker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sp := w.Specialty()
	if _, exists := r.workers[sp]; exists {
		return domain.NewSubSystemError("worker", "Registry.Register", domain.ErrDuplicate, string(sp))
	}
	r.workers[sp] = w
	r.logger.Info("worker registered", "worker", w.ID(), "specialty", string(sp))
	return nil
}

// Get returns the worker for sp, or ErrNotFound.
func (r *Registry) Get(sp domain.Specialty) (Worker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.workers[sp]
	if !ok {
		return nil, domain.NewSubSystemError("worker", "Registry.Get", domain.ErrNotFound, string(sp))
	}
	return w, nil
}

// List returns registered workers in canonical specialty order.
func (r *Registry) List() []WorkerStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make([]WorkerStatus, 0, len(r.workers))
	for _, sp := range domain.AllSpecialties {
		if w, ok := r.workers[sp]; ok {
			statuses = append(statuses, WorkerStatus{ID: w.ID(), Name: AgentName(sp), Specialty: sp})
		}
	}
	return statuses
}

// Specialties returns the registered specialties in canonical order.
func (r *Registry) Specialties() []domain.Specialty {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Specialty, 0, len(r.workers))
	for _, sp := range domain.AllSpecialties {
		if _, ok := r.workers[sp]; ok {
			out = append(out, sp)
		}
	}
	return slices.Clip(out)
}

// Remove unregisters a worker. Returns ErrNotFound if not present.
func (r *Registry) Remove(sp domain.Specialty) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.workers[sp]; !ok {
		return domain.NewSubSystemError("worker", "Registry.Remove", domain.ErrNotFound, string(sp))
	}
	delete(r.workers, sp)
	r.logger.Info("worker removed", "specialty", string(sp))
	return nil
}
