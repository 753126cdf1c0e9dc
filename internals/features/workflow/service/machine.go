package service

import (
	"fmt"

	"github.com/google/uuid"
)

/* =========================================================
   Workflow machine — dipakai lintas domain (admissions,
   library, transport, recruitment, safeguarding).
   Komposisi per-instance, bukan satu hierarki monolitik:
   guard & required fields beda materiil tiap domain.
   ========================================================= */

// Reason codes transisi (wire contract).
const (
	CodeInvalidTransition       = "invalid_transition"
	CodeUnauthorizedActor       = "unauthorized_actor"
	CodeMissingRequiredFields   = "missing_required_documents"
	CodePendingOverrideApproval = "pending_override_approval"
	CodeStaleVersion            = "stale_version"
)

// TransitionError: penolakan transisi dengan reason code untuk caller.
type TransitionError struct {
	Code    string
	Message string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func Reject(code, format string, args ...any) *TransitionError {
	return &TransitionError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// StaleVersion: base version caller sudah basi — wajib re-fetch.
func StaleVersion(have, want int) *TransitionError {
	return Reject(CodeStaleVersion, "versi %d sudah basi (sekarang %d), re-fetch dulu", have, want)
}

/* =========================
   Apply request / outcome
   ========================= */

type ApplyRequest struct {
	Current   string
	Next      string
	ActorID   uuid.UUID
	ActorRole string
	Payload   map[string]any
}

// Outcome: state baru + instruksi side-effect untuk service pemanggil
// (mis. "recompute_completion", "create_workflow_steps").
type Outcome struct {
	NewState    string
	SideEffects []string
}

// Guard dievaluasi per transisi; return nil = lolos.
type Guard func(req ApplyRequest) *TransitionError

/* =========================
   Machine
   ========================= */

type Machine struct {
	Name string

	// edges state → daftar next state yang dideklarasikan
	Transitions map[string][]string

	// state terminal (tidak ada transisi keluar)
	Terminal map[string]bool

	// state lintas-alur yang bisa dicapai dari semua non-terminal
	// (mis. rejected, withdrawn, on_hold, requires_override)
	CrossCutting map[string]bool

	// checklist field wajib per target state; hilang → rejection
	RequiredFields map[string][]string

	// guards per edge, key "from->to"
	Guards map[string][]Guard

	// side-effects per edge, key "from->to"
	SideEffects map[string][]string
}

func edgeKey(from, to string) string { return from + "->" + to }

// AllowedTransitions: semua next state sah dari state ini.
func (m Machine) AllowedTransitions(from string) []string {
	if m.Terminal[from] {
		return nil
	}
	out := append([]string{}, m.Transitions[from]...)
	for cc := range m.CrossCutting {
		if cc != from {
			out = append(out, cc)
		}
	}
	return out
}

func (m Machine) CanTransition(from, to string) bool {
	for _, s := range m.AllowedTransitions(from) {
		if s == to {
			return true
		}
	}
	return false
}

// Apply mengevaluasi satu transisi. State hanya bergerak di edge yang
// dideklarasikan; transisi invalid DIKEMBALIKAN sebagai error, tidak
// dikoreksi diam-diam ke state terdekat.
func (m Machine) Apply(req ApplyRequest) (Outcome, error) {
	if req.Current == req.Next {
		return Outcome{}, Reject(CodeInvalidTransition, "state sudah %s", req.Current)
	}
	if !m.CanTransition(req.Current, req.Next) {
		return Outcome{}, Reject(CodeInvalidTransition,
			"transisi %s → %s tidak dideklarasikan di %s", req.Current, req.Next, m.Name)
	}

	// checklist field wajib target state
	for _, f := range m.RequiredFields[req.Next] {
		if v, ok := req.Payload[f]; !ok || v == nil || v == "" {
			return Outcome{}, Reject(CodeMissingRequiredFields, "field %q wajib untuk state %s", f, req.Next)
		}
	}

	// guards per edge
	for _, g := range m.Guards[edgeKey(req.Current, req.Next)] {
		if gerr := g(req); gerr != nil {
			return Outcome{}, gerr
		}
	}

	return Outcome{
		NewState:    req.Next,
		SideEffects: append([]string{}, m.SideEffects[edgeKey(req.Current, req.Next)]...),
	}, nil
}
