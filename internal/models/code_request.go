package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type RequestStatus string

const (
	StatusRequested  RequestStatus = "requested"
	StatusInProgress RequestStatus = "inprogress"
	StatusCompleted  RequestStatus = "completed"
)

// ESignApproved is the esign_status value required when e-sign is enabled.
const ESignApproved = "approved"

// rank orders statuses along the forward-only lifecycle.
func (s RequestStatus) rank() int {
	switch s {
	case StatusRequested:
		return 0
	case StatusInProgress:
		return 1
	case StatusCompleted:
		return 2
	}
	return -1
}

// CanAdvanceTo reports whether next is a forward transition from s.
func (s RequestStatus) CanAdvanceTo(next RequestStatus) bool {
	return s.rank() >= 0 && next.rank() > s.rank()
}

// Predecessors lists the statuses a request may hold before moving to s.
func (s RequestStatus) Predecessors() []RequestStatus {
	var out []RequestStatus
	for _, prev := range []RequestStatus{StatusRequested, StatusInProgress} {
		if prev.CanAdvanceTo(s) {
			out = append(out, prev)
		}
	}
	return out
}

type CodeRequest struct {
	ID                 string        `json:"id"`
	ProductID          string        `json:"product_id"`
	BatchID            string        `json:"batch_id"`
	PackagingHierarchy string        `json:"packaging_hierarchy"`
	NoOfCodes          int           `json:"no_of_codes"`
	GenerationID       string        `json:"generation_id"`
	Status             RequestStatus `json:"status"`
	ESignStatus        string        `json:"esign_status"`
	CreatedAt          time.Time     `json:"created_at"`
}

// Level parses the numeric packaging level out of a "level<N>" label.
func (r *CodeRequest) Level() (int, error) {
	return ParseLevel(r.PackagingHierarchy)
}

// ParseLevel parses labels such as "level0" or "level5".
func ParseLevel(label string) (int, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(label), "level")
	level, err := strconv.Atoi(raw)
	if err != nil || level < 0 {
		return 0, fmt.Errorf("invalid packaging hierarchy %q", label)
	}
	return level, nil
}

// IsContainerLevel reports whether a packaging level is allocated SSCC codes.
func IsContainerLevel(level int) bool {
	return level == 5 || level == 6
}
