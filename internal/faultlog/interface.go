package faultlog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Fault is a persisted record of a sensor that stayed nonfunctional past its
// error delay.
type Fault struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Fan       string    `json:"fan"`
	Sensor    string    `json:"sensor"`
	Input     float64   `json:"input"`
	Target    float64   `json:"target"`
	Deviation float64   `json:"deviation"`
	Message   string    `json:"message"`
}

// Repository stores fault records.
type Repository interface {
	Record(f *Fault) error
	List(ctx context.Context, limit int) ([]Fault, error)
	Close() error
}
