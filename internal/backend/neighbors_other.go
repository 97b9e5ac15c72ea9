//go:build !linux

package backend

import (
	"context"
	"errors"

	"roamctl/internal/model"
)

func listNeighbors(context.Context) ([]model.Neighbor, error) {
	return nil, errors.New("neighbor table is only available on linux")
}
