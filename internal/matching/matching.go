package matching

import (
	"context"

	"github.com/example/accessride/internal/directory"
	"github.com/example/accessride/internal/models"
)

// Service narrows the driver directory to candidates compatible with a
// booking's accessibility options.
type Service struct {
	Directory directory.DriverDirectory
}

func NewService(dir directory.DriverDirectory) *Service {
	return &Service{Directory: dir}
}

// FindCandidates returns every available driver whose vehicle satisfies all
// requested option tags, in the directory's enumeration order. An empty
// request matches everyone; no candidates is an empty slice, not an error.
func (s *Service) FindCandidates(ctx context.Context, options []string) ([]models.Driver, error) {
	avail, err := s.Directory.Available(ctx)
	if err != nil {
		return nil, err
	}
	if len(options) == 0 {
		return avail, nil
	}
	out := make([]models.Driver, 0, len(avail))
	for _, d := range avail {
		if Compatible(d, options) {
			out = append(out, d)
		}
	}
	return out, nil
}

// Compatible reports whether a driver satisfies every requested tag.
// "either" expresses no entry-side preference and always passes; every
// other tag must appear verbatim in the vehicle's feature set.
func Compatible(d models.Driver, options []string) bool {
	for _, opt := range options {
		if opt == models.OptEither {
			continue
		}
		if !d.Vehicle.HasFeature(opt) {
			return false
		}
	}
	return true
}
