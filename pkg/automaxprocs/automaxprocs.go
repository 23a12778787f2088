package automaxprocs

import (
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/mkadit/iso8583ebcdic/pkg/logger"
)

// Init sets GOMAXPROCS from the container CPU quota and returns the undo
// function.
func Init(log *logger.Logger) func() {
	undo, err := maxprocs.Set(maxprocs.Logger(log.Printf))
	if err != nil {
		log.Error().Err(err).Msg("failed to set automaxprocs")
		return func() {}
	}
	return undo
}
